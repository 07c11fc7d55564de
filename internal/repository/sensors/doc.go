// Package sensors persists the sensor registry: which sensors exist, their
// user-assigned names and whether they take part in the alarm.
//
// The registry is a JSON document {"sensors":[{"id","enabled","name"}]}
// where ids are hex strings and enabled is the string "true" or "false".
package sensors
