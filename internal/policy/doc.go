// Package policy decides the side effects of sensor reports and of sensor
// staleness for each alarm state, and answers arming eligibility questions.
//
// The controller owns all mutable state; the policy only writes activity
// entries and the fault chime timestamp of the sensor it is handed.
package policy
