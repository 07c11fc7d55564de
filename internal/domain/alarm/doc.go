// Package alarm contains the domain types of the alarm controller.
//
// It defines the alarm State machine values, contact Sensor records, the
// activity log Event model, the Actions produced by the policy and the
// errors the operator API maps to status codes.
package alarm
