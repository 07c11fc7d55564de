// Package reporter implements "alarmctl report", which publishes one sensor
// report to the MQTT broker. It stands in for a contact sensor when testing
// an installation.
package reporter
