// Package client implements the alarmctl operator commands.
//
// Arm and disarm retry until the controller confirms the requested state or
// refuses it outright; the listing commands print sensors and the activity
// log as tables.
package client
