// Package state persists the single alarm state value across reboots.
//
// The FileRepository stores a two-byte versioned record {version, code}
// with codes 0=Disarmed, 1=Armed, 2=Triggered, 3=Error. Anything else reads
// back as ValueUnknown, which the controller treats as Disarmed.
package state
