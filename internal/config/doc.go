// Package config defines the YAML settings of the alarm controller and its
// operator CLI, and provides helpers to load, validate and save them.
//
// Validate fills every omitted timing and path with the defaults declared in
// this package, so a minimal file only needs server_addr.
package config
