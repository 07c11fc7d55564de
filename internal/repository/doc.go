// Package repository holds the file helpers shared by the controller's
// persistence packages (state, sensors and the activity log storage).
package repository
