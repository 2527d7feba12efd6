// Package notifications pushes runtime events to ntfy.
//
// The topic comes from config.toml ([notifications] ntfy_topic); without one
// NewService returns a no-op. Veto and upload events can be switched off
// individually so a busy rig does not spam the phone.
package notifications
