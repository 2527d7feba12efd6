// Package config loads, normalizes, and validates stitchcast configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// STITCHCAST_STREAM_URL. The Config type centralizes every knob the runtime
// and CLI need: capture preferences handed to the backend, the backend and
// control sockets, upload destinations, and logging.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
