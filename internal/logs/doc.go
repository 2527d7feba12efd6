// Package logs reads the runtime log file for `stitchcast logs`.
//
// Last returns the final lines with bounded memory; Follow polls from an
// offset and hands each new line to a callback until the context ends.
package logs
