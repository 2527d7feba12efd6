// Package preflight provides readiness checks for the paths, binaries and
// endpoints stitchcast depends on.
//
// `stitchcast check` prints every result; the runtime runs the same checks at
// start and logs failures without refusing to run, since the backend may come
// up later.
package preflight
