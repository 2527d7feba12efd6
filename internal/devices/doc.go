// Package devices tracks attached capture cameras.
//
// Monitor listens on the udev netlink socket for video4linux add/remove
// events and turns them into DeviceAttached / DeviceDetached store actions.
// Scan lists the nodes already present so the store can be seeded at start.
// Connecting to netlink is best effort: without permission the runtime keeps
// working with whatever Scan found.
package devices
