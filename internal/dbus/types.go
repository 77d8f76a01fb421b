// Package dbus holds the names and wire encoding of the pass-engine D-Bus API
package dbus

import (
	"github.com/godbus/dbus/v5"
)

// Interface is the D-Bus interface name of the engine
const Interface = "io.github.nikicat.PassEngine"

// ServiceName is the well-known D-Bus name of the engine
const ServiceName = "io.github.nikicat.PassEngine"

// ServicePath is the object path the engine is exported at
const ServicePath = dbus.ObjectPath("/io/github/nikicat/PassEngine")

// ErrorBase prefixes every error name returned by the engine
const ErrorBase = Interface + ".Error"

// Member names
const (
	MethodRequest = "Request"
	MethodRefresh = "Refresh"
	MethodList    = "List"

	PropertyEntries = "Entries"

	SignalStatus      = "Status"
	SignalSecretReady = "SecretReady"
)

// Member returns the fully qualified name of a method or signal
func Member(name string) string {
	return Interface + "." + name
}
