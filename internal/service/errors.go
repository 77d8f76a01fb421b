package service

import (
	"errors"

	"github.com/godbus/dbus/v5"

	dbtypes "github.com/nikicat/pass-engine/internal/dbus"
	"github.com/nikicat/pass-engine/internal/store"
)

// D-Bus error names for the engine API
const (
	ErrUnknownKind = dbtypes.ErrorBase + ".UnknownKind"
	ErrIndexFailed = dbtypes.ErrorBase + ".IndexFailed"
	ErrFailed      = dbtypes.ErrorBase + ".Failed"
	ErrInvalidArgs = "org.freedesktop.DBus.Error.InvalidArgs"
)

// NewDBusError creates a new D-Bus error
func NewDBusError(name, message string) *dbus.Error {
	return &dbus.Error{
		Name: name,
		Body: []interface{}{message},
	}
}

// ErrKind returns an UnknownKind error
func ErrKind(msg string) *dbus.Error {
	return NewDBusError(ErrUnknownKind, msg)
}

// ErrInvalidID returns an InvalidArgs error
func ErrInvalidID(msg string) *dbus.Error {
	return NewDBusError(ErrInvalidArgs, msg)
}

// toDBusError maps an engine error to its D-Bus error
func toDBusError(err error) *dbus.Error {
	if err == nil {
		return nil
	}
	if errors.Is(err, store.ErrIndex) {
		return NewDBusError(ErrIndexFailed, err.Error())
	}
	return NewDBusError(ErrFailed, err.Error())
}
