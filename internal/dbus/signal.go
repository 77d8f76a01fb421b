package dbus

import (
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/nikicat/pass-engine/internal/dispatch"
)

// ErrRemote wraps a failure reported by the engine in a Status signal
var ErrRemote = errors.New("remote operation failed")

// EncodeEvent returns the signal name and body for an event.
//
// Status:      (opID s, kind s, id s, ok b, message s)
// SecretReady: (opID s, kind s, id s, field s, value s)
func EncodeEvent(ev dispatch.Event) (string, []interface{}) {
	if ev.Type == dispatch.SecretEvent && ev.Err == nil {
		return SignalSecretReady, []interface{}{
			ev.OpID, ev.Kind.String(), ev.ID, string(ev.Field), ev.Value,
		}
	}

	message := ev.Message
	if ev.Err != nil {
		message = ev.Err.Error()
	}
	return SignalStatus, []interface{}{
		ev.OpID, ev.Kind.String(), ev.ID, ev.Err == nil, message,
	}
}

// DecodeSignal turns a signal emitted by the engine back into an event
func DecodeSignal(sig *dbus.Signal) (dispatch.Event, error) {
	var ev dispatch.Event

	switch sig.Name {
	case Member(SignalStatus):
		var ok bool
		var kind, message string
		if err := dbus.Store(sig.Body, &ev.OpID, &kind, &ev.ID, &ok, &message); err != nil {
			return ev, fmt.Errorf("decoding %s: %w", sig.Name, err)
		}
		ev.Type = dispatch.StatusEvent
		if ok {
			ev.Message = message
		} else {
			ev.Err = fmt.Errorf("%w: %s", ErrRemote, message)
		}
		return ev, setKind(&ev, kind)

	case Member(SignalSecretReady):
		var kind, field string
		if err := dbus.Store(sig.Body, &ev.OpID, &kind, &ev.ID, &field, &ev.Value); err != nil {
			return ev, fmt.Errorf("decoding %s: %w", sig.Name, err)
		}
		ev.Type = dispatch.SecretEvent
		ev.Field = dispatch.Field(field)
		return ev, setKind(&ev, kind)

	default:
		return ev, fmt.Errorf("unexpected signal %s", sig.Name)
	}
}

func setKind(ev *dispatch.Event, name string) error {
	kind, err := dispatch.ParseKind(name)
	if err != nil {
		return err
	}
	ev.Kind = kind
	return nil
}
