package main

import (
	"context"
	"errors"
	"fmt"

	dbtypes "github.com/nikicat/pass-engine/internal/dbus"
	"github.com/nikicat/pass-engine/internal/dispatch"
)

// do runs one operation and returns its event. Locally the engine lives until
// finish is called, which waits for the clipboard window (or ctx) and then
// scrubs whatever is still exposed. Remotely the running service owns the
// clipboard and finish returns at once.
func (a *app) do(ctx context.Context, kind dispatch.Kind, id string, remote bool) (dispatch.Event, func(context.Context), error) {
	if remote {
		return a.doRemote(ctx, kind, id)
	}

	eng, release, err := a.newEngine(ctx)
	if err != nil {
		return dispatch.Event{}, nil, err
	}
	if _, ok := eng.Lookup(id); !ok {
		a.logger.Debugf("%s is not in the index of %s", id, a.cfg.StorePath)
	}

	shutdown := func() {
		eng.Close()
		release()
	}

	if _, ok := eng.Request(kind, id); !ok {
		shutdown()
		return dispatch.Event{}, nil, fmt.Errorf("%s for %s was not started", kind, id)
	}

	var ev dispatch.Event
	select {
	case ev = <-eng.Events():
	case <-ctx.Done():
		shutdown()
		return dispatch.Event{}, nil, ctx.Err()
	}
	if ev.Err != nil {
		shutdown()
		return ev, nil, ev.Err
	}

	finish := func(ctx context.Context) {
		done := make(chan struct{})
		go func() {
			eng.WaitClipboard()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			a.logger.Debug("Interrupted, clearing clipboard early")
		}
		shutdown()
	}
	return ev, finish, nil
}

func (a *app) doRemote(ctx context.Context, kind dispatch.Kind, id string) (dispatch.Event, func(context.Context), error) {
	client, err := dbtypes.Dial()
	if err != nil {
		return dispatch.Event{}, nil, err
	}
	defer client.Close()

	ev, err := client.Do(ctx, kind, id)
	if errors.Is(err, dbtypes.ErrSuppressed) {
		return ev, nil, fmt.Errorf("%s for %s is already running", kind, id)
	}
	if err != nil {
		return ev, nil, err
	}
	if ev.Err != nil {
		return ev, nil, ev.Err
	}
	return ev, func(context.Context) {}, nil
}
