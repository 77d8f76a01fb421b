package dbus

import (
	"context"
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/nikicat/pass-engine/internal/dispatch"
)

// ErrSuppressed is returned when the running engine dropped a request
// because the same operation is still in flight
var ErrSuppressed = errors.New("operation already running")

// Client talks to a running engine on the session bus
type Client struct {
	conn    *dbus.Conn
	obj     dbus.BusObject
	signals chan *dbus.Signal
}

// Dial connects to the session bus and subscribes to engine signals
func Dial() (*Client, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	c, err := NewClient(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return c, nil
}

// NewClient subscribes to engine signals on conn. Signals are matched before
// any request is made so no result can be missed.
func NewClient(conn *dbus.Conn) (*Client, error) {
	err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath(ServicePath),
		dbus.WithMatchInterface(Interface),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to signals: %w", err)
	}

	c := &Client{
		conn:    conn,
		obj:     conn.Object(ServiceName, ServicePath),
		signals: make(chan *dbus.Signal, 16),
	}
	conn.Signal(c.signals)
	return c, nil
}

// Request asks the engine to run kind for id and returns the operation ID
func (c *Client) Request(ctx context.Context, kind dispatch.Kind, id string) (string, error) {
	var opID string
	err := c.obj.CallWithContext(ctx, Member(MethodRequest), 0, kind.String(), id).Store(&opID)
	if err != nil {
		return "", err
	}
	if opID == "" {
		return "", ErrSuppressed
	}
	return opID, nil
}

// Await blocks until the event of opID arrives
func (c *Client) Await(ctx context.Context, opID string) (dispatch.Event, error) {
	for {
		select {
		case <-ctx.Done():
			return dispatch.Event{}, ctx.Err()
		case sig, ok := <-c.signals:
			if !ok {
				return dispatch.Event{}, errors.New("connection closed")
			}
			if sig.Path != ServicePath {
				continue
			}
			ev, err := DecodeSignal(sig)
			if err != nil || ev.OpID != opID {
				continue
			}
			return ev, nil
		}
	}
}

// Do requests kind for id and waits for its result
func (c *Client) Do(ctx context.Context, kind dispatch.Kind, id string) (dispatch.Event, error) {
	opID, err := c.Request(ctx, kind, id)
	if err != nil {
		return dispatch.Event{}, err
	}
	return c.Await(ctx, opID)
}

// List returns the IDs indexed by the engine
func (c *Client) List(ctx context.Context) ([]string, error) {
	var ids []string
	err := c.obj.CallWithContext(ctx, Member(MethodList), 0).Store(&ids)
	return ids, err
}

// Refresh asks the engine to rescan the store
func (c *Client) Refresh(ctx context.Context) error {
	return c.obj.CallWithContext(ctx, Member(MethodRefresh), 0).Err
}

// Close unsubscribes and closes the connection
func (c *Client) Close() error {
	c.conn.RemoveSignal(c.signals)
	return c.conn.Close()
}
