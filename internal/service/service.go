// Package service exports an engine on the D-Bus session bus
package service

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/prop"

	"github.com/nikicat/pass-engine/internal/config"
	dbtypes "github.com/nikicat/pass-engine/internal/dbus"
	"github.com/nikicat/pass-engine/internal/dispatch"
	"github.com/nikicat/pass-engine/internal/engine"
	"github.com/nikicat/pass-engine/internal/store"
)

// Service implements the io.github.nikicat.PassEngine interface
type Service struct {
	conn   *dbus.Conn
	engine *engine.Engine
	cfg    *config.Config
	logger *log.Logger
	props  *prop.Properties

	// emit sends a signal from the service object
	emit func(name string, args ...interface{}) error

	mu      sync.Mutex
	entries []string
}

// New creates a service for eng on conn
func New(conn *dbus.Conn, eng *engine.Engine, cfg *config.Config, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	s := &Service{
		conn:   conn,
		engine: eng,
		cfg:    cfg,
		logger: logger,
	}
	s.emit = func(name string, args ...interface{}) error {
		return s.conn.Emit(dbtypes.ServicePath, dbtypes.Member(name), args...)
	}
	s.entries = ids(eng.Entries())
	return s
}

// Start exports the service and acquires the D-Bus name
func (s *Service) Start() error {
	if err := s.conn.Export(s, dbtypes.ServicePath, dbtypes.Interface); err != nil {
		return fmt.Errorf("failed to export service: %w", err)
	}

	propsSpec := map[string]map[string]*prop.Prop{
		dbtypes.Interface: {
			dbtypes.PropertyEntries: {
				Value:    s.Entries(),
				Writable: false,
				Emit:     prop.EmitTrue,
			},
		},
	}
	props, err := prop.Export(s.conn, dbtypes.ServicePath, propsSpec)
	if err != nil {
		return fmt.Errorf("failed to export properties: %w", err)
	}
	s.mu.Lock()
	s.props = props
	s.mu.Unlock()

	if err := s.conn.Export(introspect(introspectionXML), dbtypes.ServicePath, "org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export introspection: %w", err)
	}

	flags := dbus.NameFlagDoNotQueue
	if s.cfg.Replace {
		flags |= dbus.NameFlagReplaceExisting
	}

	reply, err := s.conn.RequestName(dbtypes.ServiceName, flags)
	if err != nil {
		return fmt.Errorf("failed to request name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("name %s already taken", dbtypes.ServiceName)
	}

	s.logger.Infof("Acquired D-Bus name: %s", dbtypes.ServiceName)
	return nil
}

// Run publishes engine events as signals until the event channel is closed
func (s *Service) Run() {
	for ev := range s.engine.Events() {
		s.publish(ev)
	}
}

// Stop releases the name and closes the connection
func (s *Service) Stop() error {
	if _, err := s.conn.ReleaseName(dbtypes.ServiceName); err != nil {
		return err
	}
	return s.conn.Close()
}

// Reindex rescans the store and updates the Entries property
func (s *Service) Reindex() error {
	if err := s.engine.Refresh(); err != nil {
		return err
	}
	entries := ids(s.engine.Entries())

	s.mu.Lock()
	s.entries = entries
	props := s.props
	s.mu.Unlock()

	if props != nil {
		props.SetMust(dbtypes.Interface, dbtypes.PropertyEntries, entries)
	}
	return nil
}

// Entries returns the IDs exposed in the Entries property
func (s *Service) Entries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries
}

// Request implements io.github.nikicat.PassEngine.Request. An empty
// operation ID means the same operation is already running.
func (s *Service) Request(kind, id string) (string, *dbus.Error) {
	k, err := dispatch.ParseKind(kind)
	if err != nil {
		return "", ErrKind(err.Error())
	}
	return s.request(k, id)
}

// CopyID implements io.github.nikicat.PassEngine.CopyID
func (s *Service) CopyID(id string) (string, *dbus.Error) {
	return s.request(dispatch.CopyID, id)
}

// CopyPassword implements io.github.nikicat.PassEngine.CopyPassword
func (s *Service) CopyPassword(id string) (string, *dbus.Error) {
	return s.request(dispatch.CopyPassword, id)
}

// CopyLogin implements io.github.nikicat.PassEngine.CopyLogin
func (s *Service) CopyLogin(id string) (string, *dbus.Error) {
	return s.request(dispatch.CopyLogin, id)
}

// CopyOTP implements io.github.nikicat.PassEngine.CopyOTP
func (s *Service) CopyOTP(id string) (string, *dbus.Error) {
	return s.request(dispatch.CopyOTP, id)
}

// FetchOTP implements io.github.nikicat.PassEngine.FetchOTP
func (s *Service) FetchOTP(id string) (string, *dbus.Error) {
	return s.request(dispatch.FetchOTP, id)
}

// FetchEntry implements io.github.nikicat.PassEngine.FetchEntry
func (s *Service) FetchEntry(id string) (string, *dbus.Error) {
	return s.request(dispatch.FetchEntry, id)
}

// Refresh implements io.github.nikicat.PassEngine.Refresh
func (s *Service) Refresh() *dbus.Error {
	return toDBusError(s.Reindex())
}

// List implements io.github.nikicat.PassEngine.List
func (s *Service) List() ([]string, *dbus.Error) {
	return s.Entries(), nil
}

func (s *Service) request(kind dispatch.Kind, id string) (string, *dbus.Error) {
	if err := store.ValidateID(id); err != nil {
		return "", ErrInvalidID(err.Error())
	}
	opID, accepted := s.engine.Request(kind, id)
	if !accepted {
		s.logger.Debugf("Request %s for %s suppressed", kind, id)
		return "", nil
	}
	return opID, nil
}

func (s *Service) publish(ev dispatch.Event) {
	name, args := dbtypes.EncodeEvent(ev)
	if err := s.emit(name, args...); err != nil {
		s.logger.Warnf("Failed to emit %s for %s: %v", name, ev.OpID, err)
	}
}

func ids(infos []store.CredentialInfo) []string {
	out := make([]string, len(infos))
	for i, info := range infos {
		out[i] = info.ID
	}
	return out
}

type introspect string

func (i introspect) Introspect() (string, *dbus.Error) {
	return string(i), nil
}

const introspectionXML = `<node>
  <interface name="org.freedesktop.DBus.Properties">
    <method name="Get">
      <arg name="interface" type="s" direction="in"/>
      <arg name="property" type="s" direction="in"/>
      <arg name="value" type="v" direction="out"/>
    </method>
    <method name="GetAll">
      <arg name="interface" type="s" direction="in"/>
      <arg name="properties" type="a{sv}" direction="out"/>
    </method>
  </interface>
  <interface name="io.github.nikicat.PassEngine">
    <method name="Request">
      <arg name="kind" type="s" direction="in"/>
      <arg name="id" type="s" direction="in"/>
      <arg name="operation" type="s" direction="out"/>
    </method>
    <method name="CopyID">
      <arg name="id" type="s" direction="in"/>
      <arg name="operation" type="s" direction="out"/>
    </method>
    <method name="CopyPassword">
      <arg name="id" type="s" direction="in"/>
      <arg name="operation" type="s" direction="out"/>
    </method>
    <method name="CopyLogin">
      <arg name="id" type="s" direction="in"/>
      <arg name="operation" type="s" direction="out"/>
    </method>
    <method name="CopyOTP">
      <arg name="id" type="s" direction="in"/>
      <arg name="operation" type="s" direction="out"/>
    </method>
    <method name="FetchOTP">
      <arg name="id" type="s" direction="in"/>
      <arg name="operation" type="s" direction="out"/>
    </method>
    <method name="FetchEntry">
      <arg name="id" type="s" direction="in"/>
      <arg name="operation" type="s" direction="out"/>
    </method>
    <method name="Refresh"/>
    <method name="List">
      <arg name="entries" type="as" direction="out"/>
    </method>
    <signal name="Status">
      <arg name="operation" type="s"/>
      <arg name="kind" type="s"/>
      <arg name="id" type="s"/>
      <arg name="ok" type="b"/>
      <arg name="message" type="s"/>
    </signal>
    <signal name="SecretReady">
      <arg name="operation" type="s"/>
      <arg name="kind" type="s"/>
      <arg name="id" type="s"/>
      <arg name="field" type="s"/>
      <arg name="value" type="s"/>
    </signal>
    <property name="Entries" type="as" access="read"/>
  </interface>
</node>`
