package dispatch

// EventType tells which fields of an Event are set
type EventType int

const (
	// StatusEvent carries Message on success or Err on failure
	StatusEvent EventType = iota

	// SecretEvent carries Field and Value
	SecretEvent
)

// Field names the secret carried by a SecretEvent
type Field string

const (
	FieldEntry Field = "entry"
	FieldOTP   Field = "otp"
)

// Event is the result of one dispatched operation
type Event struct {
	Type EventType

	// OpID identifies the accepted request that produced the event
	OpID string
	Kind Kind
	ID   string

	Message string
	Err     error

	Field Field
	Value string
}

// Status returns a successful status event with an optional message
func Status(message string) Event {
	return Event{Type: StatusEvent, Message: message}
}

// Secret returns an event carrying a retrieved secret
func Secret(field Field, value string) Event {
	return Event{Type: SecretEvent, Field: field, Value: value}
}

// Failed returns a failed status event
func Failed(err error) Event {
	return Event{Type: StatusEvent, Err: err}
}

// OK reports whether the event is not a failure
func (e Event) OK() bool {
	return e.Err == nil
}
