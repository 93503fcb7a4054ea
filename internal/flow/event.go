package flow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tablemoney/moneybot/internal/session"
)

// MaxPayloadLen is the limit the chat platform puts on button data.
const MaxPayloadLen = 64

// EventKind classifies inbound events.
type EventKind int

const (
	EventCommand EventKind = iota
	EventText
	EventButton
)

// Event is one inbound turn, already decoded by the transport.
type Event struct {
	Kind    EventKind
	UserID  int64
	ChatID  int64
	Command string // without the leading slash
	Text    string

	// Payload is set for button presses whose data decoded cleanly; Raw keeps
	// the undecoded data.
	Payload    Payload
	Raw        string
	CallbackID string
}

// Payload is the structured data behind a button.
type Payload struct {
	Flow  session.Flow
	Step  session.Step
	Value string
}

// ErrBadPayload marks button data that is not a Payload.
var ErrBadPayload = errors.New("bad button payload")

// Encode renders p as "flow|step|value".
func (p Payload) Encode() string {
	return string(p.Flow) + "|" + string(p.Step) + "|" + p.Value
}

// DecodePayload parses data produced by Encode.
func DecodePayload(data string) (Payload, error) {
	if len(data) > MaxPayloadLen {
		return Payload{}, fmt.Errorf("%w: %d bytes", ErrBadPayload, len(data))
	}
	parts := strings.SplitN(data, "|", 3)
	if len(parts) != 3 {
		return Payload{}, fmt.Errorf("%w: %q", ErrBadPayload, data)
	}
	p := Payload{Flow: session.Flow(parts[0]), Step: session.Step(parts[1]), Value: parts[2]}
	if !p.Flow.Valid() {
		return Payload{}, fmt.Errorf("%w: unknown flow %q", ErrBadPayload, parts[0])
	}
	if p.Step == "" {
		return Payload{}, fmt.Errorf("%w: empty step", ErrBadPayload)
	}
	return p, nil
}

// Choice is one button of a prompt.
type Choice struct {
	Label   string
	Payload Payload
}
