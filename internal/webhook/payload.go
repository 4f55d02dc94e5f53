package webhook

import (
	"encoding/json"
	"strings"

	"call-pipeline/internal/calls"
)

// EventCallCompleted is the only event type this service processes; every
// other type is acknowledged and dropped.
const EventCallCompleted = "call.completed"

// Envelope captures the subset of the JustCall webhook body we care about.
// JustCall sends the event name under either "type" or "event" depending on
// webhook generation.
//
// Keep it minimal and provider-adapter-only. Business logic (outcome
// derivation) is not made here.
type Envelope struct {
	Type  string    `json:"type"`
	Event string    `json:"event"`
	Data  EventData `json:"data"`
}

type EventData struct {
	CallSID        string `json:"call_sid"`
	JustCallNumber string `json:"justcall_number"`
	ContactNumber  string `json:"contact_number"`

	CallInfo struct {
		Direction string `json:"direction"`
		Type      string `json:"type"`
		Recording string `json:"recording"`
	} `json:"call_info"`

	CallDuration struct {
		TotalDuration json.Number `json:"total_duration"`
	} `json:"call_duration"`
}

// ParseEnvelope decodes a webhook body. A decode error here is a client
// input error (malformed JSON), never a degradation.
func ParseEnvelope(body []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Envelope{}, err
	}
	return env, nil
}

// EventType returns the lowercased event name from whichever key carried it.
func (e Envelope) EventType() string {
	if e.Type != "" {
		return strings.ToLower(e.Type)
	}
	return strings.ToLower(e.Event)
}

// ToCallEvent normalizes the raw payload into the domain event: phones
// canonicalized, direction and status lowercased and folded into enums.
// Validation happens downstream, before any external call.
func (e Envelope) ToCallEvent() calls.CallEvent {
	d := e.Data

	duration := 0
	if n, err := d.CallDuration.TotalDuration.Int64(); err == nil && n > 0 {
		duration = int(n)
	} else if f, err := d.CallDuration.TotalDuration.Float64(); err == nil && f > 0 {
		duration = int(f)
	}

	return calls.CallEvent{
		CallSID:         d.CallSID,
		Direction:       calls.ParseDirection(strings.ToLower(strings.TrimSpace(d.CallInfo.Direction))),
		RawStatus:       strings.ToLower(strings.TrimSpace(d.CallInfo.Type)),
		PartnerNumber:   calls.NormalizePhone(d.JustCallNumber),
		CustomerNumber:  calls.NormalizePhone(d.ContactNumber),
		DurationSeconds: duration,
		RecordingURL:    strings.TrimSpace(d.CallInfo.Recording),
	}
}
