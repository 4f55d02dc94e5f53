package calls

import "fmt"

// CallEvent is the normalized form of a provider "call completed" webhook.
//
// Phone numbers are already passed through NormalizePhone and the direction
// and status are lowercased before this struct is built; downstream code
// never sees raw provider strings.
type CallEvent struct {
	CallSID        string    `json:"call_sid"`
	Direction      Direction `json:"direction"`
	RawStatus      string    `json:"raw_status"`
	PartnerNumber  string    `json:"partner_number"`
	CustomerNumber string    `json:"customer_number"`

	DurationSeconds int    `json:"duration"`
	RecordingURL    string `json:"recording_url,omitempty"`
}

// Validate checks the fields required before any classification work starts.
// It returns a *ValidationError naming the first missing field.
func (e CallEvent) Validate() error {
	switch {
	case e.CallSID == "":
		return &ValidationError{Field: "call_sid"}
	case e.PartnerNumber == "":
		return &ValidationError{Field: "partner_number"}
	case e.CustomerNumber == "":
		return &ValidationError{Field: "customer_number"}
	case e.Direction == "":
		return &ValidationError{Field: "direction"}
	}
	return nil
}

// ValidationError marks a client input error: the event is missing a field
// the pipeline cannot run without. Distinct from transcription/classification
// degradation, which never aborts a call.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Field)
}

type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// ParseDirection maps provider direction strings (JustCall sends
// "incoming"/"outgoing") onto the internal enum. Unknown input maps to the
// empty Direction, which fails validation.
func ParseDirection(s string) Direction {
	switch s {
	case "incoming", "inbound":
		return DirectionInbound
	case "outgoing", "outbound":
		return DirectionOutbound
	}
	return ""
}

// StatusCategory is the closed set the outcome engine branches on. Free-text
// provider statuses are folded into it up front so there is no string
// comparison, and no silent fall-through, inside the state machine.
type StatusCategory string

const (
	StatusVoicemail StatusCategory = "voicemail"
	StatusMissed    StatusCategory = "missed"
	StatusAnswered  StatusCategory = "answered"

	// StatusOther covers provider statuses we do not recognize. Inbound
	// treats it like an answered call, outbound like a not-answered one.
	StatusOther StatusCategory = "other"
)

// CategorizeStatus folds a lowercased provider status into a StatusCategory.
func CategorizeStatus(raw string) StatusCategory {
	switch raw {
	case "voicemail":
		return StatusVoicemail
	case "missed", "no_answer", "noanswer", "busy", "abandoned", "unanswered", "canceled":
		return StatusMissed
	case "answered", "completed":
		return StatusAnswered
	}
	return StatusOther
}

type FinalStatus string

const (
	FinalStatusAnswered  FinalStatus = "answered"
	FinalStatusMissed    FinalStatus = "missed"
	FinalStatusVoicemail FinalStatus = "voicemail"
)

type MissedBy string

const (
	MissedByPartner  MissedBy = "partner"
	MissedByCustomer MissedBy = "customer"
)

// CallOutcome is the unit of persistence: one row per call SID, upserted so
// re-delivery of the same event replaces rather than duplicates.
//
// Invariants:
//   - FinalStatus == voicemail implies Voicemail == true and MissedBy == partner.
//   - FinalStatus == missed implies MissedBy is set.
//   - Chargeable is true only when a transcript was classified as genuine.
//   - At most one of Transcript / VoicemailTranscript is populated.
type CallOutcome struct {
	CallSID        string    `json:"call_sid" db:"call_sid"`
	PartnerID      string    `json:"partner_id,omitempty" db:"partner_id"`
	CustomerNumber string    `json:"customer_number" db:"customer_number"`
	Direction      Direction `json:"call_direction" db:"call_direction"`

	DurationSeconds int    `json:"duration" db:"duration"`
	RecordingURL    string `json:"recording_url,omitempty" db:"recording_url"`

	Transcript string `json:"transcription,omitempty" db:"transcription"`
	Chargeable bool   `json:"chargeable" db:"chargeable"`

	FinalStatus FinalStatus `json:"call_status" db:"call_status"`

	Voicemail           bool   `json:"voicemail" db:"voicemail"`
	VoicemailTranscript string `json:"voicemail_transcription,omitempty" db:"voicemail_transcription"`

	MissedBy MissedBy `json:"missed_by,omitempty" db:"missed_by"`
}
