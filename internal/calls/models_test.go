package calls

import (
	"errors"
	"testing"
)

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"+61 412 345 678", "+61412345678"},
		{"0412 345 678", "+0412345678"},
		{"(02) 9999-1234", "+0299991234"},
		{"+15551234567", "+15551234567"},
		{"12345", "12345"},   // too short for a bare international number
		{"anonymous", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizePhone(tc.in); got != tc.want {
			t.Fatalf("NormalizePhone(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseDirection(t *testing.T) {
	if ParseDirection("incoming") != DirectionInbound {
		t.Fatalf("incoming should map to inbound")
	}
	if ParseDirection("outgoing") != DirectionOutbound {
		t.Fatalf("outgoing should map to outbound")
	}
	if ParseDirection("sideways") != "" {
		t.Fatalf("unknown direction should map to empty")
	}
}

func TestCategorizeStatus(t *testing.T) {
	cases := map[string]StatusCategory{
		"voicemail": StatusVoicemail,
		"missed":    StatusMissed,
		"no_answer": StatusMissed,
		"busy":      StatusMissed,
		"answered":  StatusAnswered,
		"completed": StatusAnswered,
		"weird":     StatusOther,
		"":          StatusOther,
	}
	for raw, want := range cases {
		if got := CategorizeStatus(raw); got != want {
			t.Fatalf("CategorizeStatus(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestCallEventValidate(t *testing.T) {
	valid := CallEvent{
		CallSID:        "CA1",
		Direction:      DirectionInbound,
		PartnerNumber:  "+15550001111",
		CustomerNumber: "+15550002222",
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid event, got %v", err)
	}

	cases := []struct {
		mutate func(*CallEvent)
		field  string
	}{
		{func(e *CallEvent) { e.CallSID = "" }, "call_sid"},
		{func(e *CallEvent) { e.PartnerNumber = "" }, "partner_number"},
		{func(e *CallEvent) { e.CustomerNumber = "" }, "customer_number"},
		{func(e *CallEvent) { e.Direction = "" }, "direction"},
	}
	for _, tc := range cases {
		ev := valid
		tc.mutate(&ev)
		err := ev.Validate()
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if verr.Field != tc.field {
			t.Fatalf("expected field %q, got %q", tc.field, verr.Field)
		}
	}
}
