package outcome

import (
	"context"

	"call-pipeline/internal/calls"
	"call-pipeline/internal/classify"
	"call-pipeline/internal/transcription"
	"call-pipeline/pkg/logger"
)

// Transcriber is the speech-to-text contract the engine consumes.
type Transcriber interface {
	Transcribe(ctx context.Context, recordingURL string) (transcription.Transcript, error)
}

// Classifier is the transcript-labeling contract the engine consumes.
type Classifier interface {
	Classify(ctx context.Context, transcript string, kind classify.PromptKind) (classify.Label, error)
}

// Engine derives a normalized CallOutcome from a completed-call event.
//
// The decision table is driven by direction x status category x recording
// presence. Transcription and classification failures degrade the outcome
// (no transcript, chargeable false) but never abort it; only input
// validation is fatal, and it runs before any external call.
type Engine struct {
	Transcriber Transcriber
	Classifier  Classifier
}

// Process maps one event to its outcome. The only possible error is a
// *calls.ValidationError; every other failure is absorbed into a degraded
// outcome. Identical input yields an identical outcome, so re-delivery of an
// event is safe to upsert.
func (e Engine) Process(ctx context.Context, ev calls.CallEvent) (calls.CallOutcome, error) {
	if err := ev.Validate(); err != nil {
		return calls.CallOutcome{}, err
	}

	log := logger.From(ctx).With("call_sid", ev.CallSID)
	ctx = logger.With(ctx, log)

	out := calls.CallOutcome{
		CallSID:         ev.CallSID,
		CustomerNumber:  ev.CustomerNumber,
		Direction:       ev.Direction,
		DurationSeconds: ev.DurationSeconds,
		RecordingURL:    ev.RecordingURL,
	}

	category := calls.CategorizeStatus(ev.RawStatus)
	log.Info("outcome:start",
		"direction", ev.Direction,
		"status", ev.RawStatus,
		"category", category,
		"has_recording", ev.RecordingURL != "",
		"duration", ev.DurationSeconds,
	)

	switch ev.Direction {
	case calls.DirectionInbound:
		out = e.processInbound(ctx, ev, category, out)
	case calls.DirectionOutbound:
		out = e.processOutbound(ctx, ev, category, out)
	}

	log.Info("outcome:done",
		"final_status", out.FinalStatus,
		"missed_by", out.MissedBy,
		"chargeable", out.Chargeable,
		"voicemail", out.Voicemail,
		"has_transcript", out.Transcript != "",
		"has_voicemail_transcript", out.VoicemailTranscript != "",
	)
	return out, nil
}

func (e Engine) processInbound(ctx context.Context, ev calls.CallEvent, category calls.StatusCategory, out calls.CallOutcome) calls.CallOutcome {
	switch category {
	case calls.StatusVoicemail:
		out.FinalStatus = calls.FinalStatusVoicemail
		out.Voicemail = true
		out.MissedBy = calls.MissedByPartner

		if ev.RecordingURL != "" {
			if text, ok := e.transcribe(ctx, ev.RecordingURL); ok {
				out.VoicemailTranscript = text
				out.Chargeable = e.isGenuine(ctx, text)
			}
		}
		return out

	case calls.StatusMissed:
		out.FinalStatus = calls.FinalStatusMissed
		out.MissedBy = calls.MissedByPartner
		return out

	default:
		// Answered (or unrecognized) inbound call.
		out.FinalStatus = calls.FinalStatusAnswered
		if ev.RecordingURL != "" {
			if text, ok := e.transcribe(ctx, ev.RecordingURL); ok {
				out.Transcript = text
				out.Chargeable = e.isGenuine(ctx, text)
			}
		}
		return out
	}
}

func (e Engine) processOutbound(ctx context.Context, ev calls.CallEvent, category calls.StatusCategory, out calls.CallOutcome) calls.CallOutcome {
	if category != calls.StatusAnswered {
		out.FinalStatus = calls.FinalStatusMissed
		out.MissedBy = calls.MissedByCustomer
		return out
	}

	out.FinalStatus = calls.FinalStatusAnswered
	if ev.RecordingURL == "" {
		return out
	}

	text, ok := e.transcribe(ctx, ev.RecordingURL)
	if !ok {
		return out
	}
	out.Transcript = text

	// A machine pickup is a missed call, and the transcript must not reach
	// the paid-intent classifier: an answering-machine greeting can never be
	// a chargeable lead. A voicemail-classification failure also skips the
	// intent pass.
	label, err := e.classify(ctx, text, classify.PromptVoicemailIntent)
	if err != nil {
		return out
	}
	if label == classify.LabelVoicemail {
		out.FinalStatus = calls.FinalStatusMissed
		out.MissedBy = calls.MissedByCustomer
		return out
	}

	out.Chargeable = e.isGenuine(ctx, text)
	return out
}

// transcribe wraps the gateway call with stage logging. False means the
// transcript is unavailable for this call; processing continues without it.
func (e Engine) transcribe(ctx context.Context, recordingURL string) (string, bool) {
	log := logger.From(ctx)
	log.Info("transcribe:start")
	tr, err := e.Transcriber.Transcribe(ctx, recordingURL)
	if err != nil {
		log.Error("transcribe:error", "err", err)
		return "", false
	}
	log.Info("transcribe:ok", "transcript_chars", len(tr.Text))
	return tr.Text, true
}

func (e Engine) classify(ctx context.Context, text string, kind classify.PromptKind) (classify.Label, error) {
	log := logger.From(ctx)
	log.Info("classify:start", "kind", kind)
	label, err := e.Classifier.Classify(ctx, text, kind)
	if err != nil {
		log.Error("classify:error", "kind", kind, "err", err)
		return "", err
	}
	log.Info("classify:ok", "kind", kind, "label", label)
	return label, nil
}

// isGenuine runs the paid-intent classifier; failures default to not
// chargeable.
func (e Engine) isGenuine(ctx context.Context, text string) bool {
	label, err := e.classify(ctx, text, classify.PromptPlumberIntent)
	if err != nil {
		return false
	}
	return label == classify.LabelGenuine
}
