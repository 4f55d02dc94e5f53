package classify

// PromptKind selects between the two closed-vocabulary classification
// templates.
type PromptKind string

const (
	// PromptPlumberIntent decides whether the caller is a genuine customer
	// for a plumbing business.
	PromptPlumberIntent PromptKind = "plumber_intent"

	// PromptVoicemailIntent decides whether a voicemail system, not a human,
	// picked up the call.
	PromptVoicemailIntent PromptKind = "voicemail_intent"
)

const voicemailPrompt = `You classify call transcripts for whether a voicemail system picked up.
Voicemail if any of: "leave a message", "after the tone/beep", "voicemail/voice mailbox/message bank", carrier-style greeting ("not available… please leave a message"), beep indicator ([beep]/beep), or a one-way message left by the caller.
Not voicemail if: IVR/menu ("press 1…", queue/hold), human dialogue, only ringing/silence/failure.
If uncertain, answer false.
OUTPUT RULE: Return JSON ONLY, no prose. One of:
{"voicemail":"true"}
{"voicemail":"false"}`

const plumberPrompt = `You are a strict binary classifier for call transcripts between a plumbing business and a caller. Your job is to decide if the caller is a GENUINE CUSTOMER seeking a typical plumbing service.

DEFINITIONS
"Genuine" = The caller asks for a quote, booking, site visit, or advice that clearly relates to services typically performed by a licensed plumber. If the plumber states "we don't do that service," classify as NOT_GENUINE even if the caller asked for something similar.

TYPICAL PLUMBING SERVICES (examples, not exhaustive)
- Blocked drains / toilets / sinks; slow drains; sewer or stormwater issues
- Leaks: taps, pipes, toilets, showers, under-sink, behind wall, ceiling from plumbing
- Hot water systems: no hot water, leaking, install/replace gas/electric/heat pump
- Gas fitting: gas leaks, appliance install (cooktop, heater), bayonet points (where lawful)
- Fixture work: tap/mixer/shower/diverter/vanity/toilet install or repair; dishwasher/washing-machine plumbing
- Pipe work: burst pipes, water meter issues, pressure problems, pipe relining
- Roof plumbing items: gutters/downpipes/flashings causing water ingress (exclude pure cleaning)

NOT PLUMBING (classify NOT_GENUINE)
- Glazing/carpentry/handyman tasks (e.g., glass shower screen/shelf replacement, shelving, doors)
- Tiling, waterproofing, regrouting, painting, silicone-only requests without plumbing defect
- Electrical/HVAC, appliance electronics repair, locksmith, pest control, cleaning
- Sales pitches, wrong numbers, recruitment, spam, unrelated chit-chat

AMBIGUITY RULES
- If the caller clearly requests a plumber-typical task: GENUINE.
- Price-only, photo requests, or availability for a plumber task still: GENUINE.
- If it is unclear whether the task is plumbing, or evidence is insufficient: NOT_GENUINE.
- If the plumber explicitly declines as "we don't do that service": NOT_GENUINE.

OUTPUT
Return JSON ONLY, no prose. One of:
{"intent":"genuine"}
{"intent":"not_genuine"}

TASK
Given the full transcript (both sides of the call), decide according to the rules above.

STYLE
- Be strict. Prefer NOT_GENUINE when uncertain.
- Do not include explanations or any fields other than "intent".`

func systemPromptFor(kind PromptKind) (string, bool) {
	switch kind {
	case PromptPlumberIntent:
		return plumberPrompt, true
	case PromptVoicemailIntent:
		return voicemailPrompt, true
	}
	return "", false
}
