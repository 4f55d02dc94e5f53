package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// Label is the closed output vocabulary. A classification either succeeds
// with exactly one of these or fails; there is no silent default on
// malformed model output, so billing can never ride on a parse failure.
type Label string

const (
	LabelGenuine      Label = "genuine"
	LabelNotGenuine   Label = "not_genuine"
	LabelVoicemail    Label = "voicemail"
	LabelNotVoicemail Label = "not_voicemail"
)

// Client classifies transcripts with a small OpenAI model. The output space
// is one categorical token, so requests pin temperature to 0 and cap output
// tokens, and constrain the response to a strict JSON schema per prompt kind.
type Client struct {
	api   openai.Client
	model openai.ChatModel
}

func NewClient(apiKey, model string) *Client {
	return &Client{
		api:   openai.NewClient(option.WithAPIKey(apiKey)),
		model: openai.ChatModel(model),
	}
}

const maxOutputTokens = 16

// Classify runs the template selected by kind over the transcript and
// returns the resulting label. Any output outside the documented enum,
// including valid JSON with an unexpected shape, is an error.
func (c *Client) Classify(ctx context.Context, transcript string, kind PromptKind) (Label, error) {
	system, ok := systemPromptFor(kind)
	if !ok {
		return "", fmt.Errorf("unknown prompt kind %q", kind)
	}

	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       c.model,
		Temperature: openai.Float(0),
		MaxTokens:   openai.Int(maxOutputTokens),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(transcript),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   "intent_schema",
					Strict: openai.Bool(true),
					Schema: schemaFor(kind),
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: no choices in response")
	}

	return parseLabel(kind, resp.Choices[0].Message.Content)
}

func schemaFor(kind PromptKind) map[string]any {
	prop := map[string]any{"type": "string", "enum": []string{"genuine", "not_genuine"}}
	key := "intent"
	if kind == PromptVoicemailIntent {
		prop = map[string]any{"type": "string", "enum": []string{"true", "false"}}
		key = "voicemail"
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           map[string]any{key: prop},
		"required":             []string{key},
	}
}

// parseLabel enforces the closed vocabulary on raw model output.
func parseLabel(kind PromptKind, content string) (Label, error) {
	dec := json.NewDecoder(strings.NewReader(content))
	dec.DisallowUnknownFields()

	switch kind {
	case PromptPlumberIntent:
		var out struct {
			Intent string `json:"intent"`
		}
		if err := dec.Decode(&out); err != nil {
			return "", fmt.Errorf("unparseable classifier output %q: %w", content, err)
		}
		switch Label(out.Intent) {
		case LabelGenuine:
			return LabelGenuine, nil
		case LabelNotGenuine:
			return LabelNotGenuine, nil
		}
		return "", fmt.Errorf("classifier output %q is not a documented intent label", content)

	case PromptVoicemailIntent:
		var out struct {
			Voicemail string `json:"voicemail"`
		}
		if err := dec.Decode(&out); err != nil {
			return "", fmt.Errorf("unparseable classifier output %q: %w", content, err)
		}
		switch strings.ToLower(out.Voicemail) {
		case "true":
			return LabelVoicemail, nil
		case "false":
			return LabelNotVoicemail, nil
		}
		return "", fmt.Errorf("classifier output %q is not a documented voicemail label", content)
	}

	return "", fmt.Errorf("unknown prompt kind %q", kind)
}
