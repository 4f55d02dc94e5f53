package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const defaultBaseURL = "https://api.deepgram.com"

// Client downloads a call recording and transcribes it with Deepgram.
//
// The two call legs arrive as separate channels; channel 0 is the leg the
// provider records inbound audio on, so its utterances are attributed to the
// customer and everything else to the agent.
type Client struct {
	HTTPClient *http.Client
	APIKey     string

	// BaseURL overrides the Deepgram endpoint; tests point it at a fixture
	// server. Empty means the real API.
	BaseURL string

	// Model defaults to nova-3.
	Model string
}

func NewClient(apiKey, model string) *Client {
	return &Client{
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
		APIKey:     apiKey,
		Model:      model,
	}
}

// Transcript is the speaker-attributed transcript for one recording,
// immutable once produced. Raw keeps the provider response for audit.
type Transcript struct {
	Text string
	Raw  json.RawMessage
}

type listenResponse struct {
	Results *struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string `json:"transcript"`
			} `json:"alternatives"`
		} `json:"channels"`
		Utterances []struct {
			Channel    int    `json:"channel"`
			Transcript string `json:"transcript"`
		} `json:"utterances"`
	} `json:"results"`
}

// Transcribe fetches the recording behind recordingURL and returns its
// transcript. Any failure (fetch, service, empty or malformed result) is an
// error; callers decide whether that degrades or aborts their flow.
func (c *Client) Transcribe(ctx context.Context, recordingURL string) (Transcript, error) {
	if recordingURL == "" {
		return Transcript{}, fmt.Errorf("recording url is required")
	}

	audio, contentType, err := c.fetchRecording(ctx, recordingURL)
	if err != nil {
		return Transcript{}, fmt.Errorf("fetch recording: %w", err)
	}

	raw, err := c.listen(ctx, audio, contentType)
	if err != nil {
		return Transcript{}, fmt.Errorf("deepgram: %w", err)
	}

	var parsed listenResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return Transcript{}, fmt.Errorf("deepgram: decode response: %w", err)
	}
	if parsed.Results == nil || parsed.Results.Channels == nil {
		return Transcript{}, fmt.Errorf("deepgram: response has no results.channels")
	}

	text := formatUtterances(parsed)
	if text == "" {
		text = formatChannels(parsed)
	}
	if text == "" {
		return Transcript{}, fmt.Errorf("deepgram: empty transcript")
	}

	return Transcript{Text: text, Raw: raw}, nil
}

func (c *Client) fetchRecording(ctx context.Context, recordingURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, recordingURL, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, "", fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}

	contentType := strings.TrimSpace(strings.Split(resp.Header.Get("Content-Type"), ";")[0])
	return audio, resolveContentType(contentType, recordingURL), nil
}

// resolveContentType prefers the response header, then the URL's file
// extension, then a generic binary type.
func resolveContentType(headerType, recordingURL string) string {
	if headerType != "" && headerType != "application/octet-stream" {
		return headerType
	}
	ext := ""
	if u, err := url.Parse(recordingURL); err == nil {
		ext = strings.ToLower(strings.TrimPrefix(path.Ext(u.Path), "."))
	}
	switch ext {
	case "mp3":
		return "audio/mpeg"
	case "wav":
		return "audio/wav"
	case "m4a":
		return "audio/mp4"
	}
	return "application/octet-stream"
}

// listen posts the audio to Deepgram. Network errors and 5xx responses are
// retried with capped exponential backoff; 4xx is permanent.
func (c *Client) listen(ctx context.Context, audio []byte, contentType string) (json.RawMessage, error) {
	model := c.Model
	if model == "" {
		model = "nova-3"
	}
	base := c.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	endpoint := base + "/v1/listen?model=" + url.QueryEscape(model) +
		"&multichannel=true&smart_format=true&utterances=true"

	var raw json.RawMessage
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(audio))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Token "+c.APIKey)
		req.Header.Set("Content-Type", contentType)

		resp, err := c.httpClient().Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode >= 500 {
			return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}
		if resp.StatusCode >= 300 {
			return backoff.Permanent(fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
		}
		raw = body
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 12 * time.Second
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func speakerFor(channel int) string {
	if channel == 0 {
		return "Customer"
	}
	return "Agent"
}

func formatUtterances(resp listenResponse) string {
	var lines []string
	for _, u := range resp.Results.Utterances {
		if strings.TrimSpace(u.Transcript) == "" {
			continue
		}
		lines = append(lines, speakerFor(u.Channel)+": "+u.Transcript)
	}
	return strings.Join(lines, "\n")
}

// formatChannels is the fallback when turn-level attribution is unavailable:
// one block per channel, in channel order.
func formatChannels(resp listenResponse) string {
	var lines []string
	for i, ch := range resp.Results.Channels {
		text := ""
		if len(ch.Alternatives) > 0 {
			text = strings.TrimSpace(ch.Alternatives[0].Transcript)
		}
		if text == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("Speaker %d: %s", i+1, text))
	}
	return strings.Join(lines, "\n")
}
