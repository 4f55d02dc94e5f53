package transcription

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func fixtureServer(t *testing.T, listenBody string, gotContentType *string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/recordings/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, ".mp3") {
			// Generic binary type; client must infer from the extension.
			w.Header().Set("Content-Type", "application/octet-stream")
			_, _ = w.Write([]byte("fake-mp3-bytes"))
			return
		}
		w.Header().Set("Content-Type", "audio/wav; charset=binary")
		_, _ = w.Write([]byte("fake-wav-bytes"))
	})
	mux.HandleFunc("/v1/listen", func(w http.ResponseWriter, r *http.Request) {
		if gotContentType != nil {
			*gotContentType = r.Header.Get("Content-Type")
		}
		if r.Header.Get("Authorization") != "Token test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(listenBody))
	})
	return httptest.NewServer(mux)
}

func newTestClient(srv *httptest.Server) *Client {
	c := NewClient("test-key", "nova-3")
	c.HTTPClient = srv.Client()
	c.BaseURL = srv.URL
	return c
}

func TestTranscribe_UtteranceAttribution(t *testing.T) {
	body := `{"results":{"channels":[{"alternatives":[{"transcript":"hi"}]}],` +
		`"utterances":[{"channel":0,"transcript":"please call me back"},{"channel":1,"transcript":"will do"}]}}`
	var gotCT string
	srv := fixtureServer(t, body, &gotCT)
	defer srv.Close()

	tr, err := newTestClient(srv).Transcribe(context.Background(), srv.URL+"/recordings/call.mp3")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	want := "Customer: please call me back\nAgent: will do"
	if tr.Text != want {
		t.Fatalf("unexpected transcript:\n%s", tr.Text)
	}
	if gotCT != "audio/mpeg" {
		t.Fatalf("expected content type inferred from .mp3, got %q", gotCT)
	}
	if len(tr.Raw) == 0 {
		t.Fatalf("expected raw response preserved")
	}
}

func TestTranscribe_ChannelFallback(t *testing.T) {
	body := `{"results":{"channels":[{"alternatives":[{"transcript":"hello there"}]},` +
		`{"alternatives":[{"transcript":"hi"}]}],"utterances":[]}}`
	var gotCT string
	srv := fixtureServer(t, body, &gotCT)
	defer srv.Close()

	tr, err := newTestClient(srv).Transcribe(context.Background(), srv.URL+"/recordings/call.wav")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	want := "Speaker 1: hello there\nSpeaker 2: hi"
	if tr.Text != want {
		t.Fatalf("unexpected transcript:\n%s", tr.Text)
	}
	if gotCT != "audio/wav" {
		t.Fatalf("expected header content type, got %q", gotCT)
	}
}

func TestTranscribe_MalformedResponse(t *testing.T) {
	srv := fixtureServer(t, `{"metadata":{}}`, nil)
	defer srv.Close()

	if _, err := newTestClient(srv).Transcribe(context.Background(), srv.URL+"/recordings/call.wav"); err == nil {
		t.Fatalf("expected error for response without results.channels")
	}
}

func TestTranscribe_EmptyTranscript(t *testing.T) {
	body := `{"results":{"channels":[{"alternatives":[{"transcript":""}]}],"utterances":[]}}`
	srv := fixtureServer(t, body, nil)
	defer srv.Close()

	if _, err := newTestClient(srv).Transcribe(context.Background(), srv.URL+"/recordings/call.wav"); err == nil {
		t.Fatalf("expected error for empty transcript")
	}
}

func TestTranscribe_FetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := newTestClient(srv)
	if _, err := c.Transcribe(context.Background(), srv.URL+"/recordings/missing.mp3"); err == nil {
		t.Fatalf("expected error for missing recording")
	}
}

func TestResolveContentType(t *testing.T) {
	cases := []struct {
		header, url, want string
	}{
		{"audio/wav", "https://x/rec.mp3", "audio/wav"},
		{"", "https://x/rec.mp3", "audio/mpeg"},
		{"", "https://x/rec.m4a", "audio/mp4"},
		{"application/octet-stream", "https://x/rec.wav", "audio/wav"},
		{"", "https://x/rec.bin", "application/octet-stream"},
	}
	for _, tc := range cases {
		if got := resolveContentType(tc.header, tc.url); got != tc.want {
			t.Fatalf("resolveContentType(%q, %q) = %q, want %q", tc.header, tc.url, got, tc.want)
		}
	}
}
