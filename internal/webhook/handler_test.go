package webhook

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"call-pipeline/internal/calls"
	"call-pipeline/internal/classify"
	"call-pipeline/internal/outcome"
	"call-pipeline/internal/storage"
	"call-pipeline/internal/transcription"
)

type stubTranscriber struct {
	text  string
	calls int
}

func (s *stubTranscriber) Transcribe(ctx context.Context, recordingURL string) (transcription.Transcript, error) {
	s.calls++
	return transcription.Transcript{Text: s.text}, nil
}

type stubClassifier struct {
	labels map[classify.PromptKind]classify.Label
	calls  int
}

func (s *stubClassifier) Classify(ctx context.Context, transcript string, kind classify.PromptKind) (classify.Label, error) {
	s.calls++
	if l, ok := s.labels[kind]; ok {
		return l, nil
	}
	return "", errors.New("no stub label")
}

type failingRepo struct {
	*storage.MemoryRepo
}

func (r failingRepo) UpsertCallLog(ctx context.Context, out calls.CallOutcome) error {
	return errors.New("db down")
}

func newRouter(h Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/webhooks/justcall/call", h.HandleCallCompleted)
	return r
}

func post(t *testing.T, r *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/justcall/call", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandleCallCompleted_HappyPath(t *testing.T) {
	tr := &stubTranscriber{text: "Customer: please call me back"}
	cl := &stubClassifier{labels: map[classify.PromptKind]classify.Label{
		classify.PromptPlumberIntent: classify.LabelGenuine,
	}}
	repo := storage.NewMemoryRepo()
	repo.Partners["+61412345678"] = "partner-7"

	r := newRouter(Handler{Engine: outcome.Engine{Transcriber: tr, Classifier: cl}, Repo: repo})

	w := post(t, r, sampleBody)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	row, err := repo.GetCallLog(context.Background(), "CA123")
	if err != nil {
		t.Fatalf("expected stored row, got %v", err)
	}
	if row.PartnerID != "partner-7" {
		t.Fatalf("expected partner resolved, got %q", row.PartnerID)
	}
	if row.FinalStatus != calls.FinalStatusVoicemail || !row.Voicemail || row.MissedBy != calls.MissedByPartner {
		t.Fatalf("unexpected outcome %+v", row.CallOutcome)
	}
	if !row.Chargeable {
		t.Fatalf("expected chargeable voicemail lead")
	}
	if row.VoicemailTranscript != "Customer: please call me back" {
		t.Fatalf("unexpected voicemail transcript %q", row.VoicemailTranscript)
	}
}

func TestHandleCallCompleted_UnknownPartnerTolerated(t *testing.T) {
	tr := &stubTranscriber{text: "Customer: hi"}
	cl := &stubClassifier{labels: map[classify.PromptKind]classify.Label{
		classify.PromptPlumberIntent: classify.LabelNotGenuine,
	}}
	repo := storage.NewMemoryRepo()

	r := newRouter(Handler{Engine: outcome.Engine{Transcriber: tr, Classifier: cl}, Repo: repo})

	if w := post(t, r, sampleBody); w.Code != http.StatusOK {
		t.Fatalf("expected 200 despite unknown partner, got %d", w.Code)
	}
	row, err := repo.GetCallLog(context.Background(), "CA123")
	if err != nil {
		t.Fatalf("expected stored row, got %v", err)
	}
	if row.PartnerID != "" {
		t.Fatalf("expected empty partner id, got %q", row.PartnerID)
	}
}

func TestHandleCallCompleted_IgnoredEvent(t *testing.T) {
	repo := storage.NewMemoryRepo()
	r := newRouter(Handler{Repo: repo})

	w := post(t, r, `{"type":"call.updated","data":{"call_sid":"CA9"}}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", w.Code)
	}
	if len(repo.Logs) != 0 {
		t.Fatalf("ignored events must not be persisted")
	}
}

func TestHandleCallCompleted_InvalidJSON(t *testing.T) {
	r := newRouter(Handler{Repo: storage.NewMemoryRepo()})
	if w := post(t, r, `{oops`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestHandleCallCompleted_MissingCustomerNumber(t *testing.T) {
	tr := &stubTranscriber{}
	cl := &stubClassifier{}
	repo := storage.NewMemoryRepo()
	r := newRouter(Handler{Engine: outcome.Engine{Transcriber: tr, Classifier: cl}, Repo: repo})

	body := `{"type":"call.completed","data":{"call_sid":"CA5","justcall_number":"+15550001111",
		"call_info":{"direction":"incoming","type":"answered","recording":"https://rec/x.mp3"}}}`
	w := post(t, r, body)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if tr.calls != 0 || cl.calls != 0 {
		t.Fatalf("rejection must happen before any external call")
	}
	if len(repo.Logs) != 0 {
		t.Fatalf("rejected events must not be persisted")
	}
}

func TestHandleCallCompleted_PersistFailure(t *testing.T) {
	tr := &stubTranscriber{text: "Customer: hi"}
	cl := &stubClassifier{labels: map[classify.PromptKind]classify.Label{
		classify.PromptPlumberIntent: classify.LabelGenuine,
	}}
	r := newRouter(Handler{
		Engine: outcome.Engine{Transcriber: tr, Classifier: cl},
		Repo:   failingRepo{storage.NewMemoryRepo()},
	})

	if w := post(t, r, sampleBody); w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestHandleCallCompleted_Redelivery(t *testing.T) {
	tr := &stubTranscriber{text: "Customer: please call me back"}
	cl := &stubClassifier{labels: map[classify.PromptKind]classify.Label{
		classify.PromptPlumberIntent: classify.LabelGenuine,
	}}
	repo := storage.NewMemoryRepo()
	r := newRouter(Handler{Engine: outcome.Engine{Transcriber: tr, Classifier: cl}, Repo: repo})

	if w := post(t, r, sampleBody); w.Code != http.StatusOK {
		t.Fatalf("first delivery: expected 200, got %d", w.Code)
	}
	first, _ := repo.GetCallLog(context.Background(), "CA123")

	if w := post(t, r, sampleBody); w.Code != http.StatusOK {
		t.Fatalf("second delivery: expected 200, got %d", w.Code)
	}
	second, _ := repo.GetCallLog(context.Background(), "CA123")

	if len(repo.Logs) != 1 {
		t.Fatalf("expected a single logical row, got %d", len(repo.Logs))
	}
	if first.CallOutcome != second.CallOutcome {
		t.Fatalf("re-delivery must yield an identical outcome:\n%+v\n%+v", first.CallOutcome, second.CallOutcome)
	}
}
