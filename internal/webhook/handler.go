package webhook

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"call-pipeline/internal/calls"
	"call-pipeline/internal/outcome"
	"call-pipeline/internal/storage"
	"call-pipeline/pkg/logger"
)

// Handler processes JustCall "call completed" webhooks: parse, derive the
// outcome through the engine, resolve the partner, upsert.
//
// Failure contract:
//   - malformed body / missing required field -> 400, no side effects
//   - unsupported event type                  -> 202 no-op acknowledgment
//   - transcription/classification failure    -> absorbed by the engine
//   - upsert failure                          -> 500, the outcome was not
//     durably recorded and the provider should redeliver
type Handler struct {
	Engine outcome.Engine
	Repo   storage.Repository
}

func (h Handler) HandleCallCompleted(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.From(ctx)

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	env, err := ParseEnvelope(body)
	if err != nil {
		log.Warn("webhook parse failed", "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	eventType := env.EventType()
	if eventType != EventCallCompleted {
		log.Info("webhook ignored", "event_type", eventType)
		c.JSON(http.StatusAccepted, gin.H{"ok": true, "ignored": true, "event_type": eventType})
		return
	}

	ev := env.ToCallEvent()

	out, err := h.Engine.Process(ctx, ev)
	if err != nil {
		var verr *calls.ValidationError
		if errors.As(err, &verr) {
			log.Warn("webhook rejected", "field", verr.Field)
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
			return
		}
		log.Error("outcome derivation failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
		return
	}

	// Partner resolution is best effort; an unknown line number is stored
	// without a partner id rather than dropped.
	partnerID, err := h.Repo.FindPartnerID(ctx, ev.PartnerNumber)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Warn("partner not found", "call_sid", ev.CallSID, "partner_number", ev.PartnerNumber)
		} else {
			log.Error("partner lookup failed", "call_sid", ev.CallSID, "err", err)
		}
	}
	out.PartnerID = partnerID

	if err := h.Repo.UpsertCallLog(ctx, out); err != nil {
		log.Error("call log upsert failed", "call_sid", out.CallSID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "persist failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
