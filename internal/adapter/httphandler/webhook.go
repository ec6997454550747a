package httphandler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/niksmo/catalog-cache/internal/core/domain"
	"github.com/niksmo/catalog-cache/internal/core/port"
	"github.com/niksmo/catalog-cache/internal/metrics"
)

// POST /webhook JSON (response 200 OK, 400 Bad request, 502 Bad gateway)

type WebhookHandler struct {
	ingester port.WebhookIngester
}

func RegisterWebhook(mux *http.ServeMux, ingester port.WebhookIngester) {
	h := WebhookHandler{ingester}
	mux.HandleFunc("POST /webhook", h.PostWebhook)
}

func (h WebhookHandler) PostWebhook(w http.ResponseWriter, r *http.Request) {
	const op = "WebhookHandler.PostWebhook"
	log := slog.With("op", op)

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		metrics.RecordWebhook("rejected")
		writeError(w, http.StatusBadRequest, "failed to read body")
		log.Warn("failed to read request body", "err", err)
		return
	}

	p, err := h.ingester.Ingest(r.Context(), payload)
	if err != nil {
		if errors.Is(err, domain.ErrNoProductID) {
			metrics.RecordWebhook("rejected")
		} else {
			metrics.RecordWebhook("failed")
		}
		writeJSON(w, statusFor(err), webhookResponse{
			OK: false, Message: err.Error(),
		})
		log.Warn("webhook event is not applied", "err", err)
		return
	}

	metrics.RecordWebhook("accepted")
	writeJSON(w, http.StatusOK, webhookResponse{
		OK: true, Message: "product synced", Product: &p,
	})
	log.Info("webhook event applied", "productID", p.ID)
}
