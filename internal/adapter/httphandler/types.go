package httphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/niksmo/catalog-cache/internal/core/domain"
)

type (
	webhookResponse struct {
		OK      bool            `json:"ok"`
		Message string          `json:"message,omitempty"`
		Product *domain.Product `json:"product,omitempty"`
	}

	syncResponse struct {
		OK      bool   `json:"ok"`
		Total   int    `json:"total"`
		Message string `json:"message,omitempty"`
	}

	errorResponse struct {
		OK      bool   `json:"ok"`
		Message string `json:"message"`
	}

	skuImageResponse struct {
		SKU   string `json:"sku"`
		Image string `json:"image"`
	}
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	const op = "httphandler.writeJSON"

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.With("op", op).Error("failed to write response body", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{OK: false, Message: message})
}

// statusFor maps core errors onto HTTP statuses. Query misses are a
// normal outcome, remote unavailability is a gateway problem, and
// everything else is internal.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNoProductID):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrRemoteUnavailable):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
