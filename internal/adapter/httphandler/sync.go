package httphandler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/niksmo/catalog-cache/internal/core/port"
)

// POST /v1/sync/all (200 OK, 500 Internal server error)
// POST /v1/sync/category?category_id= (200 OK, 400 Bad request)
// POST /v1/sync/sku?sku= (200 OK, 400 Bad request, 404 Not found)

type SyncHandler struct {
	syncer port.CatalogSyncer
}

func RegisterSync(mux *http.ServeMux, syncer port.CatalogSyncer) {
	h := SyncHandler{syncer}
	mux.HandleFunc("POST /v1/sync/all", h.PostSyncAll)
	mux.HandleFunc("POST /v1/sync/category", h.PostSyncCategory)
	mux.HandleFunc("POST /v1/sync/sku", h.PostSyncSKU)
}

func (h SyncHandler) PostSyncAll(w http.ResponseWriter, r *http.Request) {
	const op = "SyncHandler.PostSyncAll"
	log := slog.With("op", op)

	total, err := h.syncer.SyncAll(r.Context())
	if err != nil {
		writeJSON(w, statusFor(err), syncResponse{
			OK: false, Message: "full sync failed",
		})
		log.Error("full sync failed", "err", err)
		return
	}

	writeJSON(w, http.StatusOK, syncResponse{
		OK: true, Total: total, Message: "full sync complete",
	})
	log.Info("full sync complete", "total", total)
}

func (h SyncHandler) PostSyncCategory(w http.ResponseWriter, r *http.Request) {
	const op = "SyncHandler.PostSyncCategory"
	log := slog.With("op", op)

	categoryID := r.URL.Query().Get("category_id")
	if categoryID == "" {
		writeError(w, http.StatusBadRequest,
			"missing query parameter category_id")
		return
	}

	total, err := h.syncer.SyncCategory(r.Context(), categoryID)
	if err != nil {
		writeJSON(w, statusFor(err), syncResponse{
			OK: false, Message: "category sync failed",
		})
		log.Error("category sync failed",
			"categoryID", categoryID, "err", err)
		return
	}

	writeJSON(w, http.StatusOK, syncResponse{
		OK: true, Total: total,
		Message: fmt.Sprintf("category %s synced", categoryID),
	})
	log.Info("category sync complete",
		"categoryID", categoryID, "total", total)
}

func (h SyncHandler) PostSyncSKU(w http.ResponseWriter, r *http.Request) {
	const op = "SyncHandler.PostSyncSKU"
	log := slog.With("op", op)

	sku := r.URL.Query().Get("sku")
	if sku == "" {
		writeError(w, http.StatusBadRequest, "missing query parameter sku")
		return
	}

	p, err := h.syncer.SyncSKU(r.Context(), sku)
	if err != nil {
		writeJSON(w, statusFor(err), syncResponse{
			OK: false, Message: fmt.Sprintf("sku %s not found", sku),
		})
		log.Warn("sku sync miss", "sku", sku, "err", err)
		return
	}

	writeJSON(w, http.StatusOK, syncResponse{
		OK: true, Total: 1,
		Message: fmt.Sprintf("sku %s synced to product %s", sku, p.ID),
	})
	log.Info("sku sync complete", "sku", sku, "productID", p.ID)
}
