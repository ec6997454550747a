package httphandler

import (
	"log/slog"
	"net/http"

	"github.com/niksmo/catalog-cache/internal/core/domain"
	"github.com/niksmo/catalog-cache/internal/core/port"
)

// GET /v1/products (200 OK)
// GET /v1/products/{id} (200 OK, 404 Not found)
// GET /v1/products/{id}/inventory (200 OK, 404 Not found)
// GET /v1/products/{id}/upsell (200 OK, 404 Not found)
// GET /v1/search?q= (200 OK, 400 Bad request)
// GET /v1/search/fuzzy?q= (200 OK, 400 Bad request)
// GET /v1/sku-image?sku= (200 OK, 400 Bad request, 404 Not found)

type QueryHandler struct {
	querier port.CatalogQuerier
}

func RegisterQueries(mux *http.ServeMux, querier port.CatalogQuerier) {
	h := QueryHandler{querier}
	mux.HandleFunc("GET /v1/products", h.GetProducts)
	mux.HandleFunc("GET /v1/products/{id}", h.GetProduct)
	mux.HandleFunc("GET /v1/products/{id}/inventory", h.GetInventory)
	mux.HandleFunc("GET /v1/products/{id}/upsell", h.GetUpsell)
	mux.HandleFunc("GET /v1/search", h.GetSearch)
	mux.HandleFunc("GET /v1/search/fuzzy", h.GetFuzzySearch)
	mux.HandleFunc("GET /v1/sku-image", h.GetSkuImage)
}

func (h QueryHandler) GetProducts(w http.ResponseWriter, r *http.Request) {
	const op = "QueryHandler.GetProducts"
	log := slog.With("op", op)

	ps, err := h.querier.Products(r.Context())
	if err != nil {
		writeError(w, statusFor(err), "failed to list products")
		log.Error("failed to list products", "err", err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h QueryHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	const op = "QueryHandler.GetProduct"
	log := slog.With("op", op)

	p, err := h.querier.Product(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, statusFor(err), "product not found")
		log.Warn("product miss", "err", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h QueryHandler) GetInventory(w http.ResponseWriter, r *http.Request) {
	const op = "QueryHandler.GetInventory"
	log := slog.With("op", op)

	inv, err := h.querier.Inventory(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, statusFor(err), "product not found")
		log.Warn("inventory miss", "err", err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (h QueryHandler) GetUpsell(w http.ResponseWriter, r *http.Request) {
	const op = "QueryHandler.GetUpsell"
	log := slog.With("op", op)

	ps, err := h.querier.Upsell(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, statusFor(err), "product not found")
		log.Warn("upsell miss", "err", err)
		return
	}
	if ps == nil {
		ps = []domain.Product{}
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h QueryHandler) GetSearch(w http.ResponseWriter, r *http.Request) {
	const op = "QueryHandler.GetSearch"
	log := slog.With("op", op)

	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}

	ps, err := h.querier.Search(r.Context(), q)
	if err != nil {
		writeError(w, statusFor(err), "search failed")
		log.Error("search failed", "err", err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h QueryHandler) GetFuzzySearch(w http.ResponseWriter, r *http.Request) {
	const op = "QueryHandler.GetFuzzySearch"
	log := slog.With("op", op)

	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}

	ps, err := h.querier.FuzzySearch(r.Context(), q)
	if err != nil {
		writeError(w, statusFor(err), "search failed")
		log.Error("fuzzy search failed", "err", err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h QueryHandler) GetSkuImage(w http.ResponseWriter, r *http.Request) {
	const op = "QueryHandler.GetSkuImage"
	log := slog.With("op", op)

	sku := r.URL.Query().Get("sku")
	if sku == "" {
		writeError(w, http.StatusBadRequest, "missing query parameter sku")
		return
	}

	img, err := h.querier.SkuImage(r.Context(), sku)
	if err != nil {
		writeError(w, statusFor(err), "image not found")
		log.Warn("sku image miss", "sku", sku, "err", err)
		return
	}
	writeJSON(w, http.StatusOK, skuImageResponse{SKU: sku, Image: img})
}
