package httphandler

import "net/http"

// GET / (200 OK) liveness probe for the hosting platform.

func RegisterHealth(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("Catalog replica OK"))
	})
}
