package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter registers every route on a fresh router and wraps it in the
// middleware chain.
func NewRouter(h *Handler) http.Handler {
	r := mux.NewRouter()

	// KV APIs
	r.HandleFunc("/kv/{key}", h.SetKey).Methods(http.MethodPut)
	r.HandleFunc("/kv/{key}", h.GetKey).Methods(http.MethodGet)
	r.HandleFunc("/kv/{key}", h.DeleteKey).Methods(http.MethodDelete)
	r.HandleFunc("/kv/", h.MissingKey)

	// Admin APIs
	r.HandleFunc("/admin/keys", h.ListKeys).Methods(http.MethodGet)

	// Observability APIs
	r.HandleFunc("/metrics", h.GetMetrics).Methods(http.MethodGet)
	r.HandleFunc("/health", h.GetHealth).Methods(http.MethodGet)

	// Middlewares
	return Chain(
		r,
		h.Recovery,
		h.RequestID,
		h.Logging,
	)
}
