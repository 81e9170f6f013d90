package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"stasis/internal/health"
	"stasis/internal/logs"
	"stasis/internal/metrics"
	"stasis/internal/protocol"
	"stasis/internal/store"

	"github.com/gorilla/mux"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// bodyOverhead is the room left for the JSON envelope around a value.
const bodyOverhead = 1024

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	store    store.Store
	metrics  *metrics.Registry
	logger   *logs.Logger
	analyzer *health.Analyzer
	maxValue int
}

// NewHandler creates a new API handler. The handler works on its own clone
// of st. Values longer than maxValue bytes are rejected, as on the TCP
// protocol; maxValue <= 0 means protocol.MaxPayloadLength.
func NewHandler(
	st store.Store,
	reg *metrics.Registry,
	logger *logs.Logger,
	maxValue int,
) *Handler {
	if maxValue <= 0 {
		maxValue = protocol.MaxPayloadLength
	}
	return &Handler{
		store:    st.Clone(),
		metrics:  reg,
		logger:   logger,
		analyzer: health.NewAnalyzer(reg, logger),
		maxValue: maxValue,
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

/* ---------------- PUT /kv/{key} ---------------- */

type setRequest struct {
	Value string `json:"value"`
	TTLms int64  `json:"ttl_ms,omitempty"`
}

func (h *Handler) SetKey(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, int64(h.maxValue+bodyOverhead)))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	var req setRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if len(req.Value) > h.maxValue {
		http.Error(w, fmt.Sprintf("value exceeds %d bytes", h.maxValue), http.StatusRequestEntityTooLarge)
		return
	}
	if req.TTLms < 0 || req.TTLms > protocol.MaxTTLMillis {
		http.Error(w, fmt.Sprintf("ttl_ms must be between 0 and %d", protocol.MaxTTLMillis), http.StatusBadRequest)
		return
	}

	h.store.Set(key, []byte(req.Value), time.Duration(req.TTLms)*time.Millisecond)
	w.WriteHeader(http.StatusNoContent)
}

/* ---------------- GET /kv/{key} ---------------- */

func (h *Handler) GetKey(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	value, ok := h.store.Get(key)
	if !ok {
		http.Error(w, "key not found", http.StatusNotFound)
		return
	}

	writeJSON(w, map[string]string{
		"value": string(value),
	})
}

/* ---------------- DELETE /kv/{key} ---------------- */

func (h *Handler) DeleteKey(w http.ResponseWriter, r *http.Request) {
	h.store.Delete(mux.Vars(r)["key"])
	w.WriteHeader(http.StatusNoContent)
}

// MissingKey answers requests to /kv/ that carry no key.
func (h *Handler) MissingKey(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "missing key in URL", http.StatusBadRequest)
}

/* ---------------- GET /admin/keys ---------------- */

func (h *Handler) ListKeys(w http.ResponseWriter, r *http.Request) {
	entries := h.store.List()

	resp := make(map[string]string, len(entries))
	for k, v := range entries {
		resp[k] = string(v)
	}

	writeJSON(w, resp)
}

/* ---------------- GET /metrics ---------------- */

func (h *Handler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.metrics.Snapshot())
}

/* ---------------- GET /health ---------------- */

func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.analyzer.Analyze())
}
