package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dalemusser/inboxhub/internal/app/store/records"
	"github.com/dalemusser/inboxhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Handler holds dependencies needed for health checks.
type Handler struct {
	Records *records.Client
	Log     *zap.Logger
}

// NewHandler constructs a health Handler with the record store client and logger.
func NewHandler(client *records.Client, logger *zap.Logger) *Handler {
	return &Handler{
		Records: client,
		Log:     logger,
	}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status    string `json:"status"`
	Store     string `json:"store"`
	Timestamp string `json:"timestamp"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "store":"connected", "timestamp":"…" }
//
// On record-store failure: 503 and
//
//	{ "status":"error", "store":"disconnected", "message":"Record store unavailable", "error":"…" }
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	w.Header().Set("Content-Type", "application/json")

	resp := healthResponse{
		Status:    "ok",
		Store:     "connected",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	if err := h.Records.Ping(ctx); err != nil {
		h.Log.Error("health-check: record store ping failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		resp.Status = "error"
		resp.Store = "disconnected"
		resp.Message = "Record store unavailable"
		resp.Error = err.Error()
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	_ = json.NewEncoder(w).Encode(resp)
}
