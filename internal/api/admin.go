package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/scamtrap/scamtrap/internal/store"
)

// AdminHandler serves read-only diagnostic views over the audit store,
// including the reasoning traces behind each pipeline step.
type AdminHandler struct {
	audit *store.AuditStore
}

// NewAdminHandler creates the admin handler.
func NewAdminHandler(audit *store.AuditStore) *AdminHandler {
	return &AdminHandler{audit: audit}
}

// RegisterRoutes registers the admin API.
func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/admin", func(r chi.Router) {
		r.Get("/stats", h.Stats)
		r.Get("/logs", h.Logs)
		r.Get("/sessions", h.Sessions)
		r.Get("/sessions/{sessionID}", h.SessionDetail)
		r.Get("/full", h.Full)
	})
}

// Stats returns aggregate admin statistics.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.audit.Stats())
}

// Logs returns the global action log, newest first.
func (h *AdminHandler) Logs(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]interface{}{
		"logs": h.audit.GlobalLogs(limitParam(r, 50)),
	})
}

// Sessions returns all session summaries, most recently updated first.
func (h *AdminHandler) Sessions(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]interface{}{
		"sessions": h.audit.SessionSummaries(),
	})
}

// SessionDetail returns the full detail for one session, including transcript
// and per-session action log.
func (h *AdminHandler) SessionDetail(w http.ResponseWriter, r *http.Request) {
	detail := h.audit.SessionDetail(chi.URLParam(r, "sessionID"))
	if detail == nil {
		Error(w, http.StatusNotFound, "Session not found")
		return
	}
	JSON(w, http.StatusOK, detail)
}

// Full returns all admin data in one call.
func (h *AdminHandler) Full(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]interface{}{
		"stats":    h.audit.Stats(),
		"logs":     h.audit.GlobalLogs(30),
		"sessions": h.audit.SessionSummaries(),
	})
}
