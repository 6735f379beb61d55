package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/scamtrap/scamtrap/internal/store"
)

// DashboardHandler serves read-only aggregate views over the session store.
type DashboardHandler struct {
	sessions *store.SessionStore
}

// NewDashboardHandler creates the dashboard handler.
func NewDashboardHandler(sessions *store.SessionStore) *DashboardHandler {
	return &DashboardHandler{sessions: sessions}
}

// RegisterRoutes registers the dashboard API.
func (h *DashboardHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/dashboard", func(r chi.Router) {
		r.Get("/stats", h.Stats)
		r.Get("/activities", h.Activities)
		r.Get("/sessions", h.Sessions)
		r.Get("/intelligence", h.Intelligence)
		r.Get("/full", h.Full)
	})
}

// Stats returns aggregate dashboard statistics.
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.sessions.Stats())
}

// Activities returns recent activity events, newest first.
func (h *DashboardHandler) Activities(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]interface{}{
		"activities": h.sessions.RecentActivities(limitParam(r, 10)),
	})
}

// Sessions returns recently updated sessions.
func (h *DashboardHandler) Sessions(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]interface{}{
		"sessions": h.sessions.RecentSessions(limitParam(r, 10)),
	})
}

// Intelligence returns per-category item totals across all sessions.
func (h *DashboardHandler) Intelligence(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.sessions.IntelligenceSummary())
}

// Full returns all dashboard data in one call.
func (h *DashboardHandler) Full(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]interface{}{
		"stats":        h.sessions.Stats(),
		"activities":   h.sessions.RecentActivities(10),
		"sessions":     h.sessions.RecentSessions(5),
		"intelligence": h.sessions.IntelligenceSummary(),
	})
}
