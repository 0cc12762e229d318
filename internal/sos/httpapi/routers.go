package httpapi

import "net/http"

func NewRouter(h *Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", h.Health)

	// POST /alerts, GET /alerts
	mux.HandleFunc("/alerts", h.Alerts)

	// GET /alerts/{id}, PATCH /alerts/{id}/status
	// Важно: trailing slash, чтобы handler мог TrimPrefix("/alerts/")
	mux.HandleFunc("/alerts/", h.AlertByID)

	mux.HandleFunc("/sos/activate", h.Activate)
	mux.HandleFunc("/sos/cancel", h.CancelActivation)
	mux.HandleFunc("/sos/state", h.State)

	return mux
}
