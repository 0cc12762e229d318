package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/CIVIC-SOS/rapidassist/internal/sos/geo"
	"github.com/CIVIC-SOS/rapidassist/internal/sos/lifecycle"
	"github.com/CIVIC-SOS/rapidassist/internal/sos/models"
	"github.com/CIVIC-SOS/rapidassist/internal/sos/service"
)

type Handler struct {
	svc   *service.Service
	coord *lifecycle.Coordinator
	geo   *geo.Resolver
}

func New(svc *service.Service, coord *lifecycle.Coordinator, resolver *geo.Resolver) *Handler {
	return &Handler{svc: svc, coord: coord, geo: resolver}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorJSON(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Alerts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createAlert(w, r)
	case http.MethodGet:
		h.listAlerts(w, r)
	default:
		writeErrorJSON(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) createAlert(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req CreateAlertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid json body")
		return
	}

	a, err := h.svc.CreateAlert(r.Context(), models.AlertDraft{
		RequesterID:   req.RequesterID,
		RequesterName: req.RequesterName,
		Service:       req.Service,
		Target:        req.Target,
		Location:      req.Location,
		Medical:       req.Medical,
	})
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidArgument):
			writeErrorJSON(w, http.StatusBadRequest, "invalid argument")
		case errors.Is(err, models.ErrConflict):
			writeErrorJSON(w, http.StatusConflict, "conflict")
		default:
			writeErrorJSON(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	writeJSON(w, http.StatusCreated, toAlertResponse(a))
}

func (h *Handler) listAlerts(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeErrorJSON(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	alerts, err := h.svc.ListAlerts(r.Context(), limit)
	if err != nil {
		writeErrorJSON(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := make([]AlertResponse, 0, len(alerts))
	for _, a := range alerts {
		resp = append(resp, toAlertResponse(a))
	}
	writeJSON(w, http.StatusOK, resp)
}

// AlertByID обслуживает /alerts/{id} и /alerts/{id}/status.
func (h *Handler) AlertByID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/alerts/")
	if path == "" || path == r.URL.Path {
		writeErrorJSON(w, http.StatusBadRequest, "missing id")
		return
	}

	if rest, ok := strings.CutSuffix(path, "/status"); ok {
		h.changeStatus(w, r, rest)
		return
	}
	h.getAlert(w, r, path)
}

func (h *Handler) getAlert(w http.ResponseWriter, r *http.Request, idStr string) {
	if r.Method != http.MethodGet {
		writeErrorJSON(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid id")
		return
	}

	a, err := h.svc.GetAlert(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			writeErrorJSON(w, http.StatusNotFound, "not found")
		case errors.Is(err, models.ErrInvalidArgument):
			writeErrorJSON(w, http.StatusBadRequest, "invalid argument")
		default:
			writeErrorJSON(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	writeJSON(w, http.StatusOK, toAlertResponse(a))
}

func (h *Handler) changeStatus(w http.ResponseWriter, r *http.Request, idStr string) {
	if r.Method != http.MethodPatch {
		writeErrorJSON(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	defer r.Body.Close()

	id, err := uuid.Parse(idStr)
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req struct {
		Status models.Status `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid json body")
		return
	}

	a, err := h.svc.ChangeStatus(r.Context(), id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			writeErrorJSON(w, http.StatusNotFound, "not found")
		case errors.Is(err, models.ErrInvalidArgument):
			writeErrorJSON(w, http.StatusBadRequest, "invalid argument")
		default:
			writeErrorJSON(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	writeJSON(w, http.StatusOK, toAlertResponse(a))
}

func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorJSON(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	defer r.Body.Close()

	var req ActivateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid json body")
		return
	}

	loc := h.geo.Snapshot(r.Context(), req.Lat, req.Lng, req.Accuracy, req.HasFix)

	act, err := h.coord.Activate(r.Context(), models.AlertDraft{
		RequesterID:   req.RequesterID,
		RequesterName: req.RequesterName,
		Service:       req.Service,
		Target:        req.Target,
		Location:      loc,
		Medical:       req.Medical,
	})
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidArgument):
			writeErrorJSON(w, http.StatusBadRequest, "invalid argument")
		default:
			writeErrorJSON(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	writeJSON(w, http.StatusAccepted, ActivateResponse{
		ActivationID: act.ID(),
		Phase:        string(act.Phase()),
	})
}

func (h *Handler) CancelActivation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorJSON(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	cancelled := h.coord.Cancel()
	writeJSON(w, http.StatusOK, map[string]bool{"cancelled": cancelled})
}

func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorJSON(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	writeJSON(w, http.StatusOK, StateResponse{Phase: string(h.coord.Phase())})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorJSON(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func toAlertResponse(a *models.Alert) AlertResponse {
	return AlertResponse{
		ID:            a.ID,
		RequesterID:   a.RequesterID,
		RequesterName: a.RequesterName,
		Service:       a.Service,
		Target:        a.Target,
		Status:        string(a.Status),
		Location:      a.Location,
		Medical:       a.Medical,
		Evidence:      a.Evidence,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}
