package analysis

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	appanalysis "eddp/analizador_cfdi/internal/application/analysis"
	httperrors "eddp/analizador_cfdi/internal/infrastructure/http"
)

// Handler bridges HTTP traffic with the analysis application service.
type Handler struct {
	service *appanalysis.Service
}

func NewHandler(service *appanalysis.Service) *Handler {
	return &Handler{service: service}
}

// StartScanRequest represents the request body for starting a scan.
type StartScanRequest struct {
	RFC   string   `json:"rfc"`
	Rutas []string `json:"rutas"`
}

// StartScanResponse carries the identifier of the registered scan.
type StartScanResponse struct {
	ScanID string `json:"scanId"`
	Total  int    `json:"total"`
}

// StartScan handles POST /api/v1/scans requests.
func (h *Handler) StartScan(w http.ResponseWriter, r *http.Request) {
	var reqBody StartScanRequest
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{"El cuerpo de la petición no es válido"}, nil)
		return
	}

	if len(reqBody.Rutas) == 0 {
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{"rutas es requerido"}, nil)
		return
	}

	id, err := h.service.StartScan(r.Context(), reqBody.Rutas, reqBody.RFC)
	if err != nil {
		h.handleError(w, err)
		return
	}

	status, err := h.service.Status(id)
	if err != nil {
		h.handleError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, StartScanResponse{
		ScanID: id,
		Total:  status.Progreso.Total,
	})
}

// Status handles GET /api/v1/scans/{scanId} requests.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "scanId")
	status, err := h.service.Status(id)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// List handles GET /api/v1/scans requests.
func (h *Handler) List(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.service.List())
}

// Snapshot handles GET /api/v1/scans/{scanId}/kpis requests.
func (h *Handler) Snapshot(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "scanId")
	snap, err := h.service.Snapshot(id)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// Cancel handles POST /api/v1/scans/{scanId}/cancelar requests.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "scanId")
	if err := h.service.Cancel(id); err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"resultado": true})
}

// handleError maps service errors to appropriate HTTP status codes.
func (h *Handler) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, appanalysis.ErrRFCInvalido):
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{"El RFC proporcionado no es válido"}, nil)
	case errors.Is(err, appanalysis.ErrRutaNoPermitida):
		httperrors.WriteError(w, http.StatusForbidden, "Ruta No Permitida", []string{err.Error()}, nil)
	case errors.Is(err, appanalysis.ErrScanNotFound):
		httperrors.WriteError(w, http.StatusNotFound, "Scan No Encontrado", []string{err.Error()}, nil)
	case errors.Is(err, appanalysis.ErrScanRunning):
		httperrors.WriteError(w, http.StatusConflict, "Scan En Progreso", []string{"El scan aún no ha terminado"}, nil)
	default:
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{err.Error()}, nil)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
