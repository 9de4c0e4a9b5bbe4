package reconcile

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"therapy-practice-manager/internal/domain/clients"
	"therapy-practice-manager/internal/domain/notes"
	"therapy-practice-manager/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, clientsSvc *clients.Service, notesSvc *notes.Service) {
	r.Post("/clients/{clientID}/reconcile", reconcileClientHandler(svc, clientsSvc))
	r.Get("/notes/{noteID}/suggestion", suggestForNoteHandler(svc, notesSvc))
	r.Post("/notes/{noteID}/link", linkNoteHandler(svc, notesSvc))
	r.Post("/notes/{noteID}/unlink", unlinkNoteHandler(svc, notesSvc))
}

// suggestionResponse es un candidato de vínculo no aplicado.
type suggestionResponse struct {
	NoteID        string   `json:"note_id"`
	AppointmentID string   `json:"appointment_id,omitempty"`
	Confidence    float64  `json:"confidence"`
	Reason        string   `json:"reason"`
	Factors       []string `json:"factors"`
}

// reconcileResponse resume la corrida de reconciliación.
type reconcileResponse struct {
	LinkedCount   int                  `json:"linked_count"`
	TotalUnlinked int                  `json:"total_unlinked"`
	LinkedNoteIDs []string             `json:"linked_note_ids"`
	Suggestions   []suggestionResponse `json:"suggestions"`
}

// linkValidationResponse es el veredicto del validador.
type linkValidationResponse struct {
	IsValid    bool     `json:"is_valid"`
	Confidence float64  `json:"confidence"`
	Warnings   []string `json:"warnings"`
}

// reconcileClientHandler godoc
// @Summary Reconciliar notas de un cliente
// @Description Corre la reconciliación por lote: auto-enlaza notas dentro del umbral de 180 minutos y devuelve sugerencias/conflictos para el resto. Autenticación: `X-Debug-Clinician-ID` (dev) o `Authorization: Bearer <token>` (prod).
// @Tags reconcile
// @Produce json
// @Param clientID path string true "ID del cliente"
// @Success 200 {object} reconcileResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "client not found"
// @Failure 500 {string} string "internal error"
// @Router /clients/{clientID}/reconcile [post]
func reconcileClientHandler(svc *Service, clientsSvc *clients.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.ClinicianID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		clientID := chi.URLParam(r, "clientID")
		c, err := clientsSvc.GetByID(r.Context(), clientID)
		if err != nil || c.ClinicianID != claims.ClinicianID {
			http.Error(w, "client not found", http.StatusNotFound)
			return
		}

		res, err := svc.ReconcileClient(r.Context(), clientID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, toReconcileResponse(res))
	}
}

// suggestForNoteHandler godoc
// @Summary Sugerir cita para una nota
// @Description Clasifica una sola nota sin persistir nada; mismo orden de decisión que el lote (conflicto antes del umbral). Devuelve 204 si no hay candidato o la nota ya está vinculada.
// @Tags reconcile
// @Produce json
// @Param noteID path string true "ID de la nota"
// @Success 200 {object} suggestionResponse
// @Success 204 {string} string "sin candidato"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "note not found"
// @Router /notes/{noteID}/suggestion [get]
func suggestForNoteHandler(svc *Service, notesSvc *notes.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.ClinicianID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		noteID := chi.URLParam(r, "noteID")
		n, err := notesSvc.GetByID(r.Context(), noteID)
		if err != nil || n.ClinicianID != claims.ClinicianID {
			http.Error(w, "note not found", http.StatusNotFound)
			return
		}

		sug, err := svc.SuggestForNote(r.Context(), noteID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				http.Error(w, "note not found", http.StatusNotFound)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if sug == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		writeJSON(w, http.StatusOK, toSuggestionResponse(*sug))
	}
}

type linkNoteRequest struct {
	AppointmentID string `json:"appointment_id"`
	// Force salta conflicto y distancia temporal, nunca clientes distintos.
	Force bool `json:"force"`
}

type linkNoteResponse struct {
	NoteID        string                 `json:"note_id"`
	AppointmentID string                 `json:"appointment_id"`
	Validation    linkValidationResponse `json:"validation"`
}

// linkNoteHandler godoc
// @Summary Confirmar vínculo nota-cita
// @Description Valida el par (nota, cita) y persiste el vínculo. Con condiciones bloqueantes responde 409 con los warnings; force=true las salta salvo la de clientes distintos.
// @Tags reconcile
// @Accept json
// @Produce json
// @Param noteID path string true "ID de la nota"
// @Param payload body linkNoteRequest true "Cita candidata"
// @Success 200 {object} linkNoteResponse
// @Failure 400 {string} string "invalid json"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "note not found / appointment not found"
// @Failure 409 {object} linkValidationResponse "vínculo bloqueado"
// @Router /notes/{noteID}/link [post]
func linkNoteHandler(svc *Service, notesSvc *notes.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.ClinicianID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		noteID := chi.URLParam(r, "noteID")
		n, err := notesSvc.GetByID(r.Context(), noteID)
		if err != nil || n.ClinicianID != claims.ClinicianID {
			http.Error(w, "note not found", http.StatusNotFound)
			return
		}

		var req linkNoteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.AppointmentID) == "" {
			http.Error(w, "appointment_id required", http.StatusBadRequest)
			return
		}

		updated, v, err := svc.Link(r.Context(), noteID, req.AppointmentID, req.Force)
		if err != nil {
			switch {
			case errors.Is(err, ErrLinkBlocked):
				writeJSON(w, http.StatusConflict, toValidationResponse(v))
			case errors.Is(err, ErrNotFound):
				http.Error(w, err.Error(), http.StatusNotFound)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusOK, linkNoteResponse{
			NoteID:        updated.ID,
			AppointmentID: updated.AppointmentID,
			Validation:    toValidationResponse(v),
		})
	}
}

// unlinkNoteHandler godoc
// @Summary Desvincular nota de su cita
// @Description Suelta la nota (idempotente: sin vínculo previo responde igual 200).
// @Tags reconcile
// @Produce json
// @Param noteID path string true "ID de la nota"
// @Success 200 {object} linkNoteResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "note not found"
// @Router /notes/{noteID}/unlink [post]
func unlinkNoteHandler(svc *Service, notesSvc *notes.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.ClinicianID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		noteID := chi.URLParam(r, "noteID")
		n, err := notesSvc.GetByID(r.Context(), noteID)
		if err != nil || n.ClinicianID != claims.ClinicianID {
			http.Error(w, "note not found", http.StatusNotFound)
			return
		}

		updated, err := svc.Unlink(r.Context(), noteID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, linkNoteResponse{
			NoteID:        updated.ID,
			AppointmentID: updated.AppointmentID,
			Validation:    linkValidationResponse{IsValid: true, Warnings: []string{}},
		})
	}
}

func toSuggestionResponse(s Suggestion) suggestionResponse {
	factors := s.Factors
	if factors == nil {
		factors = []string{}
	}
	return suggestionResponse{
		NoteID:        s.NoteID,
		AppointmentID: s.AppointmentID,
		Confidence:    s.Confidence,
		Reason:        s.Reason,
		Factors:       factors,
	}
}

func toReconcileResponse(res Result) reconcileResponse {
	out := reconcileResponse{
		LinkedCount:   res.LinkedCount,
		TotalUnlinked: res.TotalUnlinked,
		LinkedNoteIDs: res.LinkedNoteIDs,
		Suggestions:   make([]suggestionResponse, 0, len(res.Suggestions)),
	}
	for _, s := range res.Suggestions {
		out.Suggestions = append(out.Suggestions, toSuggestionResponse(s))
	}
	return out
}

func toValidationResponse(v LinkValidation) linkValidationResponse {
	warnings := v.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return linkValidationResponse{
		IsValid:    v.IsValid,
		Confidence: v.Confidence,
		Warnings:   warnings,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
