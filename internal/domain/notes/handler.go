package notes

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"therapy-practice-manager/internal/domain/clients"
	"therapy-practice-manager/internal/middleware"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

func RegisterRoutes(r chi.Router, svc *Service, clientsSvc *clients.Service) {
	r.Route("/clients/{clientID}/notes", func(nr chi.Router) {
		nr.Post("/", createNoteHandler(svc, clientsSvc))
		nr.Get("/", listNotesHandler(svc, clientsSvc))
	})
	r.Get("/notes/{noteID}", getNoteHandler(svc))
	r.Patch("/notes/{noteID}", updateNoteHandler(svc))
}

// createNoteRequest es el cuerpo para registrar una nota de sesión.
type createNoteRequest struct {
	Content     string   `json:"content"`
	SessionDate string   `json:"session_date"` // RFC3339, opcional
	Tags        []string `json:"tags"`         // opcional; si falta se derivan del contenido
}

func (req createNoteRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Content, validation.Required),
		validation.Field(&req.Tags, validation.Length(0, 20)),
	)
}

// noteResponse representa una nota clínica devuelta por la API.
type noteResponse struct {
	ID            string     `json:"id"`
	ClientID      string     `json:"client_id"`
	ClinicianID   string     `json:"clinician_id"`
	AppointmentID string     `json:"appointment_id,omitempty"`
	EventID       string     `json:"event_id,omitempty"`
	Content       string     `json:"content"`
	SessionDate   *time.Time `json:"session_date,omitempty"`
	Tags          []string   `json:"tags"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// createNoteHandler godoc
// @Summary Registrar nota de sesión
// @Description Registra una nota clínica para el cliente indicado. Si no se envían tags, se derivan por frecuencia del contenido. Autenticación: `X-Debug-Clinician-ID` (dev) o `Authorization: Bearer <token>` (prod).
// @Tags notes
// @Accept json
// @Produce json
// @Param clientID path string true "ID del cliente"
// @Param payload body createNoteRequest true "Contenido de la nota; session_date en RFC3339 si se conoce"
// @Success 201 {object} noteResponse
// @Failure 400 {string} string "invalid json / session_date inválido"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "client not found"
// @Router /clients/{clientID}/notes [post]
func createNoteHandler(svc *Service, clientsSvc *clients.Service) http.HandlerFunc {
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

		var req createNoteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := req.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		var sessionDate *time.Time
		if strings.TrimSpace(req.SessionDate) != "" {
			t, err := time.Parse(time.RFC3339, req.SessionDate)
			if err != nil {
				http.Error(w, "session_date must be RFC3339", http.StatusBadRequest)
				return
			}
			sessionDate = &t
		}

		n, err := svc.Create(r.Context(), clientID, claims.ClinicianID, CreateInput{
			Content:     req.Content,
			SessionDate: sessionDate,
			Tags:        req.Tags,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		writeJSON(w, http.StatusCreated, toNoteResponse(n))
	}
}

// listNotesHandler godoc
// @Summary Listar notas de un cliente
// @Tags notes
// @Produce json
// @Param clientID path string true "ID del cliente"
// @Success 200 {array} noteResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "client not found"
// @Router /clients/{clientID}/notes [get]
func listNotesHandler(svc *Service, clientsSvc *clients.Service) http.HandlerFunc {
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

		items, err := svc.ListByClient(r.Context(), clientID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]noteResponse, 0, len(items))
		for _, n := range items {
			out = append(out, toNoteResponse(n))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// getNoteHandler godoc
// @Summary Obtener nota por ID
// @Tags notes
// @Produce json
// @Param noteID path string true "ID de la nota"
// @Success 200 {object} noteResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "note not found"
// @Router /notes/{noteID} [get]
func getNoteHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.ClinicianID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		n, err := svc.GetByID(r.Context(), chi.URLParam(r, "noteID"))
		if err != nil || n.ClinicianID != claims.ClinicianID {
			http.Error(w, "note not found", http.StatusNotFound)
			return
		}

		writeJSON(w, http.StatusOK, toNoteResponse(n))
	}
}

type updateNoteRequest struct {
	Content     *string  `json:"content"`
	SessionDate *string  `json:"session_date"` // RFC3339
	Tags        []string `json:"tags"`
}

// updateNoteHandler godoc
// @Summary Actualizar nota (parcial)
// @Tags notes
// @Accept json
// @Produce json
// @Param noteID path string true "ID de la nota"
// @Param payload body updateNoteRequest true "Campos a actualizar"
// @Success 200 {object} noteResponse
// @Failure 400 {string} string "invalid json / session_date inválido"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "note not found"
// @Router /notes/{noteID} [patch]
func updateNoteHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.ClinicianID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req updateNoteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		in := UpdateInput{Content: req.Content, Tags: req.Tags}
		if req.SessionDate != nil {
			t, err := time.Parse(time.RFC3339, *req.SessionDate)
			if err != nil {
				http.Error(w, "session_date must be RFC3339", http.StatusBadRequest)
				return
			}
			in.SessionDate = &t
		}

		n, err := svc.Update(r.Context(), chi.URLParam(r, "noteID"), claims.ClinicianID, in)
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			default:
				http.Error(w, "note not found", http.StatusNotFound)
			}
			return
		}

		writeJSON(w, http.StatusOK, toNoteResponse(n))
	}
}

func toNoteResponse(n Note) noteResponse {
	tags := n.Tags
	if tags == nil {
		tags = []string{}
	}
	return noteResponse{
		ID:            n.ID,
		ClientID:      n.ClientID,
		ClinicianID:   n.ClinicianID,
		AppointmentID: n.AppointmentID,
		EventID:       n.EventID,
		Content:       n.Content,
		SessionDate:   n.SessionDate,
		Tags:          tags,
		CreatedAt:     n.CreatedAt,
		UpdatedAt:     n.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
