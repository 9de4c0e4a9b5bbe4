package appointments

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"therapy-practice-manager/internal/domain/clients"
	"therapy-practice-manager/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, clientsSvc *clients.Service) {
	r.Route("/clients/{clientID}/appointments", func(ar chi.Router) {
		ar.Post("/", createAppointmentHandler(svc, clientsSvc))
		ar.Get("/", listAppointmentsHandler(svc, clientsSvc))
	})
	r.Post("/appointments/{appointmentID}/status", updateStatusHandler(svc))
}

// createAppointmentRequest es el cuerpo para agendar una cita.
type createAppointmentRequest struct {
	StartTime string `json:"start_time"` // RFC3339
	EndTime   string `json:"end_time"`   // RFC3339, opcional
	Type      string `json:"type"`
	EventID   string `json:"event_id"` // opcional, id de evento de calendario externo
}

// appointmentResponse representa una cita devuelta por la API.
type appointmentResponse struct {
	ID          string     `json:"id"`
	ClientID    string     `json:"client_id"`
	ClinicianID string     `json:"clinician_id"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	Type        string     `json:"type"`
	Status      Status     `json:"status"`
	EventID     string     `json:"event_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// createAppointmentHandler godoc
// @Summary Agendar cita
// @Description Agenda una cita para el cliente indicado. Solo el clínico dueño del cliente puede agendar. Autenticación: `X-Debug-Clinician-ID` (dev) o `Authorization: Bearer <token>` (prod).
// @Tags appointments
// @Accept json
// @Produce json
// @Param clientID path string true "ID del cliente"
// @Param payload body createAppointmentRequest true "Datos de la cita; start_time en RFC3339"
// @Success 201 {object} appointmentResponse
// @Failure 400 {string} string "invalid json / start_time inválido"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "client not found"
// @Router /clients/{clientID}/appointments [post]
func createAppointmentHandler(svc *Service, clientsSvc *clients.Service) http.HandlerFunc {
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

		var req createAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		start, err := time.Parse(time.RFC3339, req.StartTime)
		if err != nil {
			http.Error(w, "start_time must be RFC3339", http.StatusBadRequest)
			return
		}

		var end *time.Time
		if strings.TrimSpace(req.EndTime) != "" {
			t, err := time.Parse(time.RFC3339, req.EndTime)
			if err != nil {
				http.Error(w, "end_time must be RFC3339", http.StatusBadRequest)
				return
			}
			end = &t
		}

		a, err := svc.Create(r.Context(), clientID, claims.ClinicianID, CreateInput{
			StartTime: start,
			EndTime:   end,
			Type:      req.Type,
			EventID:   req.EventID,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(a))
	}
}

// listAppointmentsHandler godoc
// @Summary Listar citas de un cliente
// @Tags appointments
// @Produce json
// @Param clientID path string true "ID del cliente"
// @Success 200 {array} appointmentResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "client not found"
// @Router /clients/{clientID}/appointments [get]
func listAppointmentsHandler(svc *Service, clientsSvc *clients.Service) http.HandlerFunc {
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

		out := make([]appointmentResponse, 0, len(items))
		for _, a := range items {
			out = append(out, toAppointmentResponse(a))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

type updateStatusRequest struct {
	Status string `json:"status" enums:"scheduled,completed,cancelled,no_show"`
}

// updateStatusHandler godoc
// @Summary Cambiar estado de una cita
// @Tags appointments
// @Accept json
// @Produce json
// @Param appointmentID path string true "ID de la cita"
// @Param payload body updateStatusRequest true "Nuevo estado"
// @Success 200 {object} appointmentResponse
// @Failure 400 {string} string "invalid json / estado inválido"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "appointment not found"
// @Router /appointments/{appointmentID}/status [post]
func updateStatusHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.ClinicianID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		id := chi.URLParam(r, "appointmentID")
		a, err := svc.GetByID(r.Context(), id)
		if err != nil || a.ClinicianID != claims.ClinicianID {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}

		var req updateStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		updated, err := svc.UpdateStatus(r.Context(), id, Status(req.Status))
		if err != nil {
			if errors.Is(err, ErrInvalidInput) {
				http.Error(w, "invalid status", http.StatusBadRequest)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(updated))
	}
}

func toAppointmentResponse(a Appointment) appointmentResponse {
	return appointmentResponse{
		ID:          a.ID,
		ClientID:    a.ClientID,
		ClinicianID: a.ClinicianID,
		StartTime:   a.StartTime,
		EndTime:     a.EndTime,
		Type:        a.Type,
		Status:      a.Status,
		EventID:     a.EventID,
		CreatedAt:   a.CreatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
