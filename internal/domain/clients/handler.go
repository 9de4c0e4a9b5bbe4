package clients

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"therapy-practice-manager/internal/middleware"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/clients", func(cr chi.Router) {
		cr.Post("/", createClientHandler(svc))
		cr.Get("/", listClientsHandler(svc))
		cr.Get("/{clientID}", getClientHandler(svc))
		cr.Patch("/{clientID}", updateClientHandler(svc))
	})
}

// createClientRequest es el cuerpo para registrar un cliente nuevo.
type createClientRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

func (req createClientRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.FirstName, validation.Length(0, 120)),
		validation.Field(&req.LastName, validation.Length(0, 120)),
		validation.Field(&req.Email, is.EmailFormat),
	)
}

// clientResponse representa un cliente devuelto por la API.
type clientResponse struct {
	ID          string    `json:"id"`
	ClinicianID string    `json:"clinician_id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// createClientHandler godoc
// @Summary Registrar cliente
// @Description Registra un cliente nuevo bajo el clínico autenticado. Autenticación: `X-Debug-Clinician-ID` (dev) o `Authorization: Bearer <token>` (prod).
// @Tags clients
// @Accept json
// @Produce json
// @Param payload body createClientRequest true "Datos del cliente"
// @Success 201 {object} clientResponse
// @Failure 400 {string} string "invalid json / datos inválidos"
// @Failure 401 {string} string "unauthorized"
// @Router /clients [post]
func createClientHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.ClinicianID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createClientRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := req.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		c, err := svc.Create(r.Context(), claims.ClinicianID, CreateInput{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Email:     req.Email,
			Phone:     req.Phone,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		writeJSON(w, http.StatusCreated, toClientResponse(c))
	}
}

// listClientsHandler godoc
// @Summary Listar clientes del clínico autenticado
// @Tags clients
// @Produce json
// @Success 200 {array} clientResponse
// @Failure 401 {string} string "unauthorized"
// @Router /clients [get]
func listClientsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.ClinicianID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListByClinician(r.Context(), claims.ClinicianID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]clientResponse, 0, len(items))
		for _, c := range items {
			out = append(out, toClientResponse(c))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// getClientHandler godoc
// @Summary Obtener cliente por ID
// @Tags clients
// @Produce json
// @Param clientID path string true "ID del cliente"
// @Success 200 {object} clientResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "client not found"
// @Router /clients/{clientID} [get]
func getClientHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.ClinicianID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		c, err := svc.GetByID(r.Context(), chi.URLParam(r, "clientID"))
		if err != nil || c.ClinicianID != claims.ClinicianID {
			http.Error(w, "client not found", http.StatusNotFound)
			return
		}

		writeJSON(w, http.StatusOK, toClientResponse(c))
	}
}

type updateClientRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
	Status    *string `json:"status" enums:"active,archived"`
}

// updateClientHandler godoc
// @Summary Actualizar cliente (parcial)
// @Tags clients
// @Accept json
// @Produce json
// @Param clientID path string true "ID del cliente"
// @Param payload body updateClientRequest true "Campos a actualizar"
// @Success 200 {object} clientResponse
// @Failure 400 {string} string "invalid json"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "client not found"
// @Router /clients/{clientID} [patch]
func updateClientHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.ClinicianID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req updateClientRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		in := UpdateInput{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Email:     req.Email,
			Phone:     req.Phone,
		}
		if req.Status != nil {
			st := Status(*req.Status)
			in.Status = &st
		}

		c, err := svc.Update(r.Context(), chi.URLParam(r, "clientID"), claims.ClinicianID, in)
		if err != nil {
			switch {
			case errors.Is(err, ErrForbidden):
				http.Error(w, "client not found", http.StatusNotFound)
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			default:
				http.Error(w, "client not found", http.StatusNotFound)
			}
			return
		}

		writeJSON(w, http.StatusOK, toClientResponse(c))
	}
}

func toClientResponse(c Client) clientResponse {
	return clientResponse{
		ID:          c.ID,
		ClinicianID: c.ClinicianID,
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		Email:       c.Email,
		Phone:       c.Phone,
		Status:      c.Status,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
