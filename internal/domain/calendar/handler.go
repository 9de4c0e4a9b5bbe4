package calendar

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"therapy-practice-manager/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/calendar/events", func(cr chi.Router) {
		cr.Put("/", syncEventsHandler(svc))
		cr.Get("/", listEventsHandler(svc))
	})
}

// syncEventsRequest es el lote de eventos que entrega el sync del calendario externo.
type syncEventsRequest struct {
	Events []syncEventInput `json:"events"`
}

type syncEventInput struct {
	ID        string `json:"id"`
	Summary   string `json:"summary"`
	StartTime string `json:"start_time"` // RFC3339
}

// eventResponse representa un evento de calendario devuelto por la API.
type eventResponse struct {
	ID          string     `json:"id"`
	ClinicianID string     `json:"clinician_id"`
	Summary     string     `json:"summary"`
	StartTime   time.Time  `json:"start_time"`
	Status      SyncStatus `json:"status"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// syncEventsHandler godoc
// @Summary Sincronizar eventos de calendario externo
// @Description Upsert del lote de eventos y recálculo del estado matched/pending/unmatched contra las citas del clínico autenticado.
// @Tags calendar
// @Accept json
// @Produce json
// @Param payload body syncEventsRequest true "Eventos del calendario; start_time en RFC3339"
// @Success 200 {array} eventResponse
// @Failure 400 {string} string "invalid json / start_time inválido"
// @Failure 401 {string} string "unauthorized"
// @Router /calendar/events [put]
func syncEventsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.ClinicianID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req syncEventsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		inputs := make([]EventInput, 0, len(req.Events))
		for _, ev := range req.Events {
			t, err := time.Parse(time.RFC3339, ev.StartTime)
			if err != nil {
				http.Error(w, "start_time must be RFC3339", http.StatusBadRequest)
				return
			}
			inputs = append(inputs, EventInput{ID: ev.ID, Summary: ev.Summary, StartTime: t})
		}

		items, err := svc.Sync(r.Context(), claims.ClinicianID, inputs)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]eventResponse, 0, len(items))
		for _, e := range items {
			out = append(out, toEventResponse(e))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// listEventsHandler godoc
// @Summary Listar eventos de calendario
// @Tags calendar
// @Produce json
// @Param from query string false "Fecha/hora mínima (RFC3339)"
// @Param to query string false "Fecha/hora máxima (RFC3339)"
// @Param status query string false "Lista CSV de estados (matched,pending,unmatched)"
// @Success 200 {array} eventResponse
// @Failure 400 {string} string "Parámetros de filtro inválidos"
// @Failure 401 {string} string "unauthorized"
// @Router /calendar/events [get]
func listEventsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.ClinicianID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		filter, err := parseListFilter(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		items, err := svc.List(r.Context(), claims.ClinicianID, filter)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]eventResponse, 0, len(items))
		for _, e := range items {
			out = append(out, toEventResponse(e))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func parseListFilter(r *http.Request) (ListFilter, error) {
	var filter ListFilter

	if v := strings.TrimSpace(r.URL.Query().Get("from")); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return ListFilter{}, errors.New("from must be RFC3339")
		}
		filter.From = &t
	}
	if v := strings.TrimSpace(r.URL.Query().Get("to")); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return ListFilter{}, errors.New("to must be RFC3339")
		}
		filter.To = &t
	}

	if v := strings.TrimSpace(r.URL.Query().Get("status")); v != "" {
		for _, p := range strings.Split(v, ",") {
			st := SyncStatus(strings.TrimSpace(p))
			if st == "" {
				continue
			}
			filter.Statuses = append(filter.Statuses, st)
		}
	}

	return filter, nil
}

func toEventResponse(e Event) eventResponse {
	return eventResponse{
		ID:          e.ID,
		ClinicianID: e.ClinicianID,
		Summary:     e.Summary,
		StartTime:   e.StartTime,
		Status:      e.Status,
		UpdatedAt:   e.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
