package timeline

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
	r.Get("/timeline", getTimelineHandler(svc, clientsSvc))
}

// itemResponse representa un item normalizado del timeline.
type itemResponse struct {
	Kind       Kind              `json:"kind"`
	RefID      string            `json:"ref_id"`
	Date       *time.Time        `json:"date,omitempty"`
	Title      string            `json:"title"`
	ClientID   string            `json:"client_id,omitempty"`
	ClientName string            `json:"client_name,omitempty"`
	Tags       []string          `json:"tags,omitempty"`
	Status     Status            `json:"status"`
	Source     string            `json:"source"`
	Meta       map[string]string `json:"meta,omitempty"`
}

type dayGroupResponse struct {
	Day   string         `json:"day"`
	Items []itemResponse `json:"items"`
}

// getTimelineHandler godoc
// @Summary Timeline unificado
// @Description Fusiona citas, notas, documentos y eventos de calendario en una vista cronológica (más reciente primero) anotada con estado de reconciliación. Por defecto agrega todo el historial del clínico autenticado; client_id acota a un expediente.
// @Tags timeline
// @Produce json
// @Param client_id query string false "Acotar a un cliente"
// @Param from query string false "Fecha/hora mínima (RFC3339)"
// @Param to query string false "Fecha/hora máxima (RFC3339)"
// @Param kinds query string false "Lista CSV de tipos (appointment,session_note,document,calendar_event)"
// @Param include_unlinked query bool false "Incluir items unlinked/unmatched (default true)"
// @Param group query string false "group=day agrupa por día calendario"
// @Success 200 {array} itemResponse
// @Failure 400 {string} string "Parámetros de filtro inválidos"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "client not found"
// @Router /timeline [get]
func getTimelineHandler(svc *Service, clientsSvc *clients.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.ClinicianID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		q, err := parseQuery(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if q.ClientID != "" {
			c, err := clientsSvc.GetByID(r.Context(), q.ClientID)
			if err != nil || c.ClinicianID != claims.ClinicianID {
				http.Error(w, "client not found", http.StatusNotFound)
				return
			}
		} else {
			q.ClinicianID = claims.ClinicianID
		}

		items, err := svc.Build(r.Context(), q)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		if strings.EqualFold(r.URL.Query().Get("group"), "day") {
			groups := GroupByDay(items)
			out := make([]dayGroupResponse, 0, len(groups))
			for _, g := range groups {
				gr := dayGroupResponse{Day: g.Day, Items: make([]itemResponse, 0, len(g.Items))}
				for _, it := range g.Items {
					gr.Items = append(gr.Items, toItemResponse(it))
				}
				out = append(out, gr)
			}
			writeJSON(w, http.StatusOK, out)
			return
		}

		out := make([]itemResponse, 0, len(items))
		for _, it := range items {
			out = append(out, toItemResponse(it))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func parseQuery(r *http.Request) (Query, error) {
	q := Query{
		ClientID:        strings.TrimSpace(r.URL.Query().Get("client_id")),
		IncludeUnlinked: true,
	}

	if v := strings.TrimSpace(r.URL.Query().Get("include_unlinked")); v != "" {
		q.IncludeUnlinked = !strings.EqualFold(v, "false")
	}

	if v := strings.TrimSpace(r.URL.Query().Get("from")); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return Query{}, errors.New("from must be RFC3339")
		}
		q.From = &t
	}
	if v := strings.TrimSpace(r.URL.Query().Get("to")); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return Query{}, errors.New("to must be RFC3339")
		}
		q.To = &t
	}

	if v := strings.TrimSpace(r.URL.Query().Get("kinds")); v != "" {
		for _, p := range strings.Split(v, ",") {
			k := Kind(strings.TrimSpace(p))
			if k == "" {
				continue
			}
			q.Kinds = append(q.Kinds, k)
		}
	}

	return q, nil
}

func toItemResponse(it Item) itemResponse {
	out := itemResponse{
		Kind:       it.Kind,
		RefID:      it.RefID,
		Title:      it.Title,
		ClientID:   it.ClientID,
		ClientName: it.ClientName,
		Tags:       it.Tags,
		Status:     it.Status,
		Source:     it.Source,
		Meta:       it.Meta,
	}
	if !it.Date.IsZero() {
		d := it.Date
		out.Date = &d
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
