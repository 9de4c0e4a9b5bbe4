package documents

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"therapy-practice-manager/internal/domain/notes"
	"therapy-practice-manager/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, notesSvc *notes.Service) {
	r.Route("/documents", func(dr chi.Router) {
		dr.Post("/", registerDocumentHandler(svc))
		dr.Get("/unmatched", listUnmatchedHandler(svc))
		dr.Post("/{documentID}/attach", attachDocumentHandler(svc, notesSvc))
	})
}

// registerDocumentRequest es el cuerpo para registrar un documento ya procesado.
type registerDocumentRequest struct {
	ClientID      string `json:"client_id"` // opcional
	FileName      string `json:"file_name"`
	ExtractedText string `json:"extracted_text"`
	UploadedAt    string `json:"uploaded_at"` // RFC3339, opcional
}

// documentResponse representa un documento devuelto por la API.
type documentResponse struct {
	ID            string    `json:"id"`
	ClinicianID   string    `json:"clinician_id"`
	ClientID      string    `json:"client_id,omitempty"`
	FileName      string    `json:"file_name"`
	ExtractedText string    `json:"extracted_text"`
	NoteID        string    `json:"note_id,omitempty"`
	Attached      bool      `json:"attached"`
	UploadedAt    time.Time `json:"uploaded_at"`
}

// registerDocumentHandler godoc
// @Summary Registrar documento
// @Description Registra un documento con su texto ya extraído (el transporte de archivos queda fuera de este servicio). Puede venir sin cliente asignado.
// @Tags documents
// @Accept json
// @Produce json
// @Param payload body registerDocumentRequest true "Datos del documento"
// @Success 201 {object} documentResponse
// @Failure 400 {string} string "invalid json / uploaded_at inválido"
// @Failure 401 {string} string "unauthorized"
// @Router /documents [post]
func registerDocumentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.ClinicianID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req registerDocumentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		var uploadedAt *time.Time
		if strings.TrimSpace(req.UploadedAt) != "" {
			t, err := time.Parse(time.RFC3339, req.UploadedAt)
			if err != nil {
				http.Error(w, "uploaded_at must be RFC3339", http.StatusBadRequest)
				return
			}
			uploadedAt = &t
		}

		d, err := svc.Register(r.Context(), claims.ClinicianID, RegisterInput{
			ClientID:      req.ClientID,
			FileName:      req.FileName,
			ExtractedText: req.ExtractedText,
			UploadedAt:    uploadedAt,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		writeJSON(w, http.StatusCreated, toDocumentResponse(d))
	}
}

// listUnmatchedHandler godoc
// @Summary Listar documentos sin nota adjunta
// @Description Documentos pendientes de expediente (sin nota vinculada) del clínico autenticado.
// @Tags documents
// @Produce json
// @Success 200 {array} documentResponse
// @Failure 401 {string} string "unauthorized"
// @Router /documents/unmatched [get]
func listUnmatchedHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.ClinicianID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListUnmatched(r.Context(), claims.ClinicianID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]documentResponse, 0, len(items))
		for _, d := range items {
			out = append(out, toDocumentResponse(d))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

type attachDocumentRequest struct {
	NoteID string `json:"note_id"`
}

// attachDocumentHandler godoc
// @Summary Adjuntar documento a una nota
// @Tags documents
// @Accept json
// @Produce json
// @Param documentID path string true "ID del documento"
// @Param payload body attachDocumentRequest true "Nota destino"
// @Success 200 {object} documentResponse
// @Failure 400 {string} string "invalid json"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "document not found / note not found"
// @Router /documents/{documentID}/attach [post]
func attachDocumentHandler(svc *Service, notesSvc *notes.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.ClinicianID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req attachDocumentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		n, err := notesSvc.GetByID(r.Context(), req.NoteID)
		if err != nil || n.ClinicianID != claims.ClinicianID {
			http.Error(w, "note not found", http.StatusNotFound)
			return
		}

		d, err := svc.Attach(r.Context(), chi.URLParam(r, "documentID"), claims.ClinicianID, n.ID, n.ClientID)
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			default:
				http.Error(w, "document not found", http.StatusNotFound)
			}
			return
		}

		writeJSON(w, http.StatusOK, toDocumentResponse(d))
	}
}

func toDocumentResponse(d Document) documentResponse {
	return documentResponse{
		ID:            d.ID,
		ClinicianID:   d.ClinicianID,
		ClientID:      d.ClientID,
		FileName:      d.FileName,
		ExtractedText: d.ExtractedText,
		NoteID:        d.NoteID,
		Attached:      d.Attached(),
		UploadedAt:    d.UploadedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
