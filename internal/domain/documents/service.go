package documents

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("forbidden")
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

type RegisterInput struct {
	ClientID      string // opcional: puede quedar sin asignar hasta el match
	FileName      string
	ExtractedText string
	UploadedAt    *time.Time
}

func (s *Service) Register(ctx context.Context, clinicianID string, in RegisterInput) (Document, error) {
	if strings.TrimSpace(clinicianID) == "" {
		return Document{}, ErrInvalidInput
	}
	if strings.TrimSpace(in.FileName) == "" {
		return Document{}, ErrInvalidInput
	}

	now := s.now()
	uploadedAt := now
	if in.UploadedAt != nil && !in.UploadedAt.IsZero() {
		uploadedAt = *in.UploadedAt
	}

	d := Document{
		ID:            uuid.NewString(),
		ClinicianID:   clinicianID,
		ClientID:      strings.TrimSpace(in.ClientID),
		FileName:      strings.TrimSpace(in.FileName),
		ExtractedText: in.ExtractedText,
		UploadedAt:    uploadedAt,
		UpdatedAt:     now,
	}

	if err := s.repo.Create(ctx, d); err != nil {
		return Document{}, err
	}
	return d, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Document, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Document{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByClient(ctx context.Context, clientID string) ([]Document, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByClient(ctx, clientID)
}

// ListUnmatched devuelve los documentos todavía sin nota adjunta
// (material de carta pendiente).
func (s *Service) ListUnmatched(ctx context.Context, clinicianID string) ([]Document, error) {
	clinicianID = strings.TrimSpace(clinicianID)
	if clinicianID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListUnmatched(ctx, clinicianID)
}

// Attach adjunta el documento a una nota y, si el documento no tenía cliente
// asignado, hereda el del destino.
func (s *Service) Attach(ctx context.Context, id, clinicianID, noteID, noteClientID string) (Document, error) {
	if strings.TrimSpace(noteID) == "" {
		return Document{}, ErrInvalidInput
	}

	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Document{}, err
	}
	if d.ClinicianID != clinicianID {
		return Document{}, ErrForbidden
	}

	d.NoteID = noteID
	if d.ClientID == "" {
		d.ClientID = noteClientID
	}
	d.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, d); err != nil {
		return Document{}, err
	}
	return d, nil
}
