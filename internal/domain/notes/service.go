package notes

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

type CreateInput struct {
	Content     string
	SessionDate *time.Time
	Tags        []string
}

// Create registra una nota. Sin tags del caller, se derivan por frecuencia
// del contenido (fallback al etiquetado por IA, que queda fuera de este core).
func (s *Service) Create(ctx context.Context, clientID, clinicianID string, in CreateInput) (Note, error) {
	if strings.TrimSpace(clientID) == "" || strings.TrimSpace(clinicianID) == "" {
		return Note{}, ErrInvalidInput
	}
	if strings.TrimSpace(in.Content) == "" {
		return Note{}, ErrInvalidInput
	}

	tags := in.Tags
	if len(tags) == 0 {
		tags = ExtractTopTags(in.Content, DefaultTagLimit)
	}

	now := s.now()
	n := Note{
		ID:          uuid.NewString(),
		ClientID:    clientID,
		ClinicianID: clinicianID,
		Content:     strings.TrimSpace(in.Content),
		SessionDate: in.SessionDate,
		Tags:        tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, n); err != nil {
		return Note{}, err
	}
	return n, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Note, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Note{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByClient(ctx context.Context, clientID string) ([]Note, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByClient(ctx, clientID)
}

func (s *Service) ListByClinician(ctx context.Context, clinicianID string) ([]Note, error) {
	clinicianID = strings.TrimSpace(clinicianID)
	if clinicianID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByClinician(ctx, clinicianID)
}

type UpdateInput struct {
	Content     *string
	SessionDate *time.Time
	Tags        []string
}

// Update aplica cambios parciales; si cambia el contenido y no vienen tags,
// se recalculan.
func (s *Service) Update(ctx context.Context, id, clinicianID string, in UpdateInput) (Note, error) {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Note{}, err
	}
	if n.ClinicianID != clinicianID {
		return Note{}, ErrForbidden
	}

	if in.Content != nil {
		content := strings.TrimSpace(*in.Content)
		if content == "" {
			return Note{}, ErrInvalidInput
		}
		n.Content = content
		if len(in.Tags) == 0 {
			n.Tags = ExtractTopTags(content, DefaultTagLimit)
		}
	}
	if len(in.Tags) > 0 {
		n.Tags = in.Tags
	}
	if in.SessionDate != nil {
		n.SessionDate = in.SessionDate
	}

	n.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, n); err != nil {
		return Note{}, err
	}
	return n, nil
}
