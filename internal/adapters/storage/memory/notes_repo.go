package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"therapy-practice-manager/internal/domain/notes"
)

type noteRepo struct {
	mu   sync.RWMutex
	byID map[string]notes.Note
}

func NewNoteRepo() notes.Repository {
	return &noteRepo{
		byID: make(map[string]notes.Note),
	}
}

func (r *noteRepo) Create(ctx context.Context, n notes.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(n.ID) == "" {
		return errors.New("note id required")
	}
	if _, exists := r.byID[n.ID]; exists {
		return errors.New("note already exists")
	}
	r.byID[n.ID] = n
	return nil
}

func (r *noteRepo) GetByID(ctx context.Context, id string) (notes.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n, ok := r.byID[id]
	if !ok {
		return notes.Note{}, ErrNotFound
	}
	return n, nil
}

func (r *noteRepo) ListByClient(ctx context.Context, clientID string) ([]notes.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]notes.Note, 0)
	for _, n := range r.byID {
		if n.ClientID == clientID {
			out = append(out, n)
		}
	}

	sortNotes(out)
	return out, nil
}

func (r *noteRepo) ListByClinician(ctx context.Context, clinicianID string) ([]notes.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]notes.Note, 0)
	for _, n := range r.byID {
		if n.ClinicianID == clinicianID {
			out = append(out, n)
		}
	}

	sortNotes(out)
	return out, nil
}

func (r *noteRepo) ListByAppointment(ctx context.Context, appointmentID string) ([]notes.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if strings.TrimSpace(appointmentID) == "" {
		return []notes.Note{}, nil
	}

	out := make([]notes.Note, 0)
	for _, n := range r.byID {
		if n.AppointmentID == appointmentID {
			out = append(out, n)
		}
	}

	sortNotes(out)
	return out, nil
}

func (r *noteRepo) UpdateLink(ctx context.Context, id string, link notes.Link) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}

	n.AppointmentID = link.AppointmentID
	n.EventID = link.EventID
	if link.SessionDate != nil {
		n.SessionDate = link.SessionDate
	}
	n.UpdatedAt = time.Now()

	r.byID[id] = n
	return nil
}

func (r *noteRepo) Update(ctx context.Context, n notes.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(n.ID) == "" {
		return errors.New("note id required")
	}
	if _, exists := r.byID[n.ID]; !exists {
		return ErrNotFound
	}
	r.byID[n.ID] = n
	return nil
}

// Orden estable por created_at asc; la reconciliación procesa las notas en
// orden de entrada y ese orden tiene que ser reproducible.
func sortNotes(out []notes.Note) {
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
}
