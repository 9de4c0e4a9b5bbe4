package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"therapy-practice-manager/internal/domain/documents"
)

type documentRepo struct {
	mu   sync.RWMutex
	byID map[string]documents.Document
}

func NewDocumentRepo() documents.Repository {
	return &documentRepo{
		byID: make(map[string]documents.Document),
	}
}

func (r *documentRepo) Create(ctx context.Context, d documents.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(d.ID) == "" {
		return errors.New("document id required")
	}
	if _, exists := r.byID[d.ID]; exists {
		return errors.New("document already exists")
	}
	r.byID[d.ID] = d
	return nil
}

func (r *documentRepo) GetByID(ctx context.Context, id string) (documents.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.byID[id]
	if !ok {
		return documents.Document{}, ErrNotFound
	}
	return d, nil
}

func (r *documentRepo) ListByClient(ctx context.Context, clientID string) ([]documents.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]documents.Document, 0)
	for _, d := range r.byID {
		if d.ClientID == clientID {
			out = append(out, d)
		}
	}

	sortDocuments(out)
	return out, nil
}

func (r *documentRepo) ListByClinician(ctx context.Context, clinicianID string) ([]documents.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]documents.Document, 0)
	for _, d := range r.byID {
		if d.ClinicianID == clinicianID {
			out = append(out, d)
		}
	}

	sortDocuments(out)
	return out, nil
}

func (r *documentRepo) ListUnmatched(ctx context.Context, clinicianID string) ([]documents.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]documents.Document, 0)
	for _, d := range r.byID {
		if d.ClinicianID == clinicianID && !d.Attached() {
			out = append(out, d)
		}
	}

	sortDocuments(out)
	return out, nil
}

func (r *documentRepo) Update(ctx context.Context, d documents.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(d.ID) == "" {
		return errors.New("document id required")
	}
	if _, exists := r.byID[d.ID]; !exists {
		return ErrNotFound
	}
	r.byID[d.ID] = d
	return nil
}

func sortDocuments(out []documents.Document) {
	sort.Slice(out, func(i, j int) bool {
		if out[i].UploadedAt.Equal(out[j].UploadedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].UploadedAt.Before(out[j].UploadedAt)
	})
}
