package calendar

import (
	"context"
	"time"
)

type Repository interface {
	Upsert(ctx context.Context, e Event) error
	GetByID(ctx context.Context, id string) (Event, error)
	ListByClinician(ctx context.Context, clinicianID string, filter ListFilter) ([]Event, error)
}

type ListFilter struct {
	From     *time.Time
	To       *time.Time
	Statuses []SyncStatus
}
