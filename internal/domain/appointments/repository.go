package appointments

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, a Appointment) error
	GetByID(ctx context.Context, id string) (Appointment, error)
	ListByClient(ctx context.Context, clientID string) ([]Appointment, error)
	ListByClinician(ctx context.Context, clinicianID string, filter ListFilter) ([]Appointment, error)
	Update(ctx context.Context, a Appointment) error
}

type ListFilter struct {
	From *time.Time
	To   *time.Time
}
