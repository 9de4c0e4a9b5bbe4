package notes

import (
	"context"
	"time"
)

// Link agrupa los campos de vínculo que la reconciliación puede escribir.
// AppointmentID/EventID vacíos desvinculan; SessionDate solo se escribe si viene
// no-nil (backfill desde la cita cuando la nota no traía fecha propia).
type Link struct {
	AppointmentID string
	EventID       string
	SessionDate   *time.Time
}

type Repository interface {
	Create(ctx context.Context, n Note) error
	GetByID(ctx context.Context, id string) (Note, error)
	ListByClient(ctx context.Context, clientID string) ([]Note, error)
	ListByClinician(ctx context.Context, clinicianID string) ([]Note, error)
	ListByAppointment(ctx context.Context, appointmentID string) ([]Note, error)
	UpdateLink(ctx context.Context, id string, link Link) error
	Update(ctx context.Context, n Note) error
}
