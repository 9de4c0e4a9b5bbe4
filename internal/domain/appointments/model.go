package appointments

import "time"

// Status define el estado de la cita.
// @Enum scheduled, completed, cancelled, no_show
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
)

// Appointment representa una cita agendada para un cliente.
// EventID referencia (opcional) el evento del calendario externo que la originó.
type Appointment struct {
	ID          string
	ClientID    string
	ClinicianID string

	StartTime time.Time
	EndTime   *time.Time

	Type    string
	Status  Status
	EventID string

	CreatedAt time.Time
	UpdatedAt time.Time
}
