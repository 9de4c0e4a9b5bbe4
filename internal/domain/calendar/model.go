package calendar

import "time"

// SyncStatus refleja la conciliación del evento externo contra las citas.
// @Enum matched, pending, unmatched
type SyncStatus string

const (
	// StatusMatched: alguna cita referencia este evento.
	StatusMatched SyncStatus = "matched"
	// StatusPending: recién sincronizado, todavía sin conciliar.
	StatusPending SyncStatus = "pending"
	// StatusUnmatched: siguió sin cita tras una nueva pasada de sync.
	StatusUnmatched SyncStatus = "unmatched"
)

// Event representa un evento del calendario externo. El ID es el identificador
// del proveedor de calendario; las citas lo referencian en su EventID.
type Event struct {
	ID          string
	ClinicianID string

	Summary   string
	StartTime time.Time

	Status SyncStatus

	CreatedAt time.Time
	UpdatedAt time.Time
}
