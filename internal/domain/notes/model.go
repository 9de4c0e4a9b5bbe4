package notes

import "time"

// Note representa una nota clínica de sesión.
//
// AppointmentID y EventID son vínculos opcionales hacia la cita y el evento de
// calendario externo; los escribe el módulo de reconciliación, no este.
// SessionDate puede venir vacío (notas importadas); en ese caso la fecha
// efectiva cae en CreatedAt.
type Note struct {
	ID          string
	ClientID    string
	ClinicianID string

	AppointmentID string
	EventID       string

	Content     string
	SessionDate *time.Time
	Tags        []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// EffectiveDate devuelve la fecha de sesión o, en su defecto, la de creación.
// ok=false cuando la nota no tiene ninguna fecha usable.
func (n Note) EffectiveDate() (time.Time, bool) {
	if n.SessionDate != nil && !n.SessionDate.IsZero() {
		return *n.SessionDate, true
	}
	if !n.CreatedAt.IsZero() {
		return n.CreatedAt, true
	}
	return time.Time{}, false
}

// Linked indica si la nota ya está atada a una cita.
func (n Note) Linked() bool {
	return n.AppointmentID != ""
}
