package timeline

import "time"

// Kind discrimina el origen de cada item del timeline.
// @Enum appointment, session_note, document, calendar_event
type Kind string

const (
	KindAppointment   Kind = "appointment"
	KindNote          Kind = "session_note"
	KindDocument      Kind = "document"
	KindCalendarEvent Kind = "calendar_event"
)

// Status anota la reconciliación de cada item:
// linked/unlinked para citas y notas, matched/pending/unmatched para
// documentos y eventos de calendario.
type Status string

const (
	StatusLinked    Status = "linked"
	StatusUnlinked  Status = "unlinked"
	StatusMatched   Status = "matched"
	StatusPending   Status = "pending"
	StatusUnmatched Status = "unmatched"
)

// Item es la proyección normalizada de una cita, nota, documento o evento de
// calendario. Se construye fresco en cada agregación y nunca se persiste.
type Item struct {
	Kind  Kind
	RefID string

	Date  time.Time
	Title string

	ClientID   string
	ClientName string
	Tags       []string

	Status Status
	Source string

	Meta map[string]string
}

// DayGroup agrupa items por día calendario (más reciente primero).
type DayGroup struct {
	Day   string
	Items []Item
}
