package documents

import "time"

// Document representa un documento subido (el transporte de archivos queda
// fuera: aquí llega con el texto ya extraído).
//
// ClientID puede venir vacío hasta que el documento se asigna a un expediente;
// NoteID queda vacío mientras no se adjunte a una nota (material de carta
// pendiente en el timeline).
type Document struct {
	ID          string
	ClinicianID string
	ClientID    string

	FileName      string
	ExtractedText string

	NoteID string

	UploadedAt time.Time
	UpdatedAt  time.Time
}

// Attached indica si el documento ya quedó adjunto a una nota.
func (d Document) Attached() bool {
	return d.NoteID != ""
}
