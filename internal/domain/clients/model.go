package clients

import "time"

// Status define el estado del expediente del cliente.
// @Enum active, archived
type Status string

const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

// Client representa el expediente básico de un cliente del consultorio.
type Client struct {
	ID          string
	ClinicianID string

	FirstName string
	LastName  string
	Email     string
	Phone     string

	Status Status

	CreatedAt time.Time
	UpdatedAt time.Time
}

// FullName devuelve "Nombre Apellido" sin espacios sobrantes.
func (c Client) FullName() string {
	switch {
	case c.FirstName == "":
		return c.LastName
	case c.LastName == "":
		return c.FirstName
	default:
		return c.FirstName + " " + c.LastName
	}
}
