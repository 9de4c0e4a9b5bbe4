package auth

// Claims representa la información extraída del token.
type Claims struct {
	ClinicianID string
	Email       string
}
