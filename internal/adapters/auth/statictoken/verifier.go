// Package statictoken implementa auth.AuthVerifier contra un token fijo de config.
// Sirve para consultorios de un solo clínico: el token resuelve a un ClinicianID
// configurado, nunca a un default embebido en el código.
package statictoken

import (
	"context"
	"crypto/subtle"
	"errors"

	"therapy-practice-manager/internal/ports/auth"
)

var ErrInvalidToken = errors.New("invalid token")

type Verifier struct {
	token       string
	clinicianID string
}

func New(token, clinicianID string) *Verifier {
	return &Verifier{token: token, clinicianID: clinicianID}
}

func (v *Verifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	if v.token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(v.token)) != 1 {
		return auth.Claims{}, ErrInvalidToken
	}
	return auth.Claims{ClinicianID: v.clinicianID}, nil
}
