package auth

import "context"

// AuthVerifier resuelve un Bearer token al clínico autenticado. Con verifier
// nil el middleware cae en modo dev (header X-Debug-Clinician-ID).
type AuthVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}
