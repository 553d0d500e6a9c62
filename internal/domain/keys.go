package domain

import "time"

const (
	KeyAlgEd25519    = "ed25519"
	KeyAlgHMACSHA256 = "hmac-sha256"
	KeyAlgPGP        = "pgp"
)

// TrustedKey is public key material supplied by the key-management
// collaborator. A key past its expiry must never validate anything.
type TrustedKey struct {
	ID        string     `json:"id"`
	Alg       string     `json:"alg"`
	PublicKey string     `json:"public_key"`
	Owner     string     `json:"owner,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func (k TrustedKey) Expired(now time.Time) bool {
	return k.ExpiresAt != nil && !k.ExpiresAt.After(now)
}
