package usecase

import (
	"errors"
	"fmt"
	"time"

	"sc3/internal/domain"
)

var (
	ErrUnknownKey = errors.New("unknown signing key")
	ErrKeyExpired = errors.New("signing key is expired")
)

// Keyring resolves trusted keys and dispatches verification by
// algorithm. Expiry is enforced here so an expired key can never
// validate anything, regardless of which verifier asks.
type Keyring struct {
	keys    map[string]domain.TrustedKey
	service SignatureService
	pgp     PGPVerifier
	clock   func() time.Time
}

func NewKeyring(keys []domain.TrustedKey, service SignatureService, pgp PGPVerifier, clock func() time.Time) *Keyring {
	if clock == nil {
		clock = time.Now
	}
	indexed := make(map[string]domain.TrustedKey, len(keys))
	for _, key := range keys {
		indexed[key.ID] = key
	}
	return &Keyring{
		keys:    indexed,
		service: service,
		pgp:     pgp,
		clock:   clock,
	}
}

func (k *Keyring) Key(id string) (domain.TrustedKey, error) {
	key, ok := k.keys[id]
	if !ok {
		return domain.TrustedKey{}, fmt.Errorf("key %q: %w", id, ErrUnknownKey)
	}
	if key.Expired(k.clock()) {
		return domain.TrustedKey{}, fmt.Errorf("key %q: %w", id, ErrKeyExpired)
	}
	return key, nil
}

// Verify resolves the signature's key and checks it over message.
func (k *Keyring) Verify(message []byte, sig domain.Signature) error {
	key, err := k.Key(sig.KeyID)
	if err != nil {
		return err
	}
	alg := sig.Alg
	if alg == "" {
		alg = key.Alg
	}
	if alg == domain.KeyAlgPGP {
		if k.pgp == nil {
			return errors.New("pgp verification is not configured")
		}
		return k.pgp.Verify(message, sig.Value, key.PublicKey)
	}
	if k.service == nil {
		return errors.New("signature service is not configured")
	}
	return k.service.Verify(message, sig, key)
}
