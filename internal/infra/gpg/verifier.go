// Package gpg verifies PGP dependency signatures using ProtonMail's
// maintained fork of the openpgp packages.
package gpg

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp"
)

type Verifier struct{}

func NewVerifier() *Verifier {
	return &Verifier{}
}

// Verify checks an ASCII-armored detached signature over message against
// an armored public key.
func (v *Verifier) Verify(message []byte, armoredSig, armoredPubKey string) error {
	if strings.TrimSpace(armoredSig) == "" {
		return fmt.Errorf("pgp signature is empty")
	}
	keyring, err := openpgp.ReadArmoredKeyRing(strings.NewReader(armoredPubKey))
	if err != nil {
		return fmt.Errorf("read pgp public key: %w", err)
	}
	_, err = openpgp.CheckArmoredDetachedSignature(
		keyring,
		bytes.NewReader(message),
		strings.NewReader(armoredSig),
		nil,
	)
	if err != nil {
		return fmt.Errorf("pgp signature verification failed: %w", err)
	}
	return nil
}
