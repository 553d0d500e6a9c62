package crypto

import (
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"sc3/internal/domain"
)

var (
	ErrSignatureInvalid = errors.New("signature verification failed")
	ErrKeyExpired       = errors.New("trusted key is expired")
)

// Service verifies and produces signatures for the algorithms the engine
// handles natively (ed25519 and the HMAC fallback). PGP is dispatched to
// a dedicated verifier by the keyring layer.
type Service struct{}

func NewService() *Service {
	return &Service{}
}

func (s *Service) Verify(message []byte, sig domain.Signature, key domain.TrustedKey) error {
	if sig.Value == "" {
		return errors.New("signature value is required")
	}
	alg := sig.Alg
	if alg == "" {
		alg = key.Alg
	}
	switch alg {
	case domain.KeyAlgEd25519:
		return verifyEd25519(message, sig.Value, key.PublicKey)
	case domain.KeyAlgHMACSHA256:
		return verifyHMAC(message, sig.Value, key.PublicKey)
	default:
		return fmt.Errorf("unsupported signature algorithm: %s", alg)
	}
}

func verifyEd25519(message []byte, sigB64, pubKeyB64 string) error {
	pubKey, err := base64.StdEncoding.DecodeString(pubKeyB64)
	if err != nil {
		return fmt.Errorf("invalid public key encoding: %w", err)
	}
	if len(pubKey) != ed25519.PublicKeySize {
		return fmt.Errorf("invalid ed25519 public key length: %d", len(pubKey))
	}
	sigBytes, err := base64.StdEncoding.DecodeString(sigB64)
	if err != nil {
		return fmt.Errorf("invalid signature encoding: %w", err)
	}
	if len(sigBytes) != ed25519.SignatureSize {
		return fmt.Errorf("invalid ed25519 signature length: %d", len(sigBytes))
	}
	if !ed25519.Verify(ed25519.PublicKey(pubKey), message, sigBytes) {
		return ErrSignatureInvalid
	}
	return nil
}

func verifyHMAC(message []byte, sigB64, secretB64 string) error {
	secret, err := base64.StdEncoding.DecodeString(secretB64)
	if err != nil {
		return fmt.Errorf("invalid HMAC secret encoding: %w", err)
	}
	sigBytes, err := base64.StdEncoding.DecodeString(sigB64)
	if err != nil {
		return fmt.Errorf("invalid signature encoding: %w", err)
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write(message)
	if !hmac.Equal(mac.Sum(nil), sigBytes) {
		return ErrSignatureInvalid
	}
	return nil
}

// SignEd25519 signs a message and wraps it as a domain signature.
func SignEd25519(message []byte, keyID string, privateKey ed25519.PrivateKey) (domain.Signature, error) {
	if len(privateKey) != ed25519.PrivateKeySize {
		return domain.Signature{}, errors.New("invalid ed25519 private key")
	}
	sig := ed25519.Sign(privateKey, message)
	return domain.Signature{
		Alg:   domain.KeyAlgEd25519,
		KeyID: keyID,
		Value: base64.StdEncoding.EncodeToString(sig),
	}, nil
}

// SignHMAC is the fallback signer for log entries when no asymmetric key
// is configured.
func SignHMAC(message []byte, keyID string, secret []byte) domain.Signature {
	mac := hmac.New(sha256.New, secret)
	mac.Write(message)
	return domain.Signature{
		Alg:   domain.KeyAlgHMACSHA256,
		KeyID: keyID,
		Value: base64.StdEncoding.EncodeToString(mac.Sum(nil)),
	}
}
