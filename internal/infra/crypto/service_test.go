package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"testing"

	"sc3/internal/domain"
)

func TestEd25519SignVerifyRoundTrip(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	message := []byte("payload")
	sig, err := SignEd25519(message, "key-1", priv)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	key := domain.TrustedKey{
		ID:        "key-1",
		Alg:       domain.KeyAlgEd25519,
		PublicKey: base64.StdEncoding.EncodeToString(pub),
	}
	svc := NewService()
	if err := svc.Verify(message, sig, key); err != nil {
		t.Fatalf("verify: %v", err)
	}

	tampered := append([]byte(nil), message...)
	tampered[0] ^= 0x01
	if err := svc.Verify(tampered, sig, key); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("tampered message: got %v, want ErrSignatureInvalid", err)
	}
}

func TestHMACSignVerifyRoundTrip(t *testing.T) {
	secret := []byte("0123456789abcdef0123456789abcdef")
	message := []byte("payload")
	sig := SignHMAC(message, "hmac-key", secret)
	key := domain.TrustedKey{
		ID:        "hmac-key",
		Alg:       domain.KeyAlgHMACSHA256,
		PublicKey: base64.StdEncoding.EncodeToString(secret),
	}
	svc := NewService()
	if err := svc.Verify(message, sig, key); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := svc.Verify([]byte("other"), sig, key); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("wrong message: got %v, want ErrSignatureInvalid", err)
	}
}

func TestVerifyRejectsUnsupportedAlgorithm(t *testing.T) {
	svc := NewService()
	err := svc.Verify([]byte("m"), domain.Signature{Alg: "rsa", Value: "x"}, domain.TrustedKey{})
	if err == nil {
		t.Fatal("expected error for unsupported algorithm")
	}
}
