package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/hex"
	"testing"
)

func TestHashDocumentKnownVector(t *testing.T) {
	svc := &Service{}
	digest := svc.HashDocument([]byte("hello world"))
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if got := hex.EncodeToString(digest); got != want {
		t.Fatalf("digest = %s, want %s", got, want)
	}
	if got := svc.EncodeDigest(digest); got != base64.StdEncoding.EncodeToString(digest) {
		t.Fatalf("encoded digest = %s", got)
	}
}

func TestHashDocumentIsByteExact(t *testing.T) {
	svc := &Service{}
	a := svc.HashDocument([]byte("line\n"))
	b := svc.HashDocument([]byte("line\r\n"))
	if hex.EncodeToString(a) == hex.EncodeToString(b) {
		t.Fatalf("different bytes must hash differently; no normalization")
	}
}

func TestFingerprintStablePerKey(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	first, err := Fingerprint(&key.PublicKey)
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	second, err := Fingerprint(&key.PublicKey)
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	if first != second {
		t.Fatalf("fingerprint must be deterministic: %s vs %s", first, second)
	}
	if len(first) != 64 {
		t.Fatalf("fingerprint length = %d, want 64 hex chars", len(first))
	}

	other, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	otherPrint, err := Fingerprint(&other.PublicKey)
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	if otherPrint == first {
		t.Fatalf("distinct keys must not share a fingerprint")
	}
}
