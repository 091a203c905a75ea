package soft

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"docseal/internal/domain"
	"docseal/internal/infra/crypto"
)

func TestEnsureKeyIsIdempotent(t *testing.T) {
	c := NewCustodian(2048, time.Hour)
	ctx := context.Background()

	if err := c.EnsureKey(ctx, "alice", "Alice", "alice@example.com"); err != nil {
		t.Fatalf("first ensure: %v", err)
	}
	first, err := c.GetKeyInfo(ctx, "alice")
	if err != nil {
		t.Fatalf("key info: %v", err)
	}

	if err := c.EnsureKey(ctx, "alice", "Alice", "alice@example.com"); err != nil {
		t.Fatalf("second ensure: %v", err)
	}
	second, err := c.GetKeyInfo(ctx, "alice")
	if err != nil {
		t.Fatalf("key info: %v", err)
	}
	if first.Fingerprint != second.Fingerprint {
		t.Fatalf("repeated EnsureKey must keep the same key: %s vs %s", first.Fingerprint, second.Fingerprint)
	}
}

func TestEnsureKeyConcurrentFirstUse(t *testing.T) {
	c := NewCustodian(2048, time.Hour)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = c.EnsureKey(ctx, "alice", "Alice", "")
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Fatalf("ensure %d: %v", i, err)
		}
	}

	info, err := c.GetKeyInfo(ctx, "alice")
	if err != nil {
		t.Fatalf("key info: %v", err)
	}
	digest := (&crypto.Service{}).HashDocument([]byte("payload"))
	sig, err := c.Sign(ctx, digest, "alice")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	ok, err := c.Verify(ctx, digest, sig, "alice")
	if err != nil || !ok {
		t.Fatalf("verify after concurrent provisioning: ok=%v err=%v", ok, err)
	}
	if info.Fingerprint == "" {
		t.Fatalf("missing fingerprint")
	}
}

func TestSignVerifyRoundTrip(t *testing.T) {
	c := NewCustodian(2048, time.Hour)
	ctx := context.Background()
	if err := c.EnsureKey(ctx, "bob", "Bob", ""); err != nil {
		t.Fatalf("ensure: %v", err)
	}

	hasher := &crypto.Service{}
	digest := hasher.HashDocument([]byte("contract body"))
	sig, err := c.Sign(ctx, digest, "bob")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	ok, err := c.Verify(ctx, digest, sig, "bob")
	if err != nil || !ok {
		t.Fatalf("verify: ok=%v err=%v", ok, err)
	}

	tampered := hasher.HashDocument([]byte("contract body, amended"))
	ok, err = c.Verify(ctx, tampered, sig, "bob")
	if err != nil {
		t.Fatalf("a mismatch is not an error: %v", err)
	}
	if ok {
		t.Fatalf("tampered digest must not verify")
	}
}

func TestSignWithoutKey(t *testing.T) {
	c := NewCustodian(2048, time.Hour)
	_, err := c.Sign(context.Background(), []byte("digest"), "nobody")
	if !errors.Is(err, domain.ErrKeyNotFound) {
		t.Fatalf("err = %v, want ErrKeyNotFound", err)
	}
	ok, err := c.Verify(context.Background(), []byte("digest"), []byte("sig"), "nobody")
	if err != nil || ok {
		t.Fatalf("verify without key: ok=%v err=%v, want false, nil", ok, err)
	}
}

func TestEnsureKeyReprovisionsExpired(t *testing.T) {
	c := NewCustodian(2048, time.Hour)
	ctx := context.Background()
	if err := c.EnsureKey(ctx, "carol", "Carol", ""); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	before, _ := c.GetKeyInfo(ctx, "carol")

	c.ExpireKey("carol", time.Now().Add(-time.Minute))

	if err := c.EnsureKey(ctx, "carol", "Carol", ""); err != nil {
		t.Fatalf("re-ensure: %v", err)
	}
	after, _ := c.GetKeyInfo(ctx, "carol")
	if before.Fingerprint == after.Fingerprint {
		t.Fatalf("an expired key must be replaced")
	}
	if after.ExpiredAt(time.Now()) {
		t.Fatalf("replacement key must be within its validity window")
	}
}

func TestEnsureKeyRejectsBlankIdentity(t *testing.T) {
	c := NewCustodian(2048, time.Hour)
	err := c.EnsureKey(context.Background(), "   ", "", "")
	if !errors.Is(err, domain.ErrKeyProvisioningFailed) {
		t.Fatalf("err = %v, want ErrKeyProvisioningFailed", err)
	}
}
