package cachemem

import (
	"context"
	"testing"
	"time"

	"docseal/internal/domain"
)

func TestPutGetRoundTrip(t *testing.T) {
	c := New()
	ctx := context.Background()

	value := domain.VerificationResult{State: domain.StateValid, VerifiedAt: time.Now().UTC()}
	if err := c.Put(ctx, "doc|sig", value, time.Minute); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, ok, err := c.Get(ctx, "doc|sig")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.State != domain.StateValid {
		t.Fatalf("state = %s", got.State)
	}

	_, ok, err = c.Get(ctx, "other")
	if err != nil || ok {
		t.Fatalf("miss expected, got ok=%v err=%v", ok, err)
	}
}

func TestEntriesExpire(t *testing.T) {
	c := New()
	ctx := context.Background()

	value := domain.VerificationResult{State: domain.StateInvalid, VerifiedAt: time.Now().UTC()}
	if err := c.Put(ctx, "doc|sig", value, time.Millisecond); err != nil {
		t.Fatalf("put: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	_, ok, err := c.Get(ctx, "doc|sig")
	if err != nil || ok {
		t.Fatalf("expired entry must miss, got ok=%v err=%v", ok, err)
	}
}

func TestZeroTTLNeverExpires(t *testing.T) {
	c := New()
	ctx := context.Background()
	if err := c.Put(ctx, "doc|sig", domain.VerificationResult{State: domain.StateValid}, 0); err != nil {
		t.Fatalf("put: %v", err)
	}
	_, ok, err := c.Get(ctx, "doc|sig")
	if err != nil || !ok {
		t.Fatalf("entry without ttl must stay, got ok=%v err=%v", ok, err)
	}
}
