package cacheredis

import (
	"context"
	"testing"
	"time"

	"docseal/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewWithClient(client), mr
}

func TestPutGetRoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	verifiedAt := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	value := domain.VerificationResult{State: domain.StateValidKeyExpired, VerifiedAt: verifiedAt}
	if err := c.Put(ctx, "doc-1|sig-1", value, time.Minute); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, ok, err := c.Get(ctx, "doc-1|sig-1")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.State != domain.StateValidKeyExpired || !got.VerifiedAt.Equal(verifiedAt) {
		t.Fatalf("got %+v", got)
	}
}

func TestMissOnUnknownKey(t *testing.T) {
	c, _ := newTestCache(t)
	_, ok, err := c.Get(context.Background(), "unknown")
	if err != nil || ok {
		t.Fatalf("expected a clean miss, got ok=%v err=%v", ok, err)
	}
}

func TestEntriesExpireWithTTL(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	if err := c.Put(ctx, "doc-1|sig-1", domain.VerificationResult{State: domain.StateValid}, time.Second); err != nil {
		t.Fatalf("put: %v", err)
	}
	mr.FastForward(2 * time.Second)

	_, ok, err := c.Get(ctx, "doc-1|sig-1")
	if err != nil || ok {
		t.Fatalf("expired entry must miss, got ok=%v err=%v", ok, err)
	}
}

func TestKeysAreNamespaced(t *testing.T) {
	c, mr := newTestCache(t)
	if err := c.Put(context.Background(), "doc-1|sig-1", domain.VerificationResult{State: domain.StateValid}, time.Minute); err != nil {
		t.Fatalf("put: %v", err)
	}
	if !mr.Exists("docseal:verify:doc-1|sig-1") {
		t.Fatalf("expected the prefixed key in redis")
	}
}
