package usecase

import (
	"context"
	"time"

	"docseal/internal/domain"
)

type Clock func() time.Time

// DocumentStore is the external document collaborator: metadata plus the
// raw bytes exactly as stored. The core never normalizes content.
type DocumentStore interface {
	GetMetadata(ctx context.Context, documentID string) (*domain.DocumentMetadata, error)
	GetBytes(ctx context.Context, documentID string) ([]byte, error)
	SetSignedFlag(ctx context.Context, documentID, signerIdentity string, signedAt time.Time) error
}

// KeyCustodian owns one asymmetric signing key per identity inside the
// secrets vault. Raw private key bytes never cross this boundary.
type KeyCustodian interface {
	// EnsureKey is idempotent: nil when a non-expired key already exists
	// or was just provisioned. Safe under concurrent first-time callers
	// for the same identity.
	EnsureKey(ctx context.Context, identity, displayName, email string) error
	// Sign signs the content digest with the identity's current key.
	// Returns domain.ErrKeyNotFound when no key is provisioned.
	Sign(ctx context.Context, digest []byte, identity string) ([]byte, error)
	// Verify returns false, nil on a cryptographic mismatch. An error
	// means the vault itself failed, which is a different thing.
	Verify(ctx context.Context, digest, signature []byte, identity string) (bool, error)
	GetKeyInfo(ctx context.Context, identity string) (domain.KeyInfo, error)
}

// SignatureRepository persists signature records grouped by document id.
// GetByID may fan out across that grouping; the verification-by-id path
// accepts the cost.
type SignatureRepository interface {
	Save(ctx context.Context, record domain.SignatureRecord) (domain.SignatureRecord, error)
	GetByID(ctx context.Context, signatureID string) (*domain.SignatureRecord, error)
	ListByDocument(ctx context.Context, documentID string) ([]domain.SignatureRecord, error)
	ExistsForDocument(ctx context.Context, documentID string) (bool, error)
	// UpdateVerification touches only the state and verified_at columns.
	UpdateVerification(ctx context.Context, signatureID string, state domain.VerificationState, verifiedAt time.Time) error
}

// AuditSink appends to the action trail. Callers treat it as
// fire-and-forget: a sink failure is logged, never propagated.
type AuditSink interface {
	Record(ctx context.Context, event domain.AuditEvent) error
}

// VerificationCache short-circuits repeated verification of the same
// record. Entries are advisory; a miss just re-runs verification.
type VerificationCache interface {
	Get(ctx context.Context, key string) (*domain.VerificationResult, bool, error)
	Put(ctx context.Context, key string, value domain.VerificationResult, ttl time.Duration) error
}

// PolicyEngine decides whether a principal may perform an action on a
// document. A nil engine in the Signer skips the gate.
type PolicyEngine interface {
	Evaluate(ctx context.Context, input domain.PolicyInput) (domain.PolicyResult, error)
}
