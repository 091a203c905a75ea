package usecase

import (
	"context"
	"fmt"
	"time"

	"docseal/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ContentHasher produces the deterministic digest of raw document bytes.
type ContentHasher interface {
	HashDocument(content []byte) []byte
	EncodeDigest(digest []byte) string
}

type SignDocumentRequest struct {
	DocumentID string
	Principal  domain.Principal
}

// SignDocument orchestrates one signing operation. Each call is atomic
// from the caller's view but internally sequential and not transactional
// across stores: the signature record is the durable source of truth,
// the document's signed flag and the audit entry are best-effort.
type SignDocument struct {
	Documents  DocumentStore
	Custodian  KeyCustodian
	Signatures SignatureRepository
	Hasher     ContentHasher
	Audit      *AuditEmitter
	Policy     PolicyEngine
	Clock      Clock
	Logger     *zap.Logger

	RetryAttempts int
	RetryBase     time.Duration
}

func (uc *SignDocument) Execute(ctx context.Context, req SignDocumentRequest) (*domain.SignatureRecord, error) {
	if req.DocumentID == "" || req.Principal.Identity == "" {
		return nil, domain.ErrInvalidInput
	}

	var meta *domain.DocumentMetadata
	err := retryTransient(ctx, uc.RetryAttempts, uc.RetryBase, func() error {
		var err error
		meta, err = uc.Documents.GetMetadata(ctx, req.DocumentID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("sign document %s: %w", req.DocumentID, err)
	}

	if err := uc.authorize(ctx, req.Principal, meta); err != nil {
		return nil, err
	}

	if err := retryTransient(ctx, uc.RetryAttempts, uc.RetryBase, func() error {
		return uc.Custodian.EnsureKey(ctx, req.Principal.Identity, req.Principal.DisplayName, req.Principal.Email)
	}); err != nil {
		return nil, fmt.Errorf("sign document %s as %s: %w", req.DocumentID, req.Principal.Identity, err)
	}

	var content []byte
	if err := retryTransient(ctx, uc.RetryAttempts, uc.RetryBase, func() error {
		var err error
		content, err = uc.Documents.GetBytes(ctx, req.DocumentID)
		return err
	}); err != nil {
		return nil, fmt.Errorf("sign document %s: %w", req.DocumentID, err)
	}

	digest := uc.Hasher.HashDocument(content)

	var signature []byte
	if err := retryTransient(ctx, uc.RetryAttempts, uc.RetryBase, func() error {
		var err error
		signature, err = uc.Custodian.Sign(ctx, digest, req.Principal.Identity)
		return err
	}); err != nil {
		return nil, fmt.Errorf("sign document %s as %s: %w", req.DocumentID, req.Principal.Identity, err)
	}

	var info domain.KeyInfo
	if err := retryTransient(ctx, uc.RetryAttempts, uc.RetryBase, func() error {
		var err error
		info, err = uc.Custodian.GetKeyInfo(ctx, req.Principal.Identity)
		return err
	}); err != nil {
		return nil, fmt.Errorf("sign document %s as %s: %w", req.DocumentID, req.Principal.Identity, err)
	}

	now := uc.now()
	record := domain.SignatureRecord{
		ID:                 uuid.NewString(),
		DocumentID:         req.DocumentID,
		SignerIdentity:     req.Principal.Identity,
		SignerDisplayName:  req.Principal.DisplayName,
		SignerEmail:        req.Principal.Email,
		SignedAt:           now,
		DocumentHash:       uc.Hasher.EncodeDigest(digest),
		SignatureBytes:     signature,
		KeyFingerprint:     info.Fingerprint,
		HashAlgorithm:      domain.HashAlgorithmSHA256,
		SignatureAlgorithm: domain.SignatureAlgorithmRSA,
		State:              domain.StateValid,
	}

	// No partially written record may become visible: bail out before the
	// persist when the caller has already gone away. The key possibly
	// provisioned above is an acceptable leftover, EnsureKey is idempotent.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	saved, err := uc.Signatures.Save(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("sign document %s: persist signature: %w", req.DocumentID, err)
	}

	if err := uc.Documents.SetSignedFlag(ctx, req.DocumentID, req.Principal.Identity, now); err != nil {
		uc.logger().Warn("mark document signed failed",
			zap.String("document_id", req.DocumentID),
			zap.String("signature_id", saved.ID),
			zap.Error(err))
	}

	if uc.Audit != nil {
		uc.Audit.DocumentSigned(ctx, req.DocumentID, req.Principal, saved.ID)
	}

	uc.logger().Info("document signed",
		zap.String("document_id", req.DocumentID),
		zap.String("signature_id", saved.ID),
		zap.String("signer", req.Principal.Identity))
	return &saved, nil
}

func (uc *SignDocument) authorize(ctx context.Context, principal domain.Principal, meta *domain.DocumentMetadata) error {
	if uc.Policy == nil {
		return nil
	}
	result, err := uc.Policy.Evaluate(ctx, domain.PolicyInput{
		Action:      "document.sign",
		Role:        string(principal.Role),
		AccessLevel: meta.AccessLevel,
		Department:  meta.Department,
	})
	if err != nil {
		return fmt.Errorf("sign document %s: evaluate policy: %w", meta.ID, err)
	}
	if !result.Allow {
		uc.logger().Warn("signing denied by policy",
			zap.String("document_id", meta.ID),
			zap.String("identity", principal.Identity),
			zap.String("role", string(principal.Role)))
		return domain.ErrForbidden
	}
	return nil
}

func (uc *SignDocument) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock().UTC()
	}
	return time.Now().UTC()
}

func (uc *SignDocument) logger() *zap.Logger {
	if uc.Logger != nil {
		return uc.Logger
	}
	return zap.NewNop()
}
