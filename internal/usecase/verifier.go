package usecase

import (
	"bytes"
	"context"
	"encoding/base64"
	"time"

	"docseal/internal/domain"

	"go.uber.org/zap"
)

// VerifySignature re-derives the validity of one signature record from
// the document's current bytes. It never lets an error escape: callers
// drive UI and audit decisions off the returned state, and a "wrong id"
// is deliberately indistinguishable from "tampered" at this boundary.
type VerifySignature struct {
	Documents  DocumentStore
	Custodian  KeyCustodian
	Signatures SignatureRepository
	Hasher     ContentHasher
	Cache      VerificationCache
	CacheTTL   time.Duration
	Clock      Clock
	Logger     *zap.Logger

	RetryAttempts int
	RetryBase     time.Duration
}

func (uc *VerifySignature) Execute(ctx context.Context, documentID, signatureID string) domain.VerificationResult {
	now := uc.now()
	notValid := domain.VerificationResult{State: domain.StateInvalid, VerifiedAt: now}

	if documentID == "" || signatureID == "" {
		return notValid
	}

	var record *domain.SignatureRecord
	err := retryTransient(ctx, uc.RetryAttempts, uc.RetryBase, func() error {
		var err error
		record, err = uc.Signatures.GetByID(ctx, signatureID)
		return err
	})
	if err != nil || record == nil || record.DocumentID != documentID {
		uc.logger().Warn("signature not verifiable",
			zap.String("document_id", documentID),
			zap.String("signature_id", signatureID),
			zap.Error(err))
		return notValid
	}

	if record.HashAlgorithm != domain.HashAlgorithmSHA256 {
		uc.logger().Warn("unsupported hash algorithm on record",
			zap.String("signature_id", signatureID),
			zap.String("hash_algorithm", record.HashAlgorithm))
		return notValid
	}

	var content []byte
	if err := retryTransient(ctx, uc.RetryAttempts, uc.RetryBase, func() error {
		var err error
		content, err = uc.Documents.GetBytes(ctx, record.DocumentID)
		return err
	}); err != nil {
		uc.logger().Warn("fetch document bytes failed during verification",
			zap.String("document_id", documentID),
			zap.String("signature_id", signatureID),
			zap.Error(err))
		return notValid
	}

	digest := uc.Hasher.HashDocument(content)
	storedDigest, err := base64.StdEncoding.DecodeString(record.DocumentHash)
	if err != nil {
		uc.logger().Warn("stored document hash is not decodable",
			zap.String("signature_id", signatureID),
			zap.Error(err))
		return notValid
	}

	// The cache entry is bound to the current content digest, so any
	// byte mutation after a cached run forces a full recomputation.
	cacheKey := documentID + "|" + signatureID + "|" + base64.StdEncoding.EncodeToString(digest)
	if uc.Cache != nil {
		if cached, ok, err := uc.Cache.Get(ctx, cacheKey); err == nil && ok {
			return *cached
		}
	}

	// Content changed since signing: report it, never proceed to the
	// cryptographic check, and never touch the stored hash.
	if !bytes.Equal(digest, storedDigest) {
		uc.logger().Warn("document hash mismatch",
			zap.String("document_id", documentID),
			zap.String("signature_id", signatureID))
		return uc.conclude(ctx, record, domain.StateInvalid, now, cacheKey)
	}

	var ok bool
	if err := retryTransient(ctx, uc.RetryAttempts, uc.RetryBase, func() error {
		var err error
		ok, err = uc.Custodian.Verify(ctx, digest, record.SignatureBytes, record.SignerIdentity)
		return err
	}); err != nil {
		uc.logger().Warn("vault verification unavailable",
			zap.String("signature_id", signatureID),
			zap.Error(err))
		return notValid
	}
	if !ok {
		return uc.conclude(ctx, record, domain.StateInvalid, now, cacheKey)
	}

	state := domain.StateValid
	if info, err := uc.Custodian.GetKeyInfo(ctx, record.SignerIdentity); err == nil && info.ExpiredAt(now) {
		state = domain.StateValidKeyExpired
	}
	return uc.conclude(ctx, record, state, now, cacheKey)
}

// conclude persists this run's outcome on the record (last-write-wins,
// state and verified_at only) and caches it. A persistence failure is
// logged but does not change the outcome: verification is always
// re-derivable from source bytes.
func (uc *VerifySignature) conclude(ctx context.Context, record *domain.SignatureRecord, state domain.VerificationState, now time.Time, cacheKey string) domain.VerificationResult {
	if err := uc.Signatures.UpdateVerification(ctx, record.ID, state, now); err != nil {
		uc.logger().Warn("update verification outcome failed",
			zap.String("signature_id", record.ID),
			zap.Error(err))
	}
	result := domain.VerificationResult{State: state, VerifiedAt: now}
	if uc.Cache != nil && uc.CacheTTL > 0 {
		if err := uc.Cache.Put(ctx, cacheKey, result, uc.CacheTTL); err != nil {
			uc.logger().Warn("cache verification outcome failed",
				zap.String("signature_id", record.ID),
				zap.Error(err))
		}
	}
	return result
}

func (uc *VerifySignature) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock().UTC()
	}
	return time.Now().UTC()
}

func (uc *VerifySignature) logger() *zap.Logger {
	if uc.Logger != nil {
		return uc.Logger
	}
	return zap.NewNop()
}
