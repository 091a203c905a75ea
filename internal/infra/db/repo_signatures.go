package db

import (
	"context"
	"errors"
	"time"

	"docseal/internal/domain"
	"docseal/internal/usecase"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SignatureRepository struct {
	db *gorm.DB
}

func NewSignatureRepository(db *gorm.DB) *SignatureRepository {
	return &SignatureRepository{db: db}
}

func (r *SignatureRepository) Save(ctx context.Context, record domain.SignatureRecord) (domain.SignatureRecord, error) {
	if r.db == nil {
		return domain.SignatureRecord{}, errDBUnavailable
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.SignedAt.IsZero() {
		record.SignedAt = time.Now().UTC()
	}
	if record.State == "" {
		record.State = domain.StateUnverified
	}
	model := signatureModelFromDomain(record)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return domain.SignatureRecord{}, err
	}
	return record, nil
}

func (r *SignatureRepository) GetByID(ctx context.Context, signatureID string) (*domain.SignatureRecord, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var model SignatureRecordModel
	err := r.db.WithContext(ctx).
		Where("id = ?", signatureID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSignatureNotFound
		}
		return nil, err
	}
	return signatureFromModel(model), nil
}

func (r *SignatureRepository) ListByDocument(ctx context.Context, documentID string) ([]domain.SignatureRecord, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var models []SignatureRecordModel
	err := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("signed_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.SignatureRecord, 0, len(models))
	for _, model := range models {
		out = append(out, *signatureFromModel(model))
	}
	return out, nil
}

func (r *SignatureRepository) ExistsForDocument(ctx context.Context, documentID string) (bool, error) {
	if r.db == nil {
		return false, errDBUnavailable
	}
	var count int64
	err := r.db.WithContext(ctx).
		Model(&SignatureRecordModel{}).
		Where("document_id = ?", documentID).
		Limit(1).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateVerification writes the verification outcome cache. Only state
// and verified_at may change; the signed hash and signature bytes are
// write-once by construction.
func (r *SignatureRepository) UpdateVerification(ctx context.Context, signatureID string, state domain.VerificationState, verifiedAt time.Time) error {
	if r.db == nil {
		return errDBUnavailable
	}
	verifiedAt = verifiedAt.UTC()
	result := r.db.WithContext(ctx).
		Model(&SignatureRecordModel{}).
		Where("id = ?", signatureID).
		Select("state", "verified_at").
		Updates(map[string]any{
			"state":       string(state),
			"verified_at": &verifiedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrSignatureNotFound
	}
	return nil
}

func signatureModelFromDomain(record domain.SignatureRecord) SignatureRecordModel {
	return SignatureRecordModel{
		ID:                 record.ID,
		DocumentID:         record.DocumentID,
		SignerIdentity:     record.SignerIdentity,
		SignerDisplayName:  record.SignerDisplayName,
		SignerEmail:        record.SignerEmail,
		SignedAt:           record.SignedAt.UTC(),
		DocumentHash:       record.DocumentHash,
		SignatureBytes:     copyBytes(record.SignatureBytes),
		KeyFingerprint:     record.KeyFingerprint,
		HashAlgorithm:      record.HashAlgorithm,
		SignatureAlgorithm: record.SignatureAlgorithm,
		State:              string(record.State),
		VerifiedAt:         record.VerifiedAt,
	}
}

func signatureFromModel(model SignatureRecordModel) *domain.SignatureRecord {
	return &domain.SignatureRecord{
		ID:                 model.ID,
		DocumentID:         model.DocumentID,
		SignerIdentity:     model.SignerIdentity,
		SignerDisplayName:  model.SignerDisplayName,
		SignerEmail:        model.SignerEmail,
		SignedAt:           model.SignedAt,
		DocumentHash:       model.DocumentHash,
		SignatureBytes:     copyBytes(model.SignatureBytes),
		KeyFingerprint:     model.KeyFingerprint,
		HashAlgorithm:      model.HashAlgorithm,
		SignatureAlgorithm: model.SignatureAlgorithm,
		State:              domain.VerificationState(model.State),
		VerifiedAt:         model.VerifiedAt,
	}
}

var _ usecase.SignatureRepository = (*SignatureRepository)(nil)
