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

// DocumentStore is the collaborator adapter for document metadata and
// bytes. The signing core only reads through it and flips the signed
// flag; Create exists so the service is operable end to end.
type DocumentStore struct {
	db *gorm.DB
}

func NewDocumentStore(db *gorm.DB) *DocumentStore {
	return &DocumentStore{db: db}
}

type CreateDocumentParams struct {
	FileName    string
	ContentType string
	Department  string
	AccessLevel domain.AccessLevel
	Content     []byte
}

func (s *DocumentStore) Create(ctx context.Context, params CreateDocumentParams) (*domain.DocumentMetadata, error) {
	if s.db == nil {
		return nil, errDBUnavailable
	}
	if params.FileName == "" || len(params.Content) == 0 {
		return nil, domain.ErrInvalidInput
	}
	accessLevel := int(params.AccessLevel)
	if accessLevel <= 0 {
		accessLevel = 1
	}
	model := DocumentModel{
		ID:          uuid.NewString(),
		FileName:    params.FileName,
		ContentType: params.ContentType,
		Department:  params.Department,
		AccessLevel: accessLevel,
		Content:     copyBytes(params.Content),
		UploadedAt:  time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		return nil, err
	}
	return metadataFromModel(model), nil
}

func (s *DocumentStore) GetMetadata(ctx context.Context, documentID string) (*domain.DocumentMetadata, error) {
	if s.db == nil {
		return nil, errDBUnavailable
	}
	var model DocumentModel
	err := s.db.WithContext(ctx).
		Select("id", "file_name", "content_type", "department", "access_level", "signed", "signed_at", "signed_by", "uploaded_at").
		Where("id = ?", documentID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, err
	}
	return metadataFromModel(model), nil
}

func (s *DocumentStore) GetBytes(ctx context.Context, documentID string) ([]byte, error) {
	if s.db == nil {
		return nil, errDBUnavailable
	}
	var model DocumentModel
	err := s.db.WithContext(ctx).
		Select("id", "content").
		Where("id = ?", documentID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, err
	}
	return copyBytes(model.Content), nil
}

func (s *DocumentStore) SetSignedFlag(ctx context.Context, documentID, signerIdentity string, signedAt time.Time) error {
	if s.db == nil {
		return errDBUnavailable
	}
	signedAt = signedAt.UTC()
	result := s.db.WithContext(ctx).
		Model(&DocumentModel{}).
		Where("id = ?", documentID).
		Updates(map[string]any{
			"signed":    true,
			"signed_at": &signedAt,
			"signed_by": signerIdentity,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

// ReplaceContent overwrites the stored bytes. Signatures over the old
// content intentionally stop verifying.
func (s *DocumentStore) ReplaceContent(ctx context.Context, documentID string, content []byte) error {
	if s.db == nil {
		return errDBUnavailable
	}
	if len(content) == 0 {
		return domain.ErrInvalidInput
	}
	result := s.db.WithContext(ctx).
		Model(&DocumentModel{}).
		Where("id = ?", documentID).
		Update("content", copyBytes(content))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

func metadataFromModel(model DocumentModel) *domain.DocumentMetadata {
	return &domain.DocumentMetadata{
		ID:          model.ID,
		FileName:    model.FileName,
		ContentType: model.ContentType,
		Department:  model.Department,
		AccessLevel: domain.AccessLevel(model.AccessLevel),
		Signed:      model.Signed,
		SignedAt:    model.SignedAt,
		SignedBy:    model.SignedBy,
		UploadedAt:  model.UploadedAt,
	}
}

var _ usecase.DocumentStore = (*DocumentStore)(nil)
