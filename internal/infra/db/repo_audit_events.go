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

// AuditEventRepository is the append-only action trail. There is no
// update or delete path on purpose.
type AuditEventRepository struct {
	db *gorm.DB
}

func NewAuditEventRepository(db *gorm.DB) *AuditEventRepository {
	return &AuditEventRepository{db: db}
}

func (r *AuditEventRepository) Record(ctx context.Context, event domain.AuditEvent) error {
	if r.db == nil {
		return errDBUnavailable
	}
	if event.Action == "" || event.ActorIdentity == "" {
		return errors.New("audit event missing action or actor")
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	} else {
		event.CreatedAt = event.CreatedAt.UTC()
	}
	model := AuditEventModel{
		ID:            event.ID,
		ActorIdentity: event.ActorIdentity,
		ActorName:     event.ActorName,
		Action:        string(event.Action),
		Detail:        event.Detail,
		IPAddress:     event.IPAddress,
		CreatedAt:     event.CreatedAt.Truncate(time.Microsecond),
	}
	if event.DocumentID != "" {
		documentID := event.DocumentID
		model.DocumentID = &documentID
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

func (r *AuditEventRepository) ListByDocument(ctx context.Context, documentID string) ([]domain.AuditEvent, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var models []AuditEventModel
	err := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return auditEventsFromModels(models), nil
}

func (r *AuditEventRepository) ListByActor(ctx context.Context, actorIdentity string) ([]domain.AuditEvent, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var models []AuditEventModel
	err := r.db.WithContext(ctx).
		Where("actor_identity = ?", actorIdentity).
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return auditEventsFromModels(models), nil
}

func auditEventsFromModels(models []AuditEventModel) []domain.AuditEvent {
	out := make([]domain.AuditEvent, 0, len(models))
	for _, model := range models {
		event := domain.AuditEvent{
			ID:            model.ID,
			ActorIdentity: model.ActorIdentity,
			ActorName:     model.ActorName,
			Action:        domain.AuditAction(model.Action),
			Detail:        model.Detail,
			IPAddress:     model.IPAddress,
			CreatedAt:     model.CreatedAt,
		}
		if model.DocumentID != nil {
			event.DocumentID = *model.DocumentID
		}
		out = append(out, event)
	}
	return out
}

var _ usecase.AuditSink = (*AuditEventRepository)(nil)
