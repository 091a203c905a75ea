package usecase

import (
	"context"
	"fmt"

	"docseal/internal/domain"
)

// ListSignatures reads the co-signing history of a document, newest
// first, as summaries cheap enough for listing UIs.
type ListSignatures struct {
	Signatures SignatureRepository
}

func (uc *ListSignatures) Execute(ctx context.Context, documentID string) ([]domain.SignatureSummary, error) {
	if documentID == "" {
		return nil, domain.ErrInvalidInput
	}
	records, err := uc.Signatures.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("list signatures for document %s: %w", documentID, err)
	}
	out := make([]domain.SignatureSummary, 0, len(records))
	for _, record := range records {
		out = append(out, domain.SignatureSummary{
			ID:                record.ID,
			SignerDisplayName: record.SignerDisplayName,
			SignedAt:          record.SignedAt,
			State:             record.State,
		})
	}
	return out, nil
}

// Exists is the cheap probe behind "already signed" UI state.
func (uc *ListSignatures) Exists(ctx context.Context, documentID string) (bool, error) {
	if documentID == "" {
		return false, domain.ErrInvalidInput
	}
	return uc.Signatures.ExistsForDocument(ctx, documentID)
}
