package usecase_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"docseal/internal/domain"
)

type memDocumentStore struct {
	mu       sync.Mutex
	meta     map[string]domain.DocumentMetadata
	content  map[string][]byte
	signed   map[string]bool
	metaErr  error
	bytesErr error
	flagErr  error

	metaFailures  int
	bytesFailures int

	onGetBytes func()
}

func newMemDocumentStore() *memDocumentStore {
	return &memDocumentStore{
		meta:    make(map[string]domain.DocumentMetadata),
		content: make(map[string][]byte),
		signed:  make(map[string]bool),
	}
}

func (s *memDocumentStore) add(id string, content []byte, accessLevel domain.AccessLevel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meta[id] = domain.DocumentMetadata{
		ID:          id,
		FileName:    id + ".pdf",
		ContentType: "application/pdf",
		AccessLevel: accessLevel,
		UploadedAt:  time.Now().UTC(),
	}
	s.content[id] = append([]byte(nil), content...)
}

func (s *memDocumentStore) replace(id string, content []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.content[id] = append([]byte(nil), content...)
}

func (s *memDocumentStore) GetMetadata(_ context.Context, documentID string) (*domain.DocumentMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.metaFailures > 0 {
		s.metaFailures--
		return nil, domain.ErrUnavailable
	}
	if s.metaErr != nil {
		return nil, s.metaErr
	}
	meta, ok := s.meta[documentID]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	return &meta, nil
}

func (s *memDocumentStore) GetBytes(_ context.Context, documentID string) ([]byte, error) {
	s.mu.Lock()
	hook := s.onGetBytes
	if s.bytesFailures > 0 {
		s.bytesFailures--
		s.mu.Unlock()
		return nil, domain.ErrUnavailable
	}
	if s.bytesErr != nil {
		err := s.bytesErr
		s.mu.Unlock()
		return nil, err
	}
	content, ok := s.content[documentID]
	s.mu.Unlock()
	if hook != nil {
		hook()
	}
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	return append([]byte(nil), content...), nil
}

func (s *memDocumentStore) SetSignedFlag(_ context.Context, documentID, _ string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flagErr != nil {
		return s.flagErr
	}
	if _, ok := s.meta[documentID]; !ok {
		return domain.ErrDocumentNotFound
	}
	s.signed[documentID] = true
	return nil
}

type memSignatureRepo struct {
	mu        sync.Mutex
	records   map[string]domain.SignatureRecord
	saveErr   error
	updateErr error
}

func newMemSignatureRepo() *memSignatureRepo {
	return &memSignatureRepo{records: make(map[string]domain.SignatureRecord)}
}

func (r *memSignatureRepo) Save(_ context.Context, record domain.SignatureRecord) (domain.SignatureRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return domain.SignatureRecord{}, r.saveErr
	}
	r.records[record.ID] = record
	return record, nil
}

func (r *memSignatureRepo) GetByID(_ context.Context, signatureID string) (*domain.SignatureRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[signatureID]
	if !ok {
		return nil, domain.ErrSignatureNotFound
	}
	return &record, nil
}

func (r *memSignatureRepo) ListByDocument(_ context.Context, documentID string) ([]domain.SignatureRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.SignatureRecord
	for _, record := range r.records {
		if record.DocumentID == documentID {
			out = append(out, record)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SignedAt.After(out[j].SignedAt) })
	return out, nil
}

func (r *memSignatureRepo) ExistsForDocument(_ context.Context, documentID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, record := range r.records {
		if record.DocumentID == documentID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memSignatureRepo) UpdateVerification(_ context.Context, signatureID string, state domain.VerificationState, verifiedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	record, ok := r.records[signatureID]
	if !ok {
		return domain.ErrSignatureNotFound
	}
	record.State = state
	record.VerifiedAt = &verifiedAt
	r.records[signatureID] = record
	return nil
}

func (r *memSignatureRepo) get(id string) (domain.SignatureRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[id]
	return record, ok
}

func (r *memSignatureRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

type memAuditSink struct {
	mu     sync.Mutex
	events []domain.AuditEvent
	err    error
}

func (s *memAuditSink) Record(_ context.Context, event domain.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

func (s *memAuditSink) byAction(action domain.AuditAction) []domain.AuditEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.AuditEvent
	for _, event := range s.events {
		if event.Action == action {
			out = append(out, event)
		}
	}
	return out
}

type staticPolicy struct {
	allow bool
	err   error
}

func (p *staticPolicy) Evaluate(_ context.Context, _ domain.PolicyInput) (domain.PolicyResult, error) {
	if p.err != nil {
		return domain.PolicyResult{}, p.err
	}
	return domain.PolicyResult{Allow: p.allow}, nil
}

type countingCache struct {
	mu      sync.Mutex
	entries map[string]domain.VerificationResult
	hits    int
	puts    int
}

func newCountingCache() *countingCache {
	return &countingCache{entries: make(map[string]domain.VerificationResult)}
}

func (c *countingCache) Get(_ context.Context, key string) (*domain.VerificationResult, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	c.hits++
	return &value, true, nil
}

func (c *countingCache) Put(_ context.Context, key string, value domain.VerificationResult, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.puts++
	c.entries[key] = value
	return nil
}
