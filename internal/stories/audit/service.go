package audit

import (
	"context"
	"fmt"
)

const defaultListLimit = 20

type Service struct {
	storage Storage
}

func NewService(storage Storage) *Service {
	return &Service{storage: storage}
}

// Record persists one admin mutation attempt.
func (s *Service) Record(ctx context.Context, entry Entry) error {
	if _, err := s.storage.RecordAuditEntry(ctx, entry); err != nil {
		return fmt.Errorf("record audit entry: %w", err)
	}
	return nil
}

// ListRecent returns the latest entries, newest first.
func (s *Service) ListRecent(ctx context.Context, limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	entries, err := s.storage.ListAuditEntries(ctx, ListCriteria{Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	return entries, nil
}
