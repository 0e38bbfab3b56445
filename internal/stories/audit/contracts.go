package audit

import "context"

type Storage interface {
	RecordAuditEntry(ctx context.Context, entry Entry) (*Entry, error)
	ListAuditEntries(ctx context.Context, criteria ListCriteria) ([]*Entry, error)
}
