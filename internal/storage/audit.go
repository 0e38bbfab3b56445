package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"plandesk-bot/internal/stories/audit"

	sq "github.com/Masterminds/squirrel"
)

const auditTable = "audit_log"

var auditRowFields = fields(auditRow{})

type auditRow struct {
	ID         int64     `db:"id"`
	ActorID    int64     `db:"actor_id"`
	Action     string    `db:"action"`
	TargetType string    `db:"target_type"`
	TargetID   string    `db:"target_id"`
	Reason     string    `db:"reason"`
	Outcome    string    `db:"outcome"`
	Error      string    `db:"error"`
	CreatedAt  time.Time `db:"created_at"`
}

func (r auditRow) ToModel() *audit.Entry {
	return &audit.Entry{
		ID:         r.ID,
		ActorID:    r.ActorID,
		Action:     r.Action,
		TargetType: r.TargetType,
		TargetID:   r.TargetID,
		Reason:     r.Reason,
		Outcome:    r.Outcome,
		Error:      r.Error,
		CreatedAt:  r.CreatedAt,
	}
}

func (s *storageImpl) RecordAuditEntry(ctx context.Context, entry audit.Entry) (*audit.Entry, error) {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}

	params := map[string]interface{}{
		"actor_id":    entry.ActorID,
		"action":      entry.Action,
		"target_type": entry.TargetType,
		"target_id":   entry.TargetID,
		"reason":      entry.Reason,
		"outcome":     entry.Outcome,
		"error":       entry.Error,
		"created_at":  createdAt,
	}

	q, args, err := s.stmpBuilder().
		Insert(auditTable).
		SetMap(params).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	result, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("db.ExecContext: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("result.LastInsertId: %w", err)
	}

	return s.getAuditEntry(ctx, id)
}

func (s *storageImpl) getAuditEntry(ctx context.Context, id int64) (*audit.Entry, error) {
	q, args, err := s.stmpBuilder().
		Select(auditRowFields).
		From(auditTable).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	var row auditRow
	err = s.db.GetContext(ctx, &row, q, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("db.GetContext: %w", err)
	}

	return row.ToModel(), nil
}

func (s *storageImpl) ListAuditEntries(ctx context.Context, criteria audit.ListCriteria) ([]*audit.Entry, error) {
	query := s.stmpBuilder().
		Select(auditRowFields).
		From(auditTable)

	if len(criteria.ActorIDs) > 0 {
		query = query.Where(sq.Eq{"actor_id": criteria.ActorIDs})
	}
	if len(criteria.Actions) > 0 {
		query = query.Where(sq.Eq{"action": criteria.Actions})
	}

	query = query.OrderBy("created_at DESC", "id DESC")

	if criteria.Limit > 0 {
		query = query.Limit(uint64(criteria.Limit))
	}

	q, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	var rows []auditRow
	err = s.db.SelectContext(ctx, &rows, q, args...)
	if err != nil {
		return nil, fmt.Errorf("db.SelectContext: %w", err)
	}

	entries := make([]*audit.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.ToModel())
	}
	return entries, nil
}
