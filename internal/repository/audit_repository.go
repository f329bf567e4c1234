package repository

import (
	"context"
	"database/sql"

	"github.com/ironloft/gym-admin/internal/model"
)

// AuditRepo appends to and reads the system_log table.  The log is
// append-only; entries are never updated or deleted.
type AuditRepo struct {
	db *sql.DB
}

// NewAuditRepo returns an AuditRepo bound to the given database.
func NewAuditRepo(db *sql.DB) *AuditRepo { return &AuditRepo{db: db} }

// Append writes one audit entry.  Failures are the caller's problem;
// handlers log and continue so an audit hiccup never fails the
// business operation.
func (r *AuditRepo) Append(ctx context.Context, e *model.AuditEntry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO system_log (ts, actor, action, entity, entity_id, status, message)
		 VALUES (UTC_TIMESTAMP(), ?, ?, ?, ?, ?, ?)`,
		e.Actor, e.Action, e.Entity, e.EntityID, e.Status, e.Message,
	)
	return err
}

// Recent returns the newest limit entries.
func (r *AuditRepo) Recent(ctx context.Context, limit int) ([]model.AuditEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, ts, actor, action, entity, entity_id, status, message
		 FROM system_log ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.AuditEntry, 0)
	for rows.Next() {
		var e model.AuditEntry
		var actor, entity, entityID, status, message sql.NullString
		if err := rows.Scan(&e.ID, &e.TS, &actor, &e.Action, &entity, &entityID, &status, &message); err != nil {
			return nil, err
		}
		e.Actor = nullStr(actor)
		e.Entity = nullStr(entity)
		e.EntityID = nullStr(entityID)
		e.Status = nullStr(status)
		e.Message = nullStr(message)
		items = append(items, e)
	}
	return items, rows.Err()
}
