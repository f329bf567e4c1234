package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/ironloft/gym-admin/internal/admission"
	"github.com/ironloft/gym-admin/internal/model"
)

// EventRepo provides access to the events table.  It implements
// admission.EventStore and feeds the capacity ledger through
// EventCapacity.  All timestamps are stored in UTC.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo returns an EventRepo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

const eventColumns = `id, name, class_type_id, group_id, starts_at, ends_at, recurrence,
	capacity, is_special, requires_approval, created_by, description, updated_at`

func scanEvent(scan func(dest ...any) error) (*model.Event, error) {
	var e model.Event
	var groupID, createdBy, desc sql.NullString
	var capacity sql.NullInt64
	err := scan(
		&e.ID, &e.Name, &e.ClassTypeID, &groupID, &e.Start, &e.End, &e.Recurrence,
		&capacity, &e.IsSpecial, &e.RequiresApproval, &createdBy, &desc, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.GroupID = nullStr(groupID)
	e.CreatedBy = nullStr(createdBy)
	e.Description = nullStr(desc)
	if capacity.Valid {
		c := int(capacity.Int64)
		e.Capacity = &c
	}
	return &e, nil
}

// Create inserts an event.  Returns ErrBadReference when the class
// type or group does not exist.
func (r *EventRepo) Create(ctx context.Context, e *model.Event) error {
	const q = `INSERT INTO events (` + eventColumns + `)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, UTC_TIMESTAMP())`
	_, err := r.db.ExecContext(ctx, q,
		e.ID, e.Name, e.ClassTypeID, e.GroupID, e.Start.UTC(), e.End.UTC(), e.Recurrence,
		e.Capacity, e.IsSpecial, e.RequiresApproval, e.CreatedBy, e.Description,
	)
	if isForeignKey(err) {
		return ErrBadReference
	}
	return err
}

// Update rewrites the mutable event columns.  Returns
// admission.ErrEventNotFound for an unknown event and ErrBadReference
// for a dangling class type or group.
func (r *EventRepo) Update(ctx context.Context, e *model.Event) error {
	const q = `UPDATE events SET name=?, class_type_id=?, group_id=?, starts_at=?, ends_at=?,
	           recurrence=?, capacity=?, is_special=?, requires_approval=?, description=?,
	           updated_at=UTC_TIMESTAMP() WHERE id=?`
	res, err := r.db.ExecContext(ctx, q,
		e.Name, e.ClassTypeID, e.GroupID, e.Start.UTC(), e.End.UTC(),
		e.Recurrence, e.Capacity, e.IsSpecial, e.RequiresApproval, e.Description, e.ID,
	)
	if err != nil {
		if isForeignKey(err) {
			return ErrBadReference
		}
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		var one int
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM events WHERE id=?`, e.ID).Scan(&one); err != nil {
			if err == sql.ErrNoRows {
				return admission.ErrEventNotFound
			}
			return err
		}
	}
	return nil
}

// GetEvent loads one event.  Satisfies admission.EventStore.
func (r *EventRepo) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	const q = `SELECT ` + eventColumns + ` FROM events WHERE id = ?`
	e, err := scanEvent(r.db.QueryRowContext(ctx, q, id).Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, admission.ErrEventNotFound
		}
		return nil, err
	}
	return e, nil
}

// EventCapacity returns the event's capacity (nil = unlimited) for
// the admission ledger.  Satisfies half of admission.CapacityStore;
// the held count lives on BookingRepo.
func (r *EventRepo) EventCapacity(ctx context.Context, id string) (*int, error) {
	var capacity sql.NullInt64
	err := r.db.QueryRowContext(ctx, `SELECT capacity FROM events WHERE id=?`, id).Scan(&capacity)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, admission.ErrEventNotFound
		}
		return nil, err
	}
	if !capacity.Valid {
		return nil, nil
	}
	c := int(capacity.Int64)
	return &c, nil
}

// List returns one page of events starting at or after from (zero
// value = no lower bound), ordered by start time, plus the total row
// count.
func (r *EventRepo) List(ctx context.Context, from time.Time, page, pageSize int) ([]model.Event, int, error) {
	where := ``
	args := []any{}
	if !from.IsZero() {
		where = ` WHERE starts_at >= ?`
		args = append(args, from.UTC())
	}
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	q := `SELECT ` + eventColumns + ` FROM events` + where + ` ORDER BY starts_at, id LIMIT ? OFFSET ?`
	args = append(args, pageSize, (page-1)*pageSize)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items := make([]model.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListAll returns every event; used by the CSV export.
func (r *EventRepo) ListAll(ctx context.Context) ([]model.Event, error) {
	const q = `SELECT ` + eventColumns + ` FROM events ORDER BY starts_at, id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, err
		}
		items = append(items, *e)
	}
	return items, rows.Err()
}
