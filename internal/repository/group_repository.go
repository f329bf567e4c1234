package repository

import (
	"context"
	"database/sql"

	"github.com/ironloft/gym-admin/internal/model"
)

// GroupRepo provides access to the groups table.  Group ids are
// caller-chosen slugs; the approval policy column drives the
// admission engine's policy resolver.
type GroupRepo struct {
	db *sql.DB
}

// NewGroupRepo returns a GroupRepo bound to the given database.
func NewGroupRepo(db *sql.DB) *GroupRepo { return &GroupRepo{db: db} }

// Create inserts a group.  Returns ErrDuplicateID when the slug is
// already taken.
func (r *GroupRepo) Create(ctx context.Context, g *model.Group) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO groups (id, name, approval_policy) VALUES (?, ?, ?)`,
		g.ID, g.Name, g.Policy,
	)
	if isDuplicateKey(err) {
		return ErrDuplicateID
	}
	return err
}

// Update rewrites name and policy.  Returns sql.ErrNoRows for an
// unknown group.
func (r *GroupRepo) Update(ctx context.Context, g *model.Group) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE groups SET name=?, approval_policy=? WHERE id=?`,
		g.Name, g.Policy, g.ID,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		var one int
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM groups WHERE id=?`, g.ID).Scan(&one); err != nil {
			return err
		}
	}
	return nil
}

// GetByID fetches one group.
func (r *GroupRepo) GetByID(ctx context.Context, id string) (*model.Group, error) {
	var g model.Group
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, approval_policy FROM groups WHERE id=?`, id,
	).Scan(&g.ID, &g.Name, &g.Policy)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// List returns all groups ordered by id.  The table is small enough
// that pagination is not worth the ceremony.
func (r *GroupRepo) List(ctx context.Context) ([]model.Group, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, approval_policy FROM groups ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.Group, 0)
	for rows.Next() {
		var g model.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.Policy); err != nil {
			return nil, err
		}
		items = append(items, g)
	}
	return items, rows.Err()
}
