package repository

import (
	"context"
	"database/sql"

	"github.com/ironloft/gym-admin/internal/model"
)

// ClassTypeRepo provides access to the class_types table.
type ClassTypeRepo struct {
	db *sql.DB
}

// NewClassTypeRepo returns a ClassTypeRepo bound to the given database.
func NewClassTypeRepo(db *sql.DB) *ClassTypeRepo { return &ClassTypeRepo{db: db} }

// Create inserts a class type.  Returns ErrDuplicateID when the slug
// is already taken.
func (r *ClassTypeRepo) Create(ctx context.Context, ct *model.ClassType) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO class_types (id, name, level, description, updated_at)
		 VALUES (?, ?, ?, ?, UTC_TIMESTAMP())`,
		ct.ID, ct.Name, ct.Level, ct.Description,
	)
	if isDuplicateKey(err) {
		return ErrDuplicateID
	}
	return err
}

// Update rewrites name, level and description.
func (r *ClassTypeRepo) Update(ctx context.Context, ct *model.ClassType) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE class_types SET name=?, level=?, description=?, updated_at=UTC_TIMESTAMP() WHERE id=?`,
		ct.Name, ct.Level, ct.Description, ct.ID,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		var one int
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM class_types WHERE id=?`, ct.ID).Scan(&one); err != nil {
			return err
		}
	}
	return nil
}

// GetByID fetches one class type.
func (r *ClassTypeRepo) GetByID(ctx context.Context, id string) (*model.ClassType, error) {
	var ct model.ClassType
	var level, desc sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, level, description, updated_at FROM class_types WHERE id=?`, id,
	).Scan(&ct.ID, &ct.Name, &level, &desc, &ct.UpdatedAt)
	if err != nil {
		return nil, err
	}
	ct.Level = nullStr(level)
	ct.Description = nullStr(desc)
	return &ct, nil
}

// List returns all class types ordered by id.
func (r *ClassTypeRepo) List(ctx context.Context) ([]model.ClassType, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, level, description, updated_at FROM class_types ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.ClassType, 0)
	for rows.Next() {
		var ct model.ClassType
		var level, desc sql.NullString
		if err := rows.Scan(&ct.ID, &ct.Name, &level, &desc, &ct.UpdatedAt); err != nil {
			return nil, err
		}
		ct.Level = nullStr(level)
		ct.Description = nullStr(desc)
		items = append(items, ct)
	}
	return items, rows.Err()
}
