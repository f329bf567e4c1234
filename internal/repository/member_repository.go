package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/ironloft/gym-admin/internal/admission"
	"github.com/ironloft/gym-admin/internal/model"
)

// MemberRepo provides access to the members, member_groups and
// member_visits tables.  It implements admission.MemberStore: the
// coordinator loads members (with groups) through GetMember and
// records visits through RecordVisit.  All timestamps are stored in
// UTC.
type MemberRepo struct {
	db *sql.DB
}

// NewMemberRepo returns a MemberRepo bound to the given database.
func NewMemberRepo(db *sql.DB) *MemberRepo { return &MemberRepo{db: db} }

const memberColumns = `id, full_name, gender, dob, phone, email, membership_type,
	join_date, last_active, attendance_count, status, source, notes, updated_at`

// scanMember scans one members row from any row scanner.
func scanMember(scan func(dest ...any) error) (*model.Member, error) {
	var m model.Member
	var gender, phone, email, membershipType, source, notes sql.NullString
	var dob, joinDate, lastActive sql.NullTime
	err := scan(
		&m.ID, &m.FullName, &gender, &dob, &phone, &email, &membershipType,
		&joinDate, &lastActive, &m.AttendanceCount, &m.Status, &source, &notes, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.Gender = nullStr(gender)
	m.Phone = nullStr(phone)
	m.Email = nullStr(email)
	m.MembershipType = nullStr(membershipType)
	m.Source = nullStr(source)
	m.Notes = nullStr(notes)
	m.DOB = nullTime(dob)
	m.JoinDate = nullTime(joinDate)
	m.LastActive = nullTime(lastActive)
	return &m, nil
}

func nullStr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}

// Create inserts a member row and its group links.
func (r *MemberRepo) Create(ctx context.Context, m *model.Member, groupIDs []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	const q = `INSERT INTO members (` + memberColumns + `)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, UTC_TIMESTAMP())`
	if _, err := tx.ExecContext(ctx, q,
		m.ID, m.FullName, m.Gender, m.DOB, m.Phone, m.Email, m.MembershipType,
		m.JoinDate, m.LastActive, m.AttendanceCount, m.Status, m.Source, m.Notes,
	); err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateID
		}
		return err
	}
	if err := replaceGroupsTx(ctx, tx, m.ID, groupIDs); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Update rewrites the mutable member columns and replaces group links
// when groupIDs is non-nil.  Returns admission.ErrMemberNotFound when
// no row matches.
func (r *MemberRepo) Update(ctx context.Context, m *model.Member, groupIDs []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	const q = `UPDATE members SET full_name=?, gender=?, dob=?, phone=?, email=?,
	           membership_type=?, join_date=?, status=?, source=?, notes=?,
	           updated_at=UTC_TIMESTAMP() WHERE id=?`
	res, err := tx.ExecContext(ctx, q,
		m.FullName, m.Gender, m.DOB, m.Phone, m.Email,
		m.MembershipType, m.JoinDate, m.Status, m.Source, m.Notes, m.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Distinguish a missing row from an update that changed nothing.
		var one int
		if err := tx.QueryRowContext(ctx, `SELECT 1 FROM members WHERE id=?`, m.ID).Scan(&one); err != nil {
			if err == sql.ErrNoRows {
				return admission.ErrMemberNotFound
			}
			return err
		}
	}
	if groupIDs != nil {
		if err := replaceGroupsTx(ctx, tx, m.ID, groupIDs); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// replaceGroupsTx rewrites the member_groups links for a member.
func replaceGroupsTx(ctx context.Context, tx *sql.Tx, memberID string, groupIDs []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM member_groups WHERE member_id=?`, memberID); err != nil {
		return err
	}
	if len(groupIDs) == 0 {
		return nil
	}
	query := `INSERT INTO member_groups (member_id, group_id) VALUES `
	args := make([]any, 0, len(groupIDs)*2)
	for i, gid := range groupIDs {
		if i > 0 {
			query += ","
		}
		query += "(?, ?)"
		args = append(args, memberID, gid)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if isForeignKey(err) {
			return ErrBadReference
		}
		return err
	}
	return nil
}

// GetMember loads a member and their groups.  Satisfies
// admission.MemberStore.
func (r *MemberRepo) GetMember(ctx context.Context, id string) (*model.Member, error) {
	const q = `SELECT ` + memberColumns + ` FROM members WHERE id = ?`
	row := r.db.QueryRowContext(ctx, q, id)
	m, err := scanMember(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, admission.ErrMemberNotFound
		}
		return nil, err
	}
	const gq = `SELECT g.id, g.name, g.approval_policy
	            FROM member_groups mg
	            JOIN groups g ON g.id = mg.group_id
	            WHERE mg.member_id = ?
	            ORDER BY g.id`
	rows, err := r.db.QueryContext(ctx, gq, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var g model.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.Policy); err != nil {
			return nil, err
		}
		m.Groups = append(m.Groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

// List returns one page of members ordered by name, plus the total
// row count for pagination.  Group memberships are not loaded here.
func (r *MemberRepo) List(ctx context.Context, page, pageSize int) ([]model.Member, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM members`).Scan(&total); err != nil {
		return nil, 0, err
	}
	const q = `SELECT ` + memberColumns + ` FROM members
	           ORDER BY full_name, id LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items := make([]model.Member, 0)
	for rows.Next() {
		m, err := scanMember(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListAll returns every member; used by the CSV export.
func (r *MemberRepo) ListAll(ctx context.Context) ([]model.Member, error) {
	const q = `SELECT ` + memberColumns + ` FROM members ORDER BY full_name, id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.Member, 0)
	for rows.Next() {
		m, err := scanMember(rows.Scan)
		if err != nil {
			return nil, err
		}
		items = append(items, *m)
	}
	return items, rows.Err()
}

// RecordVisit appends a member_visits row and bumps the member's
// attendance count and last_active in one transaction.  Satisfies
// admission.MemberStore.
func (r *MemberRepo) RecordVisit(ctx context.Context, memberID, eventID, source string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	// Walk-in visits carry no event; keep the column NULL.
	var ev any
	if eventID != "" {
		ev = eventID
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO member_visits (member_id, event_id, source, visited_at) VALUES (?, ?, ?, UTC_TIMESTAMP())`,
		memberID, ev, source,
	); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE members SET attendance_count = attendance_count + 1, last_active = UTC_TIMESTAMP() WHERE id = ?`,
		memberID,
	); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// isDuplicateKey reports whether err is a MySQL duplicate key error
// (error 1062).
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}

// isForeignKey reports whether err is a MySQL foreign key violation
// (errors 1216/1452).
func isForeignKey(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "1452") || strings.Contains(err.Error(), "1216")
}
