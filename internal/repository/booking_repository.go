package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/ironloft/gym-admin/internal/admission"
	"github.com/ironloft/gym-admin/internal/model"
)

// BookingRepo provides access to the bookings table.  It implements
// admission.BookingStore (inserts, conditional status updates,
// duplicate checks) and the held-count half of
// admission.CapacityStore.  Bookings are never deleted; terminal
// rows remain for exports and analytics.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `id, event_id, member_id, status, seat_consuming, reason,
	approved_by, created_at, decided_at`

func scanBooking(scan func(dest ...any) error) (*model.Booking, error) {
	var b model.Booking
	var reason, approvedBy sql.NullString
	var decidedAt sql.NullTime
	err := scan(
		&b.ID, &b.EventID, &b.MemberID, &b.Status, &b.SeatConsuming, &reason,
		&approvedBy, &b.CreatedAt, &decidedAt,
	)
	if err != nil {
		return nil, err
	}
	b.Reason = nullStr(reason)
	b.ApprovedBy = nullStr(approvedBy)
	b.DecidedAt = nullTime(decidedAt)
	return &b, nil
}

// InsertBooking persists a freshly admitted booking in whatever
// state the coordinator decided (PENDING, APPROVED or REJECTED).
// The bookings table carries a unique index over (event_id,
// active_member), a generated column equal to member_id while the
// status is non-terminal and NULL otherwise, so concurrent requests
// from one member resolve to a single active row; the losers get
// admission.ErrDuplicateBooking.  Satisfies admission.BookingStore.
func (r *BookingRepo) InsertBooking(ctx context.Context, b *model.Booking) error {
	const q = `INSERT INTO bookings (` + bookingColumns + `)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q,
		b.ID, b.EventID, b.MemberID, b.Status, b.SeatConsuming, b.Reason,
		b.ApprovedBy, b.CreatedAt.UTC(), b.DecidedAt,
	)
	if err != nil && isDuplicateKey(err) {
		return admission.ErrDuplicateBooking
	}
	return err
}

// GetBooking loads one booking, or admission.ErrBookingNotFound.
func (r *BookingRepo) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	b, err := scanBooking(r.db.QueryRowContext(ctx, q, id).Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, admission.ErrBookingNotFound
		}
		return nil, err
	}
	return b, nil
}

// HasActiveBooking reports whether the member holds a non-terminal
// booking for the event.  Satisfies admission.BookingStore.
func (r *BookingRepo) HasActiveBooking(ctx context.Context, eventID, memberID string) (bool, error) {
	const q = `SELECT EXISTS (
	             SELECT 1 FROM bookings
	             WHERE event_id = ? AND member_id = ? AND status IN ('PENDING','APPROVED'))`
	var exists bool
	if err := r.db.QueryRowContext(ctx, q, eventID, memberID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// FinalizeBooking applies a state transition only when the row is
// still in the expected status, reporting whether it won.  approved_by
// is preserved when the caller passes nil.  Satisfies
// admission.BookingStore.
func (r *BookingRepo) FinalizeBooking(ctx context.Context, id string, from, to model.BookingStatus, decidedAt time.Time, approvedBy *string) (bool, error) {
	const q = `UPDATE bookings
	           SET status = ?, decided_at = ?, approved_by = COALESCE(?, approved_by)
	           WHERE id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, q, to, decidedAt.UTC(), approvedBy, id, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// HeldSeats counts seat-consuming bookings in PENDING or APPROVED
// for an event.  Used to prime the admission ledger.  Satisfies
// half of admission.CapacityStore.
func (r *BookingRepo) HeldSeats(ctx context.Context, eventID string) (int, error) {
	const q = `SELECT COUNT(*) FROM bookings
	           WHERE event_id = ? AND seat_consuming = 1 AND status IN ('PENDING','APPROVED')`
	var n int
	if err := r.db.QueryRowContext(ctx, q, eventID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// BookingFilter narrows List.  Zero values mean "no filter".
type BookingFilter struct {
	EventID  string
	MemberID string
	Status   model.BookingStatus
	Page     int
	PageSize int
}

// List returns one page of bookings, newest first, plus the total
// row count for the filter.
func (r *BookingRepo) List(ctx context.Context, f BookingFilter) ([]model.Booking, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if f.EventID != "" {
		where += ` AND event_id = ?`
		args = append(args, f.EventID)
	}
	if f.MemberID != "" {
		where += ` AND member_id = ?`
		args = append(args, f.MemberID)
	}
	if f.Status != "" {
		where += ` AND status = ?`
		args = append(args, f.Status)
	}
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	q := `SELECT ` + bookingColumns + ` FROM bookings` + where + ` ORDER BY created_at DESC, id LIMIT ? OFFSET ?`
	args = append(args, f.PageSize, (f.Page-1)*f.PageSize)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListAll returns every booking, oldest first; used by the CSV export.
func (r *BookingRepo) ListAll(ctx context.Context) ([]model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows.Scan)
		if err != nil {
			return nil, err
		}
		items = append(items, *b)
	}
	return items, rows.Err()
}

// StatusCount is one row of the per-status booking breakdown.
type StatusCount struct {
	EventID string              `json:"event_id,omitempty"`
	Status  model.BookingStatus `json:"status"`
	Count   int                 `json:"count"`
}

// CountsByStatus returns booking counts grouped by status, either
// for one event or across all events when eventID is empty.  Read
// path for the analytics collaborator.
func (r *BookingRepo) CountsByStatus(ctx context.Context, eventID string) ([]StatusCount, error) {
	q := `SELECT status, COUNT(*) FROM bookings`
	args := []any{}
	if eventID != "" {
		q += ` WHERE event_id = ?`
		args = append(args, eventID)
	}
	q += ` GROUP BY status ORDER BY status`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]StatusCount, 0)
	for rows.Next() {
		var sc StatusCount
		if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, err
		}
		sc.EventID = eventID
		items = append(items, sc)
	}
	return items, rows.Err()
}

// CountsByEvent returns the per-event breakdown of booking counts by
// status across all events.
func (r *BookingRepo) CountsByEvent(ctx context.Context) ([]StatusCount, error) {
	const q = `SELECT event_id, status, COUNT(*) FROM bookings
	           GROUP BY event_id, status ORDER BY event_id, status`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]StatusCount, 0)
	for rows.Next() {
		var sc StatusCount
		if err := rows.Scan(&sc.EventID, &sc.Status, &sc.Count); err != nil {
			return nil, err
		}
		items = append(items, sc)
	}
	return items, rows.Err()
}
