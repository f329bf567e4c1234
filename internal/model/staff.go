package model

import "time"

// Staff represents a back-office account as stored in the `staff`
// table.  Staff accounts authenticate against the API; gym members do
// not log in themselves.
type Staff struct {
	ID           uint64    // staff.id
	Email        string    // staff.email
	PasswordHash string    // staff.password_hash (bcrypt)
	Role         string    // staff.role (ADMIN or STAFF)
	IsActive     bool      // staff.is_active
	CreatedAt    time.Time // staff.created_at
	UpdatedAt    time.Time // staff.updated_at
}

// RefreshToken models a row in `refresh_tokens`.  Only the SHA-256
// hash of the raw token is stored; the raw value goes back to the
// client once and is never persisted.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	StaffID   uint64     // refresh_tokens.staff_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
