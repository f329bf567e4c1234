package model

import "time"

// AuditEntry is an append-only row in the `system_log` table.  It
// records who did what to which entity; booking decisions and
// administrative writes all land here.
type AuditEntry struct {
	ID       uint64    // system_log.id
	TS       time.Time // system_log.ts
	Actor    *string   // system_log.actor (nullable)
	Action   string    // system_log.action (e.g. booking.approve)
	Entity   *string   // system_log.entity (nullable)
	EntityID *string   // system_log.entity_id (nullable)
	Status   *string   // system_log.status (nullable)
	Message  *string   // system_log.message (nullable)
}
