package model

import "time"

// Event is a scheduled class session.  Capacity is nullable: a nil
// capacity means the event is not capacity-limited.  Recurrence is a
// stored label only; recurring sessions are created by the scheduling
// layer, never expanded here.
//
// Fields:
//  ID               – uuid primary key.
//  Name             – session name.
//  ClassTypeID      – class definition this session runs.
//  GroupID          – optional group the session is intended for.
//  Start, End       – session window (end after start).
//  Recurrence       – recurrence label (none, daily, weekly).
//  Capacity         – maximum seat-consuming bookings (nil = unlimited).
//  IsSpecial        – marks one-off special sessions.
//  RequiresApproval – legacy per-event approval flag, kept as data.
//  CreatedBy        – staff identifier of the creator.
//  Description      – free-form description.
//  UpdatedAt        – last update timestamp.
type Event struct {
	ID               string    // events.id
	Name             string    // events.name
	ClassTypeID      string    // events.class_type_id
	GroupID          *string   // events.group_id (nullable)
	Start            time.Time // events.starts_at
	End              time.Time // events.ends_at
	Recurrence       string    // events.recurrence
	Capacity         *int      // events.capacity (nullable)
	IsSpecial        bool      // events.is_special
	RequiresApproval bool      // events.requires_approval
	CreatedBy        *string   // events.created_by (nullable)
	Description      *string   // events.description (nullable)
	UpdatedAt        time.Time // events.updated_at
}
