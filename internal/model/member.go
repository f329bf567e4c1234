package model

import "time"

// Member represents a gym member as stored in the `members` table.
// Alongside the identity fields it carries the demographic and
// engagement columns used by exports and analytics.  Group
// memberships are loaded through the member_groups join table and
// drive booking approval policy.
//
// Fields:
//  ID              – uuid primary key.
//  FullName        – member display name.
//  Gender          – optional free-form gender string.
//  DOB             – optional date of birth.
//  Phone, Email    – optional contact details.
//  MembershipType  – optional plan name (e.g. monthly, dropin).
//  JoinDate        – optional date the member joined.
//  LastActive      – last recorded activity timestamp.
//  AttendanceCount – number of approved visits; bumped on booking approval.
//  Status          – account status (active, frozen, left).
//  Source          – acquisition channel.
//  Notes           – free-form staff notes.
//  UpdatedAt       – last update timestamp.
//  Groups          – groups this member belongs to.
type Member struct {
	ID              string     // members.id
	FullName        string     // members.full_name
	Gender          *string    // members.gender (nullable)
	DOB             *time.Time // members.dob (nullable)
	Phone           *string    // members.phone (nullable)
	Email           *string    // members.email (nullable)
	MembershipType  *string    // members.membership_type (nullable)
	JoinDate        *time.Time // members.join_date (nullable)
	LastActive      *time.Time // members.last_active (nullable)
	AttendanceCount int        // members.attendance_count
	Status          string     // members.status
	Source          *string    // members.source (nullable)
	Notes           *string    // members.notes (nullable)
	UpdatedAt       time.Time  // members.updated_at
	Groups          []Group    // via member_groups
}

// MemberVisit records a single attendance event for a member.  Visits
// are appended when a booking is approved and feed the attendance
// analytics; they are never updated or deleted.
type MemberVisit struct {
	ID        uint64    // member_visits.id
	MemberID  string    // member_visits.member_id
	EventID   *string   // member_visits.event_id (nullable)
	Source    string    // member_visits.source (e.g. booking_approve)
	VisitedAt time.Time // member_visits.visited_at
}
