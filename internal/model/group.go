package model

// ApprovalPolicy is the booking override a group grants its members.
// NONE leaves bookings waiting for staff approval.  AUTO_APPROVE
// skips the pending step but still consumes a seat.  CAPACITY_EXEMPT
// admits the booking unconditionally without consuming a seat.
type ApprovalPolicy string

const (
	PolicyNone           ApprovalPolicy = "NONE"
	PolicyAutoApprove    ApprovalPolicy = "AUTO_APPROVE"
	PolicyCapacityExempt ApprovalPolicy = "CAPACITY_EXEMPT"
)

// Valid reports whether p is one of the known policies.
func (p ApprovalPolicy) Valid() bool {
	switch p {
	case PolicyNone, PolicyAutoApprove, PolicyCapacityExempt:
		return true
	}
	return false
}

// Group is a member cohort (e.g. Youth, Competition Team).  Its
// approval policy feeds the admission engine: when a member belongs
// to several groups the most permissive policy wins.
type Group struct {
	ID     string         // groups.id (caller-chosen slug)
	Name   string         // groups.name
	Policy ApprovalPolicy // groups.approval_policy
}
