package admission

import "github.com/ironloft/gym-admin/internal/model"

// policyRank orders policies from least to most permissive.  Unknown
// values rank below NONE so a bad row in the groups table can never
// grant an override.
func policyRank(p model.ApprovalPolicy) int {
	switch p {
	case model.PolicyCapacityExempt:
		return 2
	case model.PolicyAutoApprove:
		return 1
	case model.PolicyNone:
		return 0
	}
	return -1
}

// ResolvePolicy returns the effective approval policy for a member
// given their group memberships.  When groups conflict the most
// permissive policy wins: CAPACITY_EXEMPT > AUTO_APPROVE > NONE.
// A member with no groups resolves to NONE.
//
// The function is pure and never blocks; it is safe to call from
// inside the coordinator's critical path.
func ResolvePolicy(groups []model.Group) model.ApprovalPolicy {
	best := model.PolicyNone
	for _, g := range groups {
		if policyRank(g.Policy) > policyRank(best) {
			best = g.Policy
		}
	}
	return best
}
