package admission

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ironloft/gym-admin/internal/model"
)

func TestResolvePolicyNoGroups(t *testing.T) {
	assert.Equal(t, model.PolicyNone, ResolvePolicy(nil))
	assert.Equal(t, model.PolicyNone, ResolvePolicy([]model.Group{}))
}

func TestResolvePolicySingleGroup(t *testing.T) {
	cases := []struct {
		name   string
		policy model.ApprovalPolicy
	}{
		{"none", model.PolicyNone},
		{"auto approve", model.PolicyAutoApprove},
		{"capacity exempt", model.PolicyCapacityExempt},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ResolvePolicy([]model.Group{{ID: "g", Policy: tc.policy}})
			assert.Equal(t, tc.policy, got)
		})
	}
}

func TestResolvePolicyMostPermissiveWins(t *testing.T) {
	groups := []model.Group{
		{ID: "youth", Policy: model.PolicyNone},
		{ID: "comp-team", Policy: model.PolicyCapacityExempt},
		{ID: "regulars", Policy: model.PolicyAutoApprove},
	}
	assert.Equal(t, model.PolicyCapacityExempt, ResolvePolicy(groups))

	groups = []model.Group{
		{ID: "youth", Policy: model.PolicyNone},
		{ID: "regulars", Policy: model.PolicyAutoApprove},
	}
	assert.Equal(t, model.PolicyAutoApprove, ResolvePolicy(groups))
}

func TestResolvePolicyUnknownValueNeverGrants(t *testing.T) {
	groups := []model.Group{
		{ID: "bad", Policy: model.ApprovalPolicy("SUPERUSER")},
	}
	assert.Equal(t, model.PolicyNone, ResolvePolicy(groups))

	groups = append(groups, model.Group{ID: "regulars", Policy: model.PolicyAutoApprove})
	assert.Equal(t, model.PolicyAutoApprove, ResolvePolicy(groups))
}
