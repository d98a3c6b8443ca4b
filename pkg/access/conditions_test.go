package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/coverdesk/coverdesk/pkg/identity"
	"github.com/coverdesk/coverdesk/pkg/rank"
)

func TestEvaluateConditions_Ownership(t *testing.T) {
	actor := identity.User{ID: "u-1"}
	conds := []rank.Condition{
		{Field: "createdBy", Operator: rank.OperatorEquals, Value: rank.CurrentUserSentinel},
	}

	assert.True(t, EvaluateConditions(conds, actor, &Record{CreatedBy: "u-1"}))
	assert.False(t, EvaluateConditions(conds, actor, &Record{CreatedBy: "u-2"}))
	assert.False(t, EvaluateConditions(conds, actor, nil), "no record means no ownership")
}

func TestEvaluateConditions_EmptySetHolds(t *testing.T) {
	assert.True(t, EvaluateConditions(nil, identity.User{ID: "u-1"}, nil))
}

func TestEvaluateConditions_Operators(t *testing.T) {
	actor := identity.User{ID: "u-1"}
	record := &Record{
		CreatedBy: "u-9",
		Fields: map[string]string{
			"status":  "open",
			"premium": "1250",
			"region":  "north-east",
		},
	}

	tests := []struct {
		name string
		cond rank.Condition
		want bool
	}{
		{"equals", rank.Condition{Field: "status", Operator: rank.OperatorEquals, Value: "open"}, true},
		{"not equals", rank.Condition{Field: "status", Operator: rank.OperatorNotEquals, Value: "closed"}, true},
		{"not equals fails", rank.Condition{Field: "status", Operator: rank.OperatorNotEquals, Value: "open"}, false},
		{"contains", rank.Condition{Field: "region", Operator: rank.OperatorContains, Value: "east"}, true},
		{"greater than numeric", rank.Condition{Field: "premium", Operator: rank.OperatorGreaterThan, Value: "1000"}, true},
		{"less than numeric", rank.Condition{Field: "premium", Operator: rank.OperatorLessThan, Value: "1000"}, false},
		{"unknown field fails closed", rank.Condition{Field: "nope", Operator: rank.OperatorEquals, Value: "x"}, false},
		{"unknown operator fails closed", rank.Condition{Field: "status", Operator: rank.Operator("regex"), Value: "x"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EvaluateConditions([]rank.Condition{tt.cond}, actor, record))
		})
	}
}

func TestEvaluateConditions_AllMustHold(t *testing.T) {
	actor := identity.User{ID: "u-1"}
	record := &Record{CreatedBy: "u-1", Fields: map[string]string{"status": "open"}}

	conds := []rank.Condition{
		{Field: "createdBy", Operator: rank.OperatorEquals, Value: rank.CurrentUserSentinel},
		{Field: "status", Operator: rank.OperatorEquals, Value: "closed"},
	}
	assert.False(t, EvaluateConditions(conds, actor, record))
}
