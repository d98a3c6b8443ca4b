package access

import (
	"strconv"
	"strings"

	"github.com/coverdesk/coverdesk/pkg/identity"
	"github.com/coverdesk/coverdesk/pkg/rank"
)

// Record is the target resource instance a conditional permission is
// evaluated against: the owning-party identity plus whatever scalar fields
// the owning module exposes.
type Record struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	CreatedBy string            `json:"created_by"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// fieldValue resolves a condition field against the record. createdBy is a
// first-class field; everything else comes from the module's field bag.
func (r *Record) fieldValue(field string) (string, bool) {
	if field == "createdBy" {
		return r.CreatedBy, true
	}
	v, ok := r.Fields[field]
	return v, ok
}

// EvaluateConditions reports whether every condition holds for the acting
// user against the target record. The sentinel value resolves to the acting
// user's ID before comparison. A conditional permission checked without a
// target record grants nothing: ownership cannot be established, so the
// evaluation fails closed.
func EvaluateConditions(conds []rank.Condition, actor identity.User, record *Record) bool {
	for _, c := range conds {
		if !evaluateCondition(c, actor, record) {
			return false
		}
	}
	return true
}

func evaluateCondition(c rank.Condition, actor identity.User, record *Record) bool {
	if record == nil {
		return false
	}

	fieldVal, ok := record.fieldValue(c.Field)
	if !ok {
		return false
	}

	want := c.Value
	if want == rank.CurrentUserSentinel {
		want = actor.ID
	}

	switch c.Operator {
	case rank.OperatorEquals:
		return fieldVal == want
	case rank.OperatorNotEquals:
		return fieldVal != want
	case rank.OperatorContains:
		return strings.Contains(fieldVal, want)
	case rank.OperatorGreaterThan:
		return compareNumeric(fieldVal, want) > 0
	case rank.OperatorLessThan:
		return compareNumeric(fieldVal, want) < 0
	default:
		return false
	}
}

// compareNumeric compares two values numerically when both parse, falling
// back to lexicographic order otherwise.
func compareNumeric(a, b string) int {
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	if errA == nil && errB == nil {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a, b)
}
