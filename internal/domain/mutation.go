package domain

// Field names a logical column of the customer table. Stores map these to
// physical columns (or sheet cells) at their own boundary.
type Field string

const (
	FieldPhone            Field = "phone"
	FieldLastVisitDate    Field = "last_visit_date"
	FieldTotalVisitCount  Field = "total_visit_count"
	FieldCountPlan        Field = "count_plan"
	FieldRemainingUses    Field = "remaining_uses"
	FieldSubscriptionPlan Field = "subscription_plan"
	FieldExpiryDate       Field = "expiry_date"
	FieldRemainingDays    Field = "remaining_days"
	FieldVisitLog         Field = "visit_log"
)

// FieldWrite is a single named-field update within a mutation plan.
type FieldWrite struct {
	Field Field
	Value any
}

// MutationPlan is an ordered set of field writes against one record. The
// backing store offers no multi-field atomicity, so order matters: numeric
// and date state comes first and the visit-log write is always last, so a
// crash mid-plan leaves updated numbers with a missing log entry rather
// than a log entry with stale numbers.
type MutationPlan struct {
	Plate  string
	Writes []FieldWrite
}

// Set appends a field write to the plan.
func (p *MutationPlan) Set(f Field, v any) {
	p.Writes = append(p.Writes, FieldWrite{Field: f, Value: v})
}

// Get returns the last value written for a field and whether one exists.
func (p *MutationPlan) Get(f Field) (any, bool) {
	for i := len(p.Writes) - 1; i >= 0; i-- {
		if p.Writes[i].Field == f {
			return p.Writes[i].Value, true
		}
	}
	return nil, false
}
