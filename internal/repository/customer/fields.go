package customer

import (
	"fmt"

	"washdesk/internal/domain"
)

// columnFor maps a logical field to its physical column. Both stores use
// the same column names; keeping the mapping explicit means a plan naming
// an unknown field fails loudly instead of writing a stray column.
func columnFor(f domain.Field) (string, error) {
	switch f {
	case domain.FieldPhone,
		domain.FieldLastVisitDate,
		domain.FieldTotalVisitCount,
		domain.FieldCountPlan,
		domain.FieldRemainingUses,
		domain.FieldSubscriptionPlan,
		domain.FieldExpiryDate,
		domain.FieldRemainingDays,
		domain.FieldVisitLog:
		return string(f), nil
	}
	return "", fmt.Errorf("unknown field %q", f)
}
