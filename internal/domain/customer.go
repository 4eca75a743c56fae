package domain

// DateLayout is the calendar-date form used everywhere a date is stored.
const DateLayout = "2006-01-02"

// SlotKind identifies which entitlement slot an action targets.
type SlotKind string

const (
	SlotCount        SlotKind = "count"
	SlotSubscription SlotKind = "subscription"
)

// SlotState is the lifecycle state of a single entitlement slot.
type SlotState string

const (
	SlotActive    SlotState = "active"
	SlotExhausted SlotState = "exhausted"
	SlotExpired   SlotState = "expired"
)

// CountEntitlement is a punch-card allowance consumed one unit per visit.
type CountEntitlement struct {
	PlanName      string `json:"planName"`
	RemainingUses int    `json:"remainingUses"`
}

// SubscriptionEntitlement is a time-boxed allowance valid through ExpiryDate.
// An empty ExpiryDate means the slot carries no active subscription.
type SubscriptionEntitlement struct {
	PlanName   string `json:"planName"`
	ExpiryDate string `json:"expiryDate"`
}

// CustomerRecord is one row of the customer table, keyed by license plate.
// Dates are kept in their stored string form; the allowance engine parses
// them and degrades gracefully when a stored value is malformed.
type CustomerRecord struct {
	Plate           string                   `json:"plate"`
	Phone           string                   `json:"phone"`
	RegisteredDate  string                   `json:"registeredDate"`
	LastVisitDate   string                   `json:"lastVisitDate"`
	TotalVisitCount int                      `json:"totalVisitCount"`
	Count           *CountEntitlement        `json:"count,omitempty"`
	Subscription    *SubscriptionEntitlement `json:"subscription,omitempty"`
	Blacklisted     bool                     `json:"blacklisted"`
	VisitLog        string                   `json:"visitLog"`

	// Warnings collects fields a store adapter could not parse cleanly
	// (bad number, bad date). A record with warnings is still usable; the
	// engine falls back to safe defaults instead of failing the lookup.
	Warnings []string `json:"warnings,omitempty"`
}

// HasSlot reports whether the record carries the given entitlement slot.
// A subscription slot with an empty expiry date counts as absent.
func (r CustomerRecord) HasSlot(kind SlotKind) bool {
	switch kind {
	case SlotCount:
		return r.Count != nil
	case SlotSubscription:
		return r.Subscription != nil && r.Subscription.ExpiryDate != ""
	}
	return false
}

// SlotStatus is the evaluated state of one entitlement slot.
type SlotStatus struct {
	Kind          SlotKind  `json:"kind"`
	State         SlotState `json:"state"`
	PlanName      string    `json:"planName"`
	RemainingUses int       `json:"remainingUses,omitempty"`
	RemainingDays int       `json:"remainingDays,omitempty"`
	ExpiryDate    string    `json:"expiryDate,omitempty"`
}

// EntitlementStatus is the display view of a record on a given day.
// Blacklisted is informational only; callers decide whether to act on it.
type EntitlementStatus struct {
	Plate           string       `json:"plate"`
	Phone           string       `json:"phone"`
	LastVisitDate   string       `json:"lastVisitDate"`
	TotalVisitCount int          `json:"totalVisitCount"`
	Slots           []SlotStatus `json:"slots"`
	Blacklisted     bool         `json:"blacklisted"`
	Warnings        []string     `json:"warnings,omitempty"`
}

// ActiveSlots returns the kinds currently in SlotActive state.
func (s EntitlementStatus) ActiveSlots() []SlotKind {
	var kinds []SlotKind
	for _, slot := range s.Slots {
		if slot.State == SlotActive {
			kinds = append(kinds, slot.Kind)
		}
	}
	return kinds
}
