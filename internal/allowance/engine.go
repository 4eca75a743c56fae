// Package allowance implements the entitlement state machine: evaluating a
// customer record against a calendar day and planning the field mutations
// for visits, renewals, recharges and new slots. Every operation here is
// pure; persistence is the store's job.
package allowance

import (
	"fmt"
	"time"

	"washdesk/internal/catalog"
	"washdesk/internal/domain"
	"washdesk/internal/visitlog"
)

// SameDayPolicy controls what happens when a visit for a slot was already
// logged on the same calendar day.
type SameDayPolicy int

const (
	// SameDayBlock rejects the second visit outright.
	SameDayBlock SameDayPolicy = iota
	// SameDayConfirm rejects it unless the caller passes an explicit
	// confirmation, mirroring the counter prompt in the legacy app.
	SameDayConfirm
)

// Config fixes the policy choices the source revisions disagreed on.
type Config struct {
	SameDay SameDayPolicy
	// InclusiveExpiry counts the purchase day as part of the subscription:
	// a 1-month plan bought on day D expires on D plus one month minus one
	// day. When false the full D-plus-one-month day is still valid.
	InclusiveExpiry bool
	// LogRenewalVisit appends a renewal entry to the visit log and bumps
	// the total visit count, modeling staff re-enrolling the customer in
	// person.
	LogRenewalVisit bool
}

// DefaultConfig matches the behavior of the latest revision.
func DefaultConfig() Config {
	return Config{
		SameDay:         SameDayBlock,
		InclusiveExpiry: true,
		LogRenewalVisit: true,
	}
}

// Engine plans record mutations under a fixed policy configuration.
type Engine struct {
	cfg Config
}

// New returns an Engine with the given policy configuration.
func New(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// SlotTag is the visit-log tag written when the given slot is consumed.
func SlotTag(kind domain.SlotKind) string {
	if kind == domain.SlotSubscription {
		return "월정액"
	}
	return "회수권"
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// daysBetween counts whole calendar days from a to b. Both ends are
// normalized to UTC midnights first so DST transitions in the inputs'
// location cannot shorten a day.
func daysBetween(a, b time.Time) int {
	au := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bu := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bu.Sub(au) / (24 * time.Hour))
}

// Evaluate computes the display state of a record on a given day. It never
// mutates anything and never fails: malformed stored fields degrade to the
// safe side (unparseable expiry reads as expired) and surface as warnings.
func (e *Engine) Evaluate(rec domain.CustomerRecord, today time.Time) domain.EntitlementStatus {
	status := domain.EntitlementStatus{
		Plate:           rec.Plate,
		Phone:           rec.Phone,
		LastVisitDate:   rec.LastVisitDate,
		TotalVisitCount: rec.TotalVisitCount,
		Blacklisted:     rec.Blacklisted,
	}
	status.Warnings = append(status.Warnings, rec.Warnings...)

	if rec.Count != nil {
		slot := domain.SlotStatus{
			Kind:          domain.SlotCount,
			PlanName:      rec.Count.PlanName,
			RemainingUses: rec.Count.RemainingUses,
			State:         domain.SlotActive,
		}
		if rec.Count.RemainingUses <= 0 {
			slot.RemainingUses = 0
			slot.State = domain.SlotExhausted
		}
		status.Slots = append(status.Slots, slot)
	}

	if rec.Subscription != nil && rec.Subscription.ExpiryDate != "" {
		slot := domain.SlotStatus{
			Kind:       domain.SlotSubscription,
			PlanName:   rec.Subscription.PlanName,
			ExpiryDate: rec.Subscription.ExpiryDate,
		}
		expiry, err := time.ParseInLocation(domain.DateLayout, rec.Subscription.ExpiryDate, today.Location())
		if err != nil {
			slot.State = domain.SlotExpired
			status.Warnings = append(status.Warnings,
				fmt.Sprintf("unparseable expiry date %q, treating subscription as expired", rec.Subscription.ExpiryDate))
		} else if day := dateOnly(today); !day.After(expiry) {
			slot.State = domain.SlotActive
			slot.RemainingDays = daysBetween(day, expiry)
		} else {
			slot.State = domain.SlotExpired
		}
		status.Slots = append(status.Slots, slot)
	}

	return status
}

// pickSlot resolves which slot a visit consumes. An explicit choice wins;
// otherwise the sole present slot is auto-picked, and two present slots
// force the caller to choose.
func pickSlot(rec domain.CustomerRecord, chosen domain.SlotKind) (domain.SlotKind, error) {
	hasCount := rec.HasSlot(domain.SlotCount)
	hasSub := rec.HasSlot(domain.SlotSubscription)

	if chosen != "" {
		if chosen != domain.SlotCount && chosen != domain.SlotSubscription {
			return "", fmt.Errorf("unknown slot kind %q", chosen)
		}
		if !rec.HasSlot(chosen) {
			return "", domain.ErrNoEntitlement
		}
		return chosen, nil
	}
	switch {
	case hasCount && hasSub:
		return "", domain.ErrSlotChoiceRequired
	case hasCount:
		return domain.SlotCount, nil
	case hasSub:
		return domain.SlotSubscription, nil
	}
	return "", domain.ErrNoEntitlement
}

// PlanVisit validates a visit against the chosen slot and returns the field
// writes to apply. The record must be the result of a fresh fetch; the plan
// decrements the count allowance (or refreshes the subscription day cache),
// bumps the totals and appends the log entry last.
func (e *Engine) PlanVisit(rec domain.CustomerRecord, now time.Time, chosen domain.SlotKind, confirmDuplicate bool) (domain.MutationPlan, error) {
	slot, err := pickSlot(rec, chosen)
	if err != nil {
		return domain.MutationPlan{}, err
	}

	status := e.Evaluate(rec, now)
	var slotStatus *domain.SlotStatus
	for i := range status.Slots {
		if status.Slots[i].Kind == slot {
			slotStatus = &status.Slots[i]
		}
	}
	if slotStatus == nil {
		return domain.MutationPlan{}, domain.ErrNoEntitlement
	}
	if slotStatus.State != domain.SlotActive {
		return domain.MutationPlan{}, domain.ErrEntitlementExhausted
	}

	tag := SlotTag(slot)
	if visitlog.HasTagOnDate(rec.VisitLog, tag, now) {
		if e.cfg.SameDay == SameDayBlock || !confirmDuplicate {
			return domain.MutationPlan{}, domain.ErrAlreadyLoggedToday
		}
	}

	plan := domain.MutationPlan{Plate: rec.Plate}
	switch slot {
	case domain.SlotCount:
		plan.Set(domain.FieldRemainingUses, rec.Count.RemainingUses-1)
	case domain.SlotSubscription:
		plan.Set(domain.FieldRemainingDays, slotStatus.RemainingDays)
	}
	plan.Set(domain.FieldLastVisitDate, now.Format(domain.DateLayout))
	plan.Set(domain.FieldTotalVisitCount, rec.TotalVisitCount+1)
	entry := visitlog.Entry{Timestamp: now, Tag: tag}
	plan.Set(domain.FieldVisitLog, visitlog.Append(rec.VisitLog, entry))
	return plan, nil
}

// ExpiryFor computes the expiry date a subscription bought today carries.
func (e *Engine) ExpiryFor(today time.Time, months int) time.Time {
	expiry := dateOnly(today).AddDate(0, months, 0)
	if e.cfg.InclusiveExpiry {
		expiry = expiry.AddDate(0, 0, -1)
	}
	return expiry
}

// PlanRenewal resets the subscription slot to a new plan purchased today.
// It works on expired and still-active slots alike; an active slot simply
// loses its old expiry date.
func (e *Engine) PlanRenewal(rec domain.CustomerRecord, today time.Time, plan catalog.SubscriptionPlan) (domain.MutationPlan, error) {
	if plan.Months <= 0 {
		return domain.MutationPlan{}, fmt.Errorf("invalid plan duration %d", plan.Months)
	}
	expiry := e.ExpiryFor(today, plan.Months)

	p := domain.MutationPlan{Plate: rec.Plate}
	p.Set(domain.FieldSubscriptionPlan, plan.Name)
	p.Set(domain.FieldExpiryDate, expiry.Format(domain.DateLayout))
	p.Set(domain.FieldRemainingDays, daysBetween(today, expiry))
	if e.cfg.LogRenewalVisit {
		p.Set(domain.FieldLastVisitDate, today.Format(domain.DateLayout))
		p.Set(domain.FieldTotalVisitCount, rec.TotalVisitCount+1)
		entry := visitlog.Entry{Timestamp: today, Tag: visitlog.TagRenewal}
		p.Set(domain.FieldVisitLog, visitlog.Append(rec.VisitLog, entry))
	}
	return p, nil
}

// PlanRecharge resets the punch-card slot to a new tier. Recharges do not
// touch the visit log or the total visit count.
func (e *Engine) PlanRecharge(rec domain.CustomerRecord, plan catalog.CountPlan) (domain.MutationPlan, error) {
	if plan.Uses <= 0 {
		return domain.MutationPlan{}, fmt.Errorf("invalid plan uses %d", plan.Uses)
	}
	p := domain.MutationPlan{Plate: rec.Plate}
	p.Set(domain.FieldCountPlan, plan.Name)
	p.Set(domain.FieldRemainingUses, plan.Uses)
	return p, nil
}

// PlanAddSlot gives a record the entitlement kind it does not have yet,
// leaving the existing slot untouched.
func (e *Engine) PlanAddSlot(rec domain.CustomerRecord, today time.Time, kind domain.SlotKind, countPlan *catalog.CountPlan, subPlan *catalog.SubscriptionPlan) (domain.MutationPlan, error) {
	if rec.HasSlot(kind) {
		return domain.MutationPlan{}, domain.ErrSlotOccupied
	}
	p := domain.MutationPlan{Plate: rec.Plate}
	switch kind {
	case domain.SlotCount:
		if countPlan == nil {
			return domain.MutationPlan{}, fmt.Errorf("count plan required")
		}
		return e.PlanRecharge(rec, *countPlan)
	case domain.SlotSubscription:
		if subPlan == nil {
			return domain.MutationPlan{}, fmt.Errorf("subscription plan required")
		}
		expiry := e.ExpiryFor(today, subPlan.Months)
		p.Set(domain.FieldSubscriptionPlan, subPlan.Name)
		p.Set(domain.FieldExpiryDate, expiry.Format(domain.DateLayout))
		p.Set(domain.FieldRemainingDays, daysBetween(today, expiry))
		return p, nil
	}
	return domain.MutationPlan{}, fmt.Errorf("unknown slot kind %q", kind)
}

// NewRegistration builds the record a walk-in registration appends. The
// customer is onboarded with one visit already on the books, tagged as a
// registration.
func (e *Engine) NewRegistration(plate, phone string, now time.Time, count *catalog.CountPlan, sub *catalog.SubscriptionPlan) domain.CustomerRecord {
	today := now.Format(domain.DateLayout)
	rec := domain.CustomerRecord{
		Plate:           plate,
		Phone:           domain.NormalizePhone(phone),
		RegisteredDate:  today,
		LastVisitDate:   today,
		TotalVisitCount: 1,
		VisitLog:        visitlog.Append("", visitlog.Entry{Timestamp: now, Tag: visitlog.TagRegistration}),
	}
	if count != nil {
		rec.Count = &domain.CountEntitlement{PlanName: count.Name, RemainingUses: count.Uses}
	}
	if sub != nil {
		rec.Subscription = &domain.SubscriptionEntitlement{
			PlanName:   sub.Name,
			ExpiryDate: e.ExpiryFor(now, sub.Months).Format(domain.DateLayout),
		}
	}
	return rec
}
