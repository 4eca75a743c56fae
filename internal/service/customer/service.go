package customer

import (
	"context"
	"errors"
	"strings"
	"time"

	"washdesk/internal/allowance"
	"washdesk/internal/catalog"
	"washdesk/internal/domain"
	"washdesk/internal/metrics"
	custstore "washdesk/internal/repository/customer"
)

var (
	// ErrUnknownPlan is returned when a plan name is not in the catalog.
	ErrUnknownPlan = errors.New("unknown plan")
	// ErrPlateRequired is returned when the plate input is empty.
	ErrPlateRequired = errors.New("plate required")
)

// Service runs the read-evaluate-mutate-write cycle for customer records.
// Every mutating operation re-fetches the record by plate immediately
// before planning, so a stale search result can never feed a write.
type Service struct {
	store   custstore.Store
	engine  *allowance.Engine
	catalog *catalog.Catalog
	metrics *metrics.Metrics
	now     func() time.Time
}

// New creates a Service. Metrics may be nil.
func New(store custstore.Store, engine *allowance.Engine, cat *catalog.Catalog, m *metrics.Metrics) *Service {
	return &Service{
		store:   store,
		engine:  engine,
		catalog: cat,
		metrics: m,
		now:     time.Now,
	}
}

// Status fetches a record by exact plate and evaluates it for display.
func (s *Service) Status(ctx context.Context, plate string) (*domain.EntitlementStatus, error) {
	rec, err := s.fetch(ctx, plate)
	if err != nil {
		return nil, err
	}
	status := s.engine.Evaluate(*rec, s.now())
	return &status, nil
}

// Search matches plates by substring or trailing digits, the way the
// counter UI looks customers up, and evaluates each hit for display.
// An empty query returns no results rather than the whole table.
func (s *Service) Search(ctx context.Context, query string) ([]domain.EntitlementStatus, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	records, err := s.store.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	var hits []domain.EntitlementStatus
	for _, rec := range records {
		if strings.Contains(rec.Plate, query) || strings.HasSuffix(rec.Plate, query) {
			hits = append(hits, s.engine.Evaluate(rec, now))
		}
	}
	return hits, nil
}

// RecordVisit consumes one unit of the chosen slot and appends the visit
// to the log. Slot may be empty when the record has only one slot.
func (s *Service) RecordVisit(ctx context.Context, plate string, slot domain.SlotKind, confirmDuplicate bool) (*domain.EntitlementStatus, error) {
	rec, err := s.fetch(ctx, plate)
	if err != nil {
		return nil, err
	}
	now := s.now()
	plan, err := s.engine.PlanVisit(*rec, now, slot, confirmDuplicate)
	if err != nil {
		s.reject("visit", err)
		return nil, err
	}
	if err := s.store.Apply(ctx, plan); err != nil {
		return nil, err
	}
	consumed := slot
	if consumed == "" {
		if rec.HasSlot(domain.SlotCount) {
			consumed = domain.SlotCount
		} else {
			consumed = domain.SlotSubscription
		}
	}
	s.metrics.IncVisit(string(consumed))
	return s.refreshed(ctx, plate, now)
}

// Renew resets the subscription slot to a catalog plan purchased today.
func (s *Service) Renew(ctx context.Context, plate, planName string) (*domain.EntitlementStatus, error) {
	plan, ok := s.catalog.FindSubscription(planName)
	if !ok {
		return nil, ErrUnknownPlan
	}
	rec, err := s.fetch(ctx, plate)
	if err != nil {
		return nil, err
	}
	now := s.now()
	mutation, err := s.engine.PlanRenewal(*rec, now, plan)
	if err != nil {
		s.reject("renew", err)
		return nil, err
	}
	if err := s.store.Apply(ctx, mutation); err != nil {
		return nil, err
	}
	s.metrics.IncRenewal()
	return s.refreshed(ctx, plate, now)
}

// Recharge resets the punch-card slot to a catalog tier.
func (s *Service) Recharge(ctx context.Context, plate, planName string) (*domain.EntitlementStatus, error) {
	plan, ok := s.catalog.FindCount(planName)
	if !ok {
		return nil, ErrUnknownPlan
	}
	rec, err := s.fetch(ctx, plate)
	if err != nil {
		return nil, err
	}
	mutation, err := s.engine.PlanRecharge(*rec, plan)
	if err != nil {
		s.reject("recharge", err)
		return nil, err
	}
	if err := s.store.Apply(ctx, mutation); err != nil {
		return nil, err
	}
	s.metrics.IncRecharge()
	return s.refreshed(ctx, plate, s.now())
}

// AddSlot gives the record the entitlement kind it does not carry yet.
func (s *Service) AddSlot(ctx context.Context, plate string, kind domain.SlotKind, planName string) (*domain.EntitlementStatus, error) {
	var countPlan *catalog.CountPlan
	var subPlan *catalog.SubscriptionPlan
	switch kind {
	case domain.SlotCount:
		p, ok := s.catalog.FindCount(planName)
		if !ok {
			return nil, ErrUnknownPlan
		}
		countPlan = &p
	case domain.SlotSubscription:
		p, ok := s.catalog.FindSubscription(planName)
		if !ok {
			return nil, ErrUnknownPlan
		}
		subPlan = &p
	default:
		return nil, ErrUnknownPlan
	}
	rec, err := s.fetch(ctx, plate)
	if err != nil {
		return nil, err
	}
	now := s.now()
	mutation, err := s.engine.PlanAddSlot(*rec, now, kind, countPlan, subPlan)
	if err != nil {
		s.reject("add_slot", err)
		return nil, err
	}
	if err := s.store.Apply(ctx, mutation); err != nil {
		return nil, err
	}
	return s.refreshed(ctx, plate, now)
}

// RegisterInput captures a walk-in registration at the counter.
type RegisterInput struct {
	Plate            string
	Phone            string
	CountPlan        string
	SubscriptionPlan string
	Blacklisted      bool
}

// Register creates a record for a new plate. The duplicate check is an
// exact match on the full plate; the substring search is never used here.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.CustomerRecord, error) {
	plate := strings.TrimSpace(in.Plate)
	if plate == "" {
		return nil, ErrPlateRequired
	}

	var countPlan *catalog.CountPlan
	if in.CountPlan != "" {
		p, ok := s.catalog.FindCount(in.CountPlan)
		if !ok {
			return nil, ErrUnknownPlan
		}
		countPlan = &p
	}
	var subPlan *catalog.SubscriptionPlan
	if in.SubscriptionPlan != "" {
		p, ok := s.catalog.FindSubscription(in.SubscriptionPlan)
		if !ok {
			return nil, ErrUnknownPlan
		}
		subPlan = &p
	}

	_, err := s.store.FindByPlate(ctx, plate)
	switch {
	case err == nil:
		s.reject("register", domain.ErrDuplicatePlate)
		return nil, domain.ErrDuplicatePlate
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	rec := s.engine.NewRegistration(plate, in.Phone, s.now(), countPlan, subPlan)
	rec.Blacklisted = in.Blacklisted
	created, err := s.store.Append(ctx, rec)
	if err != nil {
		return nil, err
	}
	s.metrics.IncRegistration()
	return created, nil
}

func (s *Service) fetch(ctx context.Context, plate string) (*domain.CustomerRecord, error) {
	plate = strings.TrimSpace(plate)
	if plate == "" {
		return nil, ErrPlateRequired
	}
	return s.store.FindByPlate(ctx, plate)
}

// refreshed re-reads the record after a mutation so the caller sees what
// the store actually holds, not what the plan intended.
func (s *Service) refreshed(ctx context.Context, plate string, now time.Time) (*domain.EntitlementStatus, error) {
	rec, err := s.store.FindByPlate(ctx, plate)
	if err != nil {
		return nil, err
	}
	status := s.engine.Evaluate(*rec, now)
	return &status, nil
}

func (s *Service) reject(action string, err error) {
	reason := "invalid"
	switch {
	case errors.Is(err, domain.ErrEntitlementExhausted):
		reason = "exhausted"
	case errors.Is(err, domain.ErrNoEntitlement):
		reason = "no_entitlement"
	case errors.Is(err, domain.ErrAlreadyLoggedToday):
		reason = "already_logged_today"
	case errors.Is(err, domain.ErrSlotChoiceRequired):
		reason = "slot_choice_required"
	case errors.Is(err, domain.ErrSlotOccupied):
		reason = "slot_occupied"
	case errors.Is(err, domain.ErrDuplicatePlate):
		reason = "duplicate_plate"
	}
	s.metrics.IncRejection(action, reason)
}
