package customer

import (
	"context"
	"errors"
	"testing"
	"time"

	"washdesk/internal/allowance"
	"washdesk/internal/catalog"
	"washdesk/internal/domain"
)

type stubStore struct {
	records      map[string]*domain.CustomerRecord
	all          []domain.CustomerRecord
	fetchAllErr  error
	findErr      error
	applyErr     error
	appendErr    error
	appliedPlans []domain.MutationPlan
	appended     []domain.CustomerRecord
	findCalls    int
}

func newStubStore(records ...domain.CustomerRecord) *stubStore {
	s := &stubStore{records: map[string]*domain.CustomerRecord{}}
	for i := range records {
		rec := records[i]
		s.records[rec.Plate] = &rec
		s.all = append(s.all, rec)
	}
	return s
}

func (s *stubStore) FetchAll(_ context.Context) ([]domain.CustomerRecord, error) {
	return s.all, s.fetchAllErr
}

func (s *stubStore) FindByPlate(_ context.Context, plate string) (*domain.CustomerRecord, error) {
	s.findCalls++
	if s.findErr != nil {
		return nil, s.findErr
	}
	rec, ok := s.records[plate]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *rec
	return &copied, nil
}

func (s *stubStore) Apply(_ context.Context, plan domain.MutationPlan) error {
	if s.applyErr != nil {
		return s.applyErr
	}
	s.appliedPlans = append(s.appliedPlans, plan)
	rec, ok := s.records[plan.Plate]
	if !ok {
		return domain.ErrNotFound
	}
	for _, w := range plan.Writes {
		switch w.Field {
		case domain.FieldLastVisitDate:
			rec.LastVisitDate = w.Value.(string)
		case domain.FieldTotalVisitCount:
			rec.TotalVisitCount = w.Value.(int)
		case domain.FieldCountPlan:
			if rec.Count == nil {
				rec.Count = &domain.CountEntitlement{}
			}
			rec.Count.PlanName = w.Value.(string)
		case domain.FieldRemainingUses:
			if rec.Count == nil {
				rec.Count = &domain.CountEntitlement{}
			}
			rec.Count.RemainingUses = w.Value.(int)
		case domain.FieldSubscriptionPlan:
			if rec.Subscription == nil {
				rec.Subscription = &domain.SubscriptionEntitlement{}
			}
			rec.Subscription.PlanName = w.Value.(string)
		case domain.FieldExpiryDate:
			if rec.Subscription == nil {
				rec.Subscription = &domain.SubscriptionEntitlement{}
			}
			rec.Subscription.ExpiryDate = w.Value.(string)
		case domain.FieldVisitLog:
			rec.VisitLog = w.Value.(string)
		}
	}
	return nil
}

func (s *stubStore) Append(_ context.Context, rec domain.CustomerRecord) (*domain.CustomerRecord, error) {
	if s.appendErr != nil {
		return nil, s.appendErr
	}
	if _, ok := s.records[rec.Plate]; ok {
		return nil, domain.ErrDuplicatePlate
	}
	s.appended = append(s.appended, rec)
	s.records[rec.Plate] = &rec
	s.all = append(s.all, rec)
	return &rec, nil
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Default()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return c
}

func testService(t *testing.T, store *stubStore) *Service {
	t.Helper()
	svc := New(store, allowance.New(allowance.DefaultConfig()), testCatalog(t), nil)
	svc.now = func() time.Time {
		return time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

func countRecord(remaining int) domain.CustomerRecord {
	return domain.CustomerRecord{
		Plate:           "12가3456",
		Phone:           "010-1234-5678",
		RegisteredDate:  "2024-01-01",
		LastVisitDate:   "2024-03-01",
		TotalVisitCount: 3,
		Count:           &domain.CountEntitlement{PlanName: "회수권 5회", RemainingUses: remaining},
		VisitLog:        "2024-03-01 10:00 (회수권)",
	}
}

func TestStatus(t *testing.T) {
	store := newStubStore(countRecord(5))
	svc := testService(t, store)

	status, err := svc.Status(context.Background(), "12가3456")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if len(status.Slots) != 1 || status.Slots[0].RemainingUses != 5 {
		t.Fatalf("unexpected status %+v", status)
	}

	if _, err := svc.Status(context.Background(), "없는차량"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Status(context.Background(), "  "); !errors.Is(err, ErrPlateRequired) {
		t.Fatalf("expected ErrPlateRequired, got %v", err)
	}
}

func TestSearch_SubstringAndSuffix(t *testing.T) {
	a := countRecord(5)
	b := countRecord(5)
	b.Plate = "160호 7421"
	store := newStubStore(a, b)
	svc := testService(t, store)

	hits, err := svc.Search(context.Background(), "7421")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].Plate != "160호 7421" {
		t.Fatalf("unexpected hits %+v", hits)
	}

	hits, err = svc.Search(context.Background(), "")
	if err != nil || hits != nil {
		t.Fatalf("expected no hits for empty query, got %+v err=%v", hits, err)
	}
}

func TestRecordVisit_AppliesPlanAndRefetches(t *testing.T) {
	store := newStubStore(countRecord(5))
	svc := testService(t, store)

	status, err := svc.RecordVisit(context.Background(), "12가3456", domain.SlotCount, false)
	if err != nil {
		t.Fatalf("RecordVisit: %v", err)
	}
	if status.Slots[0].RemainingUses != 4 || status.TotalVisitCount != 4 {
		t.Fatalf("unexpected status after visit %+v", status)
	}
	if len(store.appliedPlans) != 1 {
		t.Fatalf("expected 1 applied plan, got %d", len(store.appliedPlans))
	}
	// fetch before planning plus re-read after the write
	if store.findCalls != 2 {
		t.Fatalf("expected 2 store reads, got %d", store.findCalls)
	}
}

func TestRecordVisit_ExhaustedDoesNotWrite(t *testing.T) {
	store := newStubStore(countRecord(0))
	svc := testService(t, store)

	_, err := svc.RecordVisit(context.Background(), "12가3456", domain.SlotCount, false)
	if !errors.Is(err, domain.ErrEntitlementExhausted) {
		t.Fatalf("expected ErrEntitlementExhausted, got %v", err)
	}
	if len(store.appliedPlans) != 0 {
		t.Fatalf("expected no writes, got %+v", store.appliedPlans)
	}
}

func TestRecordVisit_StoreFailureSurfaces(t *testing.T) {
	store := newStubStore(countRecord(5))
	store.applyErr = domain.ErrStoreUnavailable
	svc := testService(t, store)

	_, err := svc.RecordVisit(context.Background(), "12가3456", domain.SlotCount, false)
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestRenew_ExpiredSubscription(t *testing.T) {
	rec := domain.CustomerRecord{
		Plate:        "34나7890",
		Subscription: &domain.SubscriptionEntitlement{PlanName: "월정액 1개월", ExpiryDate: "2024-02-28"},
	}
	store := newStubStore(rec)
	svc := testService(t, store)

	status, err := svc.Renew(context.Background(), "34나7890", "월정액 1개월")
	if err != nil {
		t.Fatalf("Renew: %v", err)
	}
	if status.Slots[0].State != domain.SlotActive || status.Slots[0].ExpiryDate != "2024-04-09" {
		t.Fatalf("unexpected renewed status %+v", status.Slots[0])
	}
}

func TestRenew_UnknownPlan(t *testing.T) {
	store := newStubStore(countRecord(5))
	svc := testService(t, store)
	_, err := svc.Renew(context.Background(), "12가3456", "없는 상품")
	if !errors.Is(err, ErrUnknownPlan) {
		t.Fatalf("expected ErrUnknownPlan, got %v", err)
	}
}

func TestRecharge_ExhaustedBecomesActive(t *testing.T) {
	store := newStubStore(countRecord(0))
	svc := testService(t, store)

	status, err := svc.Recharge(context.Background(), "12가3456", "회수권 10회")
	if err != nil {
		t.Fatalf("Recharge: %v", err)
	}
	if status.Slots[0].State != domain.SlotActive || status.Slots[0].RemainingUses != 10 {
		t.Fatalf("unexpected status after recharge %+v", status.Slots[0])
	}
}

func TestAddSlot_SubscriptionOnCountRecord(t *testing.T) {
	store := newStubStore(countRecord(3))
	svc := testService(t, store)

	status, err := svc.AddSlot(context.Background(), "12가3456", domain.SlotSubscription, "월정액 3개월")
	if err != nil {
		t.Fatalf("AddSlot: %v", err)
	}
	if len(status.Slots) != 2 {
		t.Fatalf("expected both slots, got %+v", status.Slots)
	}
	if status.Slots[0].RemainingUses != 3 {
		t.Fatalf("existing count slot disturbed: %+v", status.Slots[0])
	}
}

func TestRegister_NewPlate(t *testing.T) {
	store := newStubStore()
	svc := testService(t, store)

	rec, err := svc.Register(context.Background(), RegisterInput{
		Plate:     "12가3456",
		Phone:     "01012345678",
		CountPlan: "회수권 5회",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if rec.Phone != "010-1234-5678" {
		t.Fatalf("unexpected phone %q", rec.Phone)
	}
	if rec.TotalVisitCount != 1 {
		t.Fatalf("expected seeded visit count, got %d", rec.TotalVisitCount)
	}
	if len(store.appended) != 1 {
		t.Fatalf("expected 1 appended record, got %d", len(store.appended))
	}
}

func TestRegister_DuplicatePlate(t *testing.T) {
	store := newStubStore(countRecord(5))
	svc := testService(t, store)

	_, err := svc.Register(context.Background(), RegisterInput{Plate: "12가3456", Phone: "01012345678"})
	if !errors.Is(err, domain.ErrDuplicatePlate) {
		t.Fatalf("expected ErrDuplicatePlate, got %v", err)
	}
	if len(store.appended) != 0 {
		t.Fatal("duplicate registration must not append")
	}
}

func TestRegister_Validation(t *testing.T) {
	store := newStubStore()
	svc := testService(t, store)

	if _, err := svc.Register(context.Background(), RegisterInput{Plate: "  "}); !errors.Is(err, ErrPlateRequired) {
		t.Fatalf("expected ErrPlateRequired, got %v", err)
	}
	_, err := svc.Register(context.Background(), RegisterInput{Plate: "99도0000", CountPlan: "없는 상품"})
	if !errors.Is(err, ErrUnknownPlan) {
		t.Fatalf("expected ErrUnknownPlan, got %v", err)
	}
}
