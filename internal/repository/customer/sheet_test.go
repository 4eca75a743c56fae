package customer

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"washdesk/internal/domain"
)

func testSheet(t *testing.T) *SheetStore {
	t.Helper()
	store, err := NewSheet(filepath.Join(t.TempDir(), "sheet.db"), nil)
	if err != nil {
		t.Fatalf("open sheet store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleRecord() domain.CustomerRecord {
	return domain.CustomerRecord{
		Plate:           "12가3456",
		Phone:           "010-1234-5678",
		RegisteredDate:  "2024-01-01",
		LastVisitDate:   "2024-01-01",
		TotalVisitCount: 1,
		Count:           &domain.CountEntitlement{PlanName: "회수권 5회", RemainingUses: 5},
		VisitLog:        "2024-01-01 09:00 (신규등록)",
	}
}

func TestSheet_AppendAndFind(t *testing.T) {
	store := testSheet(t)
	ctx := context.Background()

	created, err := store.Append(ctx, sampleRecord())
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if created.Plate != "12가3456" || created.Count == nil || created.Count.RemainingUses != 5 {
		t.Fatalf("unexpected created record %+v", created)
	}

	got, err := store.FindByPlate(ctx, "12가3456")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.TotalVisitCount != 1 || got.VisitLog != "2024-01-01 09:00 (신규등록)" {
		t.Fatalf("unexpected record %+v", got)
	}
}

func TestSheet_FindMissingPlate(t *testing.T) {
	store := testSheet(t)
	_, err := store.FindByPlate(context.Background(), "없는차량")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSheet_AppendDuplicatePlate(t *testing.T) {
	store := testSheet(t)
	ctx := context.Background()
	if _, err := store.Append(ctx, sampleRecord()); err != nil {
		t.Fatalf("append: %v", err)
	}
	_, err := store.Append(ctx, sampleRecord())
	if !errors.Is(err, domain.ErrDuplicatePlate) {
		t.Fatalf("expected ErrDuplicatePlate, got %v", err)
	}
}

func TestSheet_ApplyWritesCellsInOrder(t *testing.T) {
	store := testSheet(t)
	ctx := context.Background()
	if _, err := store.Append(ctx, sampleRecord()); err != nil {
		t.Fatalf("append: %v", err)
	}

	plan := domain.MutationPlan{Plate: "12가3456"}
	plan.Set(domain.FieldRemainingUses, 4)
	plan.Set(domain.FieldLastVisitDate, "2024-01-05")
	plan.Set(domain.FieldTotalVisitCount, 2)
	plan.Set(domain.FieldVisitLog, "2024-01-01 09:00 (신규등록), 2024-01-05 10:00 (회수권)")
	if err := store.Apply(ctx, plan); err != nil {
		t.Fatalf("apply: %v", err)
	}

	got, err := store.FindByPlate(ctx, "12가3456")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Count.RemainingUses != 4 || got.TotalVisitCount != 2 || got.LastVisitDate != "2024-01-05" {
		t.Fatalf("unexpected record after apply %+v", got)
	}
}

func TestSheet_ApplyMissingPlate(t *testing.T) {
	store := testSheet(t)
	plan := domain.MutationPlan{Plate: "없는차량"}
	plan.Set(domain.FieldRemainingUses, 4)
	err := store.Apply(context.Background(), plan)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSheet_MalformedNumberCellDegrades(t *testing.T) {
	store := testSheet(t)
	ctx := context.Background()
	if _, err := store.Append(ctx, sampleRecord()); err != nil {
		t.Fatalf("append: %v", err)
	}
	// Simulate a hand-edited cell.
	if _, err := store.db.ExecContext(ctx, `UPDATE sheet SET remaining_uses = '다섯' WHERE plate = ?`, "12가3456"); err != nil {
		t.Fatalf("corrupt cell: %v", err)
	}

	got, err := store.FindByPlate(ctx, "12가3456")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Count == nil || got.Count.RemainingUses != 0 {
		t.Fatalf("expected zero fallback, got %+v", got.Count)
	}
	if len(got.Warnings) == 0 {
		t.Fatal("expected a warning for the malformed cell")
	}
}

func TestSheet_FetchAllRowOrder(t *testing.T) {
	store := testSheet(t)
	ctx := context.Background()
	first := sampleRecord()
	second := sampleRecord()
	second.Plate = "34나7890"
	if _, err := store.Append(ctx, first); err != nil {
		t.Fatalf("append first: %v", err)
	}
	if _, err := store.Append(ctx, second); err != nil {
		t.Fatalf("append second: %v", err)
	}

	all, err := store.FetchAll(ctx)
	if err != nil {
		t.Fatalf("fetch all: %v", err)
	}
	if len(all) != 2 || all[0].Plate != "12가3456" || all[1].Plate != "34나7890" {
		t.Fatalf("unexpected rows %+v", all)
	}
}

func TestSheet_BlacklistFlag(t *testing.T) {
	store := testSheet(t)
	ctx := context.Background()
	rec := sampleRecord()
	rec.Blacklisted = true
	if _, err := store.Append(ctx, rec); err != nil {
		t.Fatalf("append: %v", err)
	}
	got, err := store.FindByPlate(ctx, rec.Plate)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if !got.Blacklisted {
		t.Fatal("expected blacklist flag round-trip")
	}
}
