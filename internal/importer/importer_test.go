package importer

import (
	"context"
	"strings"
	"testing"

	"washdesk/internal/domain"
)

type stubWriter struct {
	appended []domain.CustomerRecord
	existing map[string]bool
}

func (s *stubWriter) Append(_ context.Context, rec domain.CustomerRecord) (*domain.CustomerRecord, error) {
	if s.existing[rec.Plate] {
		return nil, domain.ErrDuplicatePlate
	}
	if s.existing == nil {
		s.existing = make(map[string]bool)
	}
	s.existing[rec.Plate] = true
	s.appended = append(s.appended, rec)
	return &rec, nil
}

func TestRun_ImportsLegacyColumns(t *testing.T) {
	csvData := strings.Join([]string{
		"차량번호,전화번호,등록일,최근방문일,총 방문 횟수,회수권 상품,잔여횟수,월정액 상품,만료일,블랙리스트,방문기록",
		`12가3456,01012345678,2024-01-01,2024-03-01,3,회수권 5회,2,,,N,"2024-01-01 09:00 (신규등록), 2024-03-01 10:00 (회수권)"`,
		"34나7890,01011112222,2024-02-01,2024-02-01,1,,,월정액 1개월,2024-02-29,Y,2024-02-01 11:00 (신규등록)",
	}, "\n")

	writer := &stubWriter{}
	imp := NewCSVImporter(strings.NewReader(csvData), writer, nil)

	imported, skipped, err := imp.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if imported != 2 || skipped != 0 {
		t.Fatalf("expected 2 imported, got imported=%d skipped=%d", imported, skipped)
	}

	first := writer.appended[0]
	if first.Phone != "010-1234-5678" {
		t.Fatalf("phone not normalized: %q", first.Phone)
	}
	if first.Count == nil || first.Count.RemainingUses != 2 || first.Count.PlanName != "회수권 5회" {
		t.Fatalf("unexpected count slot %+v", first.Count)
	}
	if first.Subscription != nil {
		t.Fatalf("unexpected subscription slot %+v", first.Subscription)
	}

	second := writer.appended[1]
	if second.Subscription == nil || second.Subscription.ExpiryDate != "2024-02-29" {
		t.Fatalf("unexpected subscription slot %+v", second.Subscription)
	}
	if !second.Blacklisted {
		t.Fatal("expected blacklist flag imported")
	}
}

func TestRun_SkipsDuplicatesAndBlankPlates(t *testing.T) {
	csvData := strings.Join([]string{
		"차량번호,전화번호",
		"12가3456,01012345678",
		",01099998888",
		"12가3456,01012345678",
	}, "\n")

	writer := &stubWriter{}
	imp := NewCSVImporter(strings.NewReader(csvData), writer, nil)

	imported, skipped, err := imp.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if imported != 1 {
		t.Fatalf("expected 1 imported, got %d", imported)
	}
	if skipped != 2 {
		t.Fatalf("expected 2 skipped, got %d", skipped)
	}
}

func TestRun_LenientNumbers(t *testing.T) {
	csvData := strings.Join([]string{
		"차량번호,총 방문 횟수,잔여횟수,회수권 상품",
		"12가3456,다섯,-1,회수권 5회",
	}, "\n")

	writer := &stubWriter{}
	imp := NewCSVImporter(strings.NewReader(csvData), writer, nil)

	if _, _, err := imp.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	rec := writer.appended[0]
	if rec.TotalVisitCount != 0 || rec.Count.RemainingUses != 0 {
		t.Fatalf("expected zero fallbacks, got %+v", rec)
	}
}

func TestRun_MissingPlateColumnFails(t *testing.T) {
	writer := &stubWriter{}
	imp := NewCSVImporter(strings.NewReader("전화번호\n01012345678\n"), writer, nil)
	if _, _, err := imp.Run(context.Background()); err == nil {
		t.Fatal("expected error for export without plate column")
	}
}

// The duplicate skip relies on the store's key check.
func TestRun_DuplicateAgainstExistingStore(t *testing.T) {
	writer := &stubWriter{existing: map[string]bool{"12가3456": true}}
	csvData := "차량번호\n12가3456\n34나7890\n"
	imp := NewCSVImporter(strings.NewReader(csvData), writer, nil)

	imported, skipped, err := imp.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if imported != 1 || skipped != 1 {
		t.Fatalf("unexpected counts imported=%d skipped=%d", imported, skipped)
	}
}
