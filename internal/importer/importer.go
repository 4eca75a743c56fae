package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"washdesk/internal/domain"
)

// RecordWriter is the slice of the store the importer needs.
type RecordWriter interface {
	Append(ctx context.Context, rec domain.CustomerRecord) (*domain.CustomerRecord, error)
}

// CSVImporter reads an export of the legacy customer spreadsheet and
// appends one record per row. Rows whose plate already exists are skipped,
// so re-running an import is safe.
type CSVImporter struct {
	reader *csv.Reader
	store  RecordWriter
	logger *log.Logger
}

// NewCSVImporter wraps a CSV stream. The export's header row names the
// columns; both the Korean sheet headers and their ASCII aliases work.
func NewCSVImporter(r io.Reader, store RecordWriter, logger *log.Logger) *CSVImporter {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // exports often carry trailing commas
	return &CSVImporter{reader: csvr, store: store, logger: logger}
}

// column aliases per logical field, in the order the sheets named them.
var columnAliases = map[string][]string{
	"plate":             {"차량번호", "plate"},
	"phone":             {"전화번호", "phone"},
	"registered_date":   {"등록일", "registered_date"},
	"last_visit_date":   {"최근방문일", "last_visit_date"},
	"total_visit_count": {"총 방문 횟수", "총방문횟수", "total_visit_count"},
	"count_plan":        {"회수권 상품", "count_plan"},
	"remaining_uses":    {"잔여횟수", "remaining_uses"},
	"subscription_plan": {"월정액 상품", "subscription_plan"},
	"expiry_date":       {"만료일", "expiry_date"},
	"blacklisted":       {"블랙리스트", "blacklisted"},
	"visit_log":         {"방문기록", "visit_log"},
}

// Run parses rows and appends records, returning how many were imported
// and how many were skipped as duplicates.
func (i *CSVImporter) Run(ctx context.Context) (imported, skipped int, err error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["plate"]; !ok {
		return 0, 0, fmt.Errorf("export has no plate column")
	}

	for line := 2; ; line++ {
		row, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, skipped, fmt.Errorf("read row %d: %w", line, err)
		}

		rec := i.rowToRecord(index, row)
		if rec.Plate == "" {
			i.logger.Printf("importer: row %d has no plate, skipping", line)
			skipped++
			continue
		}
		if _, err := i.store.Append(ctx, rec); err != nil {
			if errors.Is(err, domain.ErrDuplicatePlate) {
				i.logger.Printf("importer: row %d plate %s already exists, skipping", line, rec.Plate)
				skipped++
				continue
			}
			return imported, skipped, fmt.Errorf("append row %d: %w", line, err)
		}
		imported++
	}
	return imported, skipped, nil
}

func (i *CSVImporter) rowToRecord(index map[string]int, row []string) domain.CustomerRecord {
	cell := func(field string) string {
		idx, ok := index[field]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	rec := domain.CustomerRecord{
		Plate:          cell("plate"),
		Phone:          domain.NormalizePhone(cell("phone")),
		RegisteredDate: cell("registered_date"),
		LastVisitDate:  cell("last_visit_date"),
		Blacklisted:    cell("blacklisted") == "Y",
		VisitLog:       cell("visit_log"),
	}
	rec.TotalVisitCount = i.lenientInt(rec.Plate, "total_visit_count", cell("total_visit_count"))

	countPlan := cell("count_plan")
	remainingRaw := cell("remaining_uses")
	if countPlan != "" || remainingRaw != "" {
		rec.Count = &domain.CountEntitlement{
			PlanName:      countPlan,
			RemainingUses: i.lenientInt(rec.Plate, "remaining_uses", remainingRaw),
		}
	}
	subPlan := cell("subscription_plan")
	expiry := cell("expiry_date")
	if subPlan != "" || expiry != "" {
		rec.Subscription = &domain.SubscriptionEntitlement{PlanName: subPlan, ExpiryDate: expiry}
	}
	return rec
}

// lenientInt treats unparseable legacy counters as zero rather than
// aborting a whole import over one hand-edited cell.
func (i *CSVImporter) lenientInt(plate, field, raw string) int {
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		i.logger.Printf("importer: plate=%s %s=%q unparseable, using 0", plate, field, raw)
		return 0
	}
	return n
}

func headerIndex(headers []string) map[string]int {
	index := make(map[string]int)
	for pos, h := range headers {
		h = strings.TrimSpace(h)
		for field, aliases := range columnAliases {
			for _, alias := range aliases {
				if strings.EqualFold(h, alias) {
					index[field] = pos
				}
			}
		}
	}
	return index
}
