package customer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"washdesk/internal/domain"
)

// SheetStore keeps the customer table in a single SQLite file shaped like
// the spreadsheet it replaced: every cell is text, rows are addressed by a
// monotonically growing row index, and a mutation touches one cell at a
// time in plan order. Numeric cells that fail to parse degrade to zero and
// surface as record warnings instead of failing the read.
type SheetStore struct {
	db     *sql.DB
	logger *log.Logger
}

var _ Store = (*SheetStore)(nil)

const sheetSchema = `
CREATE TABLE IF NOT EXISTS sheet (
	row_idx INTEGER PRIMARY KEY AUTOINCREMENT,
	plate TEXT NOT NULL UNIQUE,
	phone TEXT NOT NULL DEFAULT '',
	registered_date TEXT NOT NULL DEFAULT '',
	last_visit_date TEXT NOT NULL DEFAULT '',
	total_visit_count TEXT NOT NULL DEFAULT '0',
	count_plan TEXT NOT NULL DEFAULT '',
	remaining_uses TEXT NOT NULL DEFAULT '',
	subscription_plan TEXT NOT NULL DEFAULT '',
	expiry_date TEXT NOT NULL DEFAULT '',
	remaining_days TEXT NOT NULL DEFAULT '',
	blacklisted TEXT NOT NULL DEFAULT '',
	visit_log TEXT NOT NULL DEFAULT ''
)`

// NewSheet opens (or creates) a sheet store at path.
func NewSheet(path string, logger *log.Logger) (*SheetStore, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sheet: %w", err)
	}
	if _, err := db.Exec(sheetSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create sheet table: %w", err)
	}
	return &SheetStore{db: db, logger: logger}, nil
}

// Close releases the underlying database handle.
func (s *SheetStore) Close() error {
	return s.db.Close()
}

// Ping verifies the database file is still reachable.
func (s *SheetStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const sheetColumns = `plate, phone, registered_date, last_visit_date, total_visit_count,
       count_plan, remaining_uses, subscription_plan, expiry_date, blacklisted, visit_log`

func (s *SheetStore) FetchAll(ctx context.Context) ([]domain.CustomerRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+sheetColumns+` FROM sheet ORDER BY row_idx`)
	if err != nil {
		return nil, s.storeErr("fetch all", err)
	}
	defer rows.Close()

	var records []domain.CustomerRecord
	for rows.Next() {
		rec, err := s.scanRow(rows)
		if err != nil {
			return nil, s.storeErr("scan row", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, s.storeErr("iterate rows", err)
	}
	return records, nil
}

func (s *SheetStore) FindByPlate(ctx context.Context, plate string) (*domain.CustomerRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sheetColumns+` FROM sheet WHERE plate = ? LIMIT 1`, plate)
	rec, err := s.scanRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, s.storeErr("find by plate", err)
	}
	return rec, nil
}

// Apply writes one cell per statement, in plan order, resolving the row by
// plate on each write. A failure partway leaves earlier cells written,
// which is exactly the partial state the plan ordering is designed for.
func (s *SheetStore) Apply(ctx context.Context, plan domain.MutationPlan) error {
	for _, w := range plan.Writes {
		col, err := columnFor(w.Field)
		if err != nil {
			return err
		}
		q := fmt.Sprintf("UPDATE sheet SET %s = ? WHERE plate = ?", col)
		res, err := s.db.ExecContext(ctx, q, cellValue(w.Value), plan.Plate)
		if err != nil {
			return s.storeErr("apply cell "+col, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return s.storeErr("apply cell "+col, err)
		}
		if n == 0 {
			return domain.ErrNotFound
		}
	}
	return nil
}

func (s *SheetStore) Append(ctx context.Context, rec domain.CustomerRecord) (*domain.CustomerRecord, error) {
	countPlan, remainingUses := "", ""
	if rec.Count != nil {
		countPlan = rec.Count.PlanName
		remainingUses = strconv.Itoa(rec.Count.RemainingUses)
	}
	subPlan, expiry := "", ""
	if rec.Subscription != nil {
		subPlan = rec.Subscription.PlanName
		expiry = rec.Subscription.ExpiryDate
	}
	blacklisted := ""
	if rec.Blacklisted {
		blacklisted = "Y"
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO sheet (plate, phone, registered_date, last_visit_date, total_visit_count,
                   count_plan, remaining_uses, subscription_plan, expiry_date, blacklisted, visit_log)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Plate,
		rec.Phone,
		rec.RegisteredDate,
		rec.LastVisitDate,
		strconv.Itoa(rec.TotalVisitCount),
		countPlan,
		remainingUses,
		subPlan,
		expiry,
		blacklisted,
		rec.VisitLog,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, domain.ErrDuplicatePlate
		}
		return nil, s.storeErr("append row", err)
	}
	return s.FindByPlate(ctx, rec.Plate)
}

func (s *SheetStore) scanRow(row interface{ Scan(...any) error }) (*domain.CustomerRecord, error) {
	var plate, phone, registered, lastVisit, totalRaw string
	var countPlan, remainingRaw, subPlan, expiry, blacklistRaw, visitLog string
	err := row.Scan(
		&plate, &phone, &registered, &lastVisit, &totalRaw,
		&countPlan, &remainingRaw, &subPlan, &expiry, &blacklistRaw, &visitLog,
	)
	if err != nil {
		return nil, err
	}

	rec := domain.CustomerRecord{
		Plate:          plate,
		Phone:          phone,
		RegisteredDate: registered,
		LastVisitDate:  lastVisit,
		Blacklisted:    strings.TrimSpace(blacklistRaw) == "Y",
		VisitLog:       visitLog,
	}
	rec.TotalVisitCount = s.cellInt(&rec, "total_visit_count", totalRaw)
	if countPlan != "" || strings.TrimSpace(remainingRaw) != "" {
		rec.Count = &domain.CountEntitlement{
			PlanName:      countPlan,
			RemainingUses: s.cellInt(&rec, "remaining_uses", remainingRaw),
		}
	}
	if subPlan != "" || expiry != "" {
		rec.Subscription = &domain.SubscriptionEntitlement{PlanName: subPlan, ExpiryDate: expiry}
	}
	return &rec, nil
}

// cellInt parses a numeric cell, falling back to zero with a warning on
// the record instead of failing the whole read.
func (s *SheetStore) cellInt(rec *domain.CustomerRecord, col, raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		s.logger.Printf("sheet store: plate=%s %s=%q unparseable, using 0", rec.Plate, col, raw)
		rec.Warnings = append(rec.Warnings, fmt.Sprintf("%s: unparseable value %q, using 0", col, raw))
		return 0
	}
	return n
}

func cellValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	default:
		return fmt.Sprint(v)
	}
}

func (s *SheetStore) storeErr(op string, err error) error {
	s.logger.Printf("sheet store: %s: %v", op, err)
	return fmt.Errorf("%s: %w", op, domain.ErrStoreUnavailable)
}
