package customer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"washdesk/internal/domain"
)

type postgresStore struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

// NewPostgres returns a Store backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Store {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresStore{pool: pool, logger: logger}
}

const recordColumns = `plate, phone, registered_date, last_visit_date, total_visit_count,
       count_plan, remaining_uses, subscription_plan, expiry_date, blacklisted, visit_log`

func (s *postgresStore) FetchAll(ctx context.Context) ([]domain.CustomerRecord, error) {
	q := `SELECT ` + recordColumns + ` FROM customers ORDER BY row_idx`
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, s.storeErr("fetch all", err)
	}
	defer rows.Close()

	var records []domain.CustomerRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, s.storeErr("scan record", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, s.storeErr("iterate records", err)
	}
	return records, nil
}

func (s *postgresStore) FindByPlate(ctx context.Context, plate string) (*domain.CustomerRecord, error) {
	q := `SELECT ` + recordColumns + ` FROM customers WHERE plate = $1 LIMIT 1`
	rec, err := scanRecord(s.pool.QueryRow(ctx, q, plate))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, s.storeErr("find by plate", err)
	}
	return rec, nil
}

func (s *postgresStore) Apply(ctx context.Context, plan domain.MutationPlan) error {
	if len(plan.Writes) == 0 {
		return nil
	}
	// One UPDATE statement keeps the plan atomic here; the write ordering
	// contract matters for stores that can only touch one cell at a time.
	set := make([]string, 0, len(plan.Writes))
	args := make([]any, 0, len(plan.Writes)+1)
	for _, w := range plan.Writes {
		col, err := columnFor(w.Field)
		if err != nil {
			return err
		}
		args = append(args, w.Value)
		set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	args = append(args, plan.Plate)
	q := fmt.Sprintf("UPDATE customers SET %s WHERE plate = $%d", strings.Join(set, ", "), len(args))

	tag, err := s.pool.Exec(ctx, q, args...)
	if err != nil {
		return s.storeErr("apply mutation", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *postgresStore) Append(ctx context.Context, rec domain.CustomerRecord) (*domain.CustomerRecord, error) {
	q := `
INSERT INTO customers (plate, phone, registered_date, last_visit_date, total_visit_count,
                       count_plan, remaining_uses, subscription_plan, expiry_date, blacklisted, visit_log)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING ` + recordColumns
	var countPlan, subPlan, expiry *string
	var remainingUses *int
	if rec.Count != nil {
		countPlan = &rec.Count.PlanName
		remainingUses = &rec.Count.RemainingUses
	}
	if rec.Subscription != nil {
		subPlan = &rec.Subscription.PlanName
		expiry = &rec.Subscription.ExpiryDate
	}
	created, err := scanRecord(s.pool.QueryRow(ctx, q,
		rec.Plate,
		rec.Phone,
		rec.RegisteredDate,
		rec.LastVisitDate,
		rec.TotalVisitCount,
		countPlan,
		remainingUses,
		subPlan,
		expiry,
		rec.Blacklisted,
		rec.VisitLog,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrDuplicatePlate
		}
		return nil, s.storeErr("append record", err)
	}
	return created, nil
}

func scanRecord(row pgx.Row) (*domain.CustomerRecord, error) {
	var rec domain.CustomerRecord
	var countPlan, subPlan, expiry *string
	var remainingUses *int
	err := row.Scan(
		&rec.Plate,
		&rec.Phone,
		&rec.RegisteredDate,
		&rec.LastVisitDate,
		&rec.TotalVisitCount,
		&countPlan,
		&remainingUses,
		&subPlan,
		&expiry,
		&rec.Blacklisted,
		&rec.VisitLog,
	)
	if err != nil {
		return nil, err
	}
	if countPlan != nil || remainingUses != nil {
		rec.Count = &domain.CountEntitlement{}
		if countPlan != nil {
			rec.Count.PlanName = *countPlan
		}
		if remainingUses != nil {
			rec.Count.RemainingUses = *remainingUses
		}
	}
	if subPlan != nil || expiry != nil {
		rec.Subscription = &domain.SubscriptionEntitlement{}
		if subPlan != nil {
			rec.Subscription.PlanName = *subPlan
		}
		if expiry != nil {
			rec.Subscription.ExpiryDate = *expiry
		}
	}
	return &rec, nil
}

// storeErr logs the underlying failure and folds it into the store
// availability error the callers branch on.
func (s *postgresStore) storeErr(op string, err error) error {
	s.logger.Printf("customer store: %s: %v", op, err)
	return fmt.Errorf("%s: %w", op, domain.ErrStoreUnavailable)
}
