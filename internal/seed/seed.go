package seed

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type customerSeed struct {
	Plate            string
	Phone            string
	RegisteredDate   string
	LastVisitDate    string
	TotalVisitCount  int
	CountPlan        string
	RemainingUses    int
	SubscriptionPlan string
	ExpiryDate       string
	VisitLog         string
}

// Apply inserts basic seed data for manual testing. It is idempotent via ON CONFLICT.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	customers := []customerSeed{
		{
			Plate:           "12가3456",
			Phone:           "010-1234-5678",
			RegisteredDate:  "2024-01-01",
			LastVisitDate:   "2024-03-01",
			TotalVisitCount: 3,
			CountPlan:       "회수권 5회",
			RemainingUses:   2,
			VisitLog:        "2024-01-01 09:00 (신규등록), 2024-02-10 14:00 (회수권), 2024-03-01 10:00 (회수권)",
		},
		{
			Plate:            "34나7890",
			Phone:            "010-1111-2222",
			RegisteredDate:   "2024-02-01",
			LastVisitDate:    "2024-02-20",
			TotalVisitCount:  2,
			SubscriptionPlan: "월정액 1개월",
			ExpiryDate:       "2024-02-29",
			VisitLog:         "2024-02-01 11:00 (신규등록), 2024-02-20 16:30 (월정액)",
		},
		{
			Plate:            "160호 7421",
			Phone:            "010-4292-1289",
			RegisteredDate:   "2023-11-15",
			LastVisitDate:    "2024-03-05",
			TotalVisitCount:  12,
			CountPlan:        "회수권 10회",
			RemainingUses:    4,
			SubscriptionPlan: "월정액 3개월",
			ExpiryDate:       "2024-05-14",
			VisitLog:         "2023-11-15 10:00 (신규등록), 2024-03-05 09:30 (회수권)",
		},
	}

	for _, c := range customers {
		if err := upsertCustomer(ctx, pool, c); err != nil {
			return fmt.Errorf("upsert customer %s: %w", c.Plate, err)
		}
	}
	return nil
}

func upsertCustomer(ctx context.Context, pool *pgxpool.Pool, c customerSeed) error {
	const q = `
INSERT INTO customers (plate, phone, registered_date, last_visit_date, total_visit_count,
                       count_plan, remaining_uses, subscription_plan, expiry_date, visit_log)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, NULLIF($8, ''), NULLIF($9, ''), $10)
ON CONFLICT (plate) DO UPDATE SET
    phone = EXCLUDED.phone,
    last_visit_date = EXCLUDED.last_visit_date,
    total_visit_count = EXCLUDED.total_visit_count,
    count_plan = EXCLUDED.count_plan,
    remaining_uses = EXCLUDED.remaining_uses,
    subscription_plan = EXCLUDED.subscription_plan,
    expiry_date = EXCLUDED.expiry_date,
    visit_log = EXCLUDED.visit_log
`
	var remaining *int
	if c.CountPlan != "" {
		remaining = &c.RemainingUses
	}
	_, err := pool.Exec(ctx, q,
		c.Plate,
		c.Phone,
		c.RegisteredDate,
		c.LastVisitDate,
		c.TotalVisitCount,
		c.CountPlan,
		remaining,
		c.SubscriptionPlan,
		c.ExpiryDate,
		c.VisitLog,
	)
	return err
}
