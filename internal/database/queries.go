package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Queries bundles the read-only statements the coach endpoint needs.
// The profile, interest, and plan tables are owned by the onboarding
// and planner services; this service never writes to them.
type Queries struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Queries {
	return &Queries{pool: pool}
}

// Profile is one row of the profiles table, as captured at onboarding.
type Profile struct {
	UserID             string
	FriendlyName       string
	CoachingStyle      string
	RetirementStage    string
	InterestCategories []string
}

// PlanItem is one row of the daily_plan_items table.
// CompletedAt is NULL while the item is still pending.
type PlanItem struct {
	Title       string
	CompletedAt pgtype.Timestamptz
}

const getProfile = `
SELECT user_id, friendly_name, coaching_style, retirement_stage, interest_categories
FROM profiles
WHERE user_id = $1
`

// GetProfile fetches exactly one profile row. A missing row surfaces as
// pgx.ErrNoRows so the caller can distinguish "no such user" from a
// connection-level failure.
func (q *Queries) GetProfile(ctx context.Context, userID string) (Profile, error) {
	var p Profile
	err := q.pool.QueryRow(ctx, getProfile, userID).Scan(
		&p.UserID,
		&p.FriendlyName,
		&p.CoachingStyle,
		&p.RetirementStage,
		&p.InterestCategories,
	)
	return p, err
}

const listInterests = `
SELECT interest
FROM user_interests
WHERE user_id = $1
ORDER BY created_at, interest
`

// ListInterests returns the user's onboarding-selected interests.
// Zero rows is a valid result. The ORDER BY keeps the list stable
// across calls so composed prompts stay byte-identical.
func (q *Queries) ListInterests(ctx context.Context, userID string) ([]string, error) {
	rows, err := q.pool.Query(ctx, listInterests, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return pgx.CollectRows(rows, pgx.RowTo[string])
}

const listPlanItems = `
SELECT title, completed_at
FROM daily_plan_items
WHERE user_id = $1
  AND scheduled_for >= $2
  AND scheduled_for < $3
ORDER BY scheduled_for, title
`

// ListPlanItems returns the plan items scheduled inside the half-open
// interval [from, to).
func (q *Queries) ListPlanItems(ctx context.Context, userID string, from, to time.Time) ([]PlanItem, error) {
	rows, err := q.pool.Query(ctx, listPlanItems, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []PlanItem
	for rows.Next() {
		var item PlanItem
		if err := rows.Scan(&item.Title, &item.CompletedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
