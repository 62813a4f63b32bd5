package coach

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"Primify_V1.0/internal/database"
	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/errgroup"
)

// Store is the read contract against the profile/interest/plan tables.
// *database.Queries satisfies it; tests substitute counting fakes.
type Store interface {
	GetProfile(ctx context.Context, userID string) (database.Profile, error)
	ListInterests(ctx context.Context, userID string) ([]string, error)
	ListPlanItems(ctx context.Context, userID string, from, to time.Time) ([]database.PlanItem, error)
}

// ContextBundle is everything the prompt composer needs about one user,
// captured fresh on every request. Nothing here outlives the request.
type ContextBundle struct {
	Profile   database.Profile
	Interests []string
	Plan      DailyPlan
}

// DailyPlan is today's plan items split by completion state.
type DailyPlan struct {
	Completed []string
	Pending   []string
}

// Aggregator performs the per-request context reads. It holds no cache:
// every request re-queries the store, so the staleness window is zero.
type Aggregator struct {
	store Store
	loc   *time.Location
	now   func() time.Time
}

func NewAggregator(store Store, loc *time.Location) *Aggregator {
	if loc == nil {
		loc = time.UTC
	}
	return &Aggregator{store: store, loc: loc, now: time.Now}
}

// Aggregate fetches the profile, interests, and today's plan items for one
// user. The three reads run concurrently; any store failure aborts the
// request. A missing profile row maps to ErrProfileNotFound, everything
// else to ErrStoreUnavailable.
func (a *Aggregator) Aggregate(ctx context.Context, userID string) (ContextBundle, error) {
	var bundle ContextBundle

	dayStart, dayEnd := a.dayRange()

	g, grpCtx := errgroup.WithContext(ctx)

	// mutex protects 'bundle' while the fetches write their results
	var mu sync.Mutex

	g.Go(func() error {
		profile, err := a.store.GetProfile(grpCtx, userID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: user %s", ErrProfileNotFound, userID)
			}
			return fmt.Errorf("%w: fetching profile: %v", ErrStoreUnavailable, err)
		}
		mu.Lock()
		bundle.Profile = profile
		mu.Unlock()
		return nil
	})

	g.Go(func() error {
		interests, err := a.store.ListInterests(grpCtx, userID)
		if err != nil {
			return fmt.Errorf("%w: fetching interests: %v", ErrStoreUnavailable, err)
		}
		mu.Lock()
		bundle.Interests = interests
		mu.Unlock()
		return nil
	})

	g.Go(func() error {
		items, err := a.store.ListPlanItems(grpCtx, userID, dayStart, dayEnd)
		if err != nil {
			return fmt.Errorf("%w: fetching plan items: %v", ErrStoreUnavailable, err)
		}
		plan := partitionPlan(items)
		mu.Lock()
		bundle.Plan = plan
		mu.Unlock()
		return nil
	})

	if err := g.Wait(); err != nil {
		return ContextBundle{}, err
	}

	return bundle, nil
}

// dayRange returns the half-open interval [start-of-day, start-of-next-day)
// in the configured reference zone.
func (a *Aggregator) dayRange() (time.Time, time.Time) {
	now := a.now().In(a.loc)
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, a.loc)
	return start, start.AddDate(0, 0, 1)
}

// partitionPlan splits plan items on the presence of a completion timestamp,
// preserving the store's order within each subset.
func partitionPlan(items []database.PlanItem) DailyPlan {
	var plan DailyPlan
	for _, item := range items {
		if item.CompletedAt.Valid {
			plan.Completed = append(plan.Completed, item.Title)
		} else {
			plan.Pending = append(plan.Pending, item.Title)
		}
	}
	return plan
}
