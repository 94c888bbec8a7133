package memory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/app/uow"
	"staybook/internal/domain/calendar"
	"staybook/internal/domain/rental"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"
	"staybook/internal/infra/storage"
	"staybook/internal/infra/storage/memory"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seededStore(t *testing.T) *memory.Store {
	t.Helper()
	r, err := rental.NewRental(rental.CreateParams{
		ID:    "r-1",
		Owner: "o-1",
		Title: "Beach house",
		Pricing: rental.Pricing{
			BasePrice:   money.Must(10000, "USD"),
			Unit:        rental.BillPerNight,
			MinimumStay: 1,
		},
		Rules:  rental.HouseRules{MaxGuests: 4},
		Policy: rental.CancellationPolicy{Kind: rental.PolicyFlexible},
		Now:    date(2026, 1, 1),
	})
	require.NoError(t, err)
	store := memory.NewStore()
	store.SeedRental(r)
	return store
}

func TestCommitPersistsAndBumpsVersion(t *testing.T) {
	store := seededStore(t)
	factory := memory.NewFactory(store)
	ctx := context.Background()

	unit, err := factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	cal, err := unit.Calendars().ForRental(ctx, "r-1")
	require.NoError(t, err)
	dr, _ := daterange.New(date(2026, 7, 10), date(2026, 7, 12))
	require.NoError(t, cal.Reserve(dr, "b-1", date(2026, 6, 1)))
	require.NoError(t, unit.Calendars().Save(ctx, cal))
	require.NoError(t, unit.Commit(ctx))

	check, err := factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	defer check.Rollback(ctx)
	loaded, err := check.Calendars().ForRental(ctx, "r-1")
	require.NoError(t, err)
	assert.Equal(t, "b-1", loaded.Day(date(2026, 7, 10)).BookingID)
	assert.Equal(t, int64(1), loaded.Version)
}

func TestRollbackDiscardsWrites(t *testing.T) {
	store := seededStore(t)
	factory := memory.NewFactory(store)
	ctx := context.Background()

	unit, err := factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	cal, err := unit.Calendars().ForRental(ctx, "r-1")
	require.NoError(t, err)
	dr, _ := daterange.New(date(2026, 7, 10), date(2026, 7, 12))
	require.NoError(t, cal.Reserve(dr, "b-1", date(2026, 6, 1)))
	require.NoError(t, unit.Calendars().Save(ctx, cal))
	require.NoError(t, unit.Rollback(ctx))
	assert.ErrorIs(t, unit.Commit(ctx), uow.ErrAlreadyFinished)

	check, err := factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	defer check.Rollback(ctx)
	loaded, err := check.Calendars().ForRental(ctx, "r-1")
	require.NoError(t, err)
	assert.Equal(t, "", loaded.Day(date(2026, 7, 10)).BookingID)
}

// Two writers race for overlapping dates having both read the calendar
// before either committed. Exactly one wins; the loser's commit fails and
// the store never holds a double booking.
func TestConcurrentReserveExactlyOneWins(t *testing.T) {
	store := seededStore(t)
	factory := memory.NewFactory(store)
	ctx := context.Background()
	dr, _ := daterange.New(date(2026, 7, 10), date(2026, 7, 13))

	type attempt struct {
		unit uow.UnitOfWork
		cal  *calendar.Calendar
	}
	attempts := make([]attempt, 2)
	for i := range attempts {
		unit, err := factory.Begin(ctx, uow.TxOptions{})
		require.NoError(t, err)
		cal, err := unit.Calendars().ForRental(ctx, "r-1")
		require.NoError(t, err)
		attempts[i] = attempt{unit: unit, cal: cal}
	}

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range attempts {
		wg.Add(1)
		go func(i int, bookingID string) {
			defer wg.Done()
			a := attempts[i]
			if err := a.cal.Reserve(dr, bookingID, date(2026, 6, 1)); err != nil {
				errs[i] = err
				return
			}
			if err := a.unit.Calendars().Save(ctx, a.cal); err != nil {
				errs[i] = err
				return
			}
			errs[i] = a.unit.Commit(ctx)
		}(i, []string{"b-1", "b-2"}[i])
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, storage.ErrConcurrentUpdate)
		}
	}
	assert.Equal(t, 1, winners, "exactly one racing booking commits")

	check, err := factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	defer check.Rollback(ctx)
	loaded, err := check.Calendars().ForRental(ctx, "r-1")
	require.NoError(t, err)
	owner := loaded.Day(date(2026, 7, 10)).BookingID
	assert.NotEmpty(t, owner)
	for _, d := range dr.Dates() {
		assert.Equal(t, owner, loaded.Day(d).BookingID, "no day split between bookings")
	}
}

func TestSequentialConflictIsDomainLevel(t *testing.T) {
	store := seededStore(t)
	factory := memory.NewFactory(store)
	ctx := context.Background()
	dr, _ := daterange.New(date(2026, 7, 10), date(2026, 7, 13))

	first, err := factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	cal, err := first.Calendars().ForRental(ctx, "r-1")
	require.NoError(t, err)
	require.NoError(t, cal.Reserve(dr, "b-1", date(2026, 6, 1)))
	require.NoError(t, first.Calendars().Save(ctx, cal))
	require.NoError(t, first.Commit(ctx))

	second, err := factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	cal2, err := second.Calendars().ForRental(ctx, "r-1")
	require.NoError(t, err)
	assert.ErrorIs(t, cal2.Reserve(dr, "b-2", date(2026, 6, 2)), calendar.ErrDatesTaken)
	require.NoError(t, second.Rollback(ctx))
}
