package journal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rustyeddy/tradejournal/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type repoFactory func(t *testing.T) Repository

func repoFactories() map[string]repoFactory {
	f := map[string]repoFactory{
		"memory": func(t *testing.T) Repository {
			return NewMemory()
		},
		"sqlite": func(t *testing.T) Repository {
			j, err := NewSQLite(filepath.Join(t.TempDir(), "journal.db"))
			require.NoError(t, err)
			return j
		},
	}
	if dsn := os.Getenv("TRADEJOURNAL_TEST_POSTGRES_DSN"); dsn != "" {
		f["postgres"] = func(t *testing.T) Repository {
			ctx := context.Background()
			p, err := NewPostgres(ctx, dsn)
			require.NoError(t, err)
			_, err = p.pool.Exec(ctx, `TRUNCATE trades`)
			require.NoError(t, err)
			return p
		}
	}
	return f
}

func sampleTrade() Trade {
	return Trade{
		Date:     "2024-07-20",
		Time:     "09:30:05",
		Ticker:   "AAPL",
		Type:     market.Buy,
		Price:    150.50,
		Quantity: 10,
	}
}

func TestRepositoryContract(t *testing.T) {
	for name, newRepo := range repoFactories() {
		t.Run(name, func(t *testing.T) {
			t.Run("insert assigns id", func(t *testing.T) {
				repo := newRepo(t)
				defer repo.Close()
				ctx := context.Background()

				got, err := repo.Insert(ctx, sampleTrade())
				require.NoError(t, err)
				assert.NotEmpty(t, got.ID)
				assert.False(t, got.CreatedAt.IsZero())

				back, err := repo.GetByID(ctx, got.ID)
				require.NoError(t, err)
				assert.Equal(t, got.ID, back.ID)
				assert.Equal(t, "AAPL", back.Ticker)
				assert.Equal(t, market.Buy, back.Type)
				assert.InDelta(t, 150.50, back.Price, 1e-9)
				assert.Equal(t, 10, back.Quantity)
				assert.Nil(t, back.Rating)
			})

			t.Run("insert keeps supplied id and rating", func(t *testing.T) {
				repo := newRepo(t)
				defer repo.Close()
				ctx := context.Background()

				tr := sampleTrade().WithRating(-0.25)
				tr.ID = "fixed-id"
				got, err := repo.Insert(ctx, tr)
				require.NoError(t, err)
				assert.Equal(t, "fixed-id", got.ID)

				back, err := repo.GetByID(ctx, "fixed-id")
				require.NoError(t, err)
				require.NotNil(t, back.Rating)
				assert.InDelta(t, -0.25, *back.Rating, 1e-9)

				_, err = repo.Insert(ctx, tr)
				assert.ErrorIs(t, err, ErrDuplicateID)
			})

			t.Run("get unknown id", func(t *testing.T) {
				repo := newRepo(t)
				defer repo.Close()

				_, err := repo.GetByID(context.Background(), "nope")
				assert.ErrorIs(t, err, ErrNotFound)
				assert.False(t, errors.Is(err, ErrStorage))
			})

			t.Run("list all", func(t *testing.T) {
				repo := newRepo(t)
				defer repo.Close()
				ctx := context.Background()

				empty, err := repo.ListAll(ctx)
				require.NoError(t, err)
				assert.Empty(t, empty)

				for i := 0; i < 5; i++ {
					tr := sampleTrade()
					tr.Price = float64(10 * (i + 1))
					_, err := repo.Insert(ctx, tr)
					require.NoError(t, err)
				}

				all, err := repo.ListAll(ctx)
				require.NoError(t, err)
				assert.Len(t, all, 5)
			})

			t.Run("set rating fills only a missing rating", func(t *testing.T) {
				repo := newRepo(t)
				defer repo.Close()
				ctx := context.Background()

				tr, err := repo.Insert(ctx, sampleTrade())
				require.NoError(t, err)

				require.NoError(t, repo.SetRating(ctx, tr.ID, 0.5))
				require.NoError(t, repo.SetRating(ctx, tr.ID, -0.9))

				back, err := repo.GetByID(ctx, tr.ID)
				require.NoError(t, err)
				require.NotNil(t, back.Rating)
				assert.InDelta(t, 0.5, *back.Rating, 1e-9)

				assert.ErrorIs(t, repo.SetRating(ctx, "missing", 1), ErrNotFound)

				all, err := repo.ListAll(ctx)
				require.NoError(t, err)
				assert.Len(t, all, 1, "backfill must not duplicate records")
			})

			t.Run("concurrent inserts", func(t *testing.T) {
				repo := newRepo(t)
				defer repo.Close()
				ctx := context.Background()

				const n = 50
				var wg sync.WaitGroup
				errs := make(chan error, n)
				for i := 0; i < n; i++ {
					wg.Add(1)
					go func(i int) {
						defer wg.Done()
						tr := sampleTrade()
						tr.Ticker = fmt.Sprintf("T%02d", i)
						if _, err := repo.Insert(ctx, tr); err != nil {
							errs <- err
						}
					}(i)
				}
				wg.Wait()
				close(errs)
				for err := range errs {
					require.NoError(t, err)
				}

				all, err := repo.ListAll(ctx)
				require.NoError(t, err)
				require.Len(t, all, n)

				ids := make(map[string]bool, n)
				for _, tr := range all {
					ids[tr.ID] = true
				}
				assert.Len(t, ids, n)
			})
		})
	}
}

func TestMemoryReturnsCopies(t *testing.T) {
	t.Parallel()

	repo := NewMemory()
	ctx := context.Background()

	tr, err := repo.Insert(ctx, sampleTrade().WithRating(0.1))
	require.NoError(t, err)

	*tr.Rating = 99
	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	all[0].Ticker = "MUTATED"
	*all[0].Rating = 42

	back, err := repo.GetByID(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, "AAPL", back.Ticker)
	assert.InDelta(t, 0.1, *back.Rating, 1e-9)
}

func TestCancelledContextIsStorageError(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMemory().ListAll(ctx)
	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	r, err := Open(ctx, DriverMemory, "")
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, r)

	r, err = Open(ctx, DriverSQLite, filepath.Join(t.TempDir(), "j.db"))
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, r)
	assert.NoError(t, r.Close())

	_, err = Open(ctx, "mongo", "")
	assert.Error(t, err)
}

func TestTradeHelpers(t *testing.T) {
	t.Parallel()

	tr := sampleTrade()
	assert.False(t, tr.Rated())
	assert.Equal(t, 0.0, tr.RatingValue())
	assert.InDelta(t, 1505.0, tr.Notional(), 1e-9)

	rated := tr.WithRating(0.75)
	assert.True(t, rated.Rated())
	assert.Equal(t, 0.75, rated.RatingValue())
	assert.False(t, tr.Rated(), "WithRating must not modify the receiver")
}
