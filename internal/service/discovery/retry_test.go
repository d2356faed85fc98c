package discovery

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/tripmate-match/internal/app/apptest"
	"github.com/oggyb/tripmate-match/internal/db/dbtest"
	"github.com/oggyb/tripmate-match/internal/geo"
	"github.com/oggyb/tripmate-match/internal/logger"
)

func TestIsTransient(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("syntax error"), false},
		{context.Canceled, false},
		{fmt.Errorf("wrapped: %w", context.DeadlineExceeded), false},
		{driver.ErrBadConn, true},
		{fmt.Errorf("query: %w", mysql.ErrInvalidConn), true},
		{io.EOF, true},
		{io.ErrUnexpectedEOF, true},
		{&net.OpError{Op: "read", Err: errors.New("connection reset")}, true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, isTransient(tc.err), "%v", tc.err)
	}
}

func TestReadOnce(t *testing.T) {
	ctx := context.Background()
	log := logger.Discard()

	calls := 0
	v, err := readOnce(ctx, log, "op", func(context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, driver.ErrBadConn
		}
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, 2, calls)

	calls = 0
	_, err = readOnce(ctx, log, "op", func(context.Context) (int, error) {
		calls++
		return 0, io.EOF
	})
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 2, calls) // one retry only

	calls = 0
	_, err = readOnce(ctx, log, "op", func(context.Context) (int, error) {
		calls++
		return 0, errors.New("permanent")
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

// flakyIndex fails the first query with a dropped connection.
type flakyIndex struct {
	inner geo.Index
	calls int
}

func (f *flakyIndex) QueryWithinRadius(ctx context.Context, origin geo.Point, radiusKm float64, limit int) ([]geo.Hit, error) {
	f.calls++
	if f.calls == 1 {
		return nil, io.ErrUnexpectedEOF
	}
	return f.inner.QueryWithinRadius(ctx, origin, radiusKm, limit)
}

func TestDiscover_RetriesTransientIndexFailure(t *testing.T) {
	ctx := context.Background()
	env := apptest.New(t)

	a := dbtest.NewUser(t, env.App.DB, dbtest.At(40, -75))
	b := dbtest.NewUser(t, env.App.DB, dbtest.At(40.05, -75))
	require.NoError(t, env.App.Geo.Upsert(ctx, a.ID, geo.Point{Lat: 40, Lon: -75}))
	require.NoError(t, env.App.Geo.Upsert(ctx, b.ID, geo.Point{Lat: 40.05, Lon: -75}))

	idx := &flakyIndex{inner: env.App.Geo}
	p := newPlanner(env.App, idx)

	got, err := p.Discover(ctx, a.ID, Filters{}, 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, b.ID, got[0].UserID)
	assert.Equal(t, 2, idx.calls)
}

func TestDiscover_OverFetchesFromIndex(t *testing.T) {
	ctx := context.Background()
	env := apptest.New(t)
	a := dbtest.NewUser(t, env.App.DB, dbtest.At(40, -75))

	spy := &limitSpy{}
	p := newPlanner(env.App, spy)
	_, err := p.Discover(ctx, a.ID, Filters{}, 5)
	require.NoError(t, err)
	assert.Equal(t, 5*env.App.Config.Discovery.OverFetchFactor, spy.limit)

	_, err = p.Discover(ctx, a.ID, Filters{}, 10_000)
	require.NoError(t, err)
	assert.Equal(t, env.App.Config.Discovery.MaxLimit*env.App.Config.Discovery.OverFetchFactor, spy.limit)
}

type limitSpy struct{ limit int }

func (s *limitSpy) QueryWithinRadius(_ context.Context, _ geo.Point, _ float64, limit int) ([]geo.Hit, error) {
	s.limit = limit
	return nil, nil
}

// crowdedIndex always fills the requested window with users unknown to the
// database.
type crowdedIndex struct{ windows []int }

func (c *crowdedIndex) QueryWithinRadius(_ context.Context, _ geo.Point, _ float64, limit int) ([]geo.Hit, error) {
	c.windows = append(c.windows, limit)
	hits := make([]geo.Hit, limit)
	for i := range hits {
		hits[i] = geo.Hit{UserID: fmt.Sprintf("ghost-%d", i), DistanceKm: float64(i) / 1000}
	}
	return hits, nil
}

func TestDiscover_WideningStopsAfterMaxRounds(t *testing.T) {
	ctx := context.Background()
	env := apptest.New(t)
	a := dbtest.NewUser(t, env.App.DB, dbtest.At(40, -75))

	idx := &crowdedIndex{}
	p := newPlanner(env.App, idx)
	got, err := p.Discover(ctx, a.ID, Filters{}, 5)
	require.NoError(t, err)
	assert.Empty(t, got)

	first := 5 * env.App.Config.Discovery.OverFetchFactor
	assert.Equal(t, []int{first, first * fetchGrowth, first * fetchGrowth * fetchGrowth, first * fetchGrowth * fetchGrowth * fetchGrowth}, idx.windows)
	assert.Len(t, idx.windows, maxFetchRounds)
}
