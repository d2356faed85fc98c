package swipe_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/tripmate-match/internal/app/apptest"
	"github.com/oggyb/tripmate-match/internal/db"
	"github.com/oggyb/tripmate-match/internal/db/dbtest"
	svcErr "github.com/oggyb/tripmate-match/internal/errors"
	"github.com/oggyb/tripmate-match/internal/service/swipe"
)

func setupService(t *testing.T) (*swipe.Service, *apptest.Env) {
	t.Helper()
	env := apptest.New(t)
	return swipe.NewService(env.App), env
}

func countMatches(t *testing.T, env *apptest.Env) int64 {
	t.Helper()
	var n int64
	require.NoError(t, env.App.DB.Model(&db.Match{}).Count(&n).Error)
	return n
}

// TestSwipe_LikeThenLikeBackThenRetry walks the like / like back / retry
// sequence and checks the response at each step.
func TestSwipe_LikeThenLikeBackThenRetry(t *testing.T) {
	ctx := context.Background()
	svc, env := setupService(t)
	a := dbtest.NewUser(t, env.App.DB)
	b := dbtest.NewUser(t, env.App.DB)

	res, err := svc.Swipe(ctx, a.ID, b.ID, db.DirectionLike)
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.False(t, res.IsMatch)
	assert.Nil(t, res.Match)

	res, err = svc.Swipe(ctx, b.ID, a.ID, db.DirectionLike)
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.True(t, res.IsMatch)
	require.NotNil(t, res.Match)
	first := *res.Match

	u1, u2 := db.CanonicalPair(a.ID, b.ID)
	assert.Equal(t, u1, first.User1ID)
	assert.Equal(t, u2, first.User2ID)
	assert.Less(t, first.User1ID, first.User2ID)

	res, err = svc.Swipe(ctx, a.ID, b.ID, db.DirectionLike)
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.True(t, res.IsMatch)
	require.NotNil(t, res.Match)
	assert.Equal(t, first.ID, res.Match.ID)

	assert.Equal(t, int64(1), countMatches(t, env))

	matches, likes := env.Notifier.Counts()
	assert.Equal(t, 1, matches)
	assert.Equal(t, 1, likes) // only the unanswered first like
	assert.Equal(t, 1.0, testutil.ToFloat64(env.App.Metrics.MatchesTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.App.Metrics.SwipesTotal.WithLabelValues("like", "false")))
}

func TestSwipe_SuperLikeMatchesLike(t *testing.T) {
	ctx := context.Background()
	svc, env := setupService(t)
	a := dbtest.NewUser(t, env.App.DB)
	b := dbtest.NewUser(t, env.App.DB)

	_, err := svc.Swipe(ctx, a.ID, b.ID, db.DirectionSuperLike)
	require.NoError(t, err)
	res, err := svc.Swipe(ctx, b.ID, a.ID, db.DirectionLike)
	require.NoError(t, err)
	assert.True(t, res.IsMatch)
}

func TestSwipe_DuplicateKeepsOriginalDirection(t *testing.T) {
	ctx := context.Background()
	svc, env := setupService(t)
	a := dbtest.NewUser(t, env.App.DB)
	b := dbtest.NewUser(t, env.App.DB)

	_, err := svc.Swipe(ctx, a.ID, b.ID, db.DirectionPass)
	require.NoError(t, err)

	res, err := svc.Swipe(ctx, a.ID, b.ID, db.DirectionLike)
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, db.DirectionPass, res.Direction)

	// B liking A later must not match: A's stored decision is still a pass
	res, err = svc.Swipe(ctx, b.ID, a.ID, db.DirectionLike)
	require.NoError(t, err)
	assert.False(t, res.IsMatch)
	assert.Zero(t, countMatches(t, env))
}

func TestSwipe_PassNeverMatches(t *testing.T) {
	ctx := context.Background()
	svc, env := setupService(t)
	a := dbtest.NewUser(t, env.App.DB)
	b := dbtest.NewUser(t, env.App.DB)

	_, err := svc.Swipe(ctx, a.ID, b.ID, db.DirectionLike)
	require.NoError(t, err)
	res, err := svc.Swipe(ctx, b.ID, a.ID, db.DirectionPass)
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.False(t, res.IsMatch)
	assert.Zero(t, countMatches(t, env))
}

func TestSwipe_BlockedEitherDirection(t *testing.T) {
	ctx := context.Background()
	svc, env := setupService(t)
	a := dbtest.NewUser(t, env.App.DB)
	b := dbtest.NewUser(t, env.App.DB)
	dbtest.Block(t, env.App.DB, a.ID, b.ID)

	_, err := svc.Swipe(ctx, a.ID, b.ID, db.DirectionLike)
	assert.ErrorIs(t, err, svcErr.ErrBlocked)
	_, err = svc.Swipe(ctx, b.ID, a.ID, db.DirectionLike)
	assert.ErrorIs(t, err, svcErr.ErrBlocked)

	var n int64
	require.NoError(t, env.App.DB.Model(&db.Swipe{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestSwipe_ShadowBannedSwiperCanMatch(t *testing.T) {
	ctx := context.Background()
	svc, env := setupService(t)
	a := dbtest.NewUser(t, env.App.DB)
	shadow := dbtest.NewUser(t, env.App.DB, func(u *db.User) { u.IsShadowBanned = true })

	_, err := svc.Swipe(ctx, a.ID, shadow.ID, db.DirectionLike)
	require.NoError(t, err)
	res, err := svc.Swipe(ctx, shadow.ID, a.ID, db.DirectionLike)
	require.NoError(t, err)
	assert.True(t, res.IsMatch)
}

func TestSwipe_InvalidInput(t *testing.T) {
	ctx := context.Background()
	svc, env := setupService(t)
	a := dbtest.NewUser(t, env.App.DB)
	banned := dbtest.NewUser(t, env.App.DB, func(u *db.User) { u.IsBanned = true })
	inactive := dbtest.NewUser(t, env.App.DB, func(u *db.User) { u.IsActive = false })

	cases := []struct {
		name    string
		swiper  string
		swiped  string
		dir     db.Direction
		wantErr error
	}{
		{"self", a.ID, a.ID, db.DirectionLike, svcErr.ErrInvalidTarget},
		{"bad direction", a.ID, banned.ID, "maybe", svcErr.ErrInvalidArgument},
		{"bad swiper id", "42", a.ID, db.DirectionLike, svcErr.ErrInvalidArgument},
		{"bad swiped id", a.ID, "", db.DirectionLike, svcErr.ErrInvalidArgument},
		{"missing target", a.ID, uuid.NewString(), db.DirectionLike, svcErr.ErrInvalidTarget},
		{"banned target", a.ID, banned.ID, db.DirectionLike, svcErr.ErrInvalidTarget},
		{"inactive target", a.ID, inactive.ID, db.DirectionLike, svcErr.ErrInvalidTarget},
		{"banned swiper", banned.ID, a.ID, db.DirectionLike, svcErr.ErrSwiperUnavailable},
		{"missing swiper", uuid.NewString(), a.ID, db.DirectionLike, svcErr.ErrSwiperUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Swipe(ctx, tc.swiper, tc.swiped, tc.dir)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestSwipe_UppercaseIDsAreCanonicalised(t *testing.T) {
	ctx := context.Background()
	svc, env := setupService(t)
	a := dbtest.NewUser(t, env.App.DB)
	b := dbtest.NewUser(t, env.App.DB)

	_, err := svc.Swipe(ctx, a.ID, b.ID, db.DirectionLike)
	require.NoError(t, err)

	upper := func(s string) string {
		out := []byte(s)
		for i, c := range out {
			if c >= 'a' && c <= 'f' {
				out[i] = c - 'a' + 'A'
			}
		}
		return string(out)
	}
	res, err := svc.Swipe(ctx, upper(a.ID), upper(b.ID), db.DirectionPass)
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, db.DirectionLike, res.Direction)
}

// TestSwipe_ConcurrentMutualLikes fires both likes at once, many times over,
// and expects exactly one match row each time.
func TestSwipe_ConcurrentMutualLikes(t *testing.T) {
	ctx := context.Background()
	svc, env := setupService(t)

	for round := 0; round < 10; round++ {
		a := dbtest.NewUser(t, env.App.DB)
		b := dbtest.NewUser(t, env.App.DB)

		var wg sync.WaitGroup
		results := make([]swipe.Result, 2)
		errs := make([]error, 2)
		for i, pair := range [][2]string{{a.ID, b.ID}, {b.ID, a.ID}} {
			wg.Add(1)
			go func(i int, swiper, swiped string) {
				defer wg.Done()
				results[i], errs[i] = svc.Swipe(ctx, swiper, swiped, db.DirectionLike)
			}(i, pair[0], pair[1])
		}
		wg.Wait()

		require.NoError(t, errs[0])
		require.NoError(t, errs[1])
		assert.True(t, results[0].IsMatch || results[1].IsMatch)

		u1, u2 := db.CanonicalPair(a.ID, b.ID)
		var n int64
		require.NoError(t, env.App.DB.Model(&db.Match{}).
			Where("user1_id = ? AND user2_id = ?", u1, u2).Count(&n).Error)
		assert.Equal(t, int64(1), n)
	}

	matches, _ := env.Notifier.Counts()
	assert.Equal(t, 10, matches)
}

func TestSwipe_InvalidatesUnseenCache(t *testing.T) {
	ctx := context.Background()
	svc, env := setupService(t)
	a := dbtest.NewUser(t, env.App.DB)
	b := dbtest.NewUser(t, env.App.DB)

	require.NoError(t, env.Redis.Set("likes:unseen:"+b.ID, "99"))
	require.NoError(t, env.Redis.Set("likes:unseen:"+a.ID, "99"))

	_, err := svc.Swipe(ctx, a.ID, b.ID, db.DirectionLike)
	require.NoError(t, err)

	assert.False(t, env.Redis.Exists("likes:unseen:"+b.ID))
	assert.False(t, env.Redis.Exists("likes:unseen:"+a.ID))
}

func TestMarkSeen(t *testing.T) {
	ctx := context.Background()
	svc, env := setupService(t)
	a := dbtest.NewUser(t, env.App.DB)
	b := dbtest.NewUser(t, env.App.DB)
	c := dbtest.NewUser(t, env.App.DB)

	_, err := svc.Swipe(ctx, a.ID, b.ID, db.DirectionLike)
	require.NoError(t, err)
	_, err = svc.Swipe(ctx, c.ID, b.ID, db.DirectionLike)
	require.NoError(t, err)
	require.NoError(t, env.Redis.Set("likes:unseen:"+b.ID, "2"))

	n, err := svc.MarkSeen(ctx, b.ID, []string{a.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.False(t, env.Redis.Exists("likes:unseen:"+b.ID))

	n, err = svc.MarkSeen(ctx, b.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = svc.MarkSeen(ctx, b.ID, []string{"nope"})
	assert.ErrorIs(t, err, svcErr.ErrInvalidArgument)
}

func TestListMatches(t *testing.T) {
	ctx := context.Background()
	svc, env := setupService(t)
	me := dbtest.NewUser(t, env.App.DB)
	x := dbtest.NewUser(t, env.App.DB)
	y := dbtest.NewUser(t, env.App.DB)

	for _, other := range []string{x.ID, y.ID} {
		_, err := svc.Swipe(ctx, me.ID, other, db.DirectionLike)
		require.NoError(t, err)
		_, err = svc.Swipe(ctx, other, me.ID, db.DirectionLike)
		require.NoError(t, err)
	}

	got, err := svc.ListMatches(ctx, me.ID, 0)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	dbtest.Block(t, env.App.DB, y.ID, me.ID)
	got, err = svc.ListMatches(ctx, me.ID, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Contains(t, []string{got[0].User1ID, got[0].User2ID}, x.ID)
}
