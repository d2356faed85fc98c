package matching_test

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/oggyb/tripmate-match/internal/app/apptest"
	"github.com/oggyb/tripmate-match/internal/db"
	"github.com/oggyb/tripmate-match/internal/db/dbtest"
	"github.com/oggyb/tripmate-match/internal/service/matching"
)

// setupClient serves MatchingService over an in-memory listener and returns
// a client bound to it.
func setupClient(t *testing.T) (*matching.Client, *apptest.Env) {
	t.Helper()
	env := apptest.New(t)

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	matching.NewRegistrar(env.App).Register(srv)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return matching.NewClient(conn), env
}

func TestSwipeAndMatchOverGRPC(t *testing.T) {
	ctx := context.Background()
	client, env := setupClient(t)
	a := dbtest.NewUser(t, env.App.DB)
	b := dbtest.NewUser(t, env.App.DB)

	resp, err := client.Swipe(ctx, &matching.SwipeRequest{SwiperID: a.ID, SwipedID: b.ID, Direction: "like"})
	require.NoError(t, err)
	assert.True(t, resp.Created)
	assert.False(t, resp.IsMatch)

	count, err := client.UnseenLikesCount(ctx, &matching.UnseenLikesCountRequest{UserID: b.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count.Count)

	pending, err := client.ListPendingLikes(ctx, &matching.ListPendingLikesRequest{UserID: b.ID})
	require.NoError(t, err)
	require.Len(t, pending.Likes, 1)
	assert.Equal(t, a.ID, pending.Likes[0].SwiperID)

	resp, err = client.Swipe(ctx, &matching.SwipeRequest{SwiperID: b.ID, SwipedID: a.ID, Direction: "super_like"})
	require.NoError(t, err)
	assert.True(t, resp.IsMatch)
	require.NotNil(t, resp.Match)
	assert.Less(t, resp.Match.User1ID, resp.Match.User2ID)

	count, err = client.UnseenLikesCount(ctx, &matching.UnseenLikesCountRequest{UserID: b.ID})
	require.NoError(t, err)
	assert.Zero(t, count.Count)

	matches, err := client.ListMatches(ctx, &matching.ListMatchesRequest{UserID: a.ID})
	require.NoError(t, err)
	require.Len(t, matches.Matches, 1)
	assert.Equal(t, resp.Match.ID, matches.Matches[0].ID)
}

func TestDiscoverOverGRPC(t *testing.T) {
	ctx := context.Background()
	client, env := setupClient(t)
	a := dbtest.NewUser(t, env.App.DB)
	b := dbtest.NewUser(t, env.App.DB)

	_, err := client.Discover(ctx, &matching.DiscoverRequest{UserID: a.ID})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	_, err = client.UpdateLocation(ctx, &matching.UpdateLocationRequest{UserID: a.ID, Lat: 40.0, Lon: -75.0})
	require.NoError(t, err)
	loc, err := client.UpdateLocation(ctx, &matching.UpdateLocationRequest{UserID: b.ID, Lat: 40.2, Lon: -75.0})
	require.NoError(t, err)
	assert.False(t, loc.UpdatedAt.IsZero())

	resp, err := client.Discover(ctx, &matching.DiscoverRequest{UserID: a.ID, Limit: 5})
	require.NoError(t, err)
	require.Len(t, resp.Candidates, 1)
	assert.Equal(t, b.ID, resp.Candidates[0].UserID)
	assert.InDelta(t, 22.2, resp.Candidates[0].DistanceKm, 0.3)

	lat := 10.0
	_, err = client.Discover(ctx, &matching.DiscoverRequest{UserID: a.ID, Lat: &lat})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestErrorCodesOverGRPC(t *testing.T) {
	ctx := context.Background()
	client, env := setupClient(t)
	a := dbtest.NewUser(t, env.App.DB)
	b := dbtest.NewUser(t, env.App.DB)
	dbtest.Block(t, env.App.DB, b.ID, a.ID)

	_, err := client.Swipe(ctx, &matching.SwipeRequest{SwiperID: a.ID, SwipedID: b.ID, Direction: "like"})
	st, _ := status.FromError(err)
	assert.Equal(t, codes.PermissionDenied, st.Code())
	assert.Equal(t, "action not allowed", st.Message())

	_, err = client.Swipe(ctx, &matching.SwipeRequest{SwiperID: a.ID, SwipedID: a.ID, Direction: "like"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.Swipe(ctx, &matching.SwipeRequest{SwiperID: a.ID, SwipedID: b.ID, Direction: "meh"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.MarkSeen(ctx, &matching.MarkSeenRequest{UserID: "bad"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestMarkSeenOverGRPC(t *testing.T) {
	ctx := context.Background()
	client, env := setupClient(t)
	a := dbtest.NewUser(t, env.App.DB)
	b := dbtest.NewUser(t, env.App.DB)
	dbtest.Swipe(t, env.App.DB, a.ID, b.ID, db.DirectionLike)

	resp, err := client.MarkSeen(ctx, &matching.MarkSeenRequest{UserID: b.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.Updated)

	count, err := client.UnseenLikesCount(ctx, &matching.UnseenLikesCountRequest{UserID: b.ID})
	require.NoError(t, err)
	assert.Zero(t, count.Count)
}
