package server

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"github.com/oggyb/tripmate-match/internal/app/apptest"
	"github.com/oggyb/tripmate-match/internal/db/dbtest"
	"github.com/oggyb/tripmate-match/internal/service/matching"
)

func TestGRPCServer_ServesUntilCancelled(t *testing.T) {
	env := apptest.New(t)
	u := dbtest.NewUser(t, env.App.DB)

	g := NewGRPCServer(env.App.Config, env.App.Logger, matching.NewRegistrar(env.App))
	lis := bufconn.Listen(1 << 20)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- g.serve(ctx, lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	defer conn.Close()

	resp, err := matching.NewClient(conn).UnseenLikesCount(context.Background(), &matching.UnseenLikesCountRequest{UserID: u.ID})
	require.NoError(t, err)
	assert.Zero(t, resp.Count)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestHTTPServer_ShutsDownOnCancel(t *testing.T) {
	env := apptest.New(t)
	cfg := *env.App.Config
	cfg.HTTP.Host = "127.0.0.1"
	cfg.HTTP.Port = "0"

	h := NewHTTPServer(&cfg, env.App.Logger, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
