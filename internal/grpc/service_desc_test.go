package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/godilite/urbanscore/pkg/grpc/server"
)

func startRankingsServer(t *testing.T, handlers RankingsServer) *RankingsClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)

	srv, err := server.New(
		server.WithListener(lis),
		server.WithLogger(zaptest.NewLogger(t)),
		server.WithLogging(true),
		server.WithRecovery(true),
	)
	require.NoError(t, err)
	srv.RegisterService(ServiceName, func(s *grpc.Server) {
		RegisterRankingsServer(s, handlers)
	})
	srv.Start()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return NewRankingsClient(conn)
}

func TestRankingsService_OverTheWire(t *testing.T) {
	f := newFixture()
	client := startRankingsServer(t, f.handlers)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	resp, err := client.ListRankings(ctx, mustStruct(t, map[string]any{"order": "asc"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "A", "B"}, names(t, resp.GetFields()["neighborhoods"].GetListValue()))

	opened, err := client.OpenSession(ctx, &structpb.Struct{})
	require.NoError(t, err)
	id := opened.GetFields()["session_id"].GetStringValue()

	got, err := client.GetSession(ctx, mustStruct(t, map[string]any{"session_id": id}))
	require.NoError(t, err)
	assert.Equal(t, "ready", sessionState(t, got)["status"].GetStringValue())

	_, err = client.CloseSession(ctx, mustStruct(t, map[string]any{"session_id": id}))
	require.NoError(t, err)
	_, err = client.GetSession(ctx, mustStruct(t, map[string]any{"session_id": id}))
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = client.ListRankings(ctx, mustStruct(t, map[string]any{"profile": "tourist"}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestRankingsService_PanicIsInternal(t *testing.T) {
	client := startRankingsServer(t, panicking{newFixture().handlers})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := client.ListBoroughs(ctx, &structpb.Struct{})
	assert.Equal(t, codes.Internal, status.Code(err))
}

type panicking struct{ *GRPCHandlers }

func (panicking) ListBoroughs(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	panic("boom")
}
