package monitor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// TestActorFromContext reads the caller identity from incoming metadata.
func TestActorFromContext(t *testing.T) {
	t.Parallel()

	_, ok := ActorFromContext(context.Background())
	require.False(t, ok)

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(
		MetadataHostname, "console-2",
		MetadataUsername, "operator",
	))

	actor, ok := ActorFromContext(ctx)
	require.True(t, ok)
	require.Equal(t, "operator@console-2", actor.String())

	var missing *Actor
	require.Equal(t, "unknown", missing.String())
}

// TestActorClientInterceptor appends the actor to outgoing metadata.
func TestActorClientInterceptor(t *testing.T) {
	t.Parallel()

	interceptor := ActorClientInterceptor(&Actor{Hostname: "console-1", Username: "duty"})

	var outgoing metadata.MD

	invoker := func(ctx context.Context, _ string, _, _ any, _ *grpc.ClientConn, _ ...grpc.CallOption) error {
		outgoing, _ = metadata.FromOutgoingContext(ctx)

		return nil
	}

	require.NoError(t, interceptor(context.Background(), FullMethod(MethodGetAlarms), nil, nil, nil, invoker))
	require.Equal(t, []string{"console-1"}, outgoing.Get(MetadataHostname))
	require.Equal(t, []string{"duty"}, outgoing.Get(MetadataUsername))
}

// TestLoggingInterceptor passes results and errors through unchanged.
func TestLoggingInterceptor(t *testing.T) {
	t.Parallel()

	info := &grpc.UnaryServerInfo{FullMethod: FullMethod(MethodGetGroup)}

	resp, err := LoggingInterceptor(context.Background(), "request", info, func(_ context.Context, req any) (any, error) {
		return req, nil
	})
	require.NoError(t, err)
	require.Equal(t, "request", resp)

	failure := status.Error(codes.NotFound, "missing")

	_, err = LoggingInterceptor(context.Background(), nil, info, func(context.Context, any) (any, error) {
		return nil, failure
	})
	require.ErrorIs(t, err, failure)
}
