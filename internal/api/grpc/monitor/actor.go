package monitor

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/oshokin/dispatch-monitor/internal/logger"
)

// Metadata keys carrying the caller identity.
const (
	MetadataHostname = "x-actor-hostname"
	MetadataUsername = "x-actor-username"
)

// Actor identifies the host and user behind a request.
type Actor struct {
	Hostname string
	Username string
}

// String renders the actor as user@host.
func (a *Actor) String() string {
	if a == nil {
		return "unknown"
	}

	return a.Username + "@" + a.Hostname
}

// ActorClientInterceptor attaches actor to every outgoing call.
func ActorClientInterceptor(actor *Actor) grpc.UnaryClientInterceptor {
	return func(
		ctx context.Context,
		method string,
		req, reply any,
		cc *grpc.ClientConn,
		invoker grpc.UnaryInvoker,
		opts ...grpc.CallOption,
	) error {
		ctx = metadata.AppendToOutgoingContext(ctx,
			MetadataHostname, actor.Hostname,
			MetadataUsername, actor.Username,
		)

		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// ActorFromContext extracts the caller identity from incoming metadata.
func ActorFromContext(ctx context.Context) (*Actor, bool) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil, false
	}

	hosts, users := md.Get(MetadataHostname), md.Get(MetadataUsername)
	if len(hosts) == 0 && len(users) == 0 {
		return nil, false
	}

	actor := new(Actor)
	if len(hosts) > 0 {
		actor.Hostname = hosts[0]
	}

	if len(users) > 0 {
		actor.Username = users[0]
	}

	return actor, true
}

// LoggingInterceptor puts a request-scoped logger into the context and logs
// every call with its caller, status code and duration.
func LoggingInterceptor(
	ctx context.Context,
	req any,
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (any, error) {
	actor, _ := ActorFromContext(ctx)
	ctx = logger.WithKV(ctx, "method", info.FullMethod, "actor", actor.String())

	started := time.Now()
	resp, err := handler(ctx, req)
	code := status.Code(err)

	if err != nil {
		logger.WarnKV(ctx, "Request failed", "code", code.String(), "duration", time.Since(started), "error", err)
	} else {
		logger.DebugKV(ctx, "Request served", "duration", time.Since(started))
	}

	return resp, err
}
