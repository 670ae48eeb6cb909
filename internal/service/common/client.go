//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/oshokin/dispatch-monitor/internal/address"
	"github.com/oshokin/dispatch-monitor/internal/api/grpc/monitor"
	"github.com/oshokin/dispatch-monitor/internal/config"
)

// Client calls the MonitorService.
type Client struct {
	// conn is the underlying gRPC connection to the monitor server.
	conn *grpc.ClientConn
	// dialOptions are appended to the defaults when connecting.
	dialOptions []grpc.DialOption
	// callTimeout is the default timeout for individual RPC calls.
	callTimeout time.Duration
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithActor attaches the caller identity to every request.
func WithActor(actor *monitor.Actor) Option {
	return func(c *Client) {
		if actor != nil {
			c.dialOptions = append(c.dialOptions, grpc.WithUnaryInterceptor(monitor.ActorClientInterceptor(actor)))
		}
	}
}

// WithDialOptions adds raw gRPC dial options.
func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(c *Client) {
		c.dialOptions = append(c.dialOptions, opts...)
	}
}

// errAddressRequired is returned when a required address value is missing.
var errAddressRequired = errors.New("address must be provided")

// Dial creates a client for the monitor server at address.
// Note: this uses insecure transport credentials; deploy on a trusted network
// or terminate TLS in a proxy.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	client := &Client{
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	dialOptions := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}, client.dialOptions...)

	conn, err := grpc.NewClient(address, dialOptions...)
	if err != nil {
		return nil, fmt.Errorf("dial monitor server: %w", err)
	}

	client.conn = conn

	return client, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// PushPointFrame sends a raw point-status frame.
func (c *Client) PushPointFrame(ctx context.Context, data []byte) (*monitor.AlarmView, error) {
	return c.alarms(ctx, monitor.MethodPushPointFrame, wrapperspb.Bytes(data))
}

// PushGroupFrame sends a raw group-status frame.
func (c *Client) PushGroupFrame(ctx context.Context, data []byte) (*monitor.AlarmView, error) {
	return c.alarms(ctx, monitor.MethodPushGroupFrame, wrapperspb.Bytes(data))
}

// SetLinkState reports whether the device link is up.
func (c *Client) SetLinkState(ctx context.Context, up bool) (*monitor.AlarmView, error) {
	return c.alarms(ctx, monitor.MethodSetLinkState, wrapperspb.Bool(up))
}

// SetPolling starts or stops polling.
func (c *Client) SetPolling(ctx context.Context, on bool) (*monitor.AlarmView, error) {
	return c.alarms(ctx, monitor.MethodSetPolling, wrapperspb.Bool(on))
}

// GetAlarms retrieves the current alarm list.
func (c *Client) GetAlarms(ctx context.Context) (*monitor.AlarmView, error) {
	return c.alarms(ctx, monitor.MethodGetAlarms, new(emptypb.Empty))
}

// Reload asks the server to re-read its group configuration.
func (c *Client) Reload(ctx context.Context) (*monitor.AlarmView, error) {
	return c.alarms(ctx, monitor.MethodReload, new(emptypb.Empty))
}

// GetGroup retrieves the rendered view of a group by its 1-based number.
func (c *Client) GetGroup(ctx context.Context, number uint32) (*structpb.Struct, error) {
	response := new(structpb.Struct)
	if err := c.invoke(ctx, monitor.MethodGetGroup, wrapperspb.UInt32(number), response); err != nil {
		return nil, err
	}

	return response, nil
}

// ResolveAddress encodes a logical target into wire bytes.
func (c *Client) ResolveAddress(ctx context.Context, target address.Target) (group, point byte, err error) {
	response := new(structpb.Struct)
	if err = c.invoke(ctx, monitor.MethodResolveAddress, monitor.TargetStruct(target), response); err != nil {
		return 0, 0, err
	}

	return monitor.DecodeAddress(response)
}

// ReportTarget sends device feedback naming the current target.
func (c *Client) ReportTarget(ctx context.Context, group, point byte) (address.Target, error) {
	response := new(structpb.Struct)
	if err := c.invoke(ctx, monitor.MethodReportTarget, monitor.AddressStruct(group, point), response); err != nil {
		return address.Target{}, err
	}

	return monitor.DecodeTarget(response)
}

// GetTarget returns the last target reported by the device.
func (c *Client) GetTarget(ctx context.Context) (address.Target, error) {
	response := new(structpb.Struct)
	if err := c.invoke(ctx, monitor.MethodGetTarget, new(emptypb.Empty), response); err != nil {
		return address.Target{}, err
	}

	return monitor.DecodeTarget(response)
}

// ResolveVolume validates a volume command on the server and returns its wire encoding.
func (c *Client) ResolveVolume(ctx context.Context, command address.VolumeCommand) (*monitor.VolumeView, error) {
	response := new(structpb.Struct)
	if err := c.invoke(ctx, monitor.MethodResolveVolume, monitor.VolumeStruct(command), response); err != nil {
		return nil, err
	}

	view, err := monitor.DecodeVolumeResolution(response)
	if err != nil {
		return nil, fmt.Errorf("decode %s response: %w", monitor.MethodResolveVolume, err)
	}

	return view, nil
}

// alarms invokes a method that answers with an alarm list.
func (c *Client) alarms(ctx context.Context, method string, request proto.Message) (*monitor.AlarmView, error) {
	response := new(structpb.Struct)
	if err := c.invoke(ctx, method, request, response); err != nil {
		return nil, err
	}

	view, err := monitor.DecodeAlarmView(response)
	if err != nil {
		return nil, fmt.Errorf("decode %s response: %w", method, err)
	}

	return view, nil
}

// invoke performs a unary call with the client's timeout.
func (c *Client) invoke(ctx context.Context, method string, request, response proto.Message) error {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	if err := c.conn.Invoke(callCtx, monitor.FullMethod(method), request, response); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}

	return nil
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
