package monitor

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/oshokin/dispatch-monitor/internal/address"
	"github.com/oshokin/dispatch-monitor/internal/alarm"
	"github.com/oshokin/dispatch-monitor/internal/domain/station"
	"github.com/oshokin/dispatch-monitor/internal/engine"
	"github.com/oshokin/dispatch-monitor/internal/frame"
	"github.com/oshokin/dispatch-monitor/internal/logger"
)

// ErrInvalidConfig marks a reload that failed on the configuration file.
var ErrInvalidConfig = errors.New("invalid configuration")

// Service abstracts the monitoring operations the transport layer depends on.
type Service interface {
	PushPointFrame(ctx context.Context, data []byte) (*alarm.Report, error)
	PushGroupFrame(ctx context.Context, data []byte) (*alarm.Report, error)
	SetLinkState(ctx context.Context, up bool) (*alarm.Report, error)
	SetPolling(ctx context.Context, on bool) (*alarm.Report, error)
	Alarms(ctx context.Context) (*alarm.Report, error)
	Group(ctx context.Context, slot int) (*station.Group, error)
	ReportTarget(ctx context.Context, group, point byte) (address.Target, error)
	Target(ctx context.Context) (address.Target, error)
	ReloadConfig(ctx context.Context) (*alarm.Report, error)
}

// Server implements the MonitorService gRPC API.
type Server struct {
	// service provides the monitoring logic.
	service Service
}

// NewServer wires the provided service implementation into a gRPC handler.
func NewServer(service Service) *Server {
	return &Server{
		service: service,
	}
}

// PushPointFrame applies a raw point-status frame.
func (s *Server) PushPointFrame(ctx context.Context, req *wrapperspb.BytesValue) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "frame is required")
	}

	return s.report(ctx, "apply point frame", func() (*alarm.Report, error) {
		return s.service.PushPointFrame(ctx, req.GetValue())
	})
}

// PushGroupFrame applies a raw group-status frame.
func (s *Server) PushGroupFrame(ctx context.Context, req *wrapperspb.BytesValue) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "frame is required")
	}

	return s.report(ctx, "apply group frame", func() (*alarm.Report, error) {
		return s.service.PushGroupFrame(ctx, req.GetValue())
	})
}

// SetLinkState records whether the device link is up.
func (s *Server) SetLinkState(ctx context.Context, req *wrapperspb.BoolValue) (*structpb.Struct, error) {
	return s.report(ctx, "set link state", func() (*alarm.Report, error) {
		return s.service.SetLinkState(ctx, req.GetValue())
	})
}

// SetPolling starts or stops polling.
func (s *Server) SetPolling(ctx context.Context, req *wrapperspb.BoolValue) (*structpb.Struct, error) {
	return s.report(ctx, "set polling", func() (*alarm.Report, error) {
		return s.service.SetPolling(ctx, req.GetValue())
	})
}

// GetAlarms returns the current alarm list.
func (s *Server) GetAlarms(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return s.report(ctx, "read alarms", func() (*alarm.Report, error) {
		return s.service.Alarms(ctx)
	})
}

// GetGroup returns a group slot by its 1-based number.
func (s *Server) GetGroup(ctx context.Context, req *wrapperspb.UInt32Value) (*structpb.Struct, error) {
	number := req.GetValue()
	if number == 0 || number > station.MaxGroups {
		return nil, status.Errorf(codes.InvalidArgument, "group number %d out of 1..%d", number, station.MaxGroups)
	}

	slot := int(number) - 1

	group, err := s.service.Group(ctx, slot)
	if err != nil {
		return nil, toStatus(ctx, err, "read group")
	}

	view, err := groupStruct(slot, group)
	if err != nil {
		return nil, status.Error(codes.Internal, "unable to render group")
	}

	return view, nil
}

// ResolveAddress encodes a logical target into its wire byte pair.
func (s *Server) ResolveAddress(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	target, err := DecodeTarget(req)
	if err != nil {
		return nil, toStatus(ctx, err, "decode target")
	}

	group, point, err := address.Resolve(target)
	if err != nil {
		return nil, toStatus(ctx, err, "resolve target")
	}

	return AddressStruct(group, point), nil
}

// ReportTarget decodes device feedback naming the current target.
func (s *Server) ReportTarget(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	group, point, err := DecodeAddress(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	target, err := s.service.ReportTarget(ctx, group, point)
	if err != nil {
		return nil, toStatus(ctx, err, "decode feedback")
	}

	return TargetStruct(target), nil
}

// GetTarget returns the last target reported by the device, for highlighting.
func (s *Server) GetTarget(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	target, err := s.service.Target(ctx)
	if err != nil {
		return nil, toStatus(ctx, err, "read target")
	}

	return TargetStruct(target), nil
}

// ResolveVolume validates a volume command and encodes its target.
// The level is passed through to the unit unchanged.
func (s *Server) ResolveVolume(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	command, err := DecodeVolume(req)
	if err != nil {
		return nil, toStatus(ctx, err, "decode volume command")
	}

	group, point, err := address.Resolve(command.Target())
	if err != nil {
		return nil, toStatus(ctx, err, "resolve volume target")
	}

	return volumeResolutionStruct(command, group, point), nil
}

// Reload re-reads the group and point configuration and rebuilds the state tree.
func (s *Server) Reload(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return s.report(ctx, "reload configuration", func() (*alarm.Report, error) {
		return s.service.ReloadConfig(ctx)
	})
}

// report runs call and renders its alarm report.
func (s *Server) report(ctx context.Context, op string, call func() (*alarm.Report, error)) (*structpb.Struct, error) {
	report, err := call()
	if err != nil {
		return nil, toStatus(ctx, err, op)
	}

	view, err := alarmStruct(report)
	if err != nil {
		logger.ErrorKV(ctx, "Failed to render alarm list", "operation", op, "error", err)

		return nil, status.Error(codes.Internal, "unable to render alarm list")
	}

	return view, nil
}

// toStatus maps domain errors onto gRPC status codes.
func toStatus(ctx context.Context, err error, op string) error {
	switch {
	case errors.Is(err, frame.ErrTruncatedFrame),
		errors.Is(err, frame.ErrMalformedGroupFrame),
		errors.Is(err, address.ErrInvalidTarget),
		errors.Is(err, address.ErrUnknownAddressEncoding),
		errors.Is(err, errMalformedView):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, engine.ErrGroupNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, engine.ErrEngineStopped):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, ErrInvalidConfig):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	default:
		logger.ErrorKV(ctx, "Request failed", "operation", op, "error", err)

		return status.Errorf(codes.Internal, "unable to %s", op)
	}
}
