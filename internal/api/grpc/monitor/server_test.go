package monitor

import (
	"context"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/oshokin/dispatch-monitor/internal/address"
	"github.com/oshokin/dispatch-monitor/internal/alarm"
	"github.com/oshokin/dispatch-monitor/internal/engine"
	"github.com/oshokin/dispatch-monitor/internal/frame"
	"github.com/oshokin/dispatch-monitor/internal/tree"
)

// engineService adapts an engine to the Service interface with a scripted reload.
type engineService struct {
	*engine.Engine

	// reloadFn handles ReloadConfig.
	reloadFn func(ctx context.Context) (*alarm.Report, error)
}

// ReloadConfig delegates to reloadFn.
func (s *engineService) ReloadConfig(ctx context.Context) (*alarm.Report, error) {
	return s.reloadFn(ctx)
}

// newTestServer runs an engine over a one-group tree until the test ends.
func newTestServer(t *testing.T) (*Server, *engineService) {
	t.Helper()

	tr := tree.New([]tree.GroupConfig{
		{Name: "Север", Points: []string{"Пост 1", "Пост 2"}},
	})
	e := engine.New(alarm.NewMonitor(tr))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)

		_ = e.Run(ctx)
	}()

	t.Cleanup(func() {
		cancel()
		<-done
	})

	svc := &engineService{
		Engine: e,
		reloadFn: func(ctx context.Context) (*alarm.Report, error) {
			return e.Reload(ctx, tree.New([]tree.GroupConfig{{Name: "Юг", Points: []string{"Пост 1"}}}))
		},
	}

	return NewServer(svc), svc
}

// pointFrame builds a single-record point frame for group 1.
func pointFrame(point byte, flags frame.PointFlags) []byte {
	return []byte{0, 0, 1, 1, point, 125, 240, 15, byte(flags >> 8), byte(flags), 0}
}

// TestServer_PushPointFrame renders alarms raised by a frame.
func TestServer_PushPointFrame(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t)

	response, err := s.PushPointFrame(context.Background(), wrapperspb.Bytes(pointFrame(2, frame.PointDI1Short)))
	require.NoError(t, err)

	view, err := DecodeAlarmView(response)
	require.NoError(t, err)
	require.False(t, view.Normal)
	require.Equal(t, "raised", view.Transition)
	require.False(t, view.ActiveSince.IsZero())
	require.Equal(t, []string{"Север Пост 2: АВАРИЯ ВХОД1(КТВ) - ЗАМЫКАНИЕ"}, view.Lines)
	require.Len(t, view.Entries, 1)
	require.Equal(t, 1, view.Entries[0].Source.Group)
	require.Equal(t, 2, view.Entries[0].Source.Point)

	response, err = s.PushPointFrame(context.Background(), wrapperspb.Bytes(pointFrame(2, frame.PointDI1State)))
	require.NoError(t, err)

	view, err = DecodeAlarmView(response)
	require.NoError(t, err)
	require.True(t, view.Normal)
	require.Equal(t, "cleared", view.Transition)
	require.Equal(t, []string{alarm.TextNormal}, view.Lines)
}

// TestServer_InvalidArguments maps malformed input to InvalidArgument.
func TestServer_InvalidArguments(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t)
	ctx := context.Background()

	_, err := s.PushPointFrame(ctx, nil)
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = s.PushPointFrame(ctx, wrapperspb.Bytes([]byte{0, 0, 2, 1, 1}))
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = s.PushGroupFrame(ctx, wrapperspb.Bytes(make([]byte, 100)))
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = s.GetGroup(ctx, wrapperspb.UInt32(0))
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = s.GetGroup(ctx, wrapperspb.UInt32(33))
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = s.ResolveAddress(ctx, &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldKind: structpb.NewStringValue("somewhere"),
	}})
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = s.ReportTarget(ctx, AddressStruct(5, 200))
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}

// TestServer_GetGroup renders a configured group with its points.
func TestServer_GetGroup(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t)
	ctx := context.Background()

	_, err := s.PushPointFrame(ctx, wrapperspb.Bytes(pointFrame(1, frame.PointDI1State|frame.PointSpeakerCheck|frame.PointSpeakerState)))
	require.NoError(t, err)

	response, err := s.GetGroup(ctx, wrapperspb.UInt32(1))
	require.NoError(t, err)

	fields := response.GetFields()
	require.InDelta(t, 1, fields[FieldNumber].GetNumberValue(), 0)
	require.InDelta(t, 2, fields[FieldExpected].GetNumberValue(), 0)
	require.Equal(t, "Север", fields[FieldAttributes].GetStructValue().GetFields()[tree.AttrName].GetStringValue())

	points := fields[FieldPoints].GetListValue().GetValues()
	require.Len(t, points, 2)

	first := points[0].GetStructValue().GetFields()
	require.Equal(t, "Пост 1", first[tree.AttrName].GetStringValue())
	require.Equal(t, "12.5", first[tree.AttrBattery].GetStringValue())
	require.Equal(t, "24.0", first[tree.AttrPower].GetStringValue())
	require.Equal(t, "вкл", first[tree.AttrDI1].GetStringValue())
	require.Equal(t, "исправны", first[tree.AttrSpeaker].GetStringValue())

	empty, err := s.GetGroup(ctx, wrapperspb.UInt32(2))
	require.NoError(t, err)
	require.Empty(t, empty.GetFields()[FieldPoints].GetListValue().GetValues())
}

// TestServer_Addressing round-trips logical targets and wire feedback.
func TestServer_Addressing(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t)
	ctx := context.Background()

	testCases := []struct {
		kind        string
		group       float64
		point       float64
		wantGroupBy float64
		wantPointBy float64
	}{
		{kind: "point", group: 3, point: 7, wantGroupBy: 3, wantPointBy: 7},
		{kind: "group", group: 3, wantGroupBy: 0x83, wantPointBy: 1},
		{kind: "all", wantGroupBy: 1, wantPointBy: 128},
		{kind: "none", wantGroupBy: 0, wantPointBy: 0},
	}

	for _, testCase := range testCases {
		t.Run(testCase.kind, func(t *testing.T) {
			t.Parallel()

			request := &structpb.Struct{Fields: map[string]*structpb.Value{
				FieldKind:  structpb.NewStringValue(testCase.kind),
				FieldGroup: structpb.NewNumberValue(testCase.group),
				FieldPoint: structpb.NewNumberValue(testCase.point),
			}}

			resolved, err := s.ResolveAddress(ctx, request)
			require.NoError(t, err)
			require.InDelta(t, testCase.wantGroupBy, resolved.GetFields()[FieldGroupByte].GetNumberValue(), 0)
			require.InDelta(t, testCase.wantPointBy, resolved.GetFields()[FieldPointByte].GetNumberValue(), 0)

			feedback, err := s.ReportTarget(ctx, resolved)
			require.NoError(t, err)
			require.Equal(t, testCase.kind, feedback.GetFields()[FieldKind].GetStringValue())
		})
	}
}

// TestServer_GetTarget returns the last reported target.
func TestServer_GetTarget(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t)
	ctx := context.Background()

	initial, err := s.GetTarget(ctx, new(emptypb.Empty))
	require.NoError(t, err)

	target, err := DecodeTarget(initial)
	require.NoError(t, err)
	require.Equal(t, address.KindNone, target.Kind)

	_, err = s.ReportTarget(ctx, AddressStruct(0x83, 1))
	require.NoError(t, err)

	current, err := s.GetTarget(ctx, new(emptypb.Empty))
	require.NoError(t, err)

	target, err = DecodeTarget(current)
	require.NoError(t, err)
	require.Equal(t, address.WholeGroup(3), target)

	_, err = s.ReportTarget(ctx, AddressStruct(0x7f, 0x7f))
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	kept, err := s.GetTarget(ctx, new(emptypb.Empty))
	require.NoError(t, err)

	target, err = DecodeTarget(kept)
	require.NoError(t, err)
	require.Equal(t, address.WholeGroup(3), target)
}

// TestServer_ResolveVolume validates volume commands and encodes their target.
func TestServer_ResolveVolume(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t)
	ctx := context.Background()

	testCases := []struct {
		name        string
		command     address.VolumeCommand
		wantCode    codes.Code
		wantGroupBy byte
		wantPointBy byte
	}{
		{
			name:        "point",
			command:     address.VolumeCommand{Group: 3, Point: 7, Level: 200},
			wantCode:    codes.OK,
			wantGroupBy: 3,
			wantPointBy: 7,
		},
		{
			name:        "group",
			command:     address.VolumeCommand{Group: 3, Count: 5, AllInGroup: true, Level: 0},
			wantCode:    codes.OK,
			wantGroupBy: 0x83,
			wantPointBy: 1,
		},
		{
			name:     "zero count",
			command:  address.VolumeCommand{Group: 3, AllInGroup: true, Level: 10},
			wantCode: codes.InvalidArgument,
		},
		{
			name:     "zero point",
			command:  address.VolumeCommand{Group: 3, Level: 10},
			wantCode: codes.InvalidArgument,
		},
		{
			name:     "bad group",
			command:  address.VolumeCommand{Group: 40, Point: 1, Level: 10},
			wantCode: codes.InvalidArgument,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			response, err := s.ResolveVolume(ctx, VolumeStruct(testCase.command))
			require.Equal(t, testCase.wantCode, status.Code(err))

			if testCase.wantCode != codes.OK {
				return
			}

			view, err := DecodeVolumeResolution(response)
			require.NoError(t, err)
			require.Equal(t, testCase.command, view.Command)
			require.Equal(t, testCase.wantGroupBy, view.GroupByte)
			require.Equal(t, testCase.wantPointBy, view.PointByte)
		})
	}

	level := VolumeStruct(address.VolumeCommand{Group: 1, Point: 1})
	level.Fields[FieldLevel] = structpb.NewNumberValue(300)

	_, err := s.ResolveVolume(ctx, level)
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}

// TestServiceDesc_WrongTypes answers Internal instead of panicking on mismatched types.
func TestServiceDesc_WrongTypes(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t)

	var handler grpc.MethodHandler

	for _, method := range serviceDesc.Methods {
		if method.MethodName == MethodGetAlarms {
			handler = method.Handler
		}
	}

	require.NotNil(t, handler)

	decode := func(req any) error {
		_, ok := req.(*emptypb.Empty)
		require.True(t, ok)

		return nil
	}

	_, err := handler("not a server", context.Background(), decode, nil)
	require.Equal(t, codes.Internal, status.Code(err))

	mismatched := func(ctx context.Context, _ any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		require.Equal(t, FullMethod(MethodGetAlarms), info.FullMethod)

		return next(ctx, wrapperspb.Bool(true))
	}

	_, err = handler(s, context.Background(), decode, mismatched)
	require.Equal(t, codes.Internal, status.Code(err))
}

// TestServer_Reload maps reload outcomes.
func TestServer_Reload(t *testing.T) {
	t.Parallel()

	s, svc := newTestServer(t)
	ctx := context.Background()

	response, err := s.Reload(ctx, new(emptypb.Empty))
	require.NoError(t, err)
	require.True(t, response.GetFields()[FieldNormal].GetBoolValue())

	group, err := s.GetGroup(ctx, wrapperspb.UInt32(1))
	require.NoError(t, err)
	require.Equal(t, "Юг", group.GetFields()[FieldAttributes].GetStructValue().GetFields()[tree.AttrName].GetStringValue())

	svc.reloadFn = func(context.Context) (*alarm.Report, error) {
		return nil, fmt.Errorf("%w: no groups", ErrInvalidConfig)
	}

	_, err = s.Reload(ctx, new(emptypb.Empty))
	require.Equal(t, codes.FailedPrecondition, status.Code(err))
}

// TestServer_EngineStopped reports Unavailable once the engine has stopped.
func TestServer_EngineStopped(t *testing.T) {
	t.Parallel()

	e := engine.New(alarm.NewMonitor(tree.New(nil)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, e.Run(ctx))

	s := NewServer(&engineService{Engine: e})

	_, err := s.GetAlarms(context.Background(), new(emptypb.Empty))
	require.Equal(t, codes.Unavailable, status.Code(err))
}

// TestRegister_Bufconn calls the hand-declared service over an in-memory connection.
func TestRegister_Bufconn(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t)

	listener := bufconn.Listen(1 << 20)
	grpcServer := grpc.NewServer()
	Register(grpcServer, s)

	go func() {
		_ = grpcServer.Serve(listener)
	}()

	t.Cleanup(grpcServer.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() { _ = conn.Close() })

	ctx := context.Background()

	link := new(structpb.Struct)
	require.NoError(t, conn.Invoke(ctx, FullMethod(MethodSetPolling), wrapperspb.Bool(true), link))

	view, err := DecodeAlarmView(link)
	require.NoError(t, err)
	require.Equal(t, []string{alarm.TextLinkLoss}, view.Lines)

	require.NoError(t, conn.Invoke(ctx, FullMethod(MethodSetLinkState), wrapperspb.Bool(true), link))

	alarms := new(structpb.Struct)
	require.NoError(t, conn.Invoke(ctx, FullMethod(MethodGetAlarms), new(emptypb.Empty), alarms))

	view, err = DecodeAlarmView(alarms)
	require.NoError(t, err)
	require.True(t, view.Normal)

	err = conn.Invoke(ctx, FullMethod(MethodGetGroup), wrapperspb.UInt32(99), new(structpb.Struct))
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}
