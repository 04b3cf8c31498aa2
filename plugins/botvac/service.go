package botvac

import (
	context "context"
	"errors"

	"github.com/joshp123/botvac/internal/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// BotvacServer is the server API for botvac.v1.BotvacService.
type BotvacServer interface {
	StartCleaning(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	StopCleaning(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	DockBotvac(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	GetState(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

type service struct {
	controller *Controller
}

func RegisterBotvacService(server grpc.ServiceRegistrar, controller *Controller) {
	server.RegisterService(&ServiceDesc, &service{controller: controller})
}

func (s *service) StartCleaning(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	return s.run(ctx, OperationStart)
}

func (s *service) StopCleaning(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	return s.run(ctx, OperationStop)
}

func (s *service) DockBotvac(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	return s.run(ctx, OperationDock)
}

func (s *service) GetState(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	if s.controller == nil {
		return nil, status.Error(codes.FailedPrecondition, "botvac not configured")
	}
	state, err := s.controller.State(ctx)
	if err != nil {
		return nil, mapOperationError(err)
	}
	out, err := stateStruct(state)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode state: %v", err)
	}
	return out, nil
}

func (s *service) run(ctx context.Context, op Operation) (*emptypb.Empty, error) {
	if s.controller == nil {
		return nil, status.Error(codes.FailedPrecondition, "botvac not configured")
	}
	if err := s.controller.Run(ctx, op); err != nil {
		return nil, mapOperationError(err)
	}
	return &emptypb.Empty{}, nil
}

func stateStruct(state DeviceState) (*structpb.Struct, error) {
	view := NewStateView(state)
	available := make([]any, 0, len(view.Available))
	for _, cmd := range view.Available {
		available = append(available, cmd)
	}
	return structpb.NewStruct(map[string]any{
		"device":             view.Device,
		"state":              view.State,
		"action":             view.Action,
		"charge":             view.Charge,
		"is_charging":        view.IsCharging,
		"is_docked":          view.IsDocked,
		"available_commands": available,
	})
}

// mapOperationError converts a sequencer failure into a gRPC status.
func mapOperationError(err error) error {
	var limitErr rate.RateLimitError
	if errors.As(err, &limitErr) {
		return status.Error(codes.ResourceExhausted, err.Error())
	}

	code := codes.Internal
	switch Outcome(err) {
	case "canceled":
		code = codes.Canceled
		if errors.Is(err, context.DeadlineExceeded) {
			code = codes.DeadlineExceeded
		}
	case "dock_timeout":
		code = codes.DeadlineExceeded
	case "pause_error", "command_error":
		code = codes.Aborted
	case "cannot_start", "cannot_return":
		code = codes.FailedPrecondition
	case "state_error":
		code = codes.Unavailable
	case "no_device":
		code = codes.NotFound
	case "auth_error":
		code = codes.Unauthenticated
	}
	return status.Error(code, err.Error())
}

func unaryHandler(fullMethod string, call func(BotvacServer, context.Context, *emptypb.Empty) (any, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(emptypb.Empty)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(BotvacServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(BotvacServer), ctx, req.(*emptypb.Empty))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// ServiceDesc is the grpc.ServiceDesc for botvac.v1.BotvacService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BotvacServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: methodStartCleaning,
			Handler: unaryHandler(fullMethod(methodStartCleaning), func(s BotvacServer, ctx context.Context, in *emptypb.Empty) (any, error) {
				return s.StartCleaning(ctx, in)
			}),
		},
		{
			MethodName: methodStopCleaning,
			Handler: unaryHandler(fullMethod(methodStopCleaning), func(s BotvacServer, ctx context.Context, in *emptypb.Empty) (any, error) {
				return s.StopCleaning(ctx, in)
			}),
		},
		{
			MethodName: methodDockBotvac,
			Handler: unaryHandler(fullMethod(methodDockBotvac), func(s BotvacServer, ctx context.Context, in *emptypb.Empty) (any, error) {
				return s.DockBotvac(ctx, in)
			}),
		},
		{
			MethodName: methodGetState,
			Handler: unaryHandler(fullMethod(methodGetState), func(s BotvacServer, ctx context.Context, in *emptypb.Empty) (any, error) {
				return s.GetState(ctx, in)
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: protoFile,
}

// ServiceClient calls botvac.v1.BotvacService.
type ServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewServiceClient(cc grpc.ClientConnInterface) *ServiceClient {
	return &ServiceClient{cc: cc}
}

func (c *ServiceClient) StartCleaning(ctx context.Context, opts ...grpc.CallOption) error {
	return c.cc.Invoke(ctx, fullMethod(methodStartCleaning), &emptypb.Empty{}, &emptypb.Empty{}, opts...)
}

func (c *ServiceClient) StopCleaning(ctx context.Context, opts ...grpc.CallOption) error {
	return c.cc.Invoke(ctx, fullMethod(methodStopCleaning), &emptypb.Empty{}, &emptypb.Empty{}, opts...)
}

func (c *ServiceClient) DockBotvac(ctx context.Context, opts ...grpc.CallOption) error {
	return c.cc.Invoke(ctx, fullMethod(methodDockBotvac), &emptypb.Empty{}, &emptypb.Empty{}, opts...)
}

func (c *ServiceClient) GetState(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod(methodGetState), &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
