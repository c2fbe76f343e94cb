// Package ephemeris exposes the frame kernel over gRPC. Messages are
// google.protobuf.Struct values so the service needs no generated code;
// ServiceDesc is registered by hand.
package ephemeris

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "worldframe.ephemeris.v1.EphemerisService"

// Method names.
const (
	MethodWorldPose         = "WorldPose"
	MethodWorldPoint        = "WorldPoint"
	MethodTides             = "Tides"
	MethodInsolation        = "Insolation"
	MethodSurfaceIrradiance = "SurfaceIrradiance"
	MethodEclipse           = "Eclipse"
	MethodEncodeCoordinate  = "EncodeCoordinate"
)

// EphemerisServer is the server API of the ephemeris service.
type EphemerisServer interface {
	WorldPose(context.Context, *structpb.Struct) (*structpb.Struct, error)
	WorldPoint(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Tides(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Insolation(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SurfaceIrradiance(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Eclipse(context.Context, *structpb.Struct) (*structpb.Struct, error)
	EncodeCoordinate(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(EphemerisServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func fullMethod(name string) string { return "/" + ServiceName + "/" + name }

func unaryMethod(name string, call unaryCall) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(EphemerisServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(EphemerisServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc describes EphemerisService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*EphemerisServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod(MethodWorldPose, EphemerisServer.WorldPose),
		unaryMethod(MethodWorldPoint, EphemerisServer.WorldPoint),
		unaryMethod(MethodTides, EphemerisServer.Tides),
		unaryMethod(MethodInsolation, EphemerisServer.Insolation),
		unaryMethod(MethodSurfaceIrradiance, EphemerisServer.SurfaceIrradiance),
		unaryMethod(MethodEclipse, EphemerisServer.Eclipse),
		unaryMethod(MethodEncodeCoordinate, EphemerisServer.EncodeCoordinate),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "worldframe/ephemeris/v1/ephemeris.proto",
}

// RegisterEphemerisServer registers srv on s.
func RegisterEphemerisServer(s grpc.ServiceRegistrar, srv EphemerisServer) {
	s.RegisterService(&ServiceDesc, srv)
}
