package ephemeris

import (
	"context"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/signalsfoundry/worldframe/core"
	"github.com/signalsfoundry/worldframe/model"
	"github.com/signalsfoundry/worldframe/timectrl"
)

// Client calls EphemerisService over any gRPC connection.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Call invokes method with the given request fields.
func (c *Client) Call(ctx context.Context, method string, fields map[string]any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	req, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod(method), req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// WorldPose fetches the absolute pose of body at t.
func (c *Client) WorldPose(ctx context.Context, body model.BodyID, t timectrl.SimTime) (core.Pose, error) {
	out, err := c.Call(ctx, MethodWorldPose, map[string]any{
		"body": string(body),
		"time": t.String(),
	})
	if err != nil {
		return core.Pose{}, err
	}

	pos, err := vecFromValue(out.GetFields()["position"])
	if err != nil {
		return core.Pose{}, err
	}
	values := out.GetFields()["orientation_rows"].GetListValue().GetValues()
	if len(values) != 3 {
		return core.Pose{}, fmt.Errorf("%w: orientation_rows must have 3 rows", ErrBadRequest)
	}
	var rows [3]mgl64.Vec3
	for i, v := range values {
		if rows[i], err = vecFromValue(v); err != nil {
			return core.Pose{}, fmt.Errorf("orientation row %d: %w", i, err)
		}
	}
	return core.Pose{Position: pos, Orientation: mgl64.Mat3FromRows(rows[0], rows[1], rows[2])}, nil
}

// EncodeCoordinate returns the compact text form of a coordinate.
func (c *Client) EncodeCoordinate(ctx context.Context, radiusM, latDeg, lonDeg float64) (string, error) {
	out, err := c.Call(ctx, MethodEncodeCoordinate, map[string]any{
		"radius_m": radiusM,
		"lat_deg":  latDeg,
		"lon_deg":  lonDeg,
	})
	if err != nil {
		return "", err
	}
	return out.GetFields()["compact"].GetStringValue(), nil
}

// EclipseType asks for the eclipse classification seen looking straight up
// from the point (latDeg, lonDeg) on observer.
func (c *Client) EclipseType(ctx context.Context, observer model.BodyID, latDeg, lonDeg float64, t timectrl.SimTime) (string, error) {
	out, err := c.Call(ctx, MethodEclipse, map[string]any{
		"observer": string(observer),
		"lat_deg":  latDeg,
		"lon_deg":  lonDeg,
		"time":     t.String(),
	})
	if err != nil {
		return "", err
	}
	return out.GetFields()["type"].GetStringValue(), nil
}
