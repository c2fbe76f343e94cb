package ephemeris

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/signalsfoundry/worldframe/coord"
	"github.com/signalsfoundry/worldframe/model"
	"github.com/signalsfoundry/worldframe/timectrl"
)

// ErrBadRequest marks a malformed or incomplete request.
var ErrBadRequest = errors.New("bad request")

func field(in *structpb.Struct, key string) (*structpb.Value, bool) {
	if in == nil {
		return nil, false
	}
	v, ok := in.GetFields()[key]
	if !ok || v == nil {
		return nil, false
	}
	if _, isNull := v.GetKind().(*structpb.Value_NullValue); isNull {
		return nil, false
	}
	return v, true
}

func stringField(in *structpb.Struct, key, def string) (string, error) {
	v, ok := field(in, key)
	if !ok {
		return def, nil
	}
	s, isString := v.GetKind().(*structpb.Value_StringValue)
	if !isString {
		return "", fmt.Errorf("%w: %s must be a string", ErrBadRequest, key)
	}
	return s.StringValue, nil
}

func bodyField(in *structpb.Struct, key string, def model.BodyID) (model.BodyID, error) {
	s, err := stringField(in, key, string(def))
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", fmt.Errorf("%w: %s is required", ErrBadRequest, key)
	}
	return model.BodyID(s), nil
}

func numberField(in *structpb.Struct, key string, def float64) (float64, error) {
	v, ok := field(in, key)
	if !ok {
		return def, nil
	}
	n, isNumber := v.GetKind().(*structpb.Value_NumberValue)
	if !isNumber {
		return 0, fmt.Errorf("%w: %s must be a number", ErrBadRequest, key)
	}
	return n.NumberValue, nil
}

func requireNumber(in *structpb.Struct, key string) (float64, error) {
	if _, ok := field(in, key); !ok {
		return 0, fmt.Errorf("%w: %s is required", ErrBadRequest, key)
	}
	return numberField(in, key, 0)
}

// timeField reads "time" as decimal nanoseconds since the epoch, or
// "time_rfc3339" as a UTC timestamp.
func timeField(in *structpb.Struct) (timectrl.SimTime, error) {
	if s, err := stringField(in, "time", ""); err != nil {
		return timectrl.SimTime{}, err
	} else if s != "" {
		t, err := timectrl.ParseSimTime(s)
		if err != nil {
			return timectrl.SimTime{}, fmt.Errorf("%w: %v", ErrBadRequest, err)
		}
		return t, nil
	}
	s, err := stringField(in, "time_rfc3339", "")
	if err != nil {
		return timectrl.SimTime{}, err
	}
	if s == "" {
		return timectrl.SimTime{}, fmt.Errorf("%w: time or time_rfc3339 is required", ErrBadRequest)
	}
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return timectrl.SimTime{}, fmt.Errorf("%w: time_rfc3339: %v", ErrBadRequest, err)
	}
	return timectrl.FromTime(ts), nil
}

// coordinateField reads "coordinate" in compact hex form, or lat_deg and
// lon_deg with an optional altitude_m above the body's surface radius.
func coordinateField(in *structpb.Struct, space model.WorldSpace) (coord.SphericalCoordinate, error) {
	compact, err := stringField(in, "coordinate", "")
	if err != nil {
		return coord.SphericalCoordinate{}, err
	}
	if compact != "" {
		return coord.ParseCompact(compact)
	}

	lat, err := requireNumber(in, "lat_deg")
	if err != nil {
		return coord.SphericalCoordinate{}, err
	}
	lon, err := requireNumber(in, "lon_deg")
	if err != nil {
		return coord.SphericalCoordinate{}, err
	}
	alt, err := numberField(in, "altitude_m", 0)
	if err != nil {
		return coord.SphericalCoordinate{}, err
	}
	if lat < -90 || lat > 90 {
		return coord.SphericalCoordinate{}, fmt.Errorf("%w: lat_deg %v out of range", ErrBadRequest, lat)
	}
	return coord.FromDegrees(space.SurfaceRadiusM+alt, lat, lon), nil
}

func vecValue(v mgl64.Vec3) []any {
	return []any{v[0], v[1], v[2]}
}

func vecFromValue(v *structpb.Value) (mgl64.Vec3, error) {
	list := v.GetListValue().GetValues()
	if len(list) != 3 {
		return mgl64.Vec3{}, fmt.Errorf("%w: expected a 3-vector", ErrBadRequest)
	}
	var out mgl64.Vec3
	for i, e := range list {
		out[i] = e.GetNumberValue()
	}
	return out, nil
}

func coordValue(c coord.SphericalCoordinate) map[string]any {
	return map[string]any{
		"compact":  c.CompactString(),
		"radius_m": c.RadiusM(),
		"lat_deg":  c.LatDegrees(),
		"lon_deg":  c.LonDegrees(),
	}
}
