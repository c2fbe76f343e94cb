package ephemeris

import (
	"context"
	"math"
	"net"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/signalsfoundry/worldframe/astro"
	"github.com/signalsfoundry/worldframe/coord"
	"github.com/signalsfoundry/worldframe/core"
	"github.com/signalsfoundry/worldframe/internal/logging"
	"github.com/signalsfoundry/worldframe/internal/observability"
	"github.com/signalsfoundry/worldframe/kb"
	"github.com/signalsfoundry/worldframe/timectrl"
)

type ephemerisTestEnv struct {
	ctx       context.Context
	client    *Client
	collector *observability.KernelCollector
	reg       *prometheus.Registry
}

// alignedGraph holds a static Earth root with the Sun and Moon on its +X
// axis, directly above latitude 0, longitude 0.
func alignedGraph(t *testing.T) *core.FrameGraph {
	t.Helper()
	g := core.NewFrameGraph()
	nodes := []core.FrameNode{
		{ID: core.EarthID, Model: core.StaticModel{}, PhysicalRadiusM: core.EarthRadiusM, MassKg: core.EarthMassKg},
		{
			ID:              core.SunID,
			Parent:          core.EarthID,
			Model:           core.StaticModel{Position: coord.FromCartesian(mgl64.Vec3{core.AstronomicalUnitM, 0, 0})},
			PhysicalRadiusM: core.SunRadiusM,
			MassKg:          core.SunMassKg,
		},
		{
			ID:              core.MoonID,
			Parent:          core.EarthID,
			Model:           core.StaticModel{Position: coord.FromCartesian(mgl64.Vec3{core.EarthMoonDistanceM, 0, 0})},
			PhysicalRadiusM: core.MoonRadiusM,
			MassKg:          core.MoonMassKg,
		},
	}
	for _, n := range nodes {
		if err := g.AddFrame(n); err != nil {
			t.Fatalf("AddFrame(%s): %v", n.ID, err)
		}
	}
	return g
}

func newEphemerisTestEnv(t *testing.T) *ephemerisTestEnv {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	store := kb.NewDescriptorStore()
	if err := kb.AddPresets(store); err != nil {
		t.Fatalf("AddPresets: %v", err)
	}
	reg := prometheus.NewRegistry()
	collector, err := observability.NewKernelCollector(reg)
	if err != nil {
		t.Fatalf("NewKernelCollector: %v", err)
	}

	srv := NewServer(alignedGraph(t), store,
		WithLogger(logging.Noop()), WithMetrics(collector), WithMaxSamples(500))

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen: %v", err)
	}
	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(
		RequestIDUnaryServerInterceptor(logging.Noop()),
		TracingUnaryServerInterceptor(),
		collector.UnaryServerInterceptor(),
	))
	RegisterEphemerisServer(grpcServer, srv)
	go func() { _ = grpcServer.Serve(lis) }()
	t.Cleanup(grpcServer.Stop)

	conn, err := grpc.NewClient(lis.Addr().String(),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(RequestIDUnaryClientInterceptor()))
	if err != nil {
		t.Fatalf("grpc.NewClient: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	return &ephemerisTestEnv{ctx: ctx, client: NewClient(conn), collector: collector, reg: reg}
}

func wantCode(t *testing.T, err error, code codes.Code) {
	t.Helper()
	if got := status.Code(err); got != code {
		t.Fatalf("status code = %v (%v), want %v", got, err, code)
	}
}

func TestWorldPoseRoundTrip(t *testing.T) {
	env := newEphemerisTestEnv(t)

	pose, err := env.client.WorldPose(env.ctx, core.SunID, timectrl.Epoch)
	if err != nil {
		t.Fatalf("WorldPose: %v", err)
	}
	if math.Abs(pose.Position.X()-core.AstronomicalUnitM) > 1e-3 || pose.Position.Y() != 0 {
		t.Fatalf("sun position = %v", pose.Position)
	}
	if !pose.Orientation.ApproxEqual(mgl64.Ident3()) {
		t.Fatalf("static orientation = %v, want identity", pose.Orientation)
	}

	if got := testutil.ToFloat64(env.collector.Frames); got != 3 {
		t.Fatalf("kernel_frames = %v, want 3", got)
	}
	if got := testutil.ToFloat64(env.collector.RPCRequests.WithLabelValues("EphemerisService", MethodWorldPose, "OK")); got != 1 {
		t.Fatalf("kernel_requests_total = %v, want 1", got)
	}
}

func TestWorldPoseErrors(t *testing.T) {
	env := newEphemerisTestEnv(t)

	_, err := env.client.WorldPose(env.ctx, "pluto", timectrl.Epoch)
	wantCode(t, err, codes.NotFound)
	if got := testutil.ToFloat64(env.collector.ResolveErrors.WithLabelValues("not_found")); got != 1 {
		t.Fatalf("kernel_resolve_errors_total{not_found} = %v, want 1", got)
	}

	_, err = env.client.Call(env.ctx, MethodWorldPose, map[string]any{"body": "earth"})
	wantCode(t, err, codes.InvalidArgument)

	_, err = env.client.Call(env.ctx, MethodWorldPose, map[string]any{"body": "earth", "time": "soon"})
	wantCode(t, err, codes.InvalidArgument)
}

func TestWorldPointAtSurface(t *testing.T) {
	env := newEphemerisTestEnv(t)

	out, err := env.client.Call(env.ctx, MethodWorldPoint, map[string]any{
		"body":         "earth",
		"time_rfc3339": "2024-04-08T18:00:00Z",
		"lat_deg":      0.0,
		"lon_deg":      0.0,
		"altitude_m":   1000.0,
	})
	if err != nil {
		t.Fatalf("WorldPoint: %v", err)
	}
	f := out.GetFields()
	point, _ := vecFromValue(f["point"])
	if math.Abs(point.X()-1000) > 1e-3 {
		t.Fatalf("point = %v, want 1000 m along +X", point)
	}
	anchor, _ := vecFromValue(f["anchor"])
	if math.Abs(anchor.X()-(core.EarthRadiusM+1000)) > 1e-3 {
		t.Fatalf("anchor = %v", anchor)
	}
	gravity, _ := vecFromValue(f["gravity"])
	if math.Abs(gravity.X()+9.80665) > 1e-9 {
		t.Fatalf("gravity = %v", gravity)
	}
	if alt := f["altitude_m"].GetNumberValue(); math.Abs(alt-1000) > 1e-3 {
		t.Fatalf("altitude = %v", alt)
	}
}

func TestEclipseAndIrradiance(t *testing.T) {
	env := newEphemerisTestEnv(t)

	kind, err := env.client.EclipseType(env.ctx, core.EarthID, 0, 0, timectrl.Epoch)
	if err != nil {
		t.Fatalf("Eclipse: %v", err)
	}
	if kind != astro.EclipseAnnular.String() {
		t.Fatalf("eclipse type = %q, want annular", kind)
	}

	out, err := env.client.Call(env.ctx, MethodSurfaceIrradiance, map[string]any{
		"body": "earth", "time": "0", "lat_deg": 0.0, "lon_deg": 0.0,
	})
	if err != nil {
		t.Fatalf("SurfaceIrradiance: %v", err)
	}
	if total := out.GetFields()["total_wm2"].GetNumberValue(); math.Abs(total-astro.SolarConstantWm2) > 1e-6 {
		t.Fatalf("total irradiance = %v", total)
	}
	if elev := out.GetFields()["sun_elevation_deg"].GetNumberValue(); math.Abs(elev-90) > 1e-6 {
		t.Fatalf("sun elevation = %v", elev)
	}
}

func TestTidesDefaultPerturbers(t *testing.T) {
	env := newEphemerisTestEnv(t)

	out, err := env.client.Call(env.ctx, MethodTides, map[string]any{
		"body": "earth", "time": "0", "lat_deg": 0.0, "lon_deg": 0.0,
	})
	if err != nil {
		t.Fatalf("Tides: %v", err)
	}
	if out.GetFields()["potential_total"].GetNumberValue() <= 0 {
		t.Fatalf("sub-lunar potential should be positive: %v", out)
	}
	if n := len(out.GetFields()["bodies"].GetListValue().GetValues()); n != 2 {
		t.Fatalf("bodies = %d entries, want 2", n)
	}

	_, err = env.client.Call(env.ctx, MethodTides, map[string]any{
		"body": "earth", "time": "0", "lat_deg": 0.0, "lon_deg": 0.0,
		"perturbers": []any{map[string]any{"body": "moon", "mass_kg": 1e22}},
	})
	if err != nil {
		t.Fatalf("Tides with explicit perturbers: %v", err)
	}
}

func TestInsolationLimits(t *testing.T) {
	env := newEphemerisTestEnv(t)

	out, err := env.client.Call(env.ctx, MethodInsolation, map[string]any{
		"body": "earth", "time": "0", "lat_deg": 0.0, "lon_deg": 0.0, "samples": 48.0,
	})
	if err != nil {
		t.Fatalf("Insolation: %v", err)
	}
	// A static Earth does not rotate.
	if daily := out.GetFields()["daily_insolation"].GetNumberValue(); daily != 0 {
		t.Fatalf("daily insolation = %v, want 0", daily)
	}
	if out.GetFields()["illumination"].GetNumberValue() <= 0 {
		t.Fatalf("instantaneous illumination should be positive")
	}

	for _, samples := range []float64{501, -1, 2.5, 1e300, -1e300, math.Inf(1), math.NaN()} {
		_, err = env.client.Call(env.ctx, MethodInsolation, map[string]any{
			"body": "earth", "time": "0", "lat_deg": 0.0, "lon_deg": 0.0, "samples": samples,
		})
		if status.Code(err) != codes.InvalidArgument {
			t.Fatalf("samples=%v: got %v, want InvalidArgument", samples, err)
		}
	}
}

func TestEncodeCoordinateRoundTrip(t *testing.T) {
	env := newEphemerisTestEnv(t)

	compact, err := env.client.EncodeCoordinate(env.ctx, 6_371_000, 51.4779, -0.0015)
	if err != nil {
		t.Fatalf("EncodeCoordinate: %v", err)
	}
	if want := coord.FromDegrees(6_371_000, 51.4779, -0.0015).CompactString(); compact != want {
		t.Fatalf("compact = %s, want %s", compact, want)
	}

	out, err := env.client.Call(env.ctx, MethodEncodeCoordinate, map[string]any{"compact": compact})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if lat := out.GetFields()["lat_deg"].GetNumberValue(); math.Abs(lat-51.4779) > 1e-9 {
		t.Fatalf("decoded lat = %v", lat)
	}

	_, err = env.client.Call(env.ctx, MethodEncodeCoordinate, map[string]any{"compact": "xyz"})
	wantCode(t, err, codes.InvalidArgument)
}

func TestServerWithoutGraph(t *testing.T) {
	srv := NewServer(nil, nil)
	_, err := srv.WorldPose(context.Background(), mustStruct(t, map[string]any{"body": "earth", "time": "0"}))
	wantCode(t, err, codes.FailedPrecondition)
}
