package ephemeris

import (
	"context"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/signalsfoundry/worldframe/astro"
	"github.com/signalsfoundry/worldframe/coord"
	"github.com/signalsfoundry/worldframe/core"
	"github.com/signalsfoundry/worldframe/internal/logging"
	"github.com/signalsfoundry/worldframe/internal/observability"
	"github.com/signalsfoundry/worldframe/kb"
	"github.com/signalsfoundry/worldframe/model"
	"github.com/signalsfoundry/worldframe/timectrl"
)

const (
	defaultInsolationSamples = 96
	defaultMaxSamples        = 1440
)

// Server implements EphemerisServer over a frame graph and a descriptor
// store. Each request evaluates against a fresh resolver snapshot, so graph
// edits become visible to the next request.
type Server struct {
	graph      *core.FrameGraph
	store      *kb.DescriptorStore
	log        logging.Logger
	metrics    *observability.KernelCollector
	maxSamples int
}

type Option func(*Server)

func WithLogger(l logging.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

func WithMetrics(c *observability.KernelCollector) Option {
	return func(s *Server) { s.metrics = c }
}

// WithMaxSamples caps the per-request insolation sample count.
func WithMaxSamples(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxSamples = n
		}
	}
}

// NewServer wires a Server. A nil store serves built-in environments only.
func NewServer(graph *core.FrameGraph, store *kb.DescriptorStore, opts ...Option) *Server {
	if store == nil {
		store = kb.NewDescriptorStore()
	}
	s := &Server{
		graph:      graph,
		store:      store,
		log:        logging.Noop(),
		maxSamples: defaultMaxSamples,
	}
	for _, opt := range opts {
		opt(s)
	}
	if graph != nil {
		s.metrics.SetFrameCount(graph.Len())
	}
	return s
}

func (s *Server) resolver() (*core.Resolver, error) {
	if s == nil || s.graph == nil {
		return nil, status.Error(codes.FailedPrecondition, "frame graph is not configured")
	}
	s.metrics.SetFrameCount(s.graph.Len())
	return s.graph.Resolver()
}

// fail logs err, counts resolution failures and converts to a status.
func (s *Server) fail(ctx context.Context, op string, err error) error {
	if reason := resolveReason(err); reason != "" {
		s.metrics.IncResolveError(reason)
	}
	logging.FromContext(ctx, s.log).Warn(ctx, "ephemeris request failed",
		logging.String("op", op), logging.Err(err))
	return ToStatusError(err)
}

// surfaceRequest is the common body/time/coordinate triple.
type surfaceRequest struct {
	body  model.BodyID
	t     timectrl.SimTime
	c     coord.SphericalCoordinate
	space model.WorldSpace
}

func (s *Server) parseSurface(in *structpb.Struct, bodyKey string) (surfaceRequest, error) {
	body, err := bodyField(in, bodyKey, "")
	if err != nil {
		return surfaceRequest{}, err
	}
	t, err := timeField(in)
	if err != nil {
		return surfaceRequest{}, err
	}
	space := s.store.Space(body)
	c, err := coordinateField(in, space)
	if err != nil {
		return surfaceRequest{}, err
	}
	return surfaceRequest{body: body, t: t, c: c, space: space}, nil
}

func (s *Server) WorldPose(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	body, err := bodyField(in, "body", "")
	if err != nil {
		return nil, s.fail(ctx, MethodWorldPose, err)
	}
	t, err := timeField(in)
	if err != nil {
		return nil, s.fail(ctx, MethodWorldPose, err)
	}
	r, err := s.resolver()
	if err != nil {
		return nil, s.fail(ctx, MethodWorldPose, err)
	}

	_, span := startSpan(ctx, "kernel.WorldPose", body)
	pose, err := r.WorldPose(body, t)
	span.End()
	if err != nil {
		return nil, s.fail(ctx, MethodWorldPose, err)
	}

	// Rows, not mgl64's column-major storage order.
	rows := make([]any, 3)
	for i := range rows {
		rows[i] = vecValue(pose.Orientation.Row(i))
	}
	return structpb.NewStruct(map[string]any{
		"body":             string(body),
		"time":             t.String(),
		"julian_day":       t.JulianDay(),
		"position":         vecValue(pose.Position),
		"orientation_rows": rows,
		"distance_m":       pose.Position.Len(),
	})
}

func (s *Server) WorldPoint(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := s.parseSurface(in, "body")
	if err != nil {
		return nil, s.fail(ctx, MethodWorldPoint, err)
	}
	r, err := s.resolver()
	if err != nil {
		return nil, s.fail(ctx, MethodWorldPoint, err)
	}

	_, span := startSpan(ctx, "kernel.WorldPoint", req.body)
	defer span.End()

	point, err := r.WorldPoint(req.body, req.c, req.t, req.space)
	if err != nil {
		return nil, s.fail(ctx, MethodWorldPoint, err)
	}
	anchor, err := r.AnchorPoint(req.body, req.c, req.t)
	if err != nil {
		return nil, s.fail(ctx, MethodWorldPoint, err)
	}
	up, err := r.LocalUp(req.body, req.c, req.t, req.space)
	if err != nil {
		return nil, s.fail(ctx, MethodWorldPoint, err)
	}
	gravity, err := astro.SurfaceGravity(r, req.body, req.c, req.t, s.store.EnvironmentOrDefault(req.body))
	if err != nil {
		return nil, s.fail(ctx, MethodWorldPoint, err)
	}

	return structpb.NewStruct(map[string]any{
		"body":       string(req.body),
		"coordinate": coordValue(req.c),
		"point":      vecValue(point),
		"anchor":     vecValue(anchor),
		"local_up":   vecValue(up),
		"altitude_m": req.space.AltitudeM(req.c),
		"gravity":    vecValue(gravity),
	})
}

func perturbersField(in *structpb.Struct) ([]astro.Perturber, error) {
	v, ok := field(in, "perturbers")
	if !ok {
		sun, err := bodyField(in, "sun", core.SunID)
		if err != nil {
			return nil, err
		}
		moon, err := bodyField(in, "moon", core.MoonID)
		if err != nil {
			return nil, err
		}
		return astro.LunisolarPerturbers(sun, moon), nil
	}
	list := v.GetListValue()
	if list == nil {
		return nil, fmt.Errorf("%w: perturbers must be a list", ErrBadRequest)
	}
	out := make([]astro.Perturber, 0, len(list.GetValues()))
	for i, e := range list.GetValues() {
		entry := e.GetStructValue()
		if entry == nil {
			return nil, fmt.Errorf("%w: perturbers[%d] must be an object", ErrBadRequest, i)
		}
		body, err := bodyField(entry, "body", "")
		if err != nil {
			return nil, err
		}
		mass, err := numberField(entry, "mass_kg", 0)
		if err != nil {
			return nil, err
		}
		out = append(out, astro.Perturber{Body: body, MassKg: mass})
	}
	return out, nil
}

func (s *Server) Tides(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := s.parseSurface(in, "body")
	if err != nil {
		return nil, s.fail(ctx, MethodTides, err)
	}
	perturbers, err := perturbersField(in)
	if err != nil {
		return nil, s.fail(ctx, MethodTides, err)
	}
	r, err := s.resolver()
	if err != nil {
		return nil, s.fail(ctx, MethodTides, err)
	}

	_, span := startSpan(ctx, "kernel.Tides", req.body, attribute.Int("perturbers", len(perturbers)))
	defer span.End()

	pot, err := astro.TidalPotential(r, req.body, req.c, req.t, perturbers)
	if err != nil {
		return nil, s.fail(ctx, MethodTides, err)
	}
	acc, err := astro.TidalAcceleration(r, req.body, req.c, req.t, perturbers)
	if err != nil {
		return nil, s.fail(ctx, MethodTides, err)
	}
	n, err := r.SurfaceNormal(req.body, req.c, req.t)
	if err != nil {
		return nil, s.fail(ctx, MethodTides, err)
	}

	bodies := make([]any, 0, len(pot.Bodies))
	for i := range pot.Bodies {
		bodies = append(bodies, map[string]any{
			"body":         string(pot.Bodies[i].Body),
			"potential":    pot.Bodies[i].Value,
			"acceleration": vecValue(acc.Bodies[i].Value),
		})
	}
	return structpb.NewStruct(map[string]any{
		"potential_total":    pot.Total,
		"acceleration_total": vecValue(acc.Total),
		"tangential":         vecValue(astro.ProjectToTangent(acc.Total, n)),
		"bodies":             bodies,
	})
}

func (s *Server) Insolation(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := s.parseSurface(in, "body")
	if err != nil {
		return nil, s.fail(ctx, MethodInsolation, err)
	}
	sun, err := bodyField(in, "sun", core.SunID)
	if err != nil {
		return nil, s.fail(ctx, MethodInsolation, err)
	}
	n, err := numberField(in, "samples", defaultInsolationSamples)
	if err != nil {
		return nil, s.fail(ctx, MethodInsolation, err)
	}
	if math.IsNaN(n) || n < 0 || n > float64(s.maxSamples) || n != math.Trunc(n) {
		return nil, s.fail(ctx, MethodInsolation,
			fmt.Errorf("%w: samples must be an integer in [0, %d]", ErrBadRequest, s.maxSamples))
	}
	samples := int(n)
	r, err := s.resolver()
	if err != nil {
		return nil, s.fail(ctx, MethodInsolation, err)
	}

	_, span := startSpan(ctx, "kernel.Insolation", req.body, attribute.Int("samples", samples))
	defer span.End()

	daily, err := astro.DailyInsolation(r, req.body, req.c, sun, req.t, samples)
	if err != nil {
		return nil, s.fail(ctx, MethodInsolation, err)
	}
	instant, err := astro.SolarIllumination(r, req.body, req.c, sun, req.t)
	if err != nil {
		return nil, s.fail(ctx, MethodInsolation, err)
	}
	return structpb.NewStruct(map[string]any{
		"daily_insolation": daily,
		"illumination":     instant,
		"samples":          samples,
	})
}

func (s *Server) SurfaceIrradiance(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := s.parseSurface(in, "body")
	if err != nil {
		return nil, s.fail(ctx, MethodSurfaceIrradiance, err)
	}
	sun, err := bodyField(in, "sun", core.SunID)
	if err != nil {
		return nil, s.fail(ctx, MethodSurfaceIrradiance, err)
	}
	r, err := s.resolver()
	if err != nil {
		return nil, s.fail(ctx, MethodSurfaceIrradiance, err)
	}

	_, span := startSpan(ctx, "kernel.SurfaceIrradiance", req.body)
	defer span.End()

	irr, err := astro.SurfaceIrradianceAt(r, req.body, req.c, req.space, sun, req.t)
	if err != nil {
		return nil, s.fail(ctx, MethodSurfaceIrradiance, err)
	}
	elev, err := astro.BodyElevation(r, req.body, req.c, sun, req.t)
	if err != nil {
		return nil, s.fail(ctx, MethodSurfaceIrradiance, err)
	}
	return structpb.NewStruct(map[string]any{
		"direct_wm2":        irr.DirectWm2,
		"diffuse_wm2":       irr.DiffuseWm2,
		"total_wm2":         irr.TotalWm2,
		"sun_elevation_deg": elev,
	})
}

func (s *Server) Eclipse(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := s.parseSurface(in, "observer")
	if err != nil {
		return nil, s.fail(ctx, MethodEclipse, err)
	}
	primary, err := bodyField(in, "primary", core.SunID)
	if err != nil {
		return nil, s.fail(ctx, MethodEclipse, err)
	}
	occluder, err := bodyField(in, "occluder", core.MoonID)
	if err != nil {
		return nil, s.fail(ctx, MethodEclipse, err)
	}
	yaw, err := numberField(in, "yaw_deg", 0)
	if err != nil {
		return nil, s.fail(ctx, MethodEclipse, err)
	}
	pitch, err := numberField(in, "pitch_deg", 90)
	if err != nil {
		return nil, s.fail(ctx, MethodEclipse, err)
	}
	r, err := s.resolver()
	if err != nil {
		return nil, s.fail(ctx, MethodEclipse, err)
	}

	_, span := startSpan(ctx, "kernel.Eclipse", req.body,
		attribute.String("primary", string(primary)), attribute.String("occluder", string(occluder)))
	defer span.End()

	cam := astro.CameraPose{YawRad: mgl64.DegToRad(yaw), PitchRad: mgl64.DegToRad(pitch)}
	res, err := astro.EclipseAt(r, req.body, req.c, req.space, cam, req.t, primary, occluder)
	if err != nil {
		return nil, s.fail(ctx, MethodEclipse, err)
	}
	// Bodies behind the camera or out of depth order report -1.
	sep := res.SeparationRad
	if math.IsInf(sep, 1) {
		sep = -1
	}
	return structpb.NewStruct(map[string]any{
		"type":                res.Type.String(),
		"separation_rad":      sep,
		"primary_radius_rad":  res.PrimaryRadiusRad,
		"occluder_radius_rad": res.OccluderRadiusRad,
	})
}

// EncodeCoordinate converts between the compact text form and degrees.
// With "compact" set it decodes; otherwise radius_m, lat_deg and lon_deg
// are encoded.
func (s *Server) EncodeCoordinate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	compact, err := stringField(in, "compact", "")
	if err != nil {
		return nil, s.fail(ctx, MethodEncodeCoordinate, err)
	}
	var c coord.SphericalCoordinate
	if compact != "" {
		c, err = coord.ParseCompact(compact)
		if err != nil {
			return nil, s.fail(ctx, MethodEncodeCoordinate, err)
		}
	} else {
		radius, err := requireNumber(in, "radius_m")
		if err != nil {
			return nil, s.fail(ctx, MethodEncodeCoordinate, err)
		}
		space := model.WorldSpace{SurfaceRadiusM: radius}
		c, err = coordinateField(in, space)
		if err != nil {
			return nil, s.fail(ctx, MethodEncodeCoordinate, err)
		}
	}
	return structpb.NewStruct(coordValue(c))
}
