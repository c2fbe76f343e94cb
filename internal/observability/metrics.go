package observability

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// KernelCollector bundles Prometheus metrics for the ephemeris service and
// the frame graph it serves.
type KernelCollector struct {
	gatherer prometheus.Gatherer

	RPCRequests   *prometheus.CounterVec
	RPCDurations  *prometheus.HistogramVec
	Frames        prometheus.Gauge
	ResolveErrors *prometheus.CounterVec
}

// NewKernelCollector registers kernel metrics against reg, defaulting to the
// global Prometheus registry when nil. Registering twice against the same
// registry returns the existing collectors.
func NewKernelCollector(reg prometheus.Registerer) (*KernelCollector, error) {
	reg, gatherer := registryPair(reg)

	requests, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kernel_requests_total",
		Help: "Total number of handled kernel RPCs, labeled by service, method, and gRPC status code.",
	}, []string{"service", "method", "code"}), "kernel_requests_total")
	if err != nil {
		return nil, err
	}

	durations, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kernel_request_duration_seconds",
		Help:    "Kernel RPC latency in seconds.",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5},
	}, []string{"service", "method"}), "kernel_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	frames, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "kernel_frames",
		Help: "Number of frames in the served frame graph.",
	}), "kernel_frames")
	if err != nil {
		return nil, err
	}

	resolveErrors, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kernel_resolve_errors_total",
		Help: "Frame resolution failures, labeled by reason.",
	}, []string{"reason"}), "kernel_resolve_errors_total")
	if err != nil {
		return nil, err
	}

	return &KernelCollector{
		gatherer:      gatherer,
		RPCRequests:   requests,
		RPCDurations:  durations,
		Frames:        frames,
		ResolveErrors: resolveErrors,
	}, nil
}

// UnaryServerInterceptor records request counts and durations for unary RPCs.
func (c *KernelCollector) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		if c == nil {
			return resp, err
		}

		fullMethod := ""
		if info != nil {
			fullMethod = info.FullMethod
		}
		service, method := SplitMethod(fullMethod)

		if c.RPCRequests != nil {
			c.RPCRequests.WithLabelValues(service, method, status.Code(err).String()).Inc()
		}
		if c.RPCDurations != nil {
			c.RPCDurations.WithLabelValues(service, method).Observe(time.Since(start).Seconds())
		}
		return resp, err
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *KernelCollector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetFrameCount updates the frame gauge.
func (c *KernelCollector) SetFrameCount(n int) {
	if c == nil || c.Frames == nil {
		return
	}
	c.Frames.Set(float64(n))
}

// IncResolveError counts one resolution failure under reason.
func (c *KernelCollector) IncResolveError(reason string) {
	if c == nil || c.ResolveErrors == nil {
		return
	}
	if reason == "" {
		reason = "other"
	}
	c.ResolveErrors.WithLabelValues(reason).Inc()
}

// SplitMethod parses a fully-qualified gRPC method name into service and method
// components. It tolerates empty strings and partial paths, returning
// "unknown"/"unknown" when parsing fails.
func SplitMethod(fullMethod string) (string, string) {
	if fullMethod == "" {
		return "unknown", "unknown"
	}
	fullMethod = strings.TrimPrefix(fullMethod, "/")
	parts := strings.Split(fullMethod, "/")
	if len(parts) < 2 {
		return "unknown", "unknown"
	}
	service := parts[len(parts)-2]
	method := parts[len(parts)-1]
	if dot := strings.LastIndex(service, "."); dot >= 0 && dot+1 < len(service) {
		service = service[dot+1:]
	}
	if service == "" {
		service = "unknown"
	}
	if method == "" {
		method = "unknown"
	}
	return service, method
}

func registryPair(reg prometheus.Registerer) (prometheus.Registerer, prometheus.Gatherer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}
	return reg, gatherer
}

// register adds c to reg, returning the already registered collector of the
// same type when one exists.
func register[T prometheus.Collector](reg prometheus.Registerer, c T, name string) (T, error) {
	if err := reg.Register(c); err != nil {
		var zero T
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			return zero, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return zero, err
	}
	return c, nil
}
