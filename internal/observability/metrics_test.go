package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestUnaryInterceptorRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewKernelCollector(reg)
	if err != nil {
		t.Fatalf("NewKernelCollector: %v", err)
	}

	interceptor := collector.UnaryServerInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: "/worldframe.ephemeris.v1.EphemerisService/WorldPose"}

	_, err = interceptor(context.Background(), struct{}{}, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		time.Sleep(5 * time.Millisecond)
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("interceptor handler returned error: %v", err)
	}

	if got := testutil.ToFloat64(collector.RPCRequests.WithLabelValues("EphemerisService", "WorldPose", "OK")); got != 1 {
		t.Fatalf("kernel_requests_total = %v, want 1", got)
	}
	if count := histogramSampleCount(t, reg, "kernel_request_duration_seconds", map[string]string{
		"service": "EphemerisService",
		"method":  "WorldPose",
	}); count != 1 {
		t.Fatalf("kernel_request_duration_seconds sample_count = %d, want 1", count)
	}
}

func TestUnaryInterceptorRecordsErrorCode(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewKernelCollector(reg)
	if err != nil {
		t.Fatalf("NewKernelCollector: %v", err)
	}

	info := &grpc.UnaryServerInfo{FullMethod: "/worldframe.ephemeris.v1.EphemerisService/Eclipse"}
	_, _ = collector.UnaryServerInterceptor()(context.Background(), struct{}{}, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, status.Error(codes.NotFound, "no such frame")
	})

	if got := testutil.ToFloat64(collector.RPCRequests.WithLabelValues("EphemerisService", "Eclipse", "NotFound")); got != 1 {
		t.Fatalf("kernel_requests_total error label = %v, want 1", got)
	}
}

func TestNewKernelCollectorReusesRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewKernelCollector(reg)
	if err != nil {
		t.Fatalf("NewKernelCollector: %v", err)
	}
	second, err := NewKernelCollector(reg)
	if err != nil {
		t.Fatalf("second NewKernelCollector: %v", err)
	}
	first.IncResolveError("cycle")
	if got := testutil.ToFloat64(second.ResolveErrors.WithLabelValues("cycle")); got != 1 {
		t.Fatalf("shared resolve error counter = %v, want 1", got)
	}
}

func TestMetricsHandlerExposesKernelGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewKernelCollector(reg)
	if err != nil {
		t.Fatalf("NewKernelCollector: %v", err)
	}
	collector.SetFrameCount(3)
	collector.IncResolveError("")
	collector.RPCRequests.WithLabelValues("svc", "method", "OK").Inc()
	collector.RPCDurations.WithLabelValues("svc", "method").Observe(0.01)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{
		"kernel_requests_total",
		"kernel_request_duration_seconds",
		"kernel_frames 3",
		`kernel_resolve_errors_total{reason="other"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in /metrics output:\n%s", want, body)
		}
	}
}

func TestSimulatorCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewSimulatorCollector(reg)
	if err != nil {
		t.Fatalf("NewSimulatorCollector: %v", err)
	}
	c.ObserveTick(120, time.Millisecond)
	c.ObserveTick(180, time.Millisecond)
	c.SetEclipseState(2)

	if got := testutil.ToFloat64(c.Ticks); got != 2 {
		t.Fatalf("ticks = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.SimSeconds); got != 180 {
		t.Fatalf("sim seconds = %v, want 180", got)
	}
	if got := testutil.ToFloat64(c.EclipseState); got != 2 {
		t.Fatalf("eclipse state = %v, want 2", got)
	}
	if c.Gatherer() != reg {
		t.Fatalf("Gatherer() should return the registry")
	}

	var nilCollector *SimulatorCollector
	nilCollector.ObserveTick(1, time.Second)
}

func TestSplitMethod(t *testing.T) {
	cases := map[string][2]string{
		"":                            {"unknown", "unknown"},
		"/pkg.Service/Method":         {"Service", "Method"},
		"Service/Method":              {"Service", "Method"},
		"/only":                       {"unknown", "unknown"},
		"/a.b.EphemerisService/Tides": {"EphemerisService", "Tides"},
	}
	for in, want := range cases {
		s, m := SplitMethod(in)
		if s != want[0] || m != want[1] {
			t.Fatalf("SplitMethod(%q) = (%q, %q), want %v", in, s, m, want)
		}
	}
}

func histogramSampleCount(t *testing.T, gatherer prometheus.Gatherer, name string, labels map[string]string) uint64 {
	t.Helper()

	metrics, err := gatherer.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.Metric {
			if matchLabels(m.GetLabel(), labels) && m.GetHistogram() != nil {
				return m.GetHistogram().GetSampleCount()
			}
		}
	}
	return 0
}

func matchLabels(got []*dto.LabelPair, want map[string]string) bool {
	if len(got) < len(want) {
		return false
	}
	matched := 0
	for _, lp := range got {
		if val, ok := want[lp.GetName()]; ok && val == lp.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
