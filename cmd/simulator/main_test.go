package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/signalsfoundry/worldframe/core"
	"github.com/signalsfoundry/worldframe/internal/config"
	"github.com/signalsfoundry/worldframe/internal/logging"
	"github.com/signalsfoundry/worldframe/internal/observability"
	"github.com/signalsfoundry/worldframe/kb"
	"github.com/signalsfoundry/worldframe/timectrl"
)

func TestReporterWritesOneLinePerTick(t *testing.T) {
	graph, err := core.NewPresetGraph()
	if err != nil {
		t.Fatalf("NewPresetGraph: %v", err)
	}
	resolver, err := graph.Resolver()
	if err != nil {
		t.Fatalf("Resolver: %v", err)
	}
	store := kb.NewDescriptorStore()
	if err := kb.AddPresets(store); err != nil {
		t.Fatalf("AddPresets: %v", err)
	}
	metrics, err := observability.NewSimulatorCollector(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewSimulatorCollector: %v", err)
	}

	var out bytes.Buffer
	rep := newReporter(resolver, store, 30, -97, &out, logging.Noop(), metrics)

	start := timectrl.FromTime(time.Date(2024, time.April, 8, 18, 0, 0, 0, time.UTC))
	tc := timectrl.NewTimeController(start, timectrl.FromStd(time.Hour), timectrl.Accelerated)
	tc.AddListener(func(st timectrl.SimTime) {
		if err := rep.Tick(context.Background(), st); err != nil {
			t.Errorf("Tick(%v): %v", st, err)
		}
	})
	<-tc.Start(context.Background(), timectrl.FromStd(3*time.Hour))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), out.String())
	}
	if !strings.HasPrefix(lines[0], "[2024-04-08T19:00:00Z]") {
		t.Fatalf("first line = %q", lines[0])
	}
	for _, want := range []string{"JD 2460409.29167", "moon", "tide", "eclipse", "moon lit"} {
		if !strings.Contains(lines[0], want) {
			t.Fatalf("line %q missing %q", lines[0], want)
		}
	}

	if got := rep.Ticks(); got != 3 {
		t.Fatalf("Ticks() = %d, want 3", got)
	}
	if got := testutil.ToFloat64(metrics.Ticks); got != 3 {
		t.Fatalf("kernel_sim_ticks_total = %v, want 3", got)
	}
	if got := testutil.ToFloat64(metrics.SimSeconds); got != start.Add(timectrl.FromStd(3*time.Hour)).Seconds() {
		t.Fatalf("kernel_sim_time_seconds = %v", got)
	}
}

func TestRunStopsAfterDuration(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cfg := config.Simulator{
		Start:    time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		Tick:     30 * time.Minute,
		Duration: 2 * time.Hour,
		Mode:     "accelerated",
	}
	if err := run(ctx, cfg, logging.Noop(), nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	if ctx.Err() != nil {
		t.Fatalf("run did not finish before the deadline")
	}
}

func TestWatchProgressLogsEachMark(t *testing.T) {
	cases := []struct {
		name      string
		tick      time.Duration
		duration  time.Duration
		every     time.Duration
		wantMarks int
	}{
		{"aligned", 10 * time.Minute, 24 * time.Hour, 6 * time.Hour, 4},
		{"tick overshoots the end", 25 * time.Minute, 3 * time.Hour, time.Hour, 3},
		{"disabled", 10 * time.Minute, time.Hour, 0, 0},
	}
	for _, tc := range cases {
		var buf bytes.Buffer
		log := logging.New(logging.Config{Format: "json", Output: &buf})

		ctrl := timectrl.NewTimeController(timectrl.Epoch, timectrl.FromStd(tc.tick), timectrl.Accelerated)
		done := ctrl.Start(context.Background(), timectrl.FromStd(tc.duration))
		got := watchProgress(context.Background(), ctrl, timectrl.FromStd(tc.every), done, log)

		if got != tc.wantMarks {
			t.Fatalf("%s: watchProgress = %d, want %d", tc.name, got, tc.wantMarks)
		}
		if n := strings.Count(buf.String(), "simulation progress"); n != tc.wantMarks {
			t.Fatalf("%s: logged %d progress lines, want %d:\n%s", tc.name, n, tc.wantMarks, buf.String())
		}
	}
}

func TestWatchProgressLogsMarkTimes(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New(logging.Config{Format: "json", Output: &buf})

	ctrl := timectrl.NewTimeController(timectrl.Epoch, timectrl.FromStd(time.Hour), timectrl.Accelerated)
	done := ctrl.Start(context.Background(), timectrl.FromStd(4*time.Hour))
	watchProgress(context.Background(), ctrl, timectrl.FromStd(2*time.Hour), done, log)

	for _, want := range []string{`"sim_time":"1970-01-01T02:00:00Z"`, `"sim_time":"1970-01-01T04:00:00Z"`} {
		if !strings.Contains(buf.String(), want) {
			t.Fatalf("progress log missing %s:\n%s", want, buf.String())
		}
	}
}

func TestRunMainExitCodes(t *testing.T) {
	t.Setenv(config.PathEnv, "")

	if code := runMain([]string{"-no-such-flag"}); code != 2 {
		t.Fatalf("unknown flag exit code = %d, want 2", code)
	}
	if code := runMain([]string{"-config", filepath.Join(t.TempDir(), "missing.yaml")}); code != 2 {
		t.Fatalf("missing config exit code = %d, want 2", code)
	}

	path := filepath.Join(t.TempDir(), "sim.yaml")
	body := "log:\n  level: error\nsimulator:\n  tick: 30m\n  duration: 1h\n  progress_every: 30m\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if code := runMain([]string{"-config", path, "-metrics-addr", "127.0.0.1:0"}); code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
}
