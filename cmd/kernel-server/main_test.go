package main

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/signalsfoundry/worldframe/core"
	"github.com/signalsfoundry/worldframe/internal/config"
	"github.com/signalsfoundry/worldframe/internal/ephemeris"
	"github.com/signalsfoundry/worldframe/internal/logging"
	"github.com/signalsfoundry/worldframe/model"
	"github.com/signalsfoundry/worldframe/timectrl"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	t.Setenv(config.PathEnv, "")
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	cfg.Metrics.Address = ""
	cfg.Log.Level = "warn"
	return cfg
}

func TestKernelServerStartupSmoke(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen: %v", err)
	}
	cfg := testConfig(t)
	log := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	errCh := make(chan error, 1)
	go func() {
		errCh <- run(ctx, cfg, log, lis)
	}()

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("grpc.NewClient: %v", err)
	}
	defer conn.Close()

	pose, err := ephemeris.NewClient(conn).WorldPose(ctx, core.MoonID, timectrl.Epoch)
	if err != nil {
		t.Fatalf("WorldPose: %v", err)
	}
	if d := pose.Position.Len(); d < 1e11 {
		t.Fatalf("preset moon is %v m from the sun, expected about 1 au", d)
	}

	cancel()
	if err := <-errCh; err != nil {
		t.Fatalf("server returned error: %v", err)
	}
}

func TestLoadFramesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frames.json")
	doc := `{"frames": [
		{"id": "earth", "physical_radius_m": 6371000, "static": {"radius_m": 0}},
		{"id": "probe", "parent": "earth", "static": {"radius_m": 7000000, "lat_deg": 0, "lon_deg": 90}}
	]}`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	graph, err := loadFrames(context.Background(), path, logging.Noop())
	if err != nil {
		t.Fatalf("loadFrames: %v", err)
	}
	if graph.Len() != 2 {
		t.Fatalf("frames = %d, want 2", graph.Len())
	}

	if _, err := loadFrames(context.Background(), filepath.Join(t.TempDir(), "missing.json"), logging.Noop()); err == nil {
		t.Fatalf("expected error for missing frames file")
	}
}

func TestLoadDescriptorsDefaultsToPresets(t *testing.T) {
	store, err := loadDescriptors(context.Background(), "", logging.Noop())
	if err != nil {
		t.Fatalf("loadDescriptors: %v", err)
	}
	if len(store.ListBodies()) != 3 {
		t.Fatalf("bodies = %d, want sun, earth and moon", len(store.ListBodies()))
	}
}

func TestSampleFramesFileLoads(t *testing.T) {
	graph, err := loadFrames(context.Background(), filepath.Join("..", "..", "configs", "frames.json"), logging.Noop())
	if err != nil {
		t.Fatalf("loadFrames: %v", err)
	}
	for _, id := range []string{"sun", "earth", "moon"} {
		if _, err := graph.GetFrame(model.BodyID(id)); err != nil {
			t.Fatalf("GetFrame(%s): %v", id, err)
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
	if code := runMain([]string{"-grpc-addr", "127.0.0.1:not-a-port", "-metrics-addr", "-"}); code != 1 {
		t.Fatalf("bad listen address exit code = %d, want 1", code)
	}
}
