// Package config loads kernel and simulator settings with viper: defaults,
// then an optional YAML/JSON/TOML file, then WORLDFRAME_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. WORLDFRAME_GRPC_ADDRESS.
const EnvPrefix = "WORLDFRAME"

// PathEnv names the config file when no path is passed to Load.
const PathEnv = "WORLDFRAME_CONFIG"

var ErrInvalidConfig = errors.New("invalid configuration")

type GRPC struct {
	Address string `mapstructure:"address"`
}

type Metrics struct {
	Address string `mapstructure:"address"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Kernel configures the frame data served by the ephemeris service.
type Kernel struct {
	// FramesFile is a JSON frame graph; empty serves the Sun/Earth/Moon presets.
	FramesFile string `mapstructure:"frames_file"`
	// DescriptorsFile is a JSON body descriptor set; empty uses built-in bodies.
	DescriptorsFile      string `mapstructure:"descriptors_file"`
	MaxInsolationSamples int    `mapstructure:"max_insolation_samples"`
}

// Simulator configures cmd/simulator.
type Simulator struct {
	Start    time.Time     `mapstructure:"start"`
	Tick     time.Duration `mapstructure:"tick"`
	Duration time.Duration `mapstructure:"duration"`
	// ProgressEvery is the simulation time between progress log lines; zero
	// disables them.
	ProgressEvery time.Duration `mapstructure:"progress_every"`
	Mode          string        `mapstructure:"mode"` // realtime | accelerated
	ObserverLat   float64       `mapstructure:"observer_lat_deg"`
	ObserverLon   float64       `mapstructure:"observer_lon_deg"`
}

type Config struct {
	GRPC      GRPC      `mapstructure:"grpc"`
	Metrics   Metrics   `mapstructure:"metrics"`
	Log       Log       `mapstructure:"log"`
	Kernel    Kernel    `mapstructure:"kernel"`
	Simulator Simulator `mapstructure:"simulator"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("grpc.address", ":50061")
	v.SetDefault("metrics.address", ":9090")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("kernel.frames_file", "")
	v.SetDefault("kernel.descriptors_file", "")
	v.SetDefault("kernel.max_insolation_samples", 1440)
	v.SetDefault("simulator.start", "2024-04-08T18:00:00Z")
	v.SetDefault("simulator.tick", "10m")
	v.SetDefault("simulator.duration", "24h")
	v.SetDefault("simulator.progress_every", "6h")
	v.SetDefault("simulator.mode", "accelerated")
	v.SetDefault("simulator.observer_lat_deg", 0.0)
	v.SetDefault("simulator.observer_lon_deg", 0.0)
}

// Load reads configuration. An empty path falls back to $WORLDFRAME_CONFIG;
// when both are empty only defaults and environment apply.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = os.Getenv(PathEnv)
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	hooks := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeHookFunc(time.RFC3339),
		mapstructure.StringToTimeDurationHookFunc(),
	))
	if err := v.Unmarshal(&cfg, hooks); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges that the decoder cannot.
func (c Config) Validate() error {
	if c.Kernel.MaxInsolationSamples <= 0 {
		return fmt.Errorf("%w: kernel.max_insolation_samples must be positive", ErrInvalidConfig)
	}
	if c.Simulator.Tick <= 0 {
		return fmt.Errorf("%w: simulator.tick must be positive", ErrInvalidConfig)
	}
	if c.Simulator.Duration < 0 {
		return fmt.Errorf("%w: simulator.duration must not be negative", ErrInvalidConfig)
	}
	if c.Simulator.ProgressEvery < 0 {
		return fmt.Errorf("%w: simulator.progress_every must not be negative", ErrInvalidConfig)
	}
	switch strings.ToLower(c.Simulator.Mode) {
	case "realtime", "accelerated":
	default:
		return fmt.Errorf("%w: simulator.mode %q", ErrInvalidConfig, c.Simulator.Mode)
	}
	if c.Simulator.ObserverLat < -90 || c.Simulator.ObserverLat > 90 {
		return fmt.Errorf("%w: simulator.observer_lat_deg out of range", ErrInvalidConfig)
	}
	return nil
}
