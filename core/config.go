// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gobuffalo/envy"
	"github.com/joho/godotenv"
	"go.uber.org/multierr"
)

// Configuration defines a global engine configuration setting
type Configuration struct {
	Time     TimeConfiguration
	Renderer RendererConfiguration
	Resource ResourceConfiguration
	Log      LogConfiguration
	Metrics  MetricsConfiguration
}

// TimeConfiguration is used to configure time services
type TimeConfiguration struct {
	// FramesPerSecond caps frames per second that is put out
	// To unlimit, set to 0
	FramesPerSecond int

	// EventPollDelay is the event loop period in milliseconds
	EventPollDelay int
}

// RendererConfiguration is used to configure the renderer
type RendererConfiguration struct {
	ScreenWidth  uint32
	ScreenHeight uint32
}

// ResourceConfiguration tells where assets come from and how they load
type ResourceConfiguration struct {
	// Root is a directory assets are read from.
	Root string

	// Archive is a kar archive, used instead of Root when set.
	Archive string

	// Scene is the name of the scene to load.
	Scene string

	// MaxConcurrentLoads bounds background loads, 0 is unbounded.
	MaxConcurrentLoads int64

	// LoadTimeout bounds how long the scene may take to load completely.
	LoadTimeout time.Duration
}

// LogConfiguration configures the logger
type LogConfiguration struct {
	Level  string
	Format string
}

// MetricsConfiguration configures the metrics endpoint
type MetricsConfiguration struct {
	// Address to serve /metrics on, empty disables it.
	Address string
}

// DefaultConfiguration returns the configuration used when nothing is set.
func DefaultConfiguration() Configuration {
	return Configuration{
		Time: TimeConfiguration{
			FramesPerSecond: 60,
			EventPollDelay:  10,
		},
		Renderer: RendererConfiguration{
			ScreenWidth:  800,
			ScreenHeight: 600,
		},
		Resource: ResourceConfiguration{
			Root:               "./assets",
			Scene:              "scene/main.json",
			MaxConcurrentLoads: 4,
			LoadTimeout:        30 * time.Second,
		},
		Log: LogConfiguration{
			Level:  "info",
			Format: "text",
		},
	}
}

// Environment variables read by LoadConfiguration
const (
	EnvFramesPerSecond    = "KORE_FPS"
	EnvEventPollDelay     = "KORE_EVENT_POLL_DELAY"
	EnvScreenWidth        = "KORE_SCREEN_WIDTH"
	EnvScreenHeight       = "KORE_SCREEN_HEIGHT"
	EnvAssetRoot          = "KORE_ASSET_ROOT"
	EnvAssetArchive       = "KORE_ASSET_ARCHIVE"
	EnvScene              = "KORE_SCENE"
	EnvMaxConcurrentLoads = "KORE_MAX_CONCURRENT_LOADS"
	EnvLoadTimeout        = "KORE_LOAD_TIMEOUT"
	EnvLogLevel           = "KORE_LOG_LEVEL"
	EnvLogFormat          = "KORE_LOG_FORMAT"
	EnvMetricsAddress     = "KORE_METRICS_ADDR"
)

// LoadConfiguration loads the given .env files, if any, and overrides the
// defaults with the KORE_* variables. Variables already set in the
// environment win over the files.
func LoadConfiguration(files ...string) (Configuration, error) {
	if len(files) > 0 {
		if err := godotenv.Load(files...); err != nil {
			return Configuration{}, fmt.Errorf("load env: %w", err)
		}
	}
	envy.Reload()

	cfg := DefaultConfiguration()
	var errs error
	getInt := func(key string, def int) int {
		v := envy.Get(key, "")
		if v == "" {
			return def
		}
		num, err := strconv.Atoi(v)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", key, err))
			return def
		}
		return num
	}
	getDuration := func(key string, def time.Duration) time.Duration {
		v := envy.Get(key, "")
		if v == "" {
			return def
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", key, err))
			return def
		}
		return d
	}

	cfg.Time.FramesPerSecond = getInt(EnvFramesPerSecond, cfg.Time.FramesPerSecond)
	cfg.Time.EventPollDelay = getInt(EnvEventPollDelay, cfg.Time.EventPollDelay)
	cfg.Renderer.ScreenWidth = uint32(getInt(EnvScreenWidth, int(cfg.Renderer.ScreenWidth)))
	cfg.Renderer.ScreenHeight = uint32(getInt(EnvScreenHeight, int(cfg.Renderer.ScreenHeight)))
	cfg.Resource.Root = envy.Get(EnvAssetRoot, cfg.Resource.Root)
	cfg.Resource.Archive = envy.Get(EnvAssetArchive, cfg.Resource.Archive)
	cfg.Resource.Scene = envy.Get(EnvScene, cfg.Resource.Scene)
	cfg.Resource.MaxConcurrentLoads = int64(getInt(EnvMaxConcurrentLoads, int(cfg.Resource.MaxConcurrentLoads)))
	cfg.Resource.LoadTimeout = getDuration(EnvLoadTimeout, cfg.Resource.LoadTimeout)
	cfg.Log.Level = envy.Get(EnvLogLevel, cfg.Log.Level)
	cfg.Log.Format = envy.Get(EnvLogFormat, cfg.Log.Format)
	cfg.Metrics.Address = envy.Get(EnvMetricsAddress, cfg.Metrics.Address)

	if err := cfg.Validate(); err != nil {
		errs = multierr.Append(errs, err)
	}
	return cfg, errs
}

// Validate checks the values that cannot be used.
func (c Configuration) Validate() error {
	var errs error
	if c.Time.FramesPerSecond < 0 {
		errs = multierr.Append(errs, fmt.Errorf("frames per second must not be negative, got %d", c.Time.FramesPerSecond))
	}
	if c.Resource.MaxConcurrentLoads < 0 {
		errs = multierr.Append(errs, fmt.Errorf("max concurrent loads must not be negative, got %d", c.Resource.MaxConcurrentLoads))
	}
	if c.Renderer.ScreenWidth == 0 || c.Renderer.ScreenHeight == 0 {
		errs = multierr.Append(errs, fmt.Errorf("invalid screen size %dx%d", c.Renderer.ScreenWidth, c.Renderer.ScreenHeight))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = multierr.Append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	return errs
}
