// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Command koru loads a scene and plans frames until every resource the
// scene needs is loaded, reporting progress as it goes.
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/fx"

	"github.com/devblok/kore/core"
)

var (
	envFile = flag.String("env", "", "load configuration variables from this .env file")
	root    = flag.String("root", "", "asset directory, overrides KORE_ASSET_ROOT")
	archive = flag.String("archive", "", "kar archive with the assets, overrides KORE_ASSET_ARCHIVE")
	box     = flag.Bool("box", false, "read assets from the packr box of the asset directory")
	sceneF  = flag.String("scene", "", "scene to load, overrides KORE_SCENE")
	metrics = flag.String("metrics", "", "address to serve /metrics on, overrides KORE_METRICS_ADDR")
	fps     = flag.Int("fps", -1, "frames per second, overrides KORE_FPS")
)

func main() {
	flag.Parse()

	var files []string
	if *envFile != "" {
		files = append(files, *envFile)
	}
	cfg, err := core.LoadConfiguration(files...)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if *root != "" {
		cfg.Resource.Root = *root
	}
	if *archive != "" {
		cfg.Resource.Archive = *archive
	}
	if *sceneF != "" {
		cfg.Resource.Scene = *sceneF
	}
	if *metrics != "" {
		cfg.Metrics.Address = *metrics
	}
	if *fps >= 0 {
		cfg.Time.FramesPerSecond = *fps
	}

	fx.New(
		fx.NopLogger,
		fx.Supply(cfg, sourceMode{box: *box}),
		fx.Provide(
			newLogger,
			newRegistry,
			newMetrics,
			newSource,
			newGroup,
			newScene,
			newPlanner,
			newTime,
			newStatusLine,
		),
		fx.Invoke(serveMetrics, runFrames),
	).Run()
}
