// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"

	"github.com/benbjohnson/clock"
	"github.com/gobuffalo/packr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.uber.org/fx"

	"github.com/devblok/kore/asset"
	"github.com/devblok/kore/core"
	"github.com/devblok/kore/kar"
	"github.com/devblok/kore/render"
	"github.com/devblok/kore/resource"
	"github.com/devblok/kore/scene"
)

type sourceMode struct {
	box bool
}

func newLogger(cfg core.Configuration) (*log.Logger, error) {
	return core.NewLogger(cfg.Log, os.Stderr)
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	return reg
}

func newMetrics(reg *prometheus.Registry) *resource.Metrics {
	return resource.NewMetrics(reg)
}

func newSource(lc fx.Lifecycle, cfg core.Configuration, mode sourceMode, logger *log.Logger) (asset.Source, error) {
	res := cfg.Resource
	switch {
	case res.Archive != "":
		ar, err := kar.OpenFile(res.Archive)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error { return ar.Close() },
		})
		header := ar.Header()
		logger.WithFields(log.Fields{
			"archive": res.Archive,
			"author":  header.Author,
			"version": header.Version,
			"files":   len(header.Index),
		}).Info("Using asset archive")
		return asset.ArchiveSource{Archive: ar}, nil
	case mode.box:
		b := packr.NewBox(res.Root)
		logger.WithField("box", res.Root).Info("Using asset box")
		return asset.BoxSource{Box: &b}, nil
	}
	logger.WithField("root", res.Root).Info("Using asset directory")
	return asset.DirSource{Root: res.Root}, nil
}

func newGroup(cfg core.Configuration, src asset.Source, m *resource.Metrics, logger *log.Logger) *asset.Group {
	return asset.NewGroup(src, asset.GroupConfig{
		Logger:             logger,
		MaxConcurrentLoads: cfg.Resource.MaxConcurrentLoads,
		Metrics:            m,
		ReadyHook: func(kind, name string, err error) {
			if err == nil {
				logger.WithFields(log.Fields{"kind": kind, "name": name}).Info("Loaded")
			}
		},
		FramebufferWidth:  int(cfg.Renderer.ScreenWidth),
		FramebufferHeight: int(cfg.Renderer.ScreenHeight),
	})
}

func newScene(cfg core.Configuration, src asset.Source) (*scene.Scene, error) {
	return scene.Load(src, cfg.Resource.Scene)
}

func newPlanner(g *asset.Group) *render.Planner {
	return render.NewPlanner(g)
}

func newTime(lc fx.Lifecycle, cfg core.Configuration) *core.Time {
	t := core.NewTime(cfg.Time, clock.New())
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			t.Stop()
			return nil
		},
	})
	return t
}

func serveMetrics(lc fx.Lifecycle, cfg core.Configuration, reg *prometheus.Registry, logger *log.Logger) {
	if cfg.Metrics.Address == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: cfg.Metrics.Address, Handler: mux}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			logger.WithField("address", ln.Addr().String()).Info("Serving metrics")
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.WithError(err).Error("Metrics server stopped")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
