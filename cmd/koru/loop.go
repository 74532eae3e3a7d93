// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"go.uber.org/fx"
	"go.uber.org/multierr"

	"github.com/devblok/kore/asset"
	"github.com/devblok/kore/core"
	"github.com/devblok/kore/render"
	"github.com/devblok/kore/scene"
)

type frameLoop struct {
	cfg     core.Configuration
	log     *log.Logger
	time    *core.Time
	group   *asset.Group
	scene   *scene.Scene
	planner *render.Planner
	status  *statusLine
}

// run plans frames until the scene is complete, cannot complete anymore
// or the load timeout elapses. It owns the group, nothing else touches it
// while it runs. The returned code is the process exit code.
func (l *frameLoop) run(stop <-chan struct{}) int {
	camera := render.DefaultCamera()
	camera.Aspect = float32(l.cfg.Renderer.ScreenWidth) / float32(l.cfg.Renderer.ScreenHeight)
	var deadline <-chan time.Time
	if l.cfg.Resource.LoadTimeout > 0 {
		deadline = l.time.Clock().After(l.cfg.Resource.LoadTimeout)
	}
	reported := make(map[string]struct{})

	for frames := 1; ; frames++ {
		select {
		case <-stop:
			return 0
		case <-deadline:
			l.log.WithField("timeout", l.cfg.Resource.LoadTimeout).Error("Scene did not load in time")
			return 1
		case <-l.time.FpsTicker().C:
		}

		frame := l.planner.Plan(camera, l.scene)
		l.status.update(frame, l.group.Stats())

		for _, err := range multierr.Errors(frame.Err) {
			if _, ok := reported[err.Error()]; ok {
				continue
			}
			reported[err.Error()] = struct{}{}
			l.log.WithError(err).Error("Resource failed to load")
		}

		switch {
		case frame.Complete():
			l.status.done()
			l.log.WithFields(log.Fields{
				"frames":  frames,
				"elapsed": l.time.Elapsed(),
				"drawn":   frame.Drawn,
				"passes":  len(frame.Passes),
			}).Info("Scene loaded")
			return 0
		case frame.NotLoaded == 0 && frame.Outstanding == 0:
			l.status.done()
			l.log.WithField("failed", frame.Failed).Error("Scene cannot load completely")
			return 1
		}
	}
}

func runFrames(lc fx.Lifecycle, sd fx.Shutdowner, cfg core.Configuration, logger *log.Logger,
	t *core.Time, g *asset.Group, sc *scene.Scene, p *render.Planner, status *statusLine) {
	loop := &frameLoop{cfg: cfg, log: logger, time: t, group: g, scene: sc, planner: p, status: status}
	stop := make(chan struct{})
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				code := loop.run(stop)
				if err := sd.Shutdown(fx.ExitCode(code)); err != nil {
					logger.WithError(err).Error("Shutdown failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			close(stop)
			select {
			case <-done:
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		},
	})
}
