// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package asset

import (
	"context"

	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"
	"golang.org/x/sync/semaphore"

	"github.com/devblok/kore/resource"
)

// Resource kinds, used as the managers' kind label.
const (
	KindMesh        = "mesh"
	KindShader      = "shader"
	KindTexture     = "texture"
	KindMaterial    = "material"
	KindFramebuffer = "framebuffer"
	KindArmature    = "armature"
)

// GroupConfig configures the managers of a Group.
type GroupConfig struct {
	Logger log.FieldLogger

	// MaxConcurrentLoads bounds background loads across all kinds,
	// zero means unbounded.
	MaxConcurrentLoads int64

	Metrics   *resource.Metrics
	ReadyHook resource.ReadyHook

	FramebufferWidth  int
	FramebufferHeight int
}

// Group holds one manager per resource kind. All managers share one
// counter, so Outstanding tells when everything requested is loaded.
// Like the managers, a Group belongs to a single goroutine.
type Group struct {
	Meshes       *resource.Manager[Mesh]
	Shaders      *resource.Manager[Shader]
	Textures     *resource.Manager[Texture]
	Materials    *resource.Manager[Material]
	Framebuffers *resource.Manager[Framebuffer]
	Armatures    *resource.Manager[Armature]

	counter *resource.Counter
}

// NewGroup creates the managers, loading files from src.
func NewGroup(src Source, cfg GroupConfig) *Group {
	counter := &resource.Counter{}
	opts := []resource.Option{
		resource.WithCounter(counter),
		resource.WithMetrics(cfg.Metrics),
	}
	if cfg.Logger != nil {
		opts = append(opts, resource.WithLogger(cfg.Logger))
	}
	if cfg.MaxConcurrentLoads > 0 {
		opts = append(opts, resource.WithLimiter(semaphore.NewWeighted(cfg.MaxConcurrentLoads)))
	}
	if cfg.ReadyHook != nil {
		opts = append(opts, resource.WithReadyHook(cfg.ReadyHook))
	}

	width, height := cfg.FramebufferWidth, cfg.FramebufferHeight
	if width <= 0 || height <= 0 {
		width, height = 1280, 720
	}

	return &Group{
		Meshes:       resource.NewManager[Mesh](KindMesh, meshConstructor{src: src}, opts...),
		Shaders:      resource.NewManager[Shader](KindShader, shaderConstructor{src: src}, opts...),
		Textures:     resource.NewManager[Texture](KindTexture, textureConstructor{src: src}, opts...),
		Materials:    resource.NewManager[Material](KindMaterial, materialConstructor{src: src}, opts...),
		Framebuffers: resource.NewManager[Framebuffer](KindFramebuffer, framebufferConstructor{width: width, height: height}, opts...),
		Armatures:    resource.NewManager[Armature](KindArmature, armatureConstructor{src: src}, opts...),
		counter:      counter,
	}
}

// Outstanding is the number of loads not finished yet, across all kinds.
func (g *Group) Outstanding() int {
	return g.counter.Value()
}

// Loaded reports whether no load is outstanding.
func (g *Group) Loaded() bool {
	return g.counter.Idle()
}

// KindStats is a snapshot of one manager.
type KindStats struct {
	Kind    string
	Slots   int
	Pending int
}

// Stats returns one entry per kind, in a fixed order.
func (g *Group) Stats() []KindStats {
	return []KindStats{
		stats(g.Meshes),
		stats(g.Shaders),
		stats(g.Textures),
		stats(g.Materials),
		stats(g.Framebuffers),
		stats(g.Armatures),
	}
}

func stats[T any](m *resource.Manager[T]) KindStats {
	return KindStats{Kind: m.Kind(), Slots: m.Len(), Pending: m.Pending()}
}

// Wait blocks until every requested resource is loaded or ctx is done.
// Failed loads are combined into the returned error.
func (g *Group) Wait(ctx context.Context) error {
	var err error
	for _, wait := range []func(context.Context) error{
		g.Meshes.WaitAll,
		g.Shaders.WaitAll,
		g.Textures.WaitAll,
		g.Materials.WaitAll,
		g.Framebuffers.WaitAll,
		g.Armatures.WaitAll,
	} {
		if werr := wait(ctx); werr != nil {
			err = multierr.Append(err, werr)
			if ctx.Err() != nil {
				return err
			}
		}
	}
	return err
}
