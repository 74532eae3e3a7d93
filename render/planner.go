// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package render turns a scene into per-frame draw passes. Resources are
// resolved without blocking, objects whose resources are not loaded yet
// are skipped until a later frame.
package render

import (
	"fmt"
	"sort"

	glm "github.com/go-gl/mathgl/mgl32"
	"go.uber.org/multierr"

	"github.com/devblok/kore/asset"
	"github.com/devblok/kore/resource"
	"github.com/devblok/kore/scene"
)

// Planner resolves scene objects against a group of managers. It must
// be used from the goroutine that owns the group.
type Planner struct {
	group *asset.Group
}

// NewPlanner creates a Planner over g.
func NewPlanner(g *asset.Group) *Planner {
	return &Planner{group: g}
}

type status int

const (
	statusReady status = iota
	statusLoading
	statusFailed
)

// frameState collects the results while one frame is planned.
type frameState struct {
	frame    Frame
	reported map[string]struct{}
}

func (fs *frameState) fail(key string, err error) {
	if _, ok := fs.reported[key]; ok {
		return
	}
	fs.reported[key] = struct{}{}
	fs.frame.Err = multierr.Append(fs.frame.Err, err)
}

// check folds one resolve result into the object's status.
func check[T any](fs *frameState, st *status, kind string, h *resource.Handle[T], v *T, err error) {
	switch {
	case err != nil:
		fs.fail(kind+"/"+h.Name(), err)
		*st = statusFailed
	case v == nil && *st == statusReady:
		*st = statusLoading
	}
}

// Plan builds the passes for one frame. Every resource of every object
// is resolved, so the first frame requests all of them at once.
func (p *Planner) Plan(camera Camera, sc *scene.Scene) Frame {
	fs := &frameState{reported: make(map[string]struct{})}
	fs.frame.View = camera.View()
	fs.frame.Projection = camera.Projection()
	viewProjection := fs.frame.Projection.Mul4(fs.frame.View)

	passes := make(map[string]*Pass)
	sc.Walk(func(o *scene.Object, world glm.Mat4) bool {
		if o.MeshRender == nil {
			return true
		}
		item, shader, st := p.resolve(fs, o)
		switch st {
		case statusLoading:
			fs.frame.NotLoaded++
			return true
		case statusFailed:
			fs.frame.Failed++
			return true
		}

		item.Model = world
		item.MVP = viewProjection.Mul4(world)
		pass, ok := passes[shader.Name]
		if !ok {
			pass = &Pass{Shader: shader}
			passes[shader.Name] = pass
		}
		pass.Items = append(pass.Items, item)
		fs.frame.Drawn++
		return true
	})

	names := make([]string, 0, len(passes))
	for name := range passes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		pass := passes[name]
		sort.SliceStable(pass.Items, func(i, j int) bool {
			return pass.Items[i].Material.Name < pass.Items[j].Material.Name
		})
		fs.frame.Passes = append(fs.frame.Passes, *pass)
	}

	fs.frame.Outstanding = p.group.Outstanding()
	return fs.frame
}

func (p *Planner) resolve(fs *frameState, o *scene.Object) (DrawItem, *asset.Shader, status) {
	g := p.group
	st := statusReady
	item := DrawItem{Object: o.ID, Name: o.Name}

	mr := o.MeshRender
	mesh, err := mr.Mesh.Resolve(g.Meshes)
	check(fs, &st, asset.KindMesh, mr.Mesh, mesh, err)
	item.Mesh = mesh

	if o.Armature != nil {
		arm, err := o.Armature.Resolve(g.Armatures)
		check(fs, &st, asset.KindArmature, o.Armature, arm, err)
		item.Armature = arm
	}

	material, err := mr.Material.Resolve(g.Materials)
	check(fs, &st, asset.KindMaterial, mr.Material, material, err)
	if material == nil {
		return item, nil, st
	}
	item.Material = material
	if material.Shader == nil {
		fs.fail(asset.KindMaterial+"/"+material.Name, fmt.Errorf("material %s has no shader", material.Name))
		return item, nil, statusFailed
	}

	shader, err := material.Shader.Resolve(g.Shaders)
	check(fs, &st, asset.KindShader, material.Shader, shader, err)

	item.Samplers = make(map[string]BoundSampler, len(material.Samplers))
	for _, name := range material.SamplerNames() {
		s := material.Samplers[name]
		bound := BoundSampler{Attachment: s.Attachment}
		switch {
		case s.Image != nil:
			tex, err := s.Image.Resolve(g.Textures)
			check(fs, &st, asset.KindTexture, s.Image, tex, err)
			bound.Texture = tex
		case s.Framebuffer != nil:
			fb, err := s.Framebuffer.ResolveNow(g.Framebuffers)
			check(fs, &st, asset.KindFramebuffer, s.Framebuffer, fb, err)
			bound.Framebuffer = fb
		}
		item.Samplers[name] = bound
	}
	return item, shader, st
}
