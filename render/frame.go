// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package render

import (
	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/devblok/kore/asset"
)

// BoundSampler is a material sampler with its resource resolved.
type BoundSampler struct {
	Texture     *asset.Texture
	Framebuffer *asset.Framebuffer
	Attachment  asset.Attachment
}

// DrawItem is one object ready to be drawn.
type DrawItem struct {
	Object   uuid.UUID
	Name     string
	Mesh     *asset.Mesh
	Material *asset.Material
	Armature *asset.Armature
	Samplers map[string]BoundSampler

	Model glm.Mat4
	MVP   glm.Mat4
}

// Pass groups the items drawn with one shader.
type Pass struct {
	Shader *asset.Shader
	Items  []DrawItem
}

// Frame is the result of planning one frame.
type Frame struct {
	View       glm.Mat4
	Projection glm.Mat4

	// Passes are sorted by shader name.
	Passes []Pass

	// Drawn counts the objects in Passes.
	Drawn int

	// NotLoaded counts objects skipped because a resource is still loading.
	NotLoaded int

	// Failed counts objects skipped because a resource failed to load.
	Failed int

	// Outstanding is the number of loads still running when the frame
	// was planned.
	Outstanding int

	// Err combines the load errors met during the frame, one per resource.
	Err error
}

// Skipped is the number of objects that were not drawn.
func (f *Frame) Skipped() int {
	return f.NotLoaded + f.Failed
}

// Complete reports whether the frame drew everything and no load is
// running anymore.
func (f *Frame) Complete() bool {
	return f.Skipped() == 0 && f.Outstanding == 0
}
