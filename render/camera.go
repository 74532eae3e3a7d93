// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package render

import (
	glm "github.com/go-gl/mathgl/mgl32"
)

// Camera is a perspective camera looking at a target.
type Camera struct {
	Position glm.Vec3
	Target   glm.Vec3
	Up       glm.Vec3

	// FovY is the vertical field of view in degrees.
	FovY   float32
	Aspect float32
	Near   float32
	Far    float32
}

// DefaultCamera looks at the origin from +z.
func DefaultCamera() Camera {
	return Camera{
		Position: glm.Vec3{0, 2, 10},
		Up:       glm.Vec3{0, 1, 0},
		FovY:     45,
		Aspect:   16.0 / 9.0,
		Near:     0.1,
		Far:      100,
	}
}

// View is the world to camera transform.
func (c Camera) View() glm.Mat4 {
	up := c.Up
	if up.Len() == 0 {
		up = glm.Vec3{0, 1, 0}
	}
	return glm.LookAtV(c.Position, c.Target, up)
}

// Projection is the camera to clip space transform.
func (c Camera) Projection() glm.Mat4 {
	return glm.Perspective(glm.DegToRad(c.FovY), c.Aspect, c.Near, c.Far)
}
