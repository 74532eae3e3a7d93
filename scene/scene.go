// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package scene is the scene graph as it is stored on disk. Objects
// reference their resources by name, handles come back unresolved and
// bind to a manager the first time a frame resolves them.
package scene

import (
	"encoding/json"
	"fmt"

	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/devblok/kore/asset"
	"github.com/devblok/kore/resource"
)

// Scene is a named tree of objects.
type Scene struct {
	Name    string    `json:"name"`
	Objects []*Object `json:"objects"`
}

// MeshRender draws a mesh with a material.
type MeshRender struct {
	Mesh     *resource.Handle[asset.Mesh]     `json:"mesh"`
	Material *resource.Handle[asset.Material] `json:"material"`
}

// NewMeshRender references a mesh and a material by name.
func NewMeshRender(mesh, material string) *MeshRender {
	return &MeshRender{
		Mesh:     resource.NewHandle[asset.Mesh](mesh),
		Material: resource.NewHandle[asset.Material](material),
	}
}

// Object is a node of the scene graph.
type Object struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Position glm.Vec3  `json:"position"`

	// Orientation is a quaternion as x, y, z, w.
	Orientation glm.Vec4 `json:"orientation"`
	Scale       glm.Vec3 `json:"scale"`

	MeshRender *MeshRender                      `json:"mesh_render,omitempty"`
	Armature   *resource.Handle[asset.Armature] `json:"armature,omitempty"`
	Children   []*Object                        `json:"children,omitempty"`
}

// NewObject creates an object at the origin with a fresh id.
func NewObject(name string) *Object {
	return &Object{
		ID:          uuid.New(),
		Name:        name,
		Orientation: glm.Vec4{0, 0, 0, 1},
		Scale:       glm.Vec3{1, 1, 1},
	}
}

// Rotation is the object's orientation as a unit quaternion.
func (o *Object) Rotation() glm.Quat {
	q := glm.Quat{W: o.Orientation[3], V: glm.Vec3{o.Orientation[0], o.Orientation[1], o.Orientation[2]}}
	if q.Len() == 0 {
		return glm.QuatIdent()
	}
	return q.Normalize()
}

// Local is the object's transform relative to its parent.
func (o *Object) Local() glm.Mat4 {
	translate := glm.Translate3D(o.Position[0], o.Position[1], o.Position[2])
	scale := glm.Scale3D(o.Scale[0], o.Scale[1], o.Scale[2])
	return translate.Mul4(o.Rotation().Mat4()).Mul4(scale)
}

// Add appends children.
func (o *Object) Add(children ...*Object) {
	o.Children = append(o.Children, children...)
}

// WalkFunc is called for every object with its world transform.
// Returning false skips the object's children.
type WalkFunc func(o *Object, world glm.Mat4) bool

// Walk visits objects depth-first, parents before children.
func (s *Scene) Walk(fn WalkFunc) {
	for _, o := range s.Objects {
		walk(o, glm.Ident4(), fn)
	}
}

func walk(o *Object, parent glm.Mat4, fn WalkFunc) {
	world := parent.Mul4(o.Local())
	if !fn(o, world) {
		return
	}
	for _, c := range o.Children {
		walk(c, world, fn)
	}
}

// Find returns the object with a given id.
func (s *Scene) Find(id uuid.UUID) (*Object, bool) {
	var found *Object
	s.Walk(func(o *Object, _ glm.Mat4) bool {
		if o.ID == id {
			found = o
		}
		return found == nil
	})
	return found, found != nil
}

// Decode parses a stored scene. Objects without an id get a fresh one,
// objects without a scale get unit scale.
func Decode(data []byte) (*Scene, error) {
	var s Scene
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("scene: %w", err)
	}
	seen := make(map[uuid.UUID]struct{})
	var err error
	s.Walk(func(o *Object, _ glm.Mat4) bool {
		if o.ID == uuid.Nil {
			o.ID = uuid.New()
		}
		if _, dup := seen[o.ID]; dup && err == nil {
			err = fmt.Errorf("scene %s: duplicate object id %s", s.Name, o.ID)
		}
		seen[o.ID] = struct{}{}
		if o.Scale == (glm.Vec3{}) {
			o.Scale = glm.Vec3{1, 1, 1}
		}
		if o.MeshRender != nil && (o.MeshRender.Mesh == nil || o.MeshRender.Material == nil) && err == nil {
			err = fmt.Errorf("scene %s: object %s: mesh_render needs a mesh and a material", s.Name, o.Name)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Load reads and decodes a scene from src.
func Load(src asset.Source, name string) (*Scene, error) {
	data, err := src.ReadFile(name)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}
