// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package asset

import (
	"encoding/json"
	"fmt"

	glm "github.com/go-gl/mathgl/mgl32"
)

// Bone is a joint of an armature. Parents are listed before children.
type Bone struct {
	Name     string   `json:"name"`
	Parent   string   `json:"parent,omitempty"`
	Position glm.Vec3 `json:"position"`

	// Rotation is a quaternion as x, y, z, w.
	Rotation glm.Vec4 `json:"rotation"`

	// Bind is the bone's bind pose in armature space, Inverse its inverse.
	// Both are computed when the armature loads.
	Bind    glm.Mat4 `json:"-"`
	Inverse glm.Mat4 `json:"-"`
}

// Local is the bone's transform relative to its parent.
func (b *Bone) Local() glm.Mat4 {
	q := glm.Quat{W: b.Rotation[3], V: glm.Vec3{b.Rotation[0], b.Rotation[1], b.Rotation[2]}}
	if q.Len() == 0 {
		q = glm.QuatIdent()
	}
	return glm.Translate3D(b.Position[0], b.Position[1], b.Position[2]).Mul4(q.Normalize().Mat4())
}

// Armature is a skeleton stored as JSON.
type Armature struct {
	Name  string `json:"name"`
	Bones []Bone `json:"bones"`

	index map[string]int
}

// Clone implements resource.Cloner
func (a *Armature) Clone() *Armature {
	c := &Armature{Name: a.Name, Bones: append([]Bone(nil), a.Bones...)}
	c.buildIndex()
	return c
}

// Bone finds a bone by name.
func (a *Armature) Bone(name string) (*Bone, bool) {
	idx, ok := a.index[name]
	if !ok {
		return nil, false
	}
	return &a.Bones[idx], true
}

func (a *Armature) buildIndex() {
	a.index = make(map[string]int, len(a.Bones))
	for i, b := range a.Bones {
		a.index[b.Name] = i
	}
}

// computeBind fills the bind matrices walking parents first.
func (a *Armature) computeBind() error {
	a.index = make(map[string]int, len(a.Bones))
	for i := range a.Bones {
		b := &a.Bones[i]
		if _, dup := a.index[b.Name]; dup {
			return fmt.Errorf("bone %q defined twice", b.Name)
		}
		bind := b.Local()
		if b.Parent != "" {
			parent, ok := a.index[b.Parent]
			if !ok {
				return fmt.Errorf("bone %q: parent %q is not defined before it", b.Name, b.Parent)
			}
			bind = a.Bones[parent].Bind.Mul4(bind)
		}
		b.Bind = bind
		b.Inverse = bind.Inv()
		a.index[b.Name] = i
	}
	return nil
}

type armatureConstructor struct {
	src Source
}

func (c armatureConstructor) Create(name string) (*Armature, error) {
	return &Armature{Name: name}, nil
}

func (c armatureConstructor) Initialize(a *Armature) error {
	data, err := c.src.ReadFile(a.Name)
	if err != nil {
		return err
	}
	name := a.Name
	if err := json.Unmarshal(data, a); err != nil {
		return fmt.Errorf("armature %s: %w", name, err)
	}
	a.Name = name
	if err := a.computeBind(); err != nil {
		return fmt.Errorf("armature %s: %w", name, err)
	}
	return nil
}
