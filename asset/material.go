// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package asset

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	glm "github.com/go-gl/mathgl/mgl32"

	"github.com/devblok/kore/resource"
)

// Sampler is a texture input of a material. Exactly one of Image and
// Framebuffer is set.
type Sampler struct {
	Image       *resource.Handle[Texture]     `json:"image,omitempty"`
	Framebuffer *resource.Handle[Framebuffer] `json:"framebuffer,omitempty"`
	Attachment  Attachment                    `json:"attachment,omitempty"`
}

// ImageSampler samples a texture file.
func ImageSampler(name string) Sampler {
	return Sampler{Image: resource.NewHandle[Texture](name)}
}

// FramebufferSampler samples an attachment of a framebuffer.
func FramebufferSampler(name string, a Attachment) Sampler {
	return Sampler{Framebuffer: resource.NewHandle[Framebuffer](name), Attachment: a}
}

// Name is the name of the sampled resource.
func (s Sampler) Name() string {
	switch {
	case s.Image != nil:
		return s.Image.Name()
	case s.Framebuffer != nil:
		return s.Framebuffer.Name()
	}
	return ""
}

func (s Sampler) validate() error {
	if (s.Image == nil) == (s.Framebuffer == nil) {
		return errors.New("sampler needs exactly one of image or framebuffer")
	}
	return nil
}

func (s Sampler) clone() Sampler {
	return Sampler{
		Image:       cloneHandle(s.Image),
		Framebuffer: cloneHandle(s.Framebuffer),
		Attachment:  s.Attachment,
	}
}

// Uniform is a value passed to the material's shader. Exactly one
// field is set.
type Uniform struct {
	Int   *int32    `json:"int,omitempty"`
	Float *float32  `json:"float,omitempty"`
	Vec2  *glm.Vec2 `json:"vec2,omitempty"`
	Vec3  *glm.Vec3 `json:"vec3,omitempty"`
	Vec4  *glm.Vec4 `json:"vec4,omitempty"`
}

func (u Uniform) validate() error {
	set := 0
	for _, ok := range []bool{u.Int != nil, u.Float != nil, u.Vec2 != nil, u.Vec3 != nil, u.Vec4 != nil} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("uniform has %d values set", set)
	}
	return nil
}

func (u Uniform) clone() Uniform {
	var c Uniform
	if u.Int != nil {
		v := *u.Int
		c.Int = &v
	}
	if u.Float != nil {
		v := *u.Float
		c.Float = &v
	}
	if u.Vec2 != nil {
		v := *u.Vec2
		c.Vec2 = &v
	}
	if u.Vec3 != nil {
		v := *u.Vec3
		c.Vec3 = &v
	}
	if u.Vec4 != nil {
		v := *u.Vec4
		c.Vec4 = &v
	}
	return c
}

// Material binds a shader to its samplers and uniforms. Materials are
// stored as JSON, references to other resources are written by name.
type Material struct {
	Name     string                   `json:"name"`
	Shader   *resource.Handle[Shader] `json:"shader,omitempty"`
	Samplers map[string]Sampler       `json:"samplers,omitempty"`
	Uniforms map[string]Uniform       `json:"uniforms,omitempty"`
}

// NewMaterial creates an empty material.
func NewMaterial(name string) *Material {
	return &Material{
		Name:     name,
		Samplers: make(map[string]Sampler),
		Uniforms: make(map[string]Uniform),
	}
}

// Clone implements resource.Cloner. The copy has its own handles, so
// resolving them does not touch the original. An owned handle whose
// instance cannot be cloned comes back unbound, naming the same
// resource, and resolves through its manager like any shared handle.
func (m *Material) Clone() *Material {
	c := &Material{
		Name:     m.Name,
		Shader:   cloneHandle(m.Shader),
		Samplers: make(map[string]Sampler, len(m.Samplers)),
		Uniforms: make(map[string]Uniform, len(m.Uniforms)),
	}
	for k, v := range m.Samplers {
		c.Samplers[k] = v.clone()
	}
	for k, v := range m.Uniforms {
		c.Uniforms[k] = v.clone()
	}
	return c
}

// SetUniform adds or replaces a uniform value.
func (m *Material) SetUniform(name string, u Uniform) error {
	if err := u.validate(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if m.Uniforms == nil {
		m.Uniforms = make(map[string]Uniform)
	}
	m.Uniforms[name] = u
	return nil
}

// SamplerNames lists the sampler slots in order.
func (m *Material) SamplerNames() []string {
	names := make([]string, 0, len(m.Samplers))
	for k := range m.Samplers {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Validate checks that every sampler and uniform is well formed.
func (m *Material) Validate() error {
	if m.Shader == nil {
		return errors.New("material has no shader")
	}
	for _, k := range m.SamplerNames() {
		if err := m.Samplers[k].validate(); err != nil {
			return fmt.Errorf("sampler %s: %w", k, err)
		}
	}
	for k, u := range m.Uniforms {
		if err := u.validate(); err != nil {
			return fmt.Errorf("uniform %s: %w", k, err)
		}
	}
	return nil
}

// MarshalIndent encodes the material the way it is stored.
func (m *Material) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

// cloneHandle copies h, falling back to an unbound handle with the same
// name when h owns an instance that is not a resource.Cloner.
func cloneHandle[T any](h *resource.Handle[T]) *resource.Handle[T] {
	if h == nil {
		return nil
	}
	c, err := h.Clone()
	if err != nil {
		return resource.NewHandle[T](h.Name())
	}
	return c
}

type materialConstructor struct {
	src Source
}

func (c materialConstructor) Create(name string) (*Material, error) {
	return NewMaterial(name), nil
}

// Initialize reads the stored material. The requested name wins over
// the name written in the file.
func (c materialConstructor) Initialize(m *Material) error {
	data, err := c.src.ReadFile(m.Name)
	if err != nil {
		return err
	}
	name := m.Name
	if err := json.Unmarshal(data, m); err != nil {
		return fmt.Errorf("material %s: %w", name, err)
	}
	m.Name = name
	if err := m.Validate(); err != nil {
		return fmt.Errorf("material %s: %w", name, err)
	}
	return nil
}
