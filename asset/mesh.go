// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package asset

import (
	"errors"
	"fmt"

	glm "github.com/go-gl/mathgl/mgl32"

	"github.com/devblok/kore/collada"
)

// Vertex is a mesh vertex
type Vertex struct {
	Pos    glm.Vec3
	Normal glm.Vec3
	Color  glm.Vec4
}

var defaultColor = glm.Vec4{1.0, 1.0, 0.0, 1.0}

// Mesh is the triangle list imported from a collada (.dae) file.
type Mesh struct {
	Name     string
	Material string
	Vertices []Vertex
}

// Clone implements resource.Cloner
func (m *Mesh) Clone() *Mesh {
	c := *m
	c.Vertices = append([]Vertex(nil), m.Vertices...)
	return &c
}

// Bounds returns the axis aligned box around the vertices.
func (m *Mesh) Bounds() (min, max glm.Vec3) {
	if len(m.Vertices) == 0 {
		return
	}
	min, max = m.Vertices[0].Pos, m.Vertices[0].Pos
	for _, v := range m.Vertices[1:] {
		for i := 0; i < 3; i++ {
			if v.Pos[i] < min[i] {
				min[i] = v.Pos[i]
			}
			if v.Pos[i] > max[i] {
				max[i] = v.Pos[i]
			}
		}
	}
	return
}

// ImportCollada converts the first geometry of a Collada document to
// the engine's vertices.
func ImportCollada(fileContents []byte) (*Mesh, error) {
	doc, err := collada.Decode(fileContents)
	if err != nil {
		return nil, err
	}
	if len(doc.Geometries) == 0 {
		return nil, errors.New("collada: no geometry")
	}

	mesh := doc.Geometries[0].Mesh
	triangles := mesh.Triangles
	vertexInput, ok := triangles.Input("VERTEX")
	if !ok {
		return nil, errors.New("collada: triangles without VERTEX input")
	}
	positions, err := mesh.Resolve(vertexInput.Source)
	if err != nil {
		return nil, err
	}

	var normals *collada.Source
	normalInput, hasNormals := triangles.Input("NORMAL")
	if hasNormals {
		s, err := mesh.Resolve(normalInput.Source)
		if err != nil {
			return nil, err
		}
		normals = &s
	}

	stride := triangles.Stride()
	if stride == 0 || len(triangles.Index)%stride != 0 {
		return nil, fmt.Errorf("collada: index count %d does not fit stride %d", len(triangles.Index), stride)
	}

	vertices := make([]Vertex, 0, len(triangles.Index)/stride)
	for idx := 0; idx < len(triangles.Index)/stride; idx++ {
		indices := triangles.Index[stride*idx : (stride*idx)+stride]
		pos, err := positions.Element(indices[vertexInput.Offset])
		if err != nil {
			return nil, err
		}
		if len(pos) < 3 {
			return nil, fmt.Errorf("collada: %s has stride %d", positions.ID, len(pos))
		}
		vert := Vertex{
			Pos:   glm.Vec3{pos[0], pos[1], pos[2]},
			Color: defaultColor,
		}
		if normals != nil {
			n, err := normals.Element(indices[normalInput.Offset])
			if err != nil {
				return nil, err
			}
			if len(n) < 3 {
				return nil, fmt.Errorf("collada: %s has stride %d", normals.ID, len(n))
			}
			vert.Normal = glm.Vec3{n[0], n[1], n[2]}
		}
		vertices = append(vertices, vert)
	}

	return &Mesh{
		Name:     doc.Geometries[0].Name,
		Material: triangles.Material,
		Vertices: vertices,
	}, nil
}

type meshConstructor struct {
	src Source
}

func (c meshConstructor) Create(name string) (*Mesh, error) {
	return &Mesh{Name: name}, nil
}

func (c meshConstructor) Initialize(m *Mesh) error {
	data, err := c.src.ReadFile(m.Name)
	if err != nil {
		return err
	}
	imported, err := ImportCollada(data)
	if err != nil {
		return err
	}
	m.Material = imported.Material
	m.Vertices = imported.Vertices
	return nil
}
