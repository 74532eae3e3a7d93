// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package collada decodes the subset of the Collada (.dae) format the
// engine imports meshes from.
package collada

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrSourceNotFound is returned when a mesh has no source for a lookup.
var ErrSourceNotFound = errors.New("source not found")

// Decode parses a Collada document.
func Decode(data []byte) (*Collada, error) {
	var c Collada
	if err := xml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("collada: %w", err)
	}
	return &c, nil
}

// Collada is the top-level Collada object
type Collada struct {
	Geometries []Geometry `xml:"library_geometries>geometry"`
}

// Geometry represents Collada's geometry
type Geometry struct {
	Mesh Mesh   `xml:"mesh"`
	ID   string `xml:"id,attr"`
	Name string `xml:"name,attr"`
}

// Mesh contains all the primitive data
type Mesh struct {
	Source    []Source  `xml:"source"`
	Vertices  Vertices  `xml:"vertices"`
	Triangles Triangles `xml:"triangles"`
}

// FindSource returns the source whose id ends with "-"+semantic,
// e.g. "Cube-mesh-positions" for "positions".
func (m *Mesh) FindSource(semantic string) (Source, error) {
	suffix := "-" + semantic
	for _, s := range m.Source {
		if strings.HasSuffix(s.ID, suffix) {
			return s, nil
		}
	}
	return Source{}, fmt.Errorf("%s: %w", semantic, ErrSourceNotFound)
}

// Resolve follows an input's "#id" reference to a source. References to
// the vertices element resolve to its POSITION input.
func (m *Mesh) Resolve(ref string) (Source, error) {
	id := strings.TrimPrefix(ref, "#")
	if id == m.Vertices.ID {
		for _, in := range m.Vertices.Inputs {
			if in.Semantic == "POSITION" {
				return m.Resolve(in.Source)
			}
		}
		return Source{}, fmt.Errorf("%s has no POSITION: %w", id, ErrSourceNotFound)
	}
	for _, s := range m.Source {
		if s.ID == id {
			return s, nil
		}
	}
	return Source{}, fmt.Errorf("%s: %w", id, ErrSourceNotFound)
}

// Source links to other sources where data is present
type Source struct {
	ID       string   `xml:"id,attr"`
	Floats   Floats   `xml:"float_array"`
	Accessor Accessor `xml:"technique_common>accessor"`
}

// Stride is the number of floats per element, 3 when no accessor is given.
func (s Source) Stride() int {
	if s.Accessor.Stride > 0 {
		return s.Accessor.Stride
	}
	return 3
}

// Element returns the floats of the i-th element.
func (s Source) Element(i int) ([]float32, error) {
	stride := s.Stride()
	start := i * stride
	if i < 0 || start+stride > len(s.Floats.Data) {
		return nil, fmt.Errorf("%s: element %d out of range", s.ID, i)
	}
	return s.Floats.Data[start : start+stride], nil
}

// Accessor describes how a source's array is read
type Accessor struct {
	Source string `xml:"source,attr"`
	Count  int    `xml:"count,attr"`
	Stride int    `xml:"stride,attr"`
}

// Floats is the array of floats
type Floats struct {
	ID   string
	Data []float32
}

// UnmarshalXML unmarshals the array of floats
func (f *Floats) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for _, attr := range start.Attr {
		switch attr.Name.Local {
		case "id":
			f.ID = attr.Value
		}
	}
	var raw string
	if err := d.DecodeElement(&raw, &start); err != nil {
		return err
	}
	for _, r := range strings.Fields(raw) {
		num, err := strconv.ParseFloat(r, 32)
		if err != nil {
			return err
		}
		f.Data = append(f.Data, float32(num))
	}
	return nil
}

// Vertices contains the list of vertices
type Vertices struct {
	ID     string  `xml:"id,attr"`
	Inputs []Input `xml:"input"`
}

// Triangles contain the list of triangles
type Triangles struct {
	Count    int     `xml:"count,attr"`
	Material string  `xml:"material,attr"`
	Inputs   []Input `xml:"input"`
	Index    []int
}

// Stride is the number of indices per vertex, one past the largest offset.
func (t *Triangles) Stride() int {
	var stride uint
	for _, in := range t.Inputs {
		if in.Offset+1 > stride {
			stride = in.Offset + 1
		}
	}
	return int(stride)
}

// Input returns the input with a given semantic.
func (t *Triangles) Input(semantic string) (Input, bool) {
	for _, in := range t.Inputs {
		if in.Semantic == semantic {
			return in, true
		}
	}
	return Input{}, false
}

// UnmarshalXML parses the index list
func (t *Triangles) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for _, attr := range start.Attr {
		switch attr.Name.Local {
		case "count":
			num, err := strconv.Atoi(attr.Value)
			if err != nil {
				return err
			}
			t.Count = num
		case "material":
			t.Material = attr.Value
		}
	}

	for {
		token, err := d.Token()
		if err != nil {
			return err
		}

		switch el := token.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "input":
				var input Input
				if err := d.DecodeElement(&input, &el); err != nil {
					return err
				}
				t.Inputs = append(t.Inputs, input)
			case "p":
				var raw string
				if err := d.DecodeElement(&raw, &el); err != nil {
					return err
				}
				fields := strings.Fields(raw)
				ints := make([]int, 0, len(fields))
				for _, r := range fields {
					num, err := strconv.Atoi(r)
					if err != nil {
						return err
					}
					ints = append(ints, num)
				}
				t.Index = ints
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			if el == start.End() {
				return nil
			}
		}
	}
}

// Input is Collada'a input type
type Input struct {
	Semantic string `xml:"semantic,attr"`
	Source   string `xml:"source,attr"`
	Offset   uint   `xml:"offset,attr"`
}
