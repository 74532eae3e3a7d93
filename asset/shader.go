// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package asset

import (
	"encoding/binary"
	"errors"
	"fmt"
	"path"
	"strings"
)

const shaderSuffix = ".spv"

// ShaderType is the pipeline stage of a shader
type ShaderType int

// Shader stages, in pipeline order
const (
	VertexShaderType ShaderType = iota
	FragmentShaderType
)

func (t ShaderType) String() string {
	switch t {
	case VertexShaderType:
		return "vert"
	case FragmentShaderType:
		return "frag"
	}
	return "unknown"
}

// ParseShaderName reads the stage from a shader file name. The base name
// must not contain more than two dots, the first is always the name of
// the shader, second is type, and the third one marks a compiled shader
// (only compiled shaders have an .spv extension).
func ParseShaderName(name string) (ShaderType, bool, error) {
	base := path.Base(name)
	compiled := strings.HasSuffix(base, shaderSuffix)
	nodes := strings.Split(strings.TrimSuffix(base, shaderSuffix), ".")
	if len(nodes) != 2 {
		return 0, false, fmt.Errorf("%q: not a shader file name", name)
	}
	switch nodes[1] {
	case "vert":
		return VertexShaderType, compiled, nil
	case "frag":
		return FragmentShaderType, compiled, nil
	}
	return 0, false, fmt.Errorf("%q: unknown shader type %q", name, nodes[1])
}

// ShaderStage is one stage of a shader program
type ShaderStage struct {
	Type     ShaderType
	File     string
	Compiled bool

	// Source holds the text of uncompiled stages.
	Source string

	// Code holds the SPIR-V words of compiled stages.
	Code []uint32
}

// Shader is a program. A name with a stage suffix ("lit.frag.spv")
// loads that stage alone, a bare name ("shader/lit") loads the vertex
// and fragment stages next to it, preferring compiled files.
type Shader struct {
	Name   string
	Stages []ShaderStage
}

// Clone implements resource.Cloner
func (s *Shader) Clone() *Shader {
	c := &Shader{Name: s.Name, Stages: make([]ShaderStage, len(s.Stages))}
	for i, st := range s.Stages {
		st.Code = append([]uint32(nil), st.Code...)
		c.Stages[i] = st
	}
	return c
}

// Stage returns the stage of a given type.
func (s *Shader) Stage(t ShaderType) (ShaderStage, bool) {
	for _, st := range s.Stages {
		if st.Type == t {
			return st, true
		}
	}
	return ShaderStage{}, false
}

// SliceUint32 reslices SPIR-V bytes into the words that are submitted
// for processing.
func SliceUint32(data []byte) ([]uint32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("spir-v size %d is not a multiple of 4", len(data))
	}
	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	return words, nil
}

func loadShaderStage(src Source, file string, t ShaderType, compiled bool) (ShaderStage, error) {
	data, err := src.ReadFile(file)
	if err != nil {
		return ShaderStage{}, err
	}
	stage := ShaderStage{Type: t, File: file, Compiled: compiled}
	if !compiled {
		stage.Source = string(data)
		return stage, nil
	}
	if stage.Code, err = SliceUint32(data); err != nil {
		return ShaderStage{}, fmt.Errorf("%s: %w", file, err)
	}
	return stage, nil
}

type shaderConstructor struct {
	src Source
}

func (c shaderConstructor) Create(name string) (*Shader, error) {
	return &Shader{Name: name}, nil
}

func (c shaderConstructor) Initialize(s *Shader) error {
	if t, compiled, err := ParseShaderName(s.Name); err == nil {
		stage, err := loadShaderStage(c.src, s.Name, t, compiled)
		if err != nil {
			return err
		}
		s.Stages = []ShaderStage{stage}
		return nil
	}

	for _, t := range []ShaderType{VertexShaderType, FragmentShaderType} {
		stage, err := c.findStage(s.Name, t)
		if err != nil {
			return err
		}
		s.Stages = append(s.Stages, stage)
	}
	return nil
}

func (c shaderConstructor) findStage(name string, t ShaderType) (ShaderStage, error) {
	file := name + "." + t.String()
	stage, err := loadShaderStage(c.src, file+shaderSuffix, t, true)
	if errors.Is(err, ErrNotFound) {
		stage, err = loadShaderStage(c.src, file, t, false)
	}
	return stage, err
}
