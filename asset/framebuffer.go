// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package asset

import (
	"encoding/json"
	"fmt"
)

// Attachment selects which image of a framebuffer a sampler reads.
type Attachment int

// Framebuffer attachments
const (
	ColorAttachment Attachment = iota
	DepthAttachment
)

func (a Attachment) String() string {
	switch a {
	case ColorAttachment:
		return "color"
	case DepthAttachment:
		return "depth"
	}
	return "unknown"
}

// MarshalJSON writes the attachment name.
func (a Attachment) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON reads an attachment name.
func (a *Attachment) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	switch name {
	case "color", "":
		*a = ColorAttachment
	case "depth":
		*a = DepthAttachment
	default:
		return fmt.Errorf("unknown attachment %q", name)
	}
	return nil
}

// Framebuffer is an offscreen render target. It has no file, it is
// described by its name and the group's configured size.
type Framebuffer struct {
	Name        string
	Width       int
	Height      int
	Attachments []Attachment
}

// Clone implements resource.Cloner
func (f *Framebuffer) Clone() *Framebuffer {
	c := *f
	c.Attachments = append([]Attachment(nil), f.Attachments...)
	return &c
}

// Has reports whether the framebuffer carries an attachment.
func (f *Framebuffer) Has(a Attachment) bool {
	for _, v := range f.Attachments {
		if v == a {
			return true
		}
	}
	return false
}

type framebufferConstructor struct {
	width, height int
}

func (c framebufferConstructor) Create(name string) (*Framebuffer, error) {
	if c.width <= 0 || c.height <= 0 {
		return nil, fmt.Errorf("framebuffer %s: invalid size %dx%d", name, c.width, c.height)
	}
	return &Framebuffer{
		Name:        name,
		Width:       c.width,
		Height:      c.height,
		Attachments: []Attachment{ColorAttachment, DepthAttachment},
	}, nil
}

func (c framebufferConstructor) Initialize(*Framebuffer) error {
	return nil
}
