// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package asset

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"

	// Decoders registered for image.Decode
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Texture is a decoded image laid out as tightly packed RGBA pixels.
type Texture struct {
	Name   string
	Format string
	Width  int
	Height int
	Pixels []uint8
}

// Clone implements resource.Cloner
func (t *Texture) Clone() *Texture {
	c := *t
	c.Pixels = append([]uint8(nil), t.Pixels...)
	return &c
}

// GetPixels transforms a given image into right arrangement of pixels
// by drawing the decoded image onto a controlled RGBA canvas. The
// proposed row pitch is applied only when it can hold a full row.
func GetPixels(img image.Image, rowPitch int) []uint8 {
	bounds := img.Bounds()
	newImg := image.NewRGBA(bounds)
	if rowPitch >= 4*bounds.Dx() {
		newImg.Stride = rowPitch
		newImg.Pix = make([]uint8, rowPitch*bounds.Dy())
	}
	draw.Draw(newImg, newImg.Bounds(), img, bounds.Min, draw.Src)
	return newImg.Pix
}

type textureConstructor struct {
	src Source
}

func (c textureConstructor) Create(name string) (*Texture, error) {
	return &Texture{Name: name}, nil
}

func (c textureConstructor) Initialize(t *Texture) error {
	data, err := c.src.ReadFile(t.Name)
	if err != nil {
		return err
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode %s: %w", t.Name, err)
	}
	bounds := img.Bounds()
	t.Format = format
	t.Width, t.Height = bounds.Dx(), bounds.Dy()
	t.Pixels = GetPixels(img, 0)
	return nil
}
