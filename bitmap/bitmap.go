// Copyright 2026 Gustavo C. Viegas. All rights reserved.

// Package bitmap implements the pixel bitmaps that are
// uploaded as textures.
//
// A Bitmap stores 8-bit BGRA texels, tightly packed and in
// row-major order, which is the layout that
// driver.BGRA8un images expect. Bitmaps implement
// draw.Image, so they can be the destination of
// golang.org/x/image/draw operations.
package bitmap

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/gviegas/texup/driver"
)

const prefix = "bitmap: "

// Bitmap is a 2D array of BGRA8 texels.
type Bitmap struct {
	w, h int
	pix  []byte
}

// New creates a new, zeroed bitmap.
func New(width, height int) (*Bitmap, error) {
	if width < 1 || height < 1 {
		return nil, errors.New(prefix + "invalid size")
	}
	return &Bitmap{
		w:   width,
		h:   height,
		pix: make([]byte, width*height*4),
	}, nil
}

// Checker creates a bitmap filled with a checkerboard
// pattern of single texels. Texel (0, 0) is c0 and its
// horizontal and vertical neighbors are c1.
// Colors are given as 0xAARRGGBB.
func Checker(width, height int, c0, c1 uint32) (*Bitmap, error) {
	b, err := New(width, height)
	if err != nil {
		return nil, err
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if (x&1)^(y&1) != 0 {
				b.SetTexel(x, y, c1)
			} else {
				b.SetTexel(x, y, c0)
			}
		}
	}
	return b, nil
}

// Width returns the width of b in texels.
func (b *Bitmap) Width() int { return b.w }

// Height returns the height of b in texels.
func (b *Bitmap) Height() int { return b.h }

// PixelFmt returns driver.BGRA8un.
func (b *Bitmap) PixelFmt() driver.PixelFmt { return driver.BGRA8un }

// Pixels returns the texel data of b.
// Row y starts at byte y*Width()*4.
// The slice aliases the bitmap's storage.
func (b *Bitmap) Pixels() []byte { return b.pix }

// Texel returns texel (x, y) as 0xAARRGGBB.
func (b *Bitmap) Texel(x, y int) uint32 {
	return binary.LittleEndian.Uint32(b.pix[(y*b.w+x)*4:])
}

// SetTexel sets texel (x, y) to c (0xAARRGGBB).
func (b *Bitmap) SetTexel(x, y int, c uint32) {
	binary.LittleEndian.PutUint32(b.pix[(y*b.w+x)*4:], c)
}

// ColorModel implements image.Image.
func (b *Bitmap) ColorModel() color.Model { return color.NRGBAModel }

// Bounds implements image.Image.
func (b *Bitmap) Bounds() image.Rectangle { return image.Rect(0, 0, b.w, b.h) }

// At implements image.Image.
func (b *Bitmap) At(x, y int) color.Color {
	if !(image.Point{x, y}).In(b.Bounds()) {
		return color.NRGBA{}
	}
	i := (y*b.w + x) * 4
	p := b.pix[i : i+4 : i+4]
	return color.NRGBA{R: p[2], G: p[1], B: p[0], A: p[3]}
}

// Set implements draw.Image.
func (b *Bitmap) Set(x, y int, c color.Color) {
	if !(image.Point{x, y}).In(b.Bounds()) {
		return
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	i := (y*b.w + x) * 4
	p := b.pix[i : i+4 : i+4]
	p[0], p[1], p[2], p[3] = n.B, n.G, n.R, n.A
}

// FromImage creates a bitmap with the contents of m.
func FromImage(m image.Image) (*Bitmap, error) {
	r := m.Bounds()
	b, err := New(r.Dx(), r.Dy())
	if err != nil {
		return nil, err
	}
	draw.Draw(b, b.Bounds(), m, r.Min, draw.Src)
	return b, nil
}

// Resize creates a new bitmap with the contents of b
// scaled to width×height.
func (b *Bitmap) Resize(width, height int) (*Bitmap, error) {
	dst, err := New(width, height)
	if err != nil {
		return nil, err
	}
	draw.BiLinear.Scale(dst, dst.Bounds(), b, b.Bounds(), draw.Src, nil)
	return dst, nil
}

// Decode decodes an image from r into a new bitmap.
// PNG, JPEG, GIF, BMP, TIFF and WebP are supported.
// It also returns the format name.
func Decode(r io.Reader) (*Bitmap, string, error) {
	m, name, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf(prefix+"decode: %w", err)
	}
	b, err := FromImage(m)
	return b, name, err
}

// Load decodes the image file at path into a new bitmap.
func Load(path string) (*Bitmap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	b, _, err := Decode(f)
	return b, err
}
