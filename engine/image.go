// Copyright 2026 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"errors"
	"fmt"

	"github.com/gviegas/texup/driver"
)

// image is a 2D image with its own memory allocation.
type image struct {
	img    driver.Image
	mem    driver.Memory
	width  int
	height int
	pf     driver.PixelFmt
	tiling driver.Tiling
	prop   driver.MemProp
	// Layout as of the last recorded transition.
	// It only matches the device's state after the
	// batch that recorded it is flushed.
	layout driver.Layout
}

// newImage creates a new image and binds memory of a type
// that has the properties in prop to it.
// Linear images in host-visible memory start in the
// LPreinit layout, so texels written before the first
// transition are preserved. Other images start in
// LUndefined.
// If newImage fails, nothing that it created is left
// alive.
func newImage(gpu driver.GPU, width, height int, pf driver.PixelFmt, tiling driver.Tiling, usg driver.Usage, prop driver.MemProp) (*image, error) {
	init := driver.LUndefined
	if tiling == driver.TLinear && prop&driver.MHostVisible != 0 {
		init = driver.LPreinit
	}
	size := driver.Dim3D{Width: width, Height: height, Depth: 1}
	img, err := gpu.NewImage(pf, size, tiling, usg, init)
	if err != nil {
		return nil, fmt.Errorf("%w: %v image: %w", ErrAllocation, tiling, err)
	}
	req := img.Requirements()
	typ, err := SelectMemory(gpu.MemoryTypes(), req.TypeBits, prop)
	if err != nil {
		img.Destroy()
		return nil, err
	}
	mem, err := gpu.NewMemory(req.Size, typ)
	if err != nil {
		img.Destroy()
		return nil, fmt.Errorf("%w: memory: %w", ErrAllocation, err)
	}
	if err := img.Bind(mem); err != nil {
		mem.Destroy()
		img.Destroy()
		return nil, fmt.Errorf("%w: bind: %w", ErrAllocation, err)
	}
	Logger().Debug("engine: image created",
		"width", width, "height", height, "format", pf.String(),
		"tiling", tiling.String(), "size", req.Size, "memoryType", typ)
	return &image{
		img:    img,
		mem:    mem,
		width:  width,
		height: height,
		pf:     pf,
		tiling: tiling,
		prop:   prop,
		layout: init,
	}, nil
}

// write copies tightly packed texel rows from pix into
// the image's memory, honoring the row pitch that the
// device reports.
// The image must be linear and host visible.
func (im *image) write(pix []byte) error {
	if im.prop&driver.MHostVisible == 0 {
		return ErrNotHostVisible
	}
	n := im.width * im.pf.Size()
	if len(pix) < n*im.height {
		return fmt.Errorf("%w: have %d bytes, want %d", ErrInvalidSource, len(pix), n*im.height)
	}
	rl, err := im.img.RowLayout()
	if err != nil {
		return fmt.Errorf("%w: row layout: %w", ErrAllocation, err)
	}
	if rl.RowPitch < int64(n) {
		return fmt.Errorf("%w: row pitch %d is less than row size %d", ErrAllocation, rl.RowPitch, n)
	}
	p, err := im.mem.Map()
	if err != nil {
		return fmt.Errorf("%w: map: %w", ErrAllocation, err)
	}
	defer im.mem.Unmap()
	if end := rl.Offset + int64(im.height-1)*rl.RowPitch + int64(n); end > int64(len(p)) {
		return errors.New("engine: image subresource exceeds mapped memory")
	}
	for y := 0; y < im.height; y++ {
		off := rl.Offset + int64(y)*rl.RowPitch
		copy(p[off:off+int64(n)], pix[y*n:(y+1)*n])
	}
	return nil
}

// destroy frees the image's memory and then destroys the
// image itself.
// Calling destroy more than once has no effect.
func (im *image) destroy() {
	if im == nil {
		return
	}
	if im.mem != nil {
		im.mem.Destroy()
		im.mem = nil
	}
	if im.img != nil {
		im.img.Destroy()
		im.img = nil
	}
	im.layout = driver.LUndefined
}
