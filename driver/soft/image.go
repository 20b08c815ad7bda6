// Copyright 2026 Gustavo C. Viegas. All rights reserved.

package soft

import (
	"errors"
	"fmt"

	"github.com/gviegas/texup/driver"
)

// Optimal images are stored in tiles of tileDim×tileDim
// texels, tiles in row-major order.
const tileDim = 4

// image implements driver.Image.
type image struct {
	g      *GPU
	id     int
	pf     driver.PixelFmt
	width  int
	height int
	tiling driver.Tiling
	usg    driver.Usage
	req    driver.MemReq
	pitch  int64
	mem    *memory
	layout driver.Layout
	views  int
	dead   bool
}

// NewImage creates a new image.
func (g *GPU) NewImage(pf driver.PixelFmt, size driver.Dim3D, tiling driver.Tiling, usg driver.Usage, init driver.Layout) (driver.Image, error) {
	if err := g.check(OpNewImage); err != nil {
		return nil, err
	}
	if size.Width < 1 || size.Height < 1 || size.Depth > 1 {
		return nil, fmt.Errorf("%w: invalid size %v", driver.ErrUnsupported, size)
	}
	if init != driver.LUndefined && init != driver.LPreinit {
		return nil, fmt.Errorf("%w: invalid initial layout %v", driver.ErrUnsupported, init)
	}
	var feat driver.FormatFeature
	switch tiling {
	case driver.TLinear:
		feat = g.cfg.Formats[pf].Linear
	case driver.TOptimal:
		feat = g.cfg.Formats[pf].Optimal
	default:
		return nil, fmt.Errorf("%w: invalid tiling %v", driver.ErrUnsupported, tiling)
	}
	if pf.Size() == 0 || !supports(feat, usg) {
		return nil, fmt.Errorf("%w: %v with %v tiling and usage 0x%x", driver.ErrUnsupported, pf, tiling, usg)
	}
	im := &image{
		g:      g,
		id:     g.newID(),
		pf:     pf,
		width:  size.Width,
		height: size.Height,
		tiling: tiling,
		usg:    usg,
		layout: init,
	}
	ps := int64(pf.Size())
	align := int64(g.cfg.RowAlign)
	if tiling == driver.TLinear {
		im.pitch = (int64(im.width)*ps + align - 1) &^ (align - 1)
		im.req = driver.MemReq{
			Size:     im.pitch * int64(im.height),
			Align:    align,
			TypeBits: g.cfg.LinearTypes,
		}
	} else {
		tx := int64((im.width + tileDim - 1) / tileDim)
		ty := int64((im.height + tileDim - 1) / tileDim)
		im.req = driver.MemReq{
			Size:     tx * ty * tileDim * tileDim * ps,
			Align:    align,
			TypeBits: g.cfg.OptimalTypes,
		}
	}
	g.stats.Images++
	g.stats.ImagesCreated++
	g.record(OpNewImage, im.id)
	return im, nil
}

// supports returns whether feat allows an image to be
// created with usage usg.
func supports(feat driver.FormatFeature, usg driver.Usage) bool {
	if usg&(driver.UShaderSample|driver.UShaderRead) != 0 && feat&driver.FeatSampled == 0 {
		return false
	}
	if usg&driver.UCopySrc != 0 && feat&driver.FeatCopySrc == 0 {
		return false
	}
	if usg&driver.UCopyDst != 0 && feat&driver.FeatCopyDst == 0 {
		return false
	}
	if usg&driver.URenderTarget != 0 && feat&(driver.FeatColorTarget|driver.FeatDSTarget) == 0 {
		return false
	}
	return true
}

// Requirements returns the memory requirements of the image.
func (im *image) Requirements() driver.MemReq { return im.req }

// Bind binds m to the image.
func (im *image) Bind(m driver.Memory) error {
	if err := im.g.check(OpBind); err != nil {
		return err
	}
	mem := m.(*memory)
	switch {
	case im.dead || mem.dead:
		return errors.New("soft: Bind called on destroyed object")
	case im.mem != nil:
		return errors.New("soft: image already has memory bound")
	case im.req.TypeBits&(1<<uint(mem.typ)) == 0:
		return fmt.Errorf("soft: memory type %d not allowed by image (0x%x)", mem.typ, im.req.TypeBits)
	case mem.Size() < im.req.Size:
		return fmt.Errorf("soft: memory too small (%d < %d)", mem.Size(), im.req.Size)
	}
	im.mem = mem
	im.g.record(OpBind, im.id)
	return nil
}

// RowLayout returns the subresource layout of a linear image.
func (im *image) RowLayout() (driver.RowLayout, error) {
	if im.tiling != driver.TLinear {
		return driver.RowLayout{}, fmt.Errorf("%w: RowLayout of an optimal image", driver.ErrUnsupported)
	}
	return driver.RowLayout{
		Offset:   0,
		Size:     im.req.Size,
		RowPitch: im.pitch,
	}, nil
}

// Destroy destroys the image.
func (im *image) Destroy() {
	if im == nil || im.dead {
		return
	}
	im.dead = true
	im.g.stats.Images--
	im.g.record(OpDestroyImage, im.id)
}

// usable returns an error if im cannot be accessed by
// executing commands.
func (im *image) usable() error {
	switch {
	case im.dead:
		return fmt.Errorf("image %d used after Destroy", im.id)
	case im.mem == nil:
		return fmt.Errorf("image %d has no memory bound", im.id)
	case im.mem.dead:
		return fmt.Errorf("image %d used after its memory was freed", im.id)
	}
	return nil
}

// offset returns the byte offset of texel (x, y) in the
// bound memory.
func (im *image) offset(x, y int) int64 {
	ps := int64(im.pf.Size())
	if im.tiling == driver.TLinear {
		return int64(y)*im.pitch + int64(x)*ps
	}
	tx := (im.width + tileDim - 1) / tileDim
	tile := (y/tileDim)*tx + x/tileDim
	in := (y%tileDim)*tileDim + x%tileDim
	return int64(tile*tileDim*tileDim+in) * ps
}

// texel returns the bytes of texel (x, y).
func (im *image) texel(x, y int) []byte {
	off := im.offset(x, y)
	return im.mem.data[off : off+int64(im.pf.Size())]
}

// view implements driver.ImageView.
type view struct {
	im   *image
	dead bool
}

// NewView creates a new image view.
func (im *image) NewView() (driver.ImageView, error) {
	if err := im.g.check(OpNewView); err != nil {
		return nil, err
	}
	if im.dead {
		return nil, errors.New("soft: NewView called on destroyed image")
	}
	im.views++
	im.g.stats.Views++
	return &view{im: im}, nil
}

// Image returns the image of the view.
func (v *view) Image() driver.Image { return v.im }

// Destroy destroys the image view.
func (v *view) Destroy() {
	if v == nil || v.dead {
		return
	}
	v.dead = true
	v.im.views--
	v.im.g.stats.Views--
}

// Layout returns the layout that img is in, as of the
// last command executed by the device.
func (g *GPU) Layout(img driver.Image) driver.Layout { return img.(*image).layout }

// transition executes an image layout transition.
// Transitions from LUndefined discard the contents of the
// image.
func (g *GPU) transition(t *driver.Transition) error {
	im := t.Img.(*image)
	if err := im.usable(); err != nil {
		return err
	}
	switch t.LayoutAfter {
	case driver.LUndefined, driver.LPreinit:
		return fmt.Errorf("image %d: transition to %v", im.id, t.LayoutAfter)
	}
	if t.Aspect&^im.pf.Aspect() != 0 || t.Aspect == 0 {
		return fmt.Errorf("image %d: invalid aspect 0x%x", im.id, t.Aspect)
	}
	if t.LayoutBefore == driver.LUndefined {
		clear(im.mem.data[:im.req.Size])
	} else if t.LayoutBefore != im.layout {
		return fmt.Errorf("image %d: transition from %v while in %v", im.id, t.LayoutBefore, im.layout)
	}
	im.layout = t.LayoutAfter
	g.stats.Transitions++
	return nil
}

// copyImage executes an image copy.
func (g *GPU) copyImage(p *driver.ImageCopy) error {
	src := p.From.(*image)
	dst := p.To.(*image)
	if err := src.usable(); err != nil {
		return err
	}
	if err := dst.usable(); err != nil {
		return err
	}
	switch {
	case src.layout != driver.LCopySrc:
		return fmt.Errorf("image %d: copy source in %v", src.id, src.layout)
	case dst.layout != driver.LCopyDst:
		return fmt.Errorf("image %d: copy destination in %v", dst.id, dst.layout)
	case src.usg&driver.UCopySrc == 0:
		return fmt.Errorf("image %d: copy source lacks UCopySrc", src.id)
	case dst.usg&driver.UCopyDst == 0:
		return fmt.Errorf("image %d: copy destination lacks UCopyDst", dst.id)
	case src.pf.Size() != dst.pf.Size():
		return fmt.Errorf("copy between incompatible formats %v and %v", src.pf, dst.pf)
	}
	w, h := p.Size.Width, p.Size.Height
	if p.FromOff.X < 0 || p.FromOff.Y < 0 || p.FromOff.X+w > src.width || p.FromOff.Y+h > src.height ||
		p.ToOff.X < 0 || p.ToOff.Y < 0 || p.ToOff.X+w > dst.width || p.ToOff.Y+h > dst.height {
		return fmt.Errorf("copy region out of bounds")
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			copy(dst.texel(p.ToOff.X+x, p.ToOff.Y+y), src.texel(p.FromOff.X+x, p.FromOff.Y+y))
		}
	}
	g.stats.Copies++
	return nil
}
