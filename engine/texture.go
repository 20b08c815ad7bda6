// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"fmt"

	"golang.org/x/sync/semaphore"

	"github.com/gviegas/texup/driver"
)

// PixelSource is the interface that provides the texels
// of a texture.
// Pixels must return at least Width()*Height() texels of
// format PixelFmt(), tightly packed, in row-major order.
type PixelSource interface {
	Width() int
	Height() int
	PixelFmt() driver.PixelFmt
	Pixels() []byte
}

// Strategy identifies how a texture was made resident.
type Strategy int

// Strategies.
const (
	// DirectLinear textures are linear images in
	// host-visible memory, written directly by the host.
	DirectLinear Strategy = iota
	// StagedOptimal textures are optimal images in
	// device-local memory, copied from a linear staging
	// image.
	StagedOptimal
)

// String implements fmt.Stringer.
func (s Strategy) String() string {
	switch s {
	case DirectLinear:
		return "direct-linear"
	case StagedOptimal:
		return "staged-optimal"
	}
	return "invalid"
}

// Uploader creates textures on a GPU.
// Each Uploader has a single command batch. Concurrent
// calls to NewTexture on the same Uploader do not block;
// all but one fail with ErrBatchBusy.
type Uploader struct {
	gpu  driver.GPU
	opts options
	gate *semaphore.Weighted
	b    batch
}

// NewUploader creates a new Uploader that uses gpu.
func NewUploader(gpu driver.GPU, opts ...Option) *Uploader {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Uploader{
		gpu:  gpu,
		opts: o,
		gate: semaphore.NewWeighted(1),
		b:    batch{gpu: gpu},
	}
}

// withBatch calls f with u's batch and then flushes it,
// even if f fails or panics.
// If f succeeds, the flush error is returned.
func (u *Uploader) withBatch(f func(*batch) error) (err error) {
	defer func() {
		ferr := u.b.flush()
		switch {
		case ferr == nil:
		case err == nil:
			err = ferr
		default:
			Logger().Warn("engine: flush failed after error", "err", ferr)
		}
	}()
	return f(&u.b)
}

// validate checks that src can be uploaded by u.
func (u *Uploader) validate(src PixelSource) error {
	if src == nil {
		return fmt.Errorf("%w: nil source", ErrInvalidSource)
	}
	w, h := src.Width(), src.Height()
	if w < 1 || h < 1 {
		return fmt.Errorf("%w: size %dx%d", ErrInvalidSource, w, h)
	}
	if pf := src.PixelFmt(); pf != u.opts.format {
		return fmt.Errorf("%w: format %v, want %v", ErrInvalidSource, pf, u.opts.format)
	}
	if n := w * h * u.opts.format.Size(); len(src.Pixels()) < n {
		return fmt.Errorf("%w: have %d bytes, want %d", ErrInvalidSource, len(src.Pixels()), n)
	}
	return nil
}

// strategy selects the upload strategy from the device's
// capabilities.
func (u *Uploader) strategy() (Strategy, error) {
	props := u.gpu.FormatProps(u.opts.format)
	switch {
	case props.Linear&driver.FeatSampled != 0 && !u.opts.staging:
		return DirectLinear, nil
	case props.Optimal&driver.FeatSampled != 0:
		return StagedOptimal, nil
	}
	return 0, fmt.Errorf("%w: %v", ErrCapability, u.opts.format)
}

// upload holds the images that a NewTexture call creates.
type upload struct {
	gpu     driver.GPU
	src     PixelSource
	pf      driver.PixelFmt
	usage   driver.Usage
	staging *image
	dst     *image
}

// direct records the DirectLinear commands.
func (up *upload) direct(b *batch) (err error) {
	w, h := up.src.Width(), up.src.Height()
	up.dst, err = newImage(up.gpu, w, h, up.pf, driver.TLinear, driver.UShaderSample|up.usage,
		driver.MHostVisible|driver.MHostCoherent)
	if err != nil {
		return
	}
	if err = up.dst.write(up.src.Pixels()); err != nil {
		return
	}
	return recordTransition(b, up.dst, driver.AspectColor, up.dst.layout, driver.LShaderRead)
}

// staged records the StagedOptimal commands.
// The staging image must outlive the batch flush.
func (up *upload) staged(b *batch) (err error) {
	w, h := up.src.Width(), up.src.Height()
	up.staging, err = newImage(up.gpu, w, h, up.pf, driver.TLinear, driver.UCopySrc,
		driver.MHostVisible|driver.MHostCoherent)
	if err != nil {
		return
	}
	if err = up.staging.write(up.src.Pixels()); err != nil {
		return
	}
	up.dst, err = newImage(up.gpu, w, h, up.pf, driver.TOptimal, driver.UCopyDst|driver.UShaderSample|up.usage,
		driver.MDeviceLocal)
	if err != nil {
		return
	}
	if err = recordTransition(b, up.staging, driver.AspectColor, up.staging.layout, driver.LCopySrc); err != nil {
		return
	}
	if err = recordTransition(b, up.dst, driver.AspectColor, up.dst.layout, driver.LCopyDst); err != nil {
		return
	}
	if err = b.copyImage(up.staging, up.dst); err != nil {
		return
	}
	return recordTransition(b, up.dst, driver.AspectColor, driver.LCopyDst, driver.LShaderRead)
}

// NewTexture makes the texels of src resident on the GPU
// as a sampled texture.
// usage is added to the usage that the chosen strategy
// requires.
// When NewTexture returns, every command that it recorded
// has completed. If it fails, every object that it
// created has been destroyed.
func (u *Uploader) NewTexture(src PixelSource, usage driver.Usage) (*Texture, error) {
	if err := u.validate(src); err != nil {
		return nil, err
	}
	strat, err := u.strategy()
	if err != nil {
		Logger().Warn("engine: texture not created", "err", err)
		return nil, err
	}
	if !u.gate.TryAcquire(1) {
		return nil, ErrBatchBusy
	}
	defer u.gate.Release(1)

	Logger().Info("engine: creating texture",
		"strategy", strat.String(), "width", src.Width(), "height", src.Height())

	up := upload{
		gpu:   u.gpu,
		src:   src,
		pf:    u.opts.format,
		usage: usage,
	}
	err = u.withBatch(func(b *batch) error {
		if strat == DirectLinear {
			return up.direct(b)
		}
		return up.staged(b)
	})
	// Staging is no longer in use once the batch
	// has been flushed.
	up.staging.destroy()
	if err != nil {
		up.dst.destroy()
		Logger().Warn("engine: texture not created", "strategy", strat.String(), "err", err)
		return nil, err
	}

	tex, err := finalize(u.gpu, up.dst, strat)
	if err != nil {
		up.dst.destroy()
		Logger().Warn("engine: texture not created", "strategy", strat.String(), "err", err)
		return nil, err
	}
	return tex, nil
}

// finalize creates the sampler and view of a texture.
func finalize(gpu driver.GPU, img *image, strat Strategy) (*Texture, error) {
	splr, err := gpu.NewSampler(&driver.Sampling{
		Min:    driver.FNearest,
		Mag:    driver.FNearest,
		Mipmap: driver.FNearest,
		AddrU:  driver.AWrap,
		AddrV:  driver.AWrap,
		AddrW:  driver.AWrap,
		MinLOD: 0,
		MaxLOD: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: sampler: %w", ErrAllocation, err)
	}
	view, err := img.img.NewView()
	if err != nil {
		splr.Destroy()
		return nil, fmt.Errorf("%w: view: %w", ErrAllocation, err)
	}
	return &Texture{
		img:   img,
		view:  view,
		splr:  splr,
		strat: strat,
	}, nil
}

// Texture is an image resident on a GPU, in the
// LShaderRead layout, with a sampler and a view.
type Texture struct {
	img   *image
	view  driver.ImageView
	splr  driver.Sampler
	strat Strategy
}

// Image returns the texture's image.
func (t *Texture) Image() driver.Image { return t.img.img }

// Memory returns the memory bound to the texture's image.
func (t *Texture) Memory() driver.Memory { return t.img.mem }

// View returns the texture's 2D view.
func (t *Texture) View() driver.ImageView { return t.view }

// Sampler returns the texture's sampler.
func (t *Texture) Sampler() driver.Sampler { return t.splr }

// Layout returns the layout of the texture's image.
func (t *Texture) Layout() driver.Layout { return t.img.layout }

// Width returns the width of the texture.
func (t *Texture) Width() int { return t.img.width }

// Height returns the height of the texture.
func (t *Texture) Height() int { return t.img.height }

// PixelFmt returns the pixel format of the texture.
func (t *Texture) PixelFmt() driver.PixelFmt { return t.img.pf }

// Strategy returns the strategy used to create the texture.
func (t *Texture) Strategy() Strategy { return t.strat }

// Destroy destroys the texture's view, sampler, memory and
// image, in this order.
// The GPU must not be using the texture.
func (t *Texture) Destroy() {
	if t == nil || t.img == nil {
		return
	}
	if t.view != nil {
		t.view.Destroy()
		t.view = nil
	}
	if t.splr != nil {
		t.splr.Destroy()
		t.splr = nil
	}
	t.img.destroy()
}
