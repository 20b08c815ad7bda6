// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"fmt"
	"slices"

	"github.com/gviegas/texup/driver"
)

// batch accumulates commands into a single command buffer
// that is opened on first use and executed by flush.
// A batch must not be used concurrently.
type batch struct {
	gpu driver.GPU
	cb  driver.CmdBuffer
	n   int
	// Images whose layout was changed by a command
	// recorded into cb.
	imgs []*image
}

// ensureOpen allocates and begins a command buffer if b
// is not open.
func (b *batch) ensureOpen() error {
	if b.cb != nil {
		return nil
	}
	cb, err := b.gpu.NewCmdBuffer()
	if err != nil {
		return fmt.Errorf("%w: command buffer: %w", ErrAllocation, err)
	}
	if err := cb.Begin(); err != nil {
		cb.Destroy()
		return fmt.Errorf("%w: begin: %w", ErrSubmission, err)
	}
	b.cb = cb
	return nil
}

// track registers img as changed by the open command
// buffer.
func (b *batch) track(img *image) {
	b.n++
	if !slices.Contains(b.imgs, img) {
		b.imgs = append(b.imgs, img)
	}
}

// copyImage records a copy of the whole of src into dst.
// src must be in the LCopySrc layout and dst in the
// LCopyDst layout when the copy executes.
func (b *batch) copyImage(src, dst *image) error {
	if err := b.ensureOpen(); err != nil {
		return err
	}
	b.cb.CopyImage(&driver.ImageCopy{
		From:   src.img,
		To:     dst.img,
		Size:   driver.Dim3D{Width: src.width, Height: src.height, Depth: 1},
		Aspect: driver.AspectColor,
	})
	b.n++
	return nil
}

// pending returns the number of commands recorded since
// b was opened.
func (b *batch) pending() int { return b.n }

// flush ends, submits and waits for completion of the
// open command buffer, then destroys it.
// It does nothing if b is not open.
// The command buffer is destroyed and b is closed even if
// flush fails. In that case, the layouts of images changed
// by b are unknown, so they are reset to LUndefined.
func (b *batch) flush() (err error) {
	if b.cb == nil {
		return nil
	}
	n := b.n

	// This deferral clears the batch state
	// regardless of the outcome.
	defer func() {
		b.cb.Destroy()
		b.cb = nil
		b.n = 0
		if err != nil {
			for _, img := range b.imgs {
				img.layout = driver.LUndefined
			}
		}
		clear(b.imgs)
		b.imgs = b.imgs[:0]
	}()

	if err = b.cb.End(); err != nil {
		return fmt.Errorf("%w: end: %w", ErrSubmission, err)
	}
	if err = b.gpu.Submit(b.cb); err != nil {
		return fmt.Errorf("%w: submit: %w", ErrSubmission, err)
	}
	if err = b.gpu.WaitIdle(); err != nil {
		return fmt.Errorf("%w: wait: %w", ErrSubmission, err)
	}
	Logger().Debug("engine: batch flushed", "commands", n)
	return nil
}
