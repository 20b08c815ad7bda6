// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package engine makes pixel bitmaps resident on a GPU as
// sampled textures.
//
// An Uploader selects, for each texture, one of two
// strategies: DirectLinear, which samples a host-written
// linear image, or StagedOptimal, which copies from a
// linear staging image into an optimal, device-local one.
// All commands of a texture creation are recorded into a
// single command buffer that is submitted and waited on
// before NewTexture returns.
package engine

import (
	"errors"
)

var (
	// ErrCapability means that the device cannot sample
	// the texture format with either tiling mode.
	ErrCapability = errors.New("engine: texture format cannot be sampled")

	// ErrAllocation means that a device object could not
	// be created or that device memory could not be
	// allocated, bound or mapped.
	ErrAllocation = errors.New("engine: allocation failed")

	// ErrNoMemoryType means that no memory type satisfies
	// both the resource and the requested properties.
	ErrNoMemoryType = errors.New("engine: no suitable memory type")

	// ErrSubmission means that recording, submitting or
	// waiting on a command buffer failed.
	ErrSubmission = errors.New("engine: command submission failed")

	// ErrInvalidSource means that a PixelSource cannot be
	// uploaded.
	ErrInvalidSource = errors.New("engine: invalid pixel source")

	// ErrNotHostVisible means that the host attempted to
	// write to memory that it cannot map.
	ErrNotHostVisible = errors.New("engine: memory is not host visible")

	// ErrBatchBusy means that another texture creation is
	// using the Uploader's command batch.
	ErrBatchBusy = errors.New("engine: command batch is busy")
)
