// Copyright 2026 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"github.com/gviegas/texup/driver"
)

// options holds Uploader configuration.
type options struct {
	staging bool
	format  driver.PixelFmt
}

func defaultOptions() options {
	return options{format: driver.BGRA8un}
}

// Option configures an Uploader.
type Option func(*options)

// WithStaging forces the StagedOptimal strategy even when
// the device can sample linear images.
func WithStaging(force bool) Option {
	return func(o *options) { o.staging = force }
}

// WithFormat sets the pixel format of created textures.
// Pixel sources must provide data in this format.
// The default is driver.BGRA8un.
func WithFormat(pf driver.PixelFmt) Option {
	return func(o *options) { o.format = pf }
}
