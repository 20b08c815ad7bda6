// Copyright 2026 Gustavo C. Viegas. All rights reserved.

package soft

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/gviegas/texup/driver"
)

// sampler implements driver.Sampler.
type sampler struct {
	g    *GPU
	spln driver.Sampling
	dead bool
}

// NewSampler creates a new sampler.
func (g *GPU) NewSampler(spln *driver.Sampling) (driver.Sampler, error) {
	if err := g.check(OpNewSampler); err != nil {
		return nil, err
	}
	if spln.MinLOD > spln.MaxLOD {
		return nil, errors.New("soft: MinLOD greater than MaxLOD")
	}
	g.stats.Samplers++
	return &sampler{g: g, spln: *spln}, nil
}

// Destroy destroys the sampler.
func (s *sampler) Destroy() {
	if s == nil || s.dead {
		return
	}
	s.dead = true
	s.g.stats.Samplers--
}

// Sample samples the view v with the sampler s at
// normalized coordinates (u, t), as a fragment shader
// would. The texel is returned as a little-endian word,
// so a BGRA8un texel reads as 0xAARRGGBB.
// Only nearest filtering of 4-byte formats is supported.
func (g *GPU) Sample(s driver.Sampler, v driver.ImageView, u, t float32) (uint32, error) {
	spl := s.(*sampler)
	vw := v.(*view)
	im := vw.im
	switch {
	case spl.dead || vw.dead:
		return 0, errors.New("soft: Sample called on destroyed object")
	case spl.spln.Min != driver.FNearest || spl.spln.Mag != driver.FNearest:
		return 0, fmt.Errorf("%w: linear filtering", driver.ErrUnsupported)
	case im.pf.Size() != 4:
		return 0, fmt.Errorf("%w: sampling %v", driver.ErrUnsupported, im.pf)
	case im.usg&driver.UShaderSample == 0:
		return 0, fmt.Errorf("soft: image %d lacks UShaderSample", im.id)
	case im.layout != driver.LShaderRead:
		return 0, fmt.Errorf("soft: sampling image %d in %v", im.id, im.layout)
	}
	if err := im.usable(); err != nil {
		return 0, fmt.Errorf("soft: %w", err)
	}
	x := address(spl.spln.AddrU, int(math.Floor(float64(u)*float64(im.width))), im.width)
	y := address(spl.spln.AddrV, int(math.Floor(float64(t)*float64(im.height))), im.height)
	return binary.LittleEndian.Uint32(im.texel(x, y)), nil
}

// address applies an address mode to texel coordinate i
// of a dimension with n texels.
func address(mode driver.AddrMode, i, n int) int {
	switch mode {
	case driver.AWrap:
		i %= n
		if i < 0 {
			i += n
		}
	case driver.AMirror:
		p := 2 * n
		i %= p
		if i < 0 {
			i += p
		}
		if i >= n {
			i = p - 1 - i
		}
	default:
		i = max(0, min(i, n-1))
	}
	return i
}
