// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package vk

import (
	"github.com/goki/vulkan"

	"github.com/gviegas/texup/driver"
)

// sampler implements driver.Sampler.
type sampler struct {
	d    *Driver
	splr vulkan.Sampler
}

// NewSampler creates a new sampler.
func (d *Driver) NewSampler(spln *driver.Sampling) (driver.Sampler, error) {
	info := vulkan.SamplerCreateInfo{
		SType:                   vulkan.StructureTypeSamplerCreateInfo,
		MagFilter:               convFilter(spln.Mag),
		MinFilter:               convFilter(spln.Min),
		MipmapMode:              convMipFilter(spln.Mipmap),
		AddressModeU:            convAddrMode(spln.AddrU),
		AddressModeV:            convAddrMode(spln.AddrV),
		AddressModeW:            convAddrMode(spln.AddrW),
		AnisotropyEnable:        vulkan.False,
		MaxAnisotropy:           1,
		CompareEnable:           vulkan.False,
		CompareOp:               vulkan.CompareOpNever,
		MinLod:                  spln.MinLOD,
		MaxLod:                  spln.MaxLOD,
		BorderColor:             vulkan.BorderColorFloatOpaqueWhite,
		UnnormalizedCoordinates: vulkan.False,
	}
	var splr vulkan.Sampler
	if err := checkResult(vulkan.CreateSampler(d.dev, &info, nil, &splr)); err != nil {
		return nil, err
	}
	return &sampler{
		d:    d,
		splr: splr,
	}, nil
}

// Destroy destroys the sampler.
func (s *sampler) Destroy() {
	if s == nil {
		return
	}
	if s.d != nil {
		vulkan.DestroySampler(s.d.dev, s.splr, nil)
	}
	*s = sampler{}
}

// convFilter converts a driver.Filter to a VkFilter.
func convFilter(f driver.Filter) vulkan.Filter {
	if f == driver.FLinear {
		return vulkan.FilterLinear
	}
	return vulkan.FilterNearest
}

// convMipFilter converts a driver.Filter to a
// VkSamplerMipmapMode.
func convMipFilter(f driver.Filter) vulkan.SamplerMipmapMode {
	if f == driver.FLinear {
		return vulkan.SamplerMipmapModeLinear
	}
	return vulkan.SamplerMipmapModeNearest
}

// convAddrMode converts a driver.AddrMode to a
// VkSamplerAddressMode.
func convAddrMode(am driver.AddrMode) vulkan.SamplerAddressMode {
	switch am {
	case driver.AMirror:
		return vulkan.SamplerAddressModeMirroredRepeat
	case driver.AClamp:
		return vulkan.SamplerAddressModeClampToEdge
	}
	return vulkan.SamplerAddressModeRepeat
}
