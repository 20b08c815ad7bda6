// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package vk

import (
	"fmt"

	"github.com/goki/vulkan"

	"github.com/gviegas/texup/driver"
)

// image implements driver.Image.
type image struct {
	d      *Driver
	m      *memory
	img    vulkan.Image
	fmt    vulkan.Format
	aspect vulkan.ImageAspectFlags
	tiling driver.Tiling
}

// NewImage creates a new image.
func (d *Driver) NewImage(pf driver.PixelFmt, size driver.Dim3D, tiling driver.Tiling, usg driver.Usage, init driver.Layout) (driver.Image, error) {
	if init != driver.LUndefined && init != driver.LPreinit {
		return nil, fmt.Errorf("%w: invalid initial layout %v", driver.ErrUnsupported, init)
	}
	format := convPixelFmt(pf)
	info := vulkan.ImageCreateInfo{
		SType:     vulkan.StructureTypeImageCreateInfo,
		ImageType: vulkan.ImageType2d,
		Format:    format,
		Extent: vulkan.Extent3D{
			Width:  uint32(size.Width),
			Height: uint32(size.Height),
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       vulkan.SampleCount1Bit,
		Tiling:        convTiling(tiling),
		Usage:         convUsage(usg),
		SharingMode:   vulkan.SharingModeExclusive,
		InitialLayout: convLayout(init),
	}
	var img vulkan.Image
	if err := checkResult(vulkan.CreateImage(d.dev, &info, nil, &img)); err != nil {
		return nil, err
	}
	return &image{
		d:      d,
		img:    img,
		fmt:    format,
		aspect: convAspect(pf.Aspect()),
		tiling: tiling,
	}, nil
}

// Requirements returns the memory requirements of the image.
func (im *image) Requirements() driver.MemReq {
	var req vulkan.MemoryRequirements
	vulkan.GetImageMemoryRequirements(im.d.dev, im.img, &req)
	req.Deref()
	return driver.MemReq{
		Size:     int64(req.Size),
		Align:    int64(req.Alignment),
		TypeBits: req.MemoryTypeBits,
	}
}

// Bind binds m to the image.
func (im *image) Bind(m driver.Memory) error {
	mem := m.(*memory)
	if err := checkResult(vulkan.BindImageMemory(im.d.dev, im.img, mem.mem, 0)); err != nil {
		return err
	}
	im.m = mem
	return nil
}

// RowLayout returns the subresource layout of a linear image.
func (im *image) RowLayout() (driver.RowLayout, error) {
	if im.tiling != driver.TLinear {
		return driver.RowLayout{}, fmt.Errorf("%w: RowLayout of an optimal image", driver.ErrUnsupported)
	}
	sub := vulkan.ImageSubresource{AspectMask: im.aspect}
	var lay vulkan.SubresourceLayout
	vulkan.GetImageSubresourceLayout(im.d.dev, im.img, &sub, &lay)
	lay.Deref()
	return driver.RowLayout{
		Offset:   int64(lay.Offset),
		Size:     int64(lay.Size),
		RowPitch: int64(lay.RowPitch),
	}, nil
}

// Destroy destroys the image.
// It does not free the memory bound to it.
func (im *image) Destroy() {
	if im == nil {
		return
	}
	if im.d != nil {
		vulkan.DestroyImage(im.d.dev, im.img, nil)
	}
	*im = image{}
}

// imageView implements driver.ImageView.
type imageView struct {
	i    *image
	view vulkan.ImageView
}

// NewView creates a new 2D image view.
func (im *image) NewView() (driver.ImageView, error) {
	info := vulkan.ImageViewCreateInfo{
		SType:    vulkan.StructureTypeImageViewCreateInfo,
		Image:    im.img,
		ViewType: vulkan.ImageViewType2d,
		Format:   im.fmt,
		Components: vulkan.ComponentMapping{
			R: vulkan.ComponentSwizzleR,
			G: vulkan.ComponentSwizzleG,
			B: vulkan.ComponentSwizzleB,
			A: vulkan.ComponentSwizzleA,
		},
		SubresourceRange: vulkan.ImageSubresourceRange{
			AspectMask: im.aspect,
			LevelCount: 1,
			LayerCount: 1,
		},
	}
	var view vulkan.ImageView
	if err := checkResult(vulkan.CreateImageView(im.d.dev, &info, nil, &view)); err != nil {
		return nil, err
	}
	return &imageView{
		i:    im,
		view: view,
	}, nil
}

// Image returns the image from which the view was created.
func (v *imageView) Image() driver.Image { return v.i }

// Destroy destroys the image view.
func (v *imageView) Destroy() {
	if v == nil {
		return
	}
	if v.i != nil && v.i.d != nil {
		vulkan.DestroyImageView(v.i.d.dev, v.view, nil)
	}
	*v = imageView{}
}

// convPixelFmt converts a driver.PixelFmt to a VkFormat.
func convPixelFmt(pf driver.PixelFmt) vulkan.Format {
	switch pf {
	case driver.RGBA8un:
		return vulkan.FormatR8g8b8a8Unorm
	case driver.RGBA8sRGB:
		return vulkan.FormatR8g8b8a8Srgb
	case driver.BGRA8un:
		return vulkan.FormatB8g8r8a8Unorm
	case driver.BGRA8sRGB:
		return vulkan.FormatB8g8r8a8Srgb
	case driver.RG8un:
		return vulkan.FormatR8g8Unorm
	case driver.R8un:
		return vulkan.FormatR8Unorm

	case driver.RGBA16f:
		return vulkan.FormatR16g16b16a16Sfloat
	case driver.RGBA32f:
		return vulkan.FormatR32g32b32a32Sfloat

	case driver.D16un:
		return vulkan.FormatD16Unorm
	case driver.D32f:
		return vulkan.FormatD32Sfloat
	case driver.D24unS8ui:
		return vulkan.FormatD24UnormS8Uint
	}
	return vulkan.FormatUndefined
}

// convTiling converts a driver.Tiling to a VkImageTiling.
func convTiling(t driver.Tiling) vulkan.ImageTiling {
	if t == driver.TLinear {
		return vulkan.ImageTilingLinear
	}
	return vulkan.ImageTilingOptimal
}

// convUsage converts a driver.Usage to VkImageUsageFlags.
func convUsage(usg driver.Usage) vulkan.ImageUsageFlags {
	var flags vulkan.ImageUsageFlagBits
	if usg&(driver.UShaderRead|driver.UShaderSample) != 0 {
		flags |= vulkan.ImageUsageSampledBit
	}
	if usg&driver.UShaderWrite != 0 {
		flags |= vulkan.ImageUsageStorageBit
	}
	if usg&driver.URenderTarget != 0 {
		flags |= vulkan.ImageUsageColorAttachmentBit
	}
	if usg&driver.UCopySrc != 0 {
		flags |= vulkan.ImageUsageTransferSrcBit
	}
	if usg&driver.UCopyDst != 0 {
		flags |= vulkan.ImageUsageTransferDstBit
	}
	return vulkan.ImageUsageFlags(flags)
}

// convLayout converts a driver.Layout to a VkImageLayout.
func convLayout(l driver.Layout) vulkan.ImageLayout {
	switch l {
	case driver.LPreinit:
		return vulkan.ImageLayoutPreinitialized
	case driver.LColorTarget:
		return vulkan.ImageLayoutColorAttachmentOptimal
	case driver.LDSTarget:
		return vulkan.ImageLayoutDepthStencilAttachmentOptimal
	case driver.LCopySrc:
		return vulkan.ImageLayoutTransferSrcOptimal
	case driver.LCopyDst:
		return vulkan.ImageLayoutTransferDstOptimal
	case driver.LShaderRead:
		return vulkan.ImageLayoutShaderReadOnlyOptimal
	}
	return vulkan.ImageLayoutUndefined
}

// convAspect converts a driver.Aspect to VkImageAspectFlags.
func convAspect(a driver.Aspect) vulkan.ImageAspectFlags {
	var flags vulkan.ImageAspectFlagBits
	if a&driver.AspectColor != 0 {
		flags |= vulkan.ImageAspectColorBit
	}
	if a&driver.AspectDepth != 0 {
		flags |= vulkan.ImageAspectDepthBit
	}
	if a&driver.AspectStencil != 0 {
		flags |= vulkan.ImageAspectStencilBit
	}
	return vulkan.ImageAspectFlags(flags)
}
