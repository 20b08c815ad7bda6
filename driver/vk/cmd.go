// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package vk

import (
	"github.com/goki/vulkan"

	"github.com/gviegas/texup/driver"
)

// cmdBuffer implements driver.CmdBuffer.
type cmdBuffer struct {
	d     *Driver
	cb    vulkan.CommandBuffer
	begun bool
}

// NewCmdBuffer creates a new command buffer.
// The command buffer is allocated from the command pool
// of the Context that d wraps.
func (d *Driver) NewCmdBuffer() (driver.CmdBuffer, error) {
	info := vulkan.CommandBufferAllocateInfo{
		SType:              vulkan.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        d.pool,
		Level:              vulkan.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}
	cbs := make([]vulkan.CommandBuffer, 1)
	if err := checkResult(vulkan.AllocateCommandBuffers(d.dev, &info, cbs)); err != nil {
		return nil, err
	}
	return &cmdBuffer{d: d, cb: cbs[0]}, nil
}

// Begin prepares the command buffer for recording.
func (cb *cmdBuffer) Begin() error {
	info := vulkan.CommandBufferBeginInfo{
		SType: vulkan.StructureTypeCommandBufferBeginInfo,
		Flags: vulkan.CommandBufferUsageFlags(vulkan.CommandBufferUsageOneTimeSubmitBit),
	}
	if err := checkResult(vulkan.BeginCommandBuffer(cb.cb, &info)); err != nil {
		return err
	}
	cb.begun = true
	return nil
}

// IsRecording returns whether cb is recording commands.
func (cb *cmdBuffer) IsRecording() bool { return cb.begun }

// Transition records image layout transitions as a single
// pipeline barrier.
func (cb *cmdBuffer) Transition(t []driver.Transition) {
	if !cb.begun {
		panic("vk: Transition called outside of recording")
	}
	var src, dst vulkan.PipelineStageFlags
	bs := make([]vulkan.ImageMemoryBarrier, len(t))
	for i := range t {
		src |= convSync(t[i].SyncBefore)
		dst |= convSync(t[i].SyncAfter)
		bs[i] = vulkan.ImageMemoryBarrier{
			SType:               vulkan.StructureTypeImageMemoryBarrier,
			SrcAccessMask:       convAccess(t[i].AccessBefore),
			DstAccessMask:       convAccess(t[i].AccessAfter),
			OldLayout:           convLayout(t[i].LayoutBefore),
			NewLayout:           convLayout(t[i].LayoutAfter),
			SrcQueueFamilyIndex: vulkan.QueueFamilyIgnored,
			DstQueueFamilyIndex: vulkan.QueueFamilyIgnored,
			Image:               t[i].Img.(*image).img,
			SubresourceRange: vulkan.ImageSubresourceRange{
				AspectMask: convAspect(t[i].Aspect),
				LevelCount: 1,
				LayerCount: 1,
			},
		}
	}
	// Stage masks must not be zero.
	if src == 0 {
		src = vulkan.PipelineStageFlags(vulkan.PipelineStageTopOfPipeBit)
	}
	if dst == 0 {
		dst = vulkan.PipelineStageFlags(vulkan.PipelineStageBottomOfPipeBit)
	}
	vulkan.CmdPipelineBarrier(cb.cb, src, dst, 0, 0, nil, 0, nil, uint32(len(bs)), bs)
}

// CopyImage records a copy between images.
func (cb *cmdBuffer) CopyImage(param *driver.ImageCopy) {
	if !cb.begun {
		panic("vk: CopyImage called outside of recording")
	}
	aspect := convAspect(param.Aspect)
	cpy := []vulkan.ImageCopy{{
		SrcSubresource: vulkan.ImageSubresourceLayers{
			AspectMask: aspect,
			LayerCount: 1,
		},
		SrcOffset: vulkan.Offset3D{
			X: int32(param.FromOff.X),
			Y: int32(param.FromOff.Y),
			Z: int32(param.FromOff.Z),
		},
		DstSubresource: vulkan.ImageSubresourceLayers{
			AspectMask: aspect,
			LayerCount: 1,
		},
		DstOffset: vulkan.Offset3D{
			X: int32(param.ToOff.X),
			Y: int32(param.ToOff.Y),
			Z: int32(param.ToOff.Z),
		},
		Extent: vulkan.Extent3D{
			Width:  uint32(param.Size.Width),
			Height: uint32(param.Size.Height),
			Depth:  uint32(max(param.Size.Depth, 1)),
		},
	}}
	vulkan.CmdCopyImage(cb.cb, param.From.(*image).img, vulkan.ImageLayoutTransferSrcOptimal,
		param.To.(*image).img, vulkan.ImageLayoutTransferDstOptimal, 1, cpy)
}

// End ends command recording.
func (cb *cmdBuffer) End() error {
	cb.begun = false
	return checkResult(vulkan.EndCommandBuffer(cb.cb))
}

// Destroy frees the command buffer.
func (cb *cmdBuffer) Destroy() {
	if cb == nil {
		return
	}
	if cb.d != nil {
		vulkan.FreeCommandBuffers(cb.d.dev, cb.d.pool, 1, []vulkan.CommandBuffer{cb.cb})
	}
	*cb = cmdBuffer{}
}

// convSync converts a driver.Sync to VkPipelineStageFlags.
func convSync(s driver.Sync) vulkan.PipelineStageFlags {
	if s&driver.SAll != 0 {
		return vulkan.PipelineStageFlags(vulkan.PipelineStageAllCommandsBit)
	}
	var flags vulkan.PipelineStageFlagBits
	if s&driver.STopOfPipe != 0 {
		flags |= vulkan.PipelineStageTopOfPipeBit
	}
	if s&driver.SCopy != 0 {
		flags |= vulkan.PipelineStageTransferBit
	}
	if s&driver.SFragmentShading != 0 {
		flags |= vulkan.PipelineStageFragmentShaderBit
	}
	if s&driver.SColorOutput != 0 {
		flags |= vulkan.PipelineStageColorAttachmentOutputBit
	}
	if s&driver.SDSOutput != 0 {
		flags |= vulkan.PipelineStageEarlyFragmentTestsBit | vulkan.PipelineStageLateFragmentTestsBit
	}
	if s&driver.SHost != 0 {
		flags |= vulkan.PipelineStageHostBit
	}
	return vulkan.PipelineStageFlags(flags)
}

// convAccess converts a driver.Access to VkAccessFlags.
func convAccess(a driver.Access) vulkan.AccessFlags {
	var flags vulkan.AccessFlagBits
	if a&driver.AColorRead != 0 {
		flags |= vulkan.AccessColorAttachmentReadBit
	}
	if a&driver.AColorWrite != 0 {
		flags |= vulkan.AccessColorAttachmentWriteBit
	}
	if a&driver.ADSRead != 0 {
		flags |= vulkan.AccessDepthStencilAttachmentReadBit
	}
	if a&driver.ADSWrite != 0 {
		flags |= vulkan.AccessDepthStencilAttachmentWriteBit
	}
	if a&driver.ACopyRead != 0 {
		flags |= vulkan.AccessTransferReadBit
	}
	if a&driver.ACopyWrite != 0 {
		flags |= vulkan.AccessTransferWriteBit
	}
	if a&driver.AShaderRead != 0 {
		flags |= vulkan.AccessShaderReadBit
	}
	if a&driver.AInputRead != 0 {
		flags |= vulkan.AccessInputAttachmentReadBit
	}
	if a&driver.AHostWrite != 0 {
		flags |= vulkan.AccessHostWriteBit
	}
	return vulkan.AccessFlags(flags)
}
