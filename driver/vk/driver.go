// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package vk implements driver interfaces using the Vulkan API.
//
// The package does not create Vulkan instances nor devices.
// The host application is expected to initialize the loader
// (vulkan.Init), create the device and its command pool and
// then wrap them with New.
package vk

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/goki/vulkan"

	"github.com/gviegas/texup/driver"
)

// Context holds the Vulkan objects that a Driver wraps.
// They are owned by the caller and must outlive the Driver.
type Context struct {
	PhysDevice vulkan.PhysicalDevice
	Device     vulkan.Device
	Queue      vulkan.Queue
	// CmdPool must have been created for the queue family
	// of Queue.
	CmdPool vulkan.CommandPool
}

// Driver implements driver.GPU.
type Driver struct {
	pdev  vulkan.PhysicalDevice
	dev   vulkan.Device
	que   vulkan.Queue
	pool  vulkan.CommandPool
	mtyps []driver.MemoryType
	// Bytes allocated per heap.
	mused []int64
}

// New creates a new Driver that wraps c.
func New(c Context) (*Driver, error) {
	if c.PhysDevice == nil || c.Device == nil || c.Queue == nil {
		return nil, driver.ErrNoDevice
	}
	d := &Driver{
		pdev: c.PhysDevice,
		dev:  c.Device,
		que:  c.Queue,
		pool: c.CmdPool,
	}
	var mprop vulkan.PhysicalDeviceMemoryProperties
	vulkan.GetPhysicalDeviceMemoryProperties(d.pdev, &mprop)
	mprop.Deref()
	d.mtyps = make([]driver.MemoryType, mprop.MemoryTypeCount)
	for i := range d.mtyps {
		mt := mprop.MemoryTypes[i]
		mt.Deref()
		d.mtyps[i] = driver.MemoryType{
			Prop: internalMemProp(mt.PropertyFlags),
			Heap: int(mt.HeapIndex),
		}
	}
	d.mused = make([]int64, mprop.MemoryHeapCount)
	return d, nil
}

// FormatProps returns the features supported for pf.
func (d *Driver) FormatProps(pf driver.PixelFmt) driver.FormatProps {
	var props vulkan.FormatProperties
	vulkan.GetPhysicalDeviceFormatProperties(d.pdev, convPixelFmt(pf), &props)
	props.Deref()
	return driver.FormatProps{
		Linear:  internalFeat(props.LinearTilingFeatures),
		Optimal: internalFeat(props.OptimalTilingFeatures),
	}
}

// MemoryTypes returns the memory types of the device.
func (d *Driver) MemoryTypes() []driver.MemoryType { return d.mtyps }

// HeapUsage returns the number of bytes currently allocated
// from the given heap.
func (d *Driver) HeapUsage(heap int) int64 { return d.mused[heap] }

// Submit submits cb to the queue.
func (d *Driver) Submit(cb driver.CmdBuffer) error {
	c := cb.(*cmdBuffer)
	info := []vulkan.SubmitInfo{{
		SType:              vulkan.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vulkan.CommandBuffer{c.cb},
	}}
	return checkResult(vulkan.QueueSubmit(d.que, 1, info, vulkan.NullFence))
}

// WaitIdle waits for the queue to become idle.
func (d *Driver) WaitIdle() error { return checkResult(vulkan.QueueWaitIdle(d.que)) }

// memory implements driver.Memory.
type memory struct {
	d    *Driver
	size int64
	vis  bool
	p    []byte
	mem  vulkan.DeviceMemory
	typ  int
	heap int
}

// NewMemory creates a new memory allocation.
func (d *Driver) NewMemory(size int64, typ int) (driver.Memory, error) {
	if typ < 0 || typ >= len(d.mtyps) {
		return nil, errors.New("vk: memory type index out of bounds")
	}
	info := vulkan.MemoryAllocateInfo{
		SType:           vulkan.StructureTypeMemoryAllocateInfo,
		AllocationSize:  vulkan.DeviceSize(size),
		MemoryTypeIndex: uint32(typ),
	}
	var mem vulkan.DeviceMemory
	if err := checkResult(vulkan.AllocateMemory(d.dev, &info, nil, &mem)); err != nil {
		return nil, err
	}
	heap := d.mtyps[typ].Heap
	d.mused[heap] += size

	return &memory{
		d:    d,
		size: size,
		vis:  d.mtyps[typ].Prop&driver.MHostVisible != 0,
		mem:  mem,
		typ:  typ,
		heap: heap,
	}, nil
}

// Size returns the size of the allocation.
func (m *memory) Size() int64 { return m.size }

// Map maps the memory for host access.
func (m *memory) Map() ([]byte, error) {
	if !m.vis {
		return nil, fmt.Errorf("%w: memory type %d is not host visible", driver.ErrMapFailed, m.typ)
	}
	if len(m.p) == 0 {
		var p unsafe.Pointer
		if err := checkResult(vulkan.MapMemory(m.d.dev, m.mem, 0, vulkan.DeviceSize(m.size), 0, &p)); err != nil {
			return nil, err
		}
		m.p = unsafe.Slice((*byte)(p), m.size)
	}
	return m.p, nil
}

// Unmap unmaps the memory.
func (m *memory) Unmap() {
	if len(m.p) != 0 {
		vulkan.UnmapMemory(m.d.dev, m.mem)
		m.p = nil
	}
}

// Destroy frees the memory.
func (m *memory) Destroy() {
	if m == nil {
		return
	}
	if m.d != nil {
		m.Unmap()
		vulkan.FreeMemory(m.d.dev, m.mem, nil)
		m.d.mused[m.heap] -= m.size
	}
	*m = memory{}
}

// internalMemProp converts VkMemoryPropertyFlags to a
// driver.MemProp.
func internalMemProp(flags vulkan.MemoryPropertyFlags) (prop driver.MemProp) {
	if flags&vulkan.MemoryPropertyFlags(vulkan.MemoryPropertyDeviceLocalBit) != 0 {
		prop |= driver.MDeviceLocal
	}
	if flags&vulkan.MemoryPropertyFlags(vulkan.MemoryPropertyHostVisibleBit) != 0 {
		prop |= driver.MHostVisible
	}
	if flags&vulkan.MemoryPropertyFlags(vulkan.MemoryPropertyHostCoherentBit) != 0 {
		prop |= driver.MHostCoherent
	}
	if flags&vulkan.MemoryPropertyFlags(vulkan.MemoryPropertyHostCachedBit) != 0 {
		prop |= driver.MHostCached
	}
	return
}

// internalFeat converts VkFormatFeatureFlags to a
// driver.FormatFeature.
func internalFeat(flags vulkan.FormatFeatureFlags) (feat driver.FormatFeature) {
	if flags&vulkan.FormatFeatureFlags(vulkan.FormatFeatureSampledImageBit) != 0 {
		feat |= driver.FeatSampled
	}
	if flags&vulkan.FormatFeatureFlags(vulkan.FormatFeatureColorAttachmentBit) != 0 {
		feat |= driver.FeatColorTarget
	}
	if flags&vulkan.FormatFeatureFlags(vulkan.FormatFeatureDepthStencilAttachmentBit) != 0 {
		feat |= driver.FeatDSTarget
	}
	if flags&vulkan.FormatFeatureFlags(vulkan.FormatFeatureTransferSrcBit) != 0 {
		feat |= driver.FeatCopySrc
	}
	if flags&vulkan.FormatFeatureFlags(vulkan.FormatFeatureTransferDstBit) != 0 {
		feat |= driver.FeatCopyDst
	}
	return
}

// checkResult returns an error derived from a VkResult value.
// If such value does not indicate an error, it returns nil instead.
func checkResult(res vulkan.Result) error {
	if res >= 0 {
		// Not an error: VK_ERROR_* values are all negative.
		return nil
	}
	switch res {
	case vulkan.ErrorOutOfHostMemory:
		return driver.ErrNoHostMemory
	case vulkan.ErrorOutOfDeviceMemory:
		return driver.ErrNoDeviceMemory
	case vulkan.ErrorDeviceLost:
		return driver.ErrFatal
	case vulkan.ErrorMemoryMapFailed:
		return driver.ErrMapFailed
	case vulkan.ErrorFormatNotSupported:
		return driver.ErrUnsupported
	}
	return fmt.Errorf("vk: %w", vulkan.Error(res))
}
