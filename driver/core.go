// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package driver

// GPU is the main interface to an underlying driver
// implementation.
// It wraps a device context that was created elsewhere
// (physical device, logical device, submission queue and
// command pool) and is used to create other types and to
// execute commands.
// GPU methods are not safe for parallel execution unless
// stated otherwise.
type GPU interface {
	// FormatProps returns the features that the device
	// supports for a given pixel format, per tiling mode.
	FormatProps(pf PixelFmt) FormatProps

	// MemoryTypes returns the memory types exposed by
	// the device, in the order that the device reports
	// them. Bit i of MemReq.TypeBits refers to the i-th
	// element.
	// The slice must not be modified by the caller.
	MemoryTypes() []MemoryType

	// NewImage creates a new 2D image with a single
	// mip level and a single layer.
	// The image has no memory bound to it; callers must
	// call Image.Bind before using it.
	// init must be either LUndefined or LPreinit.
	NewImage(pf PixelFmt, size Dim3D, tiling Tiling, usg Usage, init Layout) (Image, error)

	// NewMemory allocates size bytes of device memory
	// from the memory type at index typ.
	NewMemory(size int64, typ int) (Memory, error)

	// NewCmdBuffer allocates a new primary command
	// buffer from the command pool.
	NewCmdBuffer() (CmdBuffer, error)

	// Submit submits a single command buffer to the
	// queue, with no wait or signal operations.
	// cb must have been ended.
	Submit(cb CmdBuffer) error

	// WaitIdle blocks until the queue is idle.
	WaitIdle() error

	// NewSampler creates a new sampler.
	NewSampler(spln *Sampling) (Sampler, error)
}

// CmdBuffer is the interface that defines a command buffer.
// Commands are recorded into command buffers and later
// submitted to the GPU for execution. The usage is as
// follows:
//
//  1. call Begin to prepare the command buffer for recording
//  2. call Transition/CopyImage as needed
//  3. call End and, if it succeeds, GPU.Submit
//
// Destroy returns the command buffer to its pool. It must
// not be called while the GPU is still executing it.
type CmdBuffer interface {
	Destroyer

	// Begin prepares the command buffer for recording.
	// The command buffer is meant to be submitted once
	// and is recorded outside of any render pass.
	Begin() error

	// IsRecording returns whether Begin was called and
	// End was not.
	IsRecording() bool

	// Transition inserts a number of image layout
	// transitions in the command buffer.
	Transition(t []Transition)

	// CopyImage copies data between images.
	// The source must be in the LCopySrc layout and the
	// destination in the LCopyDst layout when the copy
	// executes.
	CopyImage(param *ImageCopy)

	// End ends command recording and prepares the
	// command buffer for execution.
	End() error
}

// ImageCopy describes the parameters of a copy command
// that copies data from one image to another.
type ImageCopy struct {
	From    Image
	FromOff Off3D
	To      Image
	ToOff   Off3D
	Size    Dim3D
	Aspect  Aspect
}

// Sync is the type of a synchronization scope.
type Sync int

// Synchronization scopes.
const (
	STopOfPipe Sync = 1 << iota
	SCopy
	SFragmentShading
	SColorOutput
	SDSOutput
	SHost
	SAll
	SNone Sync = 0
)

// Access is the type of a memory access scope.
type Access int

// Memory access scopes.
const (
	AColorRead Access = 1 << iota
	AColorWrite
	ADSRead
	ADSWrite
	ACopyRead
	ACopyWrite
	AShaderRead
	AInputRead
	AHostWrite
	ANone Access = 0
)

// Layout is the type of an image layout.
type Layout int

// Image layouts.
const (
	LUndefined Layout = iota
	LPreinit
	LColorTarget
	LDSTarget
	LCopySrc
	LCopyDst
	LShaderRead
)

// String implements fmt.Stringer.
func (l Layout) String() string {
	switch l {
	case LUndefined:
		return "undefined"
	case LPreinit:
		return "preinitialized"
	case LColorTarget:
		return "color-attachment"
	case LDSTarget:
		return "depth-stencil-attachment"
	case LCopySrc:
		return "transfer-src"
	case LCopyDst:
		return "transfer-dst"
	case LShaderRead:
		return "shader-read-only"
	}
	return "invalid"
}

// Aspect is the type of an image aspect mask.
type Aspect int

// Image aspects.
const (
	AspectColor Aspect = 1 << iota
	AspectDepth
	AspectStencil
)

// Barrier represents a synchronization barrier.
type Barrier struct {
	SyncBefore   Sync
	SyncAfter    Sync
	AccessBefore Access
	AccessAfter  Access
}

// Transition represents a layout transition on the
// single subresource of an image.
type Transition struct {
	Barrier

	LayoutBefore Layout
	LayoutAfter  Layout
	Img          Image
	Aspect       Aspect
}

// Usage is the type of a resource usage.
type Usage int

// Resource usages.
const (
	UShaderRead Usage = 1 << iota
	UShaderWrite
	UShaderSample
	URenderTarget
	UCopySrc
	UCopyDst
	UGeneric Usage = 1<<iota - 1
)

// Tiling is the type of an image tiling mode.
type Tiling int

// Tiling modes.
const (
	// TOptimal images have an implementation-defined
	// memory arrangement. They cannot be accessed by
	// the host.
	TOptimal Tiling = iota
	// TLinear images are stored in row-major order.
	// Rows may be padded; see Image.RowLayout.
	TLinear
)

// String implements fmt.Stringer.
func (t Tiling) String() string {
	switch t {
	case TOptimal:
		return "optimal"
	case TLinear:
		return "linear"
	}
	return "invalid"
}

// FormatFeature is the type of a pixel format feature.
type FormatFeature int

// Format features.
const (
	FeatSampled FormatFeature = 1 << iota
	FeatColorTarget
	FeatDSTarget
	FeatCopySrc
	FeatCopyDst
)

// FormatProps describes the features that a device
// supports for a given pixel format.
type FormatProps struct {
	Linear  FormatFeature
	Optimal FormatFeature
}

// MemProp is the type of memory property flags.
type MemProp int

// Memory properties.
const (
	MDeviceLocal MemProp = 1 << iota
	MHostVisible
	MHostCoherent
	MHostCached
)

// MemoryType describes a memory type exposed by a device.
type MemoryType struct {
	Prop MemProp
	Heap int
}

// MemReq describes the memory requirements of a resource.
type MemReq struct {
	Size  int64
	Align int64
	// Bit i is set if the resource can be bound to
	// memory of the i-th type.
	TypeBits uint32
}

// RowLayout describes how the texels of a linear image
// are arranged in memory.
// Row y starts at Offset + y*RowPitch bytes.
type RowLayout struct {
	Offset   int64
	Size     int64
	RowPitch int64
}

// Memory is the interface that defines a device memory
// allocation.
type Memory interface {
	Destroyer

	// Size returns the size of the allocation in bytes.
	Size() int64

	// Map maps the whole allocation for host access.
	// Only host-visible memory can be mapped.
	// The returned slice is valid until Unmap is called.
	Map() ([]byte, error)

	// Unmap unmaps the memory.
	// Unmapping memory that is not mapped has no effect.
	Unmap()
}

// PixelFmt describes the format of a pixel.
type PixelFmt int

// Pixel formats.
const (
	FInvalid PixelFmt = iota
	// Color, 8-bit channels.
	RGBA8un
	RGBA8sRGB
	BGRA8un
	BGRA8sRGB
	RG8un
	R8un
	// Color, 16/32-bit channels.
	RGBA16f
	RGBA32f
	// Depth/Stencil.
	D16un
	D32f
	D24unS8ui
)

// Size returns the number of bytes of a single pixel.
func (f PixelFmt) Size() int {
	switch f {
	case RGBA8un, RGBA8sRGB, BGRA8un, BGRA8sRGB, D32f, D24unS8ui:
		return 4
	case RG8un, D16un:
		return 2
	case R8un:
		return 1
	case RGBA16f:
		return 8
	case RGBA32f:
		return 16
	}
	return 0
}

// Aspect returns the aspect mask of images with format f.
func (f PixelFmt) Aspect() Aspect {
	switch f {
	case FInvalid:
		return 0
	case D16un, D32f:
		return AspectDepth
	case D24unS8ui:
		return AspectDepth | AspectStencil
	}
	return AspectColor
}

// String implements fmt.Stringer.
func (f PixelFmt) String() string {
	switch f {
	case RGBA8un:
		return "RGBA8un"
	case RGBA8sRGB:
		return "RGBA8sRGB"
	case BGRA8un:
		return "BGRA8un"
	case BGRA8sRGB:
		return "BGRA8sRGB"
	case RG8un:
		return "RG8un"
	case R8un:
		return "R8un"
	case RGBA16f:
		return "RGBA16f"
	case RGBA32f:
		return "RGBA32f"
	case D16un:
		return "D16un"
	case D32f:
		return "D32f"
	case D24unS8ui:
		return "D24unS8ui"
	}
	return "FInvalid"
}

// Dim3D is a three-dimensional size.
type Dim3D struct {
	Width, Height, Depth int
}

// Off3D is a three-dimensional offset.
type Off3D struct {
	X, Y, Z int
}

// Image is the interface that defines a GPU image.
type Image interface {
	Destroyer

	// Requirements returns the memory requirements of
	// the image.
	Requirements() MemReq

	// Bind binds m to the image, at offset 0.
	// It must be called exactly once, before the image
	// is used in any command.
	Bind(m Memory) error

	// RowLayout returns the arrangement of texels of
	// a linear image in its bound memory.
	// Calling RowLayout on an optimal image is an error.
	RowLayout() (RowLayout, error)

	// NewView creates a new 2D image view covering the
	// whole image, with identity swizzle.
	// All views created from a given image must be
	// destroyed before the image itself is destroyed.
	NewView() (ImageView, error)
}

// ImageView is the interface that defines a typed view of
// an Image resource.
type ImageView interface {
	Destroyer

	// Image returns the image from which the view was
	// created.
	Image() Image
}

// Filter is the type of sampler filters.
type Filter int

// Filters.
const (
	FNearest Filter = iota
	FLinear
)

// AddrMode is the type of sampler address modes.
type AddrMode int

// Address modes.
const (
	AWrap AddrMode = iota
	AMirror
	AClamp
)

// Sampler is the interface that defines an image sampler.
type Sampler interface {
	Destroyer
}

// Sampling describes image sampler state.
type Sampling struct {
	Min    Filter
	Mag    Filter
	Mipmap Filter
	AddrU  AddrMode
	AddrV  AddrMode
	AddrW  AddrMode
	MinLOD float32
	MaxLOD float32
}
