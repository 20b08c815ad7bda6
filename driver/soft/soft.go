// Copyright 2026 Gustavo C. Viegas. All rights reserved.

// Package soft implements driver interfaces in software.
//
// It serves two purposes: a device for hosts that have no
// Vulkan implementation available and a reference device
// for testing. Submitted command buffers execute when
// WaitIdle is called, so resources destroyed before the
// queue is idle are detected as use-after-free errors.
package soft

import (
	"errors"
	"fmt"

	"github.com/gviegas/texup/driver"
)

// Op identifies a GPU operation for failure injection
// and tracing.
type Op int

// Operations.
const (
	OpNewImage Op = iota
	OpNewMemory
	OpBind
	OpMap
	OpNewView
	OpNewSampler
	OpNewCmdBuffer
	OpBegin
	OpEnd
	OpSubmit
	OpWaitIdle
	OpDestroyImage
	OpDestroyMemory
	OpDestroyCmdBuffer
	opN
)

var opNames = [opN]string{
	"NewImage",
	"NewMemory",
	"Bind",
	"Map",
	"NewView",
	"NewSampler",
	"NewCmdBuffer",
	"Begin",
	"End",
	"Submit",
	"WaitIdle",
	"DestroyImage",
	"DestroyMemory",
	"DestroyCmdBuffer",
}

// String implements fmt.Stringer.
func (op Op) String() string {
	if op < 0 || op >= opN {
		return "invalid"
	}
	return opNames[op]
}

// Event is an entry of the GPU trace.
// ID identifies the object that the operation created
// or targeted.
type Event struct {
	Op Op
	ID int
}

// Config describes a software device.
type Config struct {
	// Memory types exposed by the device.
	Types []driver.MemoryType
	// Features supported by each pixel format.
	// Formats not present in the map are unsupported.
	Formats map[driver.PixelFmt]driver.FormatProps
	// Alignment of linear image rows, in bytes.
	// It must be a power of two.
	RowAlign int
	// Memory types that linear/optimal images can be
	// bound to (bit i refers to Types[i]).
	LinearTypes  uint32
	OptimalTypes uint32
}

// DefaultConfig returns the configuration that New uses
// when cfg is nil.
// It describes a discrete GPU: one device-local type, two
// host-visible types, BGRA8un/RGBA8un sampling in both
// tiling modes and 256-byte row alignment.
func DefaultConfig() *Config {
	color := driver.FeatSampled | driver.FeatColorTarget | driver.FeatCopySrc | driver.FeatCopyDst
	linear := driver.FeatSampled | driver.FeatCopySrc | driver.FeatCopyDst
	return &Config{
		Types: []driver.MemoryType{
			{Prop: driver.MDeviceLocal, Heap: 0},
			{Prop: driver.MHostVisible | driver.MHostCoherent, Heap: 1},
			{Prop: driver.MHostVisible | driver.MHostCoherent | driver.MHostCached, Heap: 1},
		},
		Formats: map[driver.PixelFmt]driver.FormatProps{
			driver.BGRA8un:   {Linear: linear, Optimal: color},
			driver.RGBA8un:   {Linear: linear, Optimal: color},
			driver.BGRA8sRGB: {Optimal: color},
			driver.RGBA8sRGB: {Optimal: color},
			driver.R8un:      {Linear: linear, Optimal: color},
			driver.D16un:     {Optimal: driver.FeatDSTarget | driver.FeatSampled},
			driver.D32f:      {Optimal: driver.FeatDSTarget | driver.FeatSampled},
		},
		RowAlign:     256,
		LinearTypes:  0b111,
		OptimalTypes: 0b111,
	}
}

// Stats counts objects and executed work.
type Stats struct {
	// Live objects.
	Images     int
	Memories   int
	Views      int
	Samplers   int
	CmdBuffers int
	// Totals.
	ImagesCreated int
	Submits       int
	Waits         int
	Transitions   int
	Copies        int
}

// GPU implements driver.GPU.
type GPU struct {
	cfg   Config
	next  int
	stats Stats
	trace []Event
	fail  map[Op]error
	// Submitted command buffers, in order.
	queue []*cmdBuffer
}

// New creates a new software GPU.
// If cfg is nil, DefaultConfig is used.
func New(cfg *Config) *GPU {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.RowAlign <= 0 || cfg.RowAlign&(cfg.RowAlign-1) != 0 {
		panic("soft.New: RowAlign is not a power of two")
	}
	g := &GPU{cfg: *cfg, fail: make(map[Op]error)}
	g.cfg.Types = append([]driver.MemoryType(nil), cfg.Types...)
	return g
}

// FailNext causes the next call of op to fail with err.
func (g *GPU) FailNext(op Op, err error) { g.fail[op] = err }

// Stats returns the current counters.
func (g *GPU) Stats() Stats { return g.stats }

// Trace returns the operations performed so far.
func (g *GPU) Trace() []Event { return append([]Event(nil), g.trace...) }

// check consumes an injected failure for op, if any.
func (g *GPU) check(op Op) error {
	if err, ok := g.fail[op]; ok {
		delete(g.fail, op)
		return err
	}
	return nil
}

// newID returns a new object identifier.
func (g *GPU) newID() int {
	g.next++
	return g.next
}

// record appends an event to the trace.
func (g *GPU) record(op Op, id int) { g.trace = append(g.trace, Event{op, id}) }

// FormatProps returns the features supported by pf.
func (g *GPU) FormatProps(pf driver.PixelFmt) driver.FormatProps { return g.cfg.Formats[pf] }

// MemoryTypes returns the memory types of the device.
func (g *GPU) MemoryTypes() []driver.MemoryType { return g.cfg.Types }

// memory implements driver.Memory.
type memory struct {
	g      *GPU
	id     int
	typ    int
	data   []byte
	mapped bool
	dead   bool
}

// NewMemory allocates device memory.
func (g *GPU) NewMemory(size int64, typ int) (driver.Memory, error) {
	if err := g.check(OpNewMemory); err != nil {
		return nil, err
	}
	if size <= 0 {
		return nil, errors.New("soft: invalid memory size")
	}
	if typ < 0 || typ >= len(g.cfg.Types) {
		return nil, errors.New("soft: memory type index out of bounds")
	}
	m := &memory{g: g, id: g.newID(), typ: typ, data: make([]byte, size)}
	g.stats.Memories++
	g.record(OpNewMemory, m.id)
	return m, nil
}

// Size returns the size of the allocation.
func (m *memory) Size() int64 { return int64(len(m.data)) }

// visible returns whether m is host visible.
func (m *memory) visible() bool {
	return m.g.cfg.Types[m.typ].Prop&driver.MHostVisible != 0
}

// Map maps the memory for host access.
func (m *memory) Map() ([]byte, error) {
	if m.dead {
		panic("soft: Map called on destroyed memory")
	}
	if err := m.g.check(OpMap); err != nil {
		return nil, err
	}
	if !m.visible() {
		return nil, fmt.Errorf("%w: memory type %d is not host visible", driver.ErrMapFailed, m.typ)
	}
	if m.mapped {
		return nil, fmt.Errorf("%w: memory is already mapped", driver.ErrMapFailed)
	}
	m.mapped = true
	m.g.record(OpMap, m.id)
	return m.data, nil
}

// Unmap unmaps the memory.
func (m *memory) Unmap() { m.mapped = false }

// Destroy frees the memory.
func (m *memory) Destroy() {
	if m == nil || m.dead {
		return
	}
	m.dead = true
	m.mapped = false
	m.g.stats.Memories--
	m.g.record(OpDestroyMemory, m.id)
}

// WaitIdle executes every submitted command buffer, in
// submission order.
// Validation failures are reported as driver.ErrFatal.
func (g *GPU) WaitIdle() error {
	if err := g.check(OpWaitIdle); err != nil {
		// Pending work is lost.
		for _, cb := range g.queue {
			cb.pending = false
		}
		g.queue = g.queue[:0]
		return err
	}
	g.stats.Waits++
	g.record(OpWaitIdle, 0)
	var err error
	for _, cb := range g.queue {
		if e := cb.execute(); e != nil && err == nil {
			err = fmt.Errorf("%w: %v", driver.ErrFatal, e)
		}
		cb.pending = false
	}
	g.queue = g.queue[:0]
	return err
}

// Submit enqueues cb for execution.
func (g *GPU) Submit(cb driver.CmdBuffer) error {
	c := cb.(*cmdBuffer)
	if err := g.check(OpSubmit); err != nil {
		return err
	}
	switch {
	case c.dead:
		return errors.New("soft: submission of destroyed command buffer")
	case c.recording:
		return errors.New("soft: submission of command buffer that is recording")
	case !c.ended:
		return errors.New("soft: submission of command buffer that was not ended")
	case c.pending:
		return errors.New("soft: command buffer is already pending")
	}
	c.pending = true
	g.queue = append(g.queue, c)
	g.stats.Submits++
	g.record(OpSubmit, c.id)
	return nil
}
