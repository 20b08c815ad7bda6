// Copyright 2026 Gustavo C. Viegas. All rights reserved.

package soft

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/gviegas/texup/driver"
)

func newBound(t *testing.T, g *GPU, w, h int, tiling driver.Tiling, usg driver.Usage, init driver.Layout, typ int) driver.Image {
	t.Helper()
	img, err := g.NewImage(driver.BGRA8un, driver.Dim3D{Width: w, Height: h}, tiling, usg, init)
	if err != nil {
		t.Fatalf("GPU.NewImage: %v", err)
	}
	mem, err := g.NewMemory(img.Requirements().Size, typ)
	if err != nil {
		t.Fatalf("GPU.NewMemory: %v", err)
	}
	if err := img.Bind(mem); err != nil {
		t.Fatalf("Image.Bind: %v", err)
	}
	return img
}

func TestRowLayout(t *testing.T) {
	g := New(nil)
	cases := [...]struct {
		w, h  int
		pitch int64
	}{
		{1, 1, 256},
		{64, 2, 256},
		{65, 3, 512},
		{3, 5, 256},
		{257, 1, 1280},
	}
	for _, c := range cases {
		img, err := g.NewImage(driver.BGRA8un, driver.Dim3D{Width: c.w, Height: c.h}, driver.TLinear, driver.UShaderSample, driver.LPreinit)
		if err != nil {
			t.Fatalf("GPU.NewImage: %v", err)
		}
		rl, err := img.RowLayout()
		if err != nil {
			t.Fatalf("Image.RowLayout: %v", err)
		}
		if rl.RowPitch != c.pitch {
			t.Errorf("RowLayout().RowPitch (%dx%d)\nhave %d\nwant %d", c.w, c.h, rl.RowPitch, c.pitch)
		}
		if rl.Size != c.pitch*int64(c.h) {
			t.Errorf("RowLayout().Size (%dx%d)\nhave %d\nwant %d", c.w, c.h, rl.Size, c.pitch*int64(c.h))
		}
		img.Destroy()
	}
	img, _ := g.NewImage(driver.BGRA8un, driver.Dim3D{Width: 4, Height: 4}, driver.TOptimal, driver.UShaderSample, driver.LUndefined)
	if _, err := img.RowLayout(); !errors.Is(err, driver.ErrUnsupported) {
		t.Errorf("RowLayout() of optimal image\nhave %v\nwant %v", err, driver.ErrUnsupported)
	}
	img.Destroy()
	if n := g.Stats().Images; n != 0 {
		t.Errorf("Stats().Images\nhave %d\nwant 0", n)
	}
}

func TestNewImageUnsupported(t *testing.T) {
	g := New(nil)
	// BGRA8sRGB has no linear features in the default config.
	if _, err := g.NewImage(driver.BGRA8sRGB, driver.Dim3D{Width: 2, Height: 2}, driver.TLinear, driver.UShaderSample, driver.LPreinit); !errors.Is(err, driver.ErrUnsupported) {
		t.Errorf("GPU.NewImage (linear BGRA8sRGB)\nhave %v\nwant %v", err, driver.ErrUnsupported)
	}
	if _, err := g.NewImage(driver.BGRA8un, driver.Dim3D{Width: 0, Height: 2}, driver.TOptimal, driver.UShaderSample, driver.LUndefined); !errors.Is(err, driver.ErrUnsupported) {
		t.Errorf("GPU.NewImage (zero width)\nhave %v\nwant %v", err, driver.ErrUnsupported)
	}
	if _, err := g.NewImage(driver.BGRA8un, driver.Dim3D{Width: 2, Height: 2}, driver.TOptimal, driver.UShaderSample, driver.LShaderRead); !errors.Is(err, driver.ErrUnsupported) {
		t.Errorf("GPU.NewImage (initial LShaderRead)\nhave %v\nwant %v", err, driver.ErrUnsupported)
	}
}

func TestMap(t *testing.T) {
	g := New(nil)
	dev, _ := g.NewMemory(64, 0)
	if _, err := dev.Map(); !errors.Is(err, driver.ErrMapFailed) {
		t.Errorf("Memory.Map (device-local)\nhave %v\nwant %v", err, driver.ErrMapFailed)
	}
	host, _ := g.NewMemory(64, 1)
	p, err := host.Map()
	if err != nil {
		t.Fatalf("Memory.Map (host-visible): %v", err)
	}
	if len(p) != 64 {
		t.Errorf("len(Memory.Map())\nhave %d\nwant 64", len(p))
	}
	if _, err := host.Map(); err == nil {
		t.Error("Memory.Map (already mapped)\nhave nil\nwant error")
	}
	host.Unmap()
	dev.Destroy()
	host.Destroy()
	host.Destroy()
	if n := g.Stats().Memories; n != 0 {
		t.Errorf("Stats().Memories\nhave %d\nwant 0", n)
	}
}

func TestDeferredExecution(t *testing.T) {
	g := New(nil)
	src := newBound(t, g, 5, 3, driver.TLinear, driver.UCopySrc, driver.LPreinit, 1)
	dst := newBound(t, g, 5, 3, driver.TOptimal, driver.UCopyDst|driver.UShaderSample, driver.LUndefined, 0)
	rl, _ := src.RowLayout()
	p, err := src.(*image).mem.Map()
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < 3; y++ {
		for x := 0; x < 5; x++ {
			binary.LittleEndian.PutUint32(p[rl.Offset+int64(y)*rl.RowPitch+int64(x)*4:], uint32(y<<8|x))
		}
	}
	src.(*image).mem.Unmap()

	cb, _ := g.NewCmdBuffer()
	if err := cb.Begin(); err != nil {
		t.Fatal(err)
	}
	if !cb.IsRecording() {
		t.Fatal("CmdBuffer.IsRecording\nhave false\nwant true")
	}
	cb.Transition([]driver.Transition{
		{LayoutBefore: driver.LPreinit, LayoutAfter: driver.LCopySrc, Img: src, Aspect: driver.AspectColor},
		{LayoutBefore: driver.LUndefined, LayoutAfter: driver.LCopyDst, Img: dst, Aspect: driver.AspectColor},
	})
	cb.CopyImage(&driver.ImageCopy{From: src, To: dst, Size: driver.Dim3D{Width: 5, Height: 3, Depth: 1}, Aspect: driver.AspectColor})
	cb.Transition([]driver.Transition{
		{LayoutBefore: driver.LCopyDst, LayoutAfter: driver.LShaderRead, Img: dst, Aspect: driver.AspectColor},
	})
	if err := cb.End(); err != nil {
		t.Fatal(err)
	}
	if err := g.Submit(cb); err != nil {
		t.Fatal(err)
	}
	if l := g.Layout(dst); l != driver.LUndefined {
		t.Errorf("Layout(dst) before WaitIdle\nhave %v\nwant %v", l, driver.LUndefined)
	}
	if err := g.WaitIdle(); err != nil {
		t.Fatalf("GPU.WaitIdle: %v", err)
	}
	cb.Destroy()
	if l := g.Layout(dst); l != driver.LShaderRead {
		t.Errorf("Layout(dst)\nhave %v\nwant %v", l, driver.LShaderRead)
	}
	s := g.Stats()
	if s.Transitions != 3 || s.Copies != 1 || s.Submits != 1 || s.Waits != 1 || s.CmdBuffers != 0 {
		t.Errorf("Stats()\nhave %+v\nwant 3 transitions, 1 copy, 1 submit, 1 wait, 0 command buffers", s)
	}
	d := dst.(*image)
	for y := 0; y < 3; y++ {
		for x := 0; x < 5; x++ {
			if v := binary.LittleEndian.Uint32(d.texel(x, y)); v != uint32(y<<8|x) {
				t.Errorf("dst texel (%d, %d)\nhave 0x%x\nwant 0x%x", x, y, v, y<<8|x)
			}
		}
	}
}

func TestUseAfterDestroy(t *testing.T) {
	g := New(nil)
	src := newBound(t, g, 2, 2, driver.TLinear, driver.UCopySrc, driver.LPreinit, 1)
	dst := newBound(t, g, 2, 2, driver.TOptimal, driver.UCopyDst, driver.LUndefined, 0)
	cb, _ := g.NewCmdBuffer()
	cb.Begin()
	cb.Transition([]driver.Transition{
		{LayoutBefore: driver.LPreinit, LayoutAfter: driver.LCopySrc, Img: src, Aspect: driver.AspectColor},
		{LayoutBefore: driver.LUndefined, LayoutAfter: driver.LCopyDst, Img: dst, Aspect: driver.AspectColor},
	})
	cb.CopyImage(&driver.ImageCopy{From: src, To: dst, Size: driver.Dim3D{Width: 2, Height: 2, Depth: 1}, Aspect: driver.AspectColor})
	cb.End()
	g.Submit(cb)
	// Not idle yet.
	src.Destroy()
	if err := g.WaitIdle(); !errors.Is(err, driver.ErrFatal) {
		t.Errorf("GPU.WaitIdle\nhave %v\nwant %v", err, driver.ErrFatal)
	}
}

func TestLayoutMismatch(t *testing.T) {
	g := New(nil)
	img := newBound(t, g, 2, 2, driver.TOptimal, driver.UShaderSample, driver.LUndefined, 0)
	cb, _ := g.NewCmdBuffer()
	cb.Begin()
	cb.Transition([]driver.Transition{
		{LayoutBefore: driver.LCopyDst, LayoutAfter: driver.LShaderRead, Img: img, Aspect: driver.AspectColor},
	})
	cb.End()
	g.Submit(cb)
	if err := g.WaitIdle(); !errors.Is(err, driver.ErrFatal) {
		t.Errorf("GPU.WaitIdle\nhave %v\nwant %v", err, driver.ErrFatal)
	}
	if err := g.Submit(cb); err != nil {
		t.Errorf("GPU.Submit after WaitIdle\nhave %v\nwant nil", err)
	}
	g.WaitIdle()
	cb.Destroy()
}

func TestSubmitNotEnded(t *testing.T) {
	g := New(nil)
	cb, _ := g.NewCmdBuffer()
	if err := g.Submit(cb); err == nil {
		t.Error("GPU.Submit (never begun)\nhave nil\nwant error")
	}
	cb.Begin()
	if err := g.Submit(cb); err == nil {
		t.Error("GPU.Submit (recording)\nhave nil\nwant error")
	}
	cb.Destroy()
}

func TestFailNext(t *testing.T) {
	g := New(nil)
	g.FailNext(OpNewMemory, driver.ErrNoDeviceMemory)
	if _, err := g.NewMemory(16, 0); err != driver.ErrNoDeviceMemory {
		t.Errorf("GPU.NewMemory\nhave %v\nwant %v", err, driver.ErrNoDeviceMemory)
	}
	if _, err := g.NewMemory(16, 0); err != nil {
		t.Errorf("GPU.NewMemory (second call)\nhave %v\nwant nil", err)
	}
}

func TestSample(t *testing.T) {
	g := New(nil)
	img := newBound(t, g, 2, 2, driver.TLinear, driver.UShaderSample, driver.LPreinit, 1)
	rl, _ := img.RowLayout()
	p, _ := img.(*image).mem.Map()
	texels := [2][2]uint32{{0xffff0000, 0xff00ff00}, {0xff00ff00, 0xffff0000}}
	for y := range texels {
		for x, v := range texels[y] {
			binary.LittleEndian.PutUint32(p[rl.Offset+int64(y)*rl.RowPitch+int64(x)*4:], v)
		}
	}
	img.(*image).mem.Unmap()
	view, _ := img.NewView()
	spl, _ := g.NewSampler(&driver.Sampling{})

	if _, err := g.Sample(spl, view, 0, 0); err == nil {
		t.Error("GPU.Sample (LPreinit)\nhave nil\nwant error")
	}
	cb, _ := g.NewCmdBuffer()
	cb.Begin()
	cb.Transition([]driver.Transition{
		{LayoutBefore: driver.LPreinit, LayoutAfter: driver.LShaderRead, Img: img, Aspect: driver.AspectColor},
	})
	cb.End()
	g.Submit(cb)
	if err := g.WaitIdle(); err != nil {
		t.Fatal(err)
	}
	cb.Destroy()

	cases := [...]struct {
		u, v float32
		want uint32
	}{
		{0.25, 0.25, 0xffff0000},
		{0.75, 0.25, 0xff00ff00},
		{0.25, 0.75, 0xff00ff00},
		{0.75, 0.75, 0xffff0000},
		{1.25, 0.25, 0xffff0000},
		{-0.25, 0.25, 0xff00ff00},
		{1.75, 2.75, 0xffff0000},
	}
	for _, c := range cases {
		x, err := g.Sample(spl, view, c.u, c.v)
		if err != nil {
			t.Fatalf("GPU.Sample: %v", err)
		}
		if x != c.want {
			t.Errorf("GPU.Sample(%v, %v)\nhave 0x%08x\nwant 0x%08x", c.u, c.v, x, c.want)
		}
	}
	view.Destroy()
	spl.Destroy()
	if s := g.Stats(); s.Views != 0 || s.Samplers != 0 {
		t.Errorf("Stats()\nhave %+v\nwant no live views or samplers", s)
	}
}

func TestAddress(t *testing.T) {
	cases := [...]struct {
		mode    driver.AddrMode
		i, n, x int
	}{
		{driver.AWrap, 0, 4, 0},
		{driver.AWrap, 5, 4, 1},
		{driver.AWrap, -1, 4, 3},
		{driver.AMirror, 4, 4, 3},
		{driver.AMirror, 5, 4, 2},
		{driver.AMirror, -1, 4, 0},
		{driver.AClamp, -3, 4, 0},
		{driver.AClamp, 9, 4, 3},
	}
	for _, c := range cases {
		if x := address(c.mode, c.i, c.n); x != c.x {
			t.Errorf("address(%d, %d, %d)\nhave %d\nwant %d", c.mode, c.i, c.n, x, c.x)
		}
	}
}
