// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"errors"
	"testing"

	"github.com/gviegas/texup/driver"
	"github.com/gviegas/texup/driver/soft"
)

var errInjected = errors.New("injected failure")

// linearSampled returns a device configuration whose
// linear BGRA8un images can be sampled.
func linearSampled() *soft.Config { return soft.DefaultConfig() }

// optimalOnly returns a device configuration whose
// linear BGRA8un images can only be copied from.
func optimalOnly() *soft.Config {
	cfg := soft.DefaultConfig()
	cfg.Formats[driver.BGRA8un] = driver.FormatProps{
		Linear:  driver.FeatCopySrc | driver.FeatCopyDst,
		Optimal: driver.FeatSampled | driver.FeatColorTarget | driver.FeatCopySrc | driver.FeatCopyDst,
	}
	return cfg
}

// unsampleable returns a device configuration that cannot
// sample BGRA8un images at all.
func unsampleable() *soft.Config {
	cfg := soft.DefaultConfig()
	cfg.Formats[driver.BGRA8un] = driver.FormatProps{
		Linear:  driver.FeatCopySrc,
		Optimal: driver.FeatColorTarget | driver.FeatCopyDst,
	}
	return cfg
}

// checkNoLeaks fails the test if g has live objects.
func checkNoLeaks(t *testing.T, g *soft.GPU, call string) {
	t.Helper()
	s := g.Stats()
	if s.Images != 0 || s.Memories != 0 || s.Views != 0 || s.Samplers != 0 || s.CmdBuffers != 0 {
		t.Errorf("%s: live objects\nhave %d images, %d memories, %d views, %d samplers, %d command buffers\nwant none",
			call, s.Images, s.Memories, s.Views, s.Samplers, s.CmdBuffers)
	}
}

// recGPU records the transitions and copies submitted
// through it.
type recGPU struct {
	*soft.GPU
	trans  []driver.Transition
	copies []driver.ImageCopy
}

// recCmdBuffer wraps a soft command buffer.
type recCmdBuffer struct {
	driver.CmdBuffer
	g *recGPU
}

func (g *recGPU) NewCmdBuffer() (driver.CmdBuffer, error) {
	cb, err := g.GPU.NewCmdBuffer()
	if err != nil {
		return nil, err
	}
	return &recCmdBuffer{cb, g}, nil
}

func (g *recGPU) Submit(cb driver.CmdBuffer) error {
	return g.GPU.Submit(cb.(*recCmdBuffer).CmdBuffer)
}

func (cb *recCmdBuffer) Transition(t []driver.Transition) {
	cb.g.trans = append(cb.g.trans, t...)
	cb.CmdBuffer.Transition(t)
}

func (cb *recCmdBuffer) CopyImage(param *driver.ImageCopy) {
	cb.g.copies = append(cb.g.copies, *param)
	cb.CmdBuffer.CopyImage(param)
}

func TestStrategyString(t *testing.T) {
	cases := [...]struct {
		s    Strategy
		want string
	}{
		{DirectLinear, "direct-linear"},
		{StagedOptimal, "staged-optimal"},
		{Strategy(-1), "invalid"},
	}
	for _, c := range cases {
		if s := c.s.String(); s != c.want {
			t.Errorf("Strategy(%d).String()\nhave %q\nwant %q", int(c.s), s, c.want)
		}
	}
}

func TestOptions(t *testing.T) {
	u := NewUploader(soft.New(nil))
	if u.opts.staging || u.opts.format != driver.BGRA8un {
		t.Errorf("NewUploader (no options)\nhave %+v\nwant {staging:false format:%v}", u.opts, driver.BGRA8un)
	}
	u = NewUploader(soft.New(nil), WithStaging(true), WithFormat(driver.RGBA8un))
	if !u.opts.staging || u.opts.format != driver.RGBA8un {
		t.Errorf("NewUploader (WithStaging, WithFormat)\nhave %+v\nwant {staging:true format:%v}", u.opts, driver.RGBA8un)
	}
	u = NewUploader(soft.New(nil), WithStaging(true), WithStaging(false))
	if u.opts.staging {
		t.Error("NewUploader (last WithStaging wins)\nhave true\nwant false")
	}
}
