// Copyright 2026 Gustavo C. Viegas. All rights reserved.

package soft

import (
	"errors"
	"fmt"

	"github.com/gviegas/texup/driver"
)

// command is a recorded command.
// Exactly one of its fields is set.
type command struct {
	trans []driver.Transition
	copy  *driver.ImageCopy
}

// cmdBuffer implements driver.CmdBuffer.
type cmdBuffer struct {
	g         *GPU
	id        int
	cmds      []command
	recording bool
	ended     bool
	pending   bool
	dead      bool
}

// NewCmdBuffer creates a new command buffer.
func (g *GPU) NewCmdBuffer() (driver.CmdBuffer, error) {
	if err := g.check(OpNewCmdBuffer); err != nil {
		return nil, err
	}
	cb := &cmdBuffer{g: g, id: g.newID()}
	g.stats.CmdBuffers++
	g.record(OpNewCmdBuffer, cb.id)
	return cb, nil
}

// Begin prepares the command buffer for recording.
func (cb *cmdBuffer) Begin() error {
	if cb.dead {
		panic("soft: Begin called on destroyed command buffer")
	}
	if err := cb.g.check(OpBegin); err != nil {
		return err
	}
	switch {
	case cb.recording:
		return errors.New("soft: command buffer is already recording")
	case cb.pending:
		return errors.New("soft: command buffer is pending execution")
	}
	cb.cmds = cb.cmds[:0]
	cb.recording = true
	cb.ended = false
	cb.g.record(OpBegin, cb.id)
	return nil
}

// IsRecording returns whether cb is recording commands.
func (cb *cmdBuffer) IsRecording() bool { return cb.recording }

// Transition records image layout transitions.
func (cb *cmdBuffer) Transition(t []driver.Transition) {
	if !cb.recording {
		panic("soft: Transition called outside of recording")
	}
	cb.cmds = append(cb.cmds, command{trans: append([]driver.Transition(nil), t...)})
}

// CopyImage records a copy between images.
func (cb *cmdBuffer) CopyImage(param *driver.ImageCopy) {
	if !cb.recording {
		panic("soft: CopyImage called outside of recording")
	}
	p := *param
	cb.cmds = append(cb.cmds, command{copy: &p})
}

// End ends command recording.
func (cb *cmdBuffer) End() error {
	if !cb.recording {
		return errors.New("soft: End called outside of recording")
	}
	cb.recording = false
	if err := cb.g.check(OpEnd); err != nil {
		return err
	}
	cb.ended = true
	cb.g.record(OpEnd, cb.id)
	return nil
}

// Destroy frees the command buffer.
func (cb *cmdBuffer) Destroy() {
	if cb == nil || cb.dead {
		return
	}
	cb.dead = true
	cb.recording = false
	cb.g.stats.CmdBuffers--
	cb.g.record(OpDestroyCmdBuffer, cb.id)
}

// execute runs the recorded commands.
// It stops at the first invalid command.
func (cb *cmdBuffer) execute() error {
	if cb.dead {
		return fmt.Errorf("command buffer %d destroyed while pending", cb.id)
	}
	for _, c := range cb.cmds {
		if c.copy != nil {
			if err := cb.g.copyImage(c.copy); err != nil {
				return err
			}
			continue
		}
		for i := range c.trans {
			if err := cb.g.transition(&c.trans[i]); err != nil {
				return err
			}
		}
	}
	return nil
}
