// Copyright 2026 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"github.com/gviegas/texup/driver"
)

// dstAccess returns the access scope that must wait on a
// transition to layout l.
func dstAccess(l driver.Layout) driver.Access {
	switch l {
	case driver.LCopyDst:
		return driver.ACopyWrite
	case driver.LColorTarget:
		return driver.AColorWrite
	case driver.LDSTarget:
		return driver.ADSWrite
	case driver.LShaderRead:
		return driver.AShaderRead | driver.AInputRead
	}
	return driver.ANone
}

// recordTransition records a transition of img's single
// subresource from layout before to layout after, opening
// b if needed.
// img's layout is set to after immediately, although the
// transition only happens when b is flushed.
func recordTransition(b *batch, img *image, aspect driver.Aspect, before, after driver.Layout) error {
	if err := b.ensureOpen(); err != nil {
		return err
	}
	b.cb.Transition([]driver.Transition{{
		Barrier: driver.Barrier{
			SyncBefore:   driver.STopOfPipe,
			SyncAfter:    driver.STopOfPipe,
			AccessBefore: driver.ANone,
			AccessAfter:  dstAccess(after),
		},
		LayoutBefore: before,
		LayoutAfter:  after,
		Img:          img.img,
		Aspect:       aspect,
	}})
	b.track(img)
	img.layout = after
	return nil
}
