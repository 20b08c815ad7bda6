// Copyright 2026 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"fmt"

	"github.com/gviegas/texup/driver"
)

// SelectMemory returns the index of the first memory type
// in types that is allowed by typeBits (bit i refers to
// types[i]) and that has every property in prop.
// It returns -1 and an error wrapping ErrNoMemoryType if
// there is no such type. No weaker properties are tried.
func SelectMemory(types []driver.MemoryType, typeBits uint32, prop driver.MemProp) (int, error) {
	for i := 0; i < len(types) && i < 32; i++ {
		if 1<<i&typeBits != 0 && types[i].Prop&prop == prop {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w (type bits 0x%x, properties 0x%x)", ErrNoMemoryType, typeBits, prop)
}
