// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package driver defines a set of interfaces encompassing
// the GPU functionality needed to make images resident
// on a device.
// It is designed to allow platform-specific APIs to be
// implemented in a mostly straightforward manner.
// Devices, queues and command pools are created by the
// host application; implementations only wrap them.
package driver

import (
	"errors"
)

// Destroyer is the interface that wraps the Destroy method.
// Types that implement this interface may allocate external
// memory that is not managed by GC, so Destroy must be
// called explicitly to ensure such memory is deallocated.
type Destroyer interface {
	Destroy()
}

// ErrNoDevice means that no suitable device could be
// found.
var ErrNoDevice = errors.New("driver: no suitable device found")

// ErrNoHostMemory means that host memory could not be
// allocated.
var ErrNoHostMemory = errors.New("driver: out of host memory")

// ErrNoDeviceMemory means that device memory could not
// be allocated.
var ErrNoDeviceMemory = errors.New("driver: out of device memory")

// ErrUnsupported means that the requested combination of
// format, tiling and usage is not supported by the device.
var ErrUnsupported = errors.New("driver: unsupported image parameters")

// ErrMapFailed means that memory could not be mapped for
// host access.
var ErrMapFailed = errors.New("driver: memory map failed")

// ErrFatal means that the driver is in an unrecoverable
// state. Upon encountering such an error, the application
// must destroy everything that it created using the
// driver's GPU.
var ErrFatal = errors.New("driver: fatal error")
