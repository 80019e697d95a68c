//go:build linux

package vidstab

import (
	"fmt"
	"syscall"
	"unsafe"
)

// PinWorkers restricts the process, and so every frame worker the pipeline
// starts afterwards, to the cores set in mask.  Call it before Stabilize or
// Track so the decode, analysis and encode goroutines inherit the mask.
func PinWorkers(mask uintptr) error {

	if mask == 0 {
		return ErrEmptyCoreMask
	}

	_, _, errno := syscall.RawSyscall(syscall.SYS_SCHED_SETAFFINITY, 0,
		unsafe.Sizeof(mask), uintptr(unsafe.Pointer(&mask)))

	if errno != 0 {
		return fmt.Errorf("failed to pin stabilization workers to core mask %#x: %w",
			mask, errno)
	}

	return nil
}

// WorkerMask returns the core mask frame workers are currently allowed to
// run on
func WorkerMask() (uintptr, error) {

	var mask uintptr

	_, _, errno := syscall.RawSyscall(syscall.SYS_SCHED_GETAFFINITY, 0,
		unsafe.Sizeof(mask), uintptr(unsafe.Pointer(&mask)))

	if errno != 0 {
		return 0, fmt.Errorf("failed to read stabilization worker core mask: %w", errno)
	}

	return mask, nil
}
