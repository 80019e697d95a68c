//go:build !linux

package vidstab

import (
	"errors"
)

var errPinningUnsupported = errors.New("pinning frame workers to cores is only supported on linux")

// PinWorkers is not supported on this platform
func PinWorkers(mask uintptr) error {

	if mask == 0 {
		return ErrEmptyCoreMask
	}

	return errPinningUnsupported
}

// WorkerMask is not supported on this platform
func WorkerMask() (uintptr, error) {
	return 0, errPinningUnsupported
}
