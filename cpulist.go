package vidstab

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unsafe"
)

// maxCores is the number of cores a uintptr affinity mask can address
const maxCores = int(unsafe.Sizeof(uintptr(0)) * 8)

// ErrEmptyCoreMask is returned when frame workers would be pinned to no cores
var ErrEmptyCoreMask = errors.New("core mask selects no cores")

// CPUCoreMask calculates the core mask by passing in the CPU core numbers as a
// slice, eg: []int{4,5,6,7}
func CPUCoreMask(cores []int) uintptr {

	var mask uintptr

	for _, core := range cores {
		mask |= 1 << core
	}

	return mask
}

// MaskCores lists the core numbers set in mask in ascending order
func MaskCores(mask uintptr) []int {

	var cores []int

	for c := 0; c < maxCores; c++ {
		if mask&(1<<c) != 0 {
			cores = append(cores, c)
		}
	}

	return cores
}

// ParseCPUList parses a list of cores in the kernel cpuset format, eg:
// "4-7" or "0,2,4-5", as used by taskset and /sys/devices/system/cpu
func ParseCPUList(list string) ([]int, error) {

	var cores []int
	seen := make(map[int]bool)

	for _, part := range strings.Split(list, ",") {

		part = strings.TrimSpace(part)

		if part == "" {
			continue
		}

		lo, hi, isRange := strings.Cut(part, "-")

		first, err := parseCore(lo)

		if err != nil {
			return nil, err
		}

		last := first

		if isRange {
			if last, err = parseCore(hi); err != nil {
				return nil, err
			}

			if last < first {
				return nil, fmt.Errorf("invalid core range %q", part)
			}
		}

		for c := first; c <= last; c++ {
			if !seen[c] {
				seen[c] = true
				cores = append(cores, c)
			}
		}
	}

	if len(cores) == 0 {
		return nil, fmt.Errorf("empty core list %q", list)
	}

	return cores, nil
}

// parseCore parses a single core number
func parseCore(s string) (int, error) {

	c, err := strconv.Atoi(strings.TrimSpace(s))

	if err != nil {
		return 0, fmt.Errorf("invalid core number %q: %w", s, err)
	}

	if c < 0 || c >= maxCores {
		return 0, fmt.Errorf("core %d out of range [0,%d)", c, maxCores)
	}

	return c, nil
}
