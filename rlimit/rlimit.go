//go:build linux || darwin

package rlimit

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// SetRLimit raises the soft open files limit to at least required and
// returns the limit found before.
func SetRLimit(required uint64) (uint64, error) {
	var rLimit unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rLimit); err != nil {
		return 0, err
	}
	prev := rLimit.Cur
	if rLimit.Cur >= required {
		return prev, nil
	}
	rLimit.Cur = required
	if rLimit.Max < required {
		rLimit.Max = required
	}
	if err := unix.Setrlimit(unix.RLIMIT_NOFILE, &rLimit); err != nil {
		return prev, err
	}
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rLimit); err != nil {
		return prev, err
	}
	if rLimit.Cur < required {
		return prev, fmt.Errorf("Could not change open files rlimit to: %d", required)
	}
	return prev, nil
}
