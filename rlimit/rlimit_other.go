//go:build !linux && !darwin

package rlimit

// SetRLimit is a no-op where open file limits are not managed.
func SetRLimit(required uint64) (uint64, error) {
	return required, nil
}
