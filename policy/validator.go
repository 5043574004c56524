package policy

import (
	"fmt"
	"strings"
)

// OutputsValidator selects how send_transaction checks outputs before
// submitting a transaction to the pool.
type OutputsValidator int

const (
	// ValidatorDefault admits only outputs locked by the standard
	// sighash or multisig locks, optionally typed by the DAO script.
	ValidatorDefault OutputsValidator = iota

	// ValidatorPassthrough skips output checks entirely.
	ValidatorPassthrough
)

func (v OutputsValidator) String() string {
	switch v {
	case ValidatorDefault:
		return "default"
	case ValidatorPassthrough:
		return "passthrough"
	default:
		return fmt.Sprintf("unknown(%d)", int(v))
	}
}

func ParseOutputsValidator(s string) (OutputsValidator, error) {
	switch strings.ToLower(s) {
	case "default":
		return ValidatorDefault, nil
	case "passthrough":
		return ValidatorPassthrough, nil
	}
	return 0, fmt.Errorf("unknown outputs validator %q", s)
}

func (v OutputsValidator) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

func (v *OutputsValidator) UnmarshalText(text []byte) error {
	parsed, err := ParseOutputsValidator(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
