package ingress

import (
	"fmt"
	"math/bits"
)

// Capacity is an amount in shannons.
type Capacity uint64

func (c Capacity) String() string {
	return fmt.Sprintf("%d", uint64(c))
}

// SafeAdd returns c + o and false on overflow.
func (c Capacity) SafeAdd(o Capacity) (Capacity, bool) {
	sum, carry := bits.Add64(uint64(c), uint64(o), 0)
	return Capacity(sum), carry == 0
}

// FeeRate is a fee rate in shannons per kilobyte.
type FeeRate uint64

// DefaultMinFeeRate is the relay floor a node uses unless configured
// otherwise.
const DefaultMinFeeRate FeeRate = 1000

// Fee returns the fee this rate demands for size bytes.
func (r FeeRate) Fee(size uint64) Capacity {
	hi, lo := bits.Mul64(uint64(r), size)
	if hi != 0 {
		// Saturate, the quotient would not fit anyway.
		return Capacity(^uint64(0) / 1000)
	}
	return Capacity(lo / 1000)
}

// FeeRateFromFee is the rate paid by fee for size bytes.
func FeeRateFromFee(fee Capacity, size uint64) FeeRate {
	if size == 0 {
		return 0
	}
	hi, lo := bits.Mul64(uint64(fee), 1000)
	if hi != 0 {
		return FeeRate(^uint64(0))
	}
	return FeeRate(lo / size)
}

func (r FeeRate) String() string {
	return fmt.Sprintf("%d", uint64(r))
}
