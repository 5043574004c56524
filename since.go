package ingress

import "fmt"

// Since is the 64 bit time-lock carried by transaction inputs and, for
// some lock scripts, by the trailing 8 bytes of the script args.
//
//	bit 63      0 = absolute, 1 = relative
//	bits 61-62  metric: 00 block number, 01 epoch, 10 timestamp
//	bits 56-60  reserved, must be zero
//	bits 0-55   value
type Since uint64

const (
	sinceLockTypeFlag    uint64 = 1 << 63
	sinceMetricFlagMask  uint64 = 0x6000_0000_0000_0000
	sinceValueMask       uint64 = 0x00ff_ffff_ffff_ffff
	sinceRemainFlagsBits uint64 = 0x1f00_0000_0000_0000

	sinceMetricBlockNumber uint64 = 0x0000_0000_0000_0000
	sinceMetricEpoch       uint64 = 0x2000_0000_0000_0000
	sinceMetricTimestamp   uint64 = 0x4000_0000_0000_0000
)

// SinceLen is the encoded length of a Since value.
const SinceLen = 8

type SinceMetricKind int

const (
	SinceMetricBlockNumber SinceMetricKind = iota
	SinceMetricEpochNumberWithFraction
	SinceMetricTimestamp
)

func (k SinceMetricKind) String() string {
	switch k {
	case SinceMetricBlockNumber:
		return "block_number"
	case SinceMetricEpochNumberWithFraction:
		return "epoch_number_with_fraction"
	case SinceMetricTimestamp:
		return "timestamp"
	default:
		return "unknown"
	}
}

// SinceMetric is a decoded Since value. Only the field matching Kind
// is meaningful. Timestamps are in milliseconds.
type SinceMetric struct {
	Kind        SinceMetricKind
	BlockNumber uint64
	Epoch       EpochNumberWithFraction
	Timestamp   uint64
}

func NewAbsoluteSince(kind SinceMetricKind, value uint64) Since {
	return newSince(kind, value, 0)
}

func NewRelativeSince(kind SinceMetricKind, value uint64) Since {
	return newSince(kind, value, sinceLockTypeFlag)
}

func newSince(kind SinceMetricKind, value uint64, lockType uint64) Since {
	var metric uint64
	switch kind {
	case SinceMetricEpochNumberWithFraction:
		metric = sinceMetricEpoch
	case SinceMetricTimestamp:
		metric = sinceMetricTimestamp
	default:
		metric = sinceMetricBlockNumber
	}
	return Since(lockType | metric | (value & sinceValueMask))
}

func (s Since) IsAbsolute() bool {
	return uint64(s)&sinceLockTypeFlag == 0
}

func (s Since) IsRelative() bool {
	return !s.IsAbsolute()
}

// FlagsIsValid reports whether the reserved bits are clear and the
// metric bits name a known metric.
func (s Since) FlagsIsValid() bool {
	return uint64(s)&sinceRemainFlagsBits == 0 &&
		uint64(s)&sinceMetricFlagMask != sinceMetricFlagMask
}

// ExtractMetric decodes the metric and value. It returns false for the
// unused metric encoding.
func (s Since) ExtractMetric() (SinceMetric, bool) {
	value := uint64(s) & sinceValueMask
	switch uint64(s) & sinceMetricFlagMask {
	case sinceMetricBlockNumber:
		return SinceMetric{Kind: SinceMetricBlockNumber, BlockNumber: value}, true
	case sinceMetricEpoch:
		return SinceMetric{
			Kind:  SinceMetricEpochNumberWithFraction,
			Epoch: EpochNumberWithFraction(value),
		}, true
	case sinceMetricTimestamp:
		return SinceMetric{Kind: SinceMetricTimestamp, Timestamp: value * 1000}, true
	}
	return SinceMetric{}, false
}

func (s Since) String() string {
	lock := "absolute"
	if s.IsRelative() {
		lock = "relative"
	}
	m, ok := s.ExtractMetric()
	if !ok {
		return fmt.Sprintf("since(%s, invalid metric, %#x)", lock, uint64(s))
	}
	return fmt.Sprintf("since(%s, %s, %#x)", lock, m.Kind, uint64(s)&sinceValueMask)
}

// EpochNumberWithFraction packs an epoch number (24 bits) with the
// position inside the epoch as index/length (16 bits each):
//
//	number | index << 24 | length << 40
type EpochNumberWithFraction uint64

const (
	epochNumberBits = 24
	epochIndexBits  = 16
	epochLengthBits = 16

	epochNumberMask = 1<<epochNumberBits - 1
	epochIndexMask  = 1<<epochIndexBits - 1
	epochLengthMask = 1<<epochLengthBits - 1
)

func NewEpochNumberWithFraction(number, index, length uint64) EpochNumberWithFraction {
	return EpochNumberWithFraction(
		(number & epochNumberMask) |
			(index&epochIndexMask)<<epochNumberBits |
			(length&epochLengthMask)<<(epochNumberBits+epochIndexBits))
}

func (e EpochNumberWithFraction) Number() uint64 {
	return uint64(e) & epochNumberMask
}

func (e EpochNumberWithFraction) Index() uint64 {
	return (uint64(e) >> epochNumberBits) & epochIndexMask
}

func (e EpochNumberWithFraction) Length() uint64 {
	return (uint64(e) >> (epochNumberBits + epochIndexBits)) & epochLengthMask
}

func (e EpochNumberWithFraction) String() string {
	return fmt.Sprintf("%d(%d/%d)", e.Number(), e.Index(), e.Length())
}
