package phaselock

import "math/bits"

// Complex is a demodulated baseband sample: the in-phase and quadrature
// components as turn-compatible fixed-point integers.
type Complex struct {
	Re int32 // in-phase
	Im int32 // quadrature
}

// Power returns the squared magnitude at full precision.  The one
// unrepresentable input is both components at exactly -2^31, where the
// true value 2^63 wraps; filtered demodulator output never reaches that
// corner.
func (c Complex) Power() int64 {
	var re, im = int64(c.Re), int64(c.Im)
	return re*re + im*im
}

// Log2 returns the integer log2 of the squared magnitude, 0..63.
// Log2 of a zero vector is 0.
func (c Complex) Log2() int32 {
	var p = uint64(c.Power())
	if p == 0 {
		return 0
	}
	return int32(bits.Len64(p) - 1)
}

// Arg returns the turn-scaled phase of the sample, Atan2(Im, Re).
func (c Complex) Arg() int32 {
	return Atan2(c.Im, c.Re)
}
