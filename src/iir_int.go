package phaselock

/*------------------------------------------------------------------
 *
 * Purpose:	Fixed-point biquad IIR filter.
 *
 *		Same coefficient layout and state shape as the
 *		floating-point form so call sites are interchangeable,
 *		but with coefficients quantized to Q30 and a 64-bit
 *		accumulator.  This is the form that runs per sample in
 *		the demodulator's baseband lowpass.
 *
 *----------------------------------------------------------------*/

import "math"

// IIRIntShift is the fractional bit count of the Q30 coefficients.
const IIRIntShift = 30

// IIRIntState is one channel's filter history, same layout as IIRState.
// Stored outputs are post-clamp.
type IIRIntState [5]int32

// IIRInt is a biquad shape with Q30 coefficients [b0, b1, b2, -a1, -a2],
// an output offset, and a saturating output range.
//
// The 64-bit accumulator does not overflow for stable coefficient sets:
// the clamped outputs and the Q30 coefficient magnitudes bound the dot
// product well inside 63 bits.  Stability is a caller precondition.
type IIRInt struct {
	BA      [5]int32
	YOffset int32
	YMin    int32
	YMax    int32
}

// IdentityInt is a lossless fixed-point passthrough with a full-range
// clamp.
func IdentityInt() IIRInt {
	return IIRInt{
		BA:   [5]int32{1 << IIRIntShift, 0, 0, 0, 0},
		YMin: math.MinInt32,
		YMax: math.MaxInt32,
	}
}

// LowpassInt quantizes the bilinear-transform lowpass design to Q30.
// Arguments are as for Lowpass.
func LowpassInt(f, q, k float64) [5]int32 {
	var ba = Lowpass(f, q, k)
	var out [5]int32
	for j := range ba {
		out[j] = int32(math.Round(ba[j] * (1 << IIRIntShift)))
	}
	return out
}

// Update runs one input sample through the filter, mutating the channel
// state and returning the offset, clamped output.  Semantics match
// IIR.Update with round-to-nearest requantization of the accumulator.
func (i *IIRInt) Update(xy *IIRIntState, x0 int32) int32 {
	copy(xy[1:], xy[:4])
	xy[0] = x0

	var acc = int64(i.YOffset)<<IIRIntShift + 1<<(IIRIntShift-1)
	for j := range xy {
		acc += int64(xy[j]) * int64(i.BA[j])
	}
	var y0 = acc >> IIRIntShift

	if y0 < int64(i.YMin) {
		y0 = int64(i.YMin)
	} else if y0 > int64(i.YMax) {
		y0 = int64(i.YMax)
	}

	xy[2] = int32(y0)
	return int32(y0)
}
