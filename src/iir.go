package phaselock

/*------------------------------------------------------------------
 *
 * Purpose:	Floating-point biquad IIR filter.
 *
 *		Coefficients and state are deliberately separate values:
 *		the coefficient set describes the filter shape and is
 *		immutable and copyable, the state holds one channel's
 *		history and is owned by that channel.  One coefficient
 *		set can drive any number of independent states (cascade
 *		stages, both output channels) without interference.
 *
 *----------------------------------------------------------------*/

import "math"

// IIRState is one channel's filter history.  Layout after an update:
// [x0 x1 y0 y1 _] with the newest values first; the fifth slot is
// scratch consumed by the next update's shift.  The stored outputs are
// post-clamp, so the clamp bound holds for every recursive term.
type IIRState [5]float64

// IIR is a biquad filter shape: feed-forward b0 b1 b2 and negated
// feedback -a1 -a2 in one vector matching the state layout, plus an
// output offset and a saturating output range.
//
// Stability (poles inside the unit circle) is a precondition on the
// supplied coefficients and is not verified here.
type IIR struct {
	BA      [5]float64 // [b0, b1, b2, -a1, -a2]
	YOffset float64
	YMin    float64
	YMax    float64
}

// Identity is a lossless passthrough shape with an unrestricted output
// range.
func Identity() IIR {
	return IIR{
		BA:   [5]float64{1, 0, 0, 0, 0},
		YMin: -math.MaxFloat64,
		YMax: math.MaxFloat64,
	}
}

/*------------------------------------------------------------------
 *
 * Name:	Lowpass
 *
 * Purpose:	Design a second-order lowpass via the bilinear transform.
 *
 * Inputs:	f	- Corner frequency as a fraction of the sample
 *			  rate, 0 < f < 0.5.
 *		q	- Quality factor of the pole pair.
 *		k	- DC gain.
 *
 * Returns:	The [b0, b1, b2, -a1, -a2] coefficient vector, normalized
 *		to a0 == 1.
 *
 *----------------------------------------------------------------*/

func Lowpass(f, q, k float64) [5]float64 {
	var s, c = math.Sincos(2 * math.Pi * f)
	var alpha = s / (2 * q)

	var a0 = 1 + alpha
	var b = k * (1 - c) / (2 * a0)

	return [5]float64{b, 2 * b, b, 2 * c / a0, -(1 - alpha) / a0}
}

/*------------------------------------------------------------------
 *
 * Name:	Update
 *
 * Purpose:	Run one input sample through the filter.
 *
 * Inputs:	xy	- The channel state, mutated in place.
 *		x0	- Input sample.
 *
 * Returns:	The output sample, already offset and clamped to
 *		[YMin, YMax].
 *
 * Description:	y0 = offset + b0 x0 + b1 x1 + b2 x2 - a1 y1 - a2 y2,
 *		then saturated.  The state shift places the five needed
 *		history values exactly under the coefficient vector so
 *		the accumulation is a single dot product.
 *
 *----------------------------------------------------------------*/

func (i *IIR) Update(xy *IIRState, x0 float64) float64 {
	// Shift in the new input: [x0 x1 y0 y1 y2] under [b0 b1 b2 -a1 -a2].
	copy(xy[1:], xy[:4])
	xy[0] = x0

	var y0 = i.YOffset
	for j := range xy {
		y0 += xy[j] * i.BA[j]
	}

	if y0 < i.YMin {
		y0 = i.YMin
	} else if y0 > i.YMax {
		y0 = i.YMax
	}

	// Store the clamped output as the newest y.
	xy[2] = y0
	return y0
}
