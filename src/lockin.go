package phaselock

/*------------------------------------------------------------------
 *
 * Purpose:	Lock-in demodulator.
 *
 *		Mixes a raw input sample against the local oscillator at
 *		the supplied phase and lowpass filters the in-phase and
 *		quadrature products independently, rejecting the
 *		sum-frequency component and broadband noise.
 *
 *		Two operating modes cover the two instrument variants:
 *		a fixed second-order lowpass seeded once at construction
 *		(constant bandwidth), or a first-order lowpass with the
 *		log2 time constant supplied on every call (bandwidth
 *		adjustable per sample without reconstructing the
 *		demodulator).
 *
 *----------------------------------------------------------------*/

// Lockin demodulates raw samples against a Cossin local oscillator.
// Construct with NewLockin or NewAdjustableLockin; the filter state
// persists across calls until the instance is discarded.
type Lockin struct {
	iir   IIRInt
	state [2]IIRIntState // biquad history, I then Q
	lp    [2]int32       // first-order history, I then Q
}

// NewLockin returns a demodulator with a fixed built-in lowpass of the
// given Q30 biquad shape, applied identically to both components.
// Use with Update.
func NewLockin(ba [5]int32) *Lockin {
	var l = &Lockin{}
	l.iir = IdentityInt()
	l.iir.BA = ba
	return l
}

// NewAdjustableLockin returns a demodulator whose lowpass bandwidth is
// chosen per call.  Use with UpdateTimeConstant.
func NewAdjustableLockin() *Lockin {
	return &Lockin{}
}

/*------------------------------------------------------------------
 *
 * Name:	Update
 *
 * Purpose:	Demodulate one sample through the fixed biquad lowpass.
 *
 * Inputs:	sample	- Raw input sample, MSB aligned (a 16-bit ADC
 *			  code shifted left 16).
 *		phase	- Local oscillator phase, turn scaled.
 *
 * Returns:	The filtered I/Q pair.
 *
 *----------------------------------------------------------------*/

func (l *Lockin) Update(sample int32, phase int32) Complex {
	var cos, sin = Cossin(phase)

	// Full-scale product, top 32 bits.
	var i = int32(int64(sample) * int64(cos) >> 32)
	var q = int32(int64(sample) * int64(sin) >> 32)

	return Complex{
		Re: l.iir.Update(&l.state[0], i),
		Im: l.iir.Update(&l.state[1], q),
	}
}

/*------------------------------------------------------------------
 *
 * Name:	UpdateTimeConstant
 *
 * Purpose:	Demodulate one sample through a first-order lowpass with
 *		a per-call log2 time constant.
 *
 * Inputs:	sample	- Raw 16-bit input sample.
 *		phase	- Local oscillator phase, turn scaled.
 *		k	- Log2 lowpass time constant, 0..=31.  k == 0
 *			  passes the mixed products through unfiltered.
 *
 * Returns:	The filtered I/Q pair.
 *
 * Description:	y += (x - y) >> k per component.  Changing k between
 *		calls does not reset the filter history: the old state
 *		holds over and settles at the new bandwidth.  Whether a
 *		step in k keeps the loop meaningful is the caller's
 *		stability budget.
 *
 *----------------------------------------------------------------*/

func (l *Lockin) UpdateTimeConstant(sample int16, phase int32, k uint) Complex {
	var cos, sin = Cossin(phase)

	var i = int32(int64(sample) * int64(cos) >> 16)
	var q = int32(int64(sample) * int64(sin) >> 16)

	l.lp[0] += (i - l.lp[0]) >> k
	l.lp[1] += (q - l.lp[1]) >> k

	return Complex{Re: l.lp[0], Im: l.lp[1]}
}
