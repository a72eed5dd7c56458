package phaselock

/*------------------------------------------------------------------
 *
 * Purpose:	Reciprocal-counting phase-locked loop.
 *
 *		Tracks an external reference from sparse edge timestamps
 *		instead of a per-update phase measurement.  The frequency
 *		estimate comes from the reciprocal of the measured
 *		edge-to-edge interval, which keeps full resolution even
 *		when the reference is orders of magnitude slower than the
 *		update rate (a plain edges-per-window count would lose
 *		resolution there).
 *
 *		Timestamps are values of a wrapping 32-bit tick counter.
 *		Update is called once per window of 1<<dt2 ticks, windows
 *		aligned to counter multiples of the window size.  At most
 *		one timestamp is consumed per window; when several edges
 *		are captured in one window only the most recent survives
 *		the capture register, so earlier edges are lost.  This is
 *		a known precision limitation of the capture scheme and is
 *		deliberately not corrected here.
 *
 *----------------------------------------------------------------*/

// RPLL tracks phase and frequency of an externally timestamped reference.
// Construct with NewRPLL; the estimates cold start at zero and stay zero
// until the second captured edge defines the first interval.
type RPLL struct {
	dt2  uint  // log2 ticks per update window
	x    int32 // timestamp of the last captured edge
	y    int32 // phase estimate at the current window boundary
	f    int32 // frequency estimate, turn-scaled units per window
	seen bool  // an edge has been captured since cold start
}

// NewRPLL returns a cold-started loop for windows of 1<<dt2 timestamp
// counter ticks.
func NewRPLL(dt2 uint) *RPLL {
	return &RPLL{dt2: dt2}
}

/*------------------------------------------------------------------
 *
 * Name:	Update
 *
 * Purpose:	Advance the loop by one window.
 *
 * Inputs:	timestamp	- Tick counter value of the reference edge
 *				  captured in this window.
 *		have		- False when no edge was captured; the
 *				  timestamp argument is then ignored.
 *		shiftFrequency	- Log2 smoothing time constant for the
 *				  frequency estimate (1..=31).
 *		shiftPhase	- Log2 smoothing time constant for the
 *				  phase estimate (1..=31).
 *
 * Returns:	The updated (phase, frequency) estimate pair.  Phase is
 *		the turn-scaled reference phase at the end of the current
 *		window; frequency is in turn-scaled units per window.
 *
 * Description:	The phase always advances open loop by the current
 *		frequency estimate first.  Without a timestamp that is
 *		the whole update: frequency holds over exactly and phase
 *		extrapolates linearly.
 *
 *		With a timestamp, the edge interval dx (wrapping counter
 *		subtraction) gives the instantaneous frequency
 *		2^(32+dt2)/dx, one full turn per interval.  References
 *		faster than one turn per window alias modulo one turn,
 *		which is the wrapping representation working as intended.
 *		The edge position inside the window dates the phase
 *		measurement: at the edge the reference phase is zero, so
 *		the measured boundary phase is the instantaneous
 *		frequency times the remaining fraction of the window.
 *		Both estimates are then exponentially smoothed as in PLL.
 *
 *----------------------------------------------------------------*/

func (r *RPLL) Update(timestamp int32, have bool, shiftFrequency, shiftPhase uint) (int32, int32) {
	// Open-loop phase advance for the elapsed window.
	r.y += r.f

	if !have {
		return r.y, r.f
	}

	if !r.seen {
		// First edge after cold start: arm the interval counter
		// only.  There is no interval to measure yet.
		r.seen = true
		r.x = timestamp
		return r.y, r.f
	}

	var dx = uint32(timestamp - r.x)
	r.x = timestamp
	if dx == 0 {
		// Duplicate capture; no new information.
		return r.y, r.f
	}

	// Reciprocal counting: one turn per dx ticks, scaled to units per
	// window.  Wraps modulo one turn for fast references.
	var finst = int32(uint64(1) << (32 + r.dt2) / uint64(dx))

	var ef = finst - r.f
	r.f += (ef + 1<<(shiftFrequency-1)) >> shiftFrequency

	// Phase measured at the window boundary: the edge sits
	// (window - offset) ticks before the boundary, at reference
	// phase zero.
	var window = uint32(1) << r.dt2
	var offset = uint32(timestamp) & (window - 1)
	var measured = int32(uint32(uint64(uint32(finst)) * uint64(window-offset) >> r.dt2))

	var ep = measured - r.y
	r.y += (ep + 1<<(shiftPhase-1)) >> shiftPhase

	return r.y, r.f
}
