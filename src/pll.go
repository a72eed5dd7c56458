package phaselock

/*------------------------------------------------------------------
 *
 * Purpose:	Type-2 digital phase-locked loop.
 *
 *		Tracks the phase and frequency of a reference from one
 *		phase measurement per update.  Both estimates are
 *		exponentially smoothed with log2 gains, the same scheme
 *		the symbol-recovery DPLL in a soft modem uses: cheap
 *		shifts instead of multiplies, and all phase arithmetic on
 *		wrapping 32-bit integers so lock is maintained across
 *		counter rollover.
 *
 *		The loop never fails and never blocks.  Cold start is all
 *		zeros.  Shift values outside 1..=31 give degenerate
 *		smoothing and are a caller precondition, not checked here.
 *
 *----------------------------------------------------------------*/

// PLL holds the smoothed phase and frequency estimates.  The zero value
// is a cold-started loop.
type PLL struct {
	x int32 // phase estimate, turn scaled
	f int32 // frequency estimate, turn-scaled units per update
}

/*------------------------------------------------------------------
 *
 * Name:	Update
 *
 * Purpose:	Advance the loop by one update interval.
 *
 * Inputs:	phase		- Measured reference phase for this
 *				  interval, turn scaled.
 *		shiftFrequency	- Log2 smoothing time constant for the
 *				  frequency estimate (weight 2^-shift).
 *		shiftPhase	- Log2 smoothing time constant for the
 *				  phase estimate.
 *
 * Returns:	The updated (phase, frequency) estimate pair.
 *
 * Description:	The phase error is taken against the prediction
 *		(previous phase plus frequency).  Corrections are rounded
 *		to nearest before shifting so the estimates carry no
 *		systematic bias.  The frequency estimate converges to a
 *		constant input increment within a few times 2^shift
 *		updates; the phase estimate tracks with bounded lag.
 *
 *----------------------------------------------------------------*/

func (p *PLL) Update(phase int32, shiftFrequency, shiftPhase uint) (int32, int32) {
	var predicted = p.x + p.f
	var e = phase - predicted
	p.f += (e + 1<<(shiftFrequency-1)) >> shiftFrequency
	p.x = predicted + (e+1<<(shiftPhase-1))>>shiftPhase
	return p.x, p.f
}

// Frequency returns the current frequency estimate without advancing the
// loop.
func (p *PLL) Frequency() int32 {
	return p.f
}

// Phase returns the current phase estimate without advancing the loop.
func (p *PLL) Phase() int32 {
	return p.x
}
