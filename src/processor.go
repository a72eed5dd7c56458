package phaselock

/*------------------------------------------------------------------
 *
 * Purpose:	Per-block processing routine.
 *
 *		This is the hot path of the instrument, run once per
 *		sample block at the highest priority: recover the
 *		reference phase and frequency from the latest edge
 *		timestamp, expand the block-level estimate into one local
 *		oscillator phase per sample, demodulate and filter every
 *		sample, post-filter the selected output pair, and emit
 *		DAC codes plus one telemetry block.
 *
 *		Everything here is allocation free and bounded: no calls
 *		block, no loop depends on data values.  Settings are read
 *		once per block from an atomic snapshot; the configuration
 *		task swaps in a complete new snapshot and never mutates a
 *		committed one.
 *
 *----------------------------------------------------------------*/

import "sync/atomic"

// snapshot is one committed configuration with everything derived from
// it precomputed, so the hot path only loads one pointer.
type snapshot struct {
	s           *Settings
	phaseOffset int32
	// Post-filter cascade shapes, [channel][stage].
	post [2][2]IIR
}

// Processor owns all per-instrument DSP state.  It must only be driven
// from a single goroutine; the sole concurrent entry point is Commit.
type Processor struct {
	snap atomic.Pointer[snapshot]

	pll    *RPLL
	lockin *Lockin

	// Post-filter history, [channel][stage].  Preserved across
	// commits so a coefficient change does not restart the settling.
	postState [2][2]IIRState

	gen *BlockGenerator

	adc [2][SampleBufferSize]uint16
	dac [2][SampleBufferSize]uint16
}

// NewProcessor assembles the pipeline.  The generator may be nil when
// telemetry is not wanted.
func NewProcessor(s *Settings, gen *BlockGenerator) *Processor {
	var p = &Processor{
		pll:    NewRPLL(TimestampWindowLog2),
		lockin: NewAdjustableLockin(),
		gen:    gen,
	}
	p.Commit(s)
	return p
}

// Commit swaps in a new settings snapshot.  Safe to call from the
// configuration task while ProcessBlock runs; the running block finishes
// on the old snapshot, the next block sees the new one in full.
func (p *Processor) Commit(s *Settings) {
	var snap = &snapshot{s: s, phaseOffset: s.PhaseOffset()}
	for j := 0; j < s.CascadeLength; j++ {
		snap.post[0][j] = s.PowerFilter[j].Build()
		snap.post[1][j] = s.PhaseFilter[j].Build()
	}
	p.snap.Store(snap)
}

// Estimates returns the current reference (phase, frequency) estimate
// without advancing the tracking loop.
func (p *Processor) Estimates() (int32, int32) {
	return p.pll.y, p.pll.f
}

/*------------------------------------------------------------------
 *
 * Name:	ProcessBlock
 *
 * Purpose:	Process one block of raw samples into DAC codes.
 *
 * Inputs:	samples		- One block of raw signed ADC codes.
 *		timestamp	- Tick counter value of the reference
 *				  edge captured during this block.
 *		have		- False when no edge was captured.
 *
 * Outputs:	out0, out1	- One DAC code per sample, offset binary.
 *
 * Description:	The reference loop updates once per block; the per-sample
 *		frequency is the block frequency scaled down by the block
 *		size, both multiplied by the harmonic index with wrapping
 *		arithmetic (a negative harmonic demodulates via the
 *		complex conjugate).
 *
 *----------------------------------------------------------------*/

func (p *Processor) ProcessBlock(samples *[SampleBufferSize]int16, timestamp int32, have bool, out0, out1 *[SampleBufferSize]uint16) {
	var snap = p.snap.Load()
	var s = snap.s

	var pllPhase, pllFrequency = p.pll.Update(timestamp, have, s.FrequencyShift, s.PhaseShift)

	var sampleFrequency = (pllFrequency >> SampleBufferSizeLog2) * s.Harmonic
	var samplePhase = snap.phaseOffset + pllPhase*s.Harmonic
	var accu = NewAccu(samplePhase, sampleFrequency)

	for i := range samples {
		var output = p.lockin.UpdateTimeConstant(samples[i], accu.Next(), s.TimeConstant)

		var ch0, ch1 float64
		switch s.Output {
		case OutputIQ:
			ch0 = float64(output.Re >> 16)
			ch1 = float64(output.Im >> 16)
		case OutputFrequencyDiscriminator:
			ch0 = float64(pllFrequency >> 16)
			ch1 = float64(output.Arg() >> 16)
		default: // OutputPowerPhase
			ch0 = float64(output.Log2() << 8)
			ch1 = float64(output.Arg() >> 16)
		}

		for j := 0; j < s.CascadeLength; j++ {
			ch0 = snap.post[0][j].Update(&p.postState[0][j], ch0)
			ch1 = snap.post[1][j].Update(&p.postState[1][j], ch1)
		}

		// Range clipping to 16 bits is ensured by the post-filter
		// clamps; offset binary for the DAC.
		out0[i] = uint16(int16(ch0)) ^ 0x8000
		out1[i] = uint16(int16(ch1)) ^ 0x8000

		// Telemetry copies.  The second input channel is unused by
		// the lock-in and streams as offset-binary midscale, the
		// code for a zero sample.
		p.adc[0][i] = uint16(samples[i]) ^ 0x8000
		p.adc[1][i] = 0x8000
		p.dac[0][i] = out0[i]
		p.dac[1][i] = out1[i]
	}

	if p.gen != nil {
		p.gen.Send(&p.adc, &p.dac)
	}
}
