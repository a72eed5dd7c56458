package phaselock

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/mjibson/go-dsp/fft"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lockinInput synthesizes a 16-bit sinusoid of the given period,
// amplitude and starting phase in turns.
func lockinInput(n int, period int, amplitude float64, turns float64) []int16 {
	var out = make([]int16, n)
	for i := range out {
		var a = 2 * math.Pi * (float64(i)/float64(period) + turns)
		out[i] = int16(math.Round(amplitude * math.Cos(a)))
	}
	return out
}

func Test_Lockin_RecoversAmplitudeAndPhase(t *testing.T) {
	// Demodulate a synchronous sinusoid.  The mixed products carry the
	// oscillator scale 2^31 shifted down 16, so the settled I/Q vector
	// has magnitude amplitude/2 * 2^15.  The recovered angle is the
	// oscillator phase minus the signal phase, so a signal leading by
	// +turns reads back negated.
	const period = 100
	const amplitude = 10000.0
	const turns = 0.125
	const k = 9

	var l = NewAdjustableLockin()
	var osc = NewAccu(0, int32(uint64(1)<<32/period))

	var out Complex
	for _, s := range lockinInput(80*period, period, amplitude, turns) {
		out = l.UpdateTimeConstant(s, osc.Next(), k)
	}

	var mag = math.Sqrt(float64(out.Power()))
	assert.InEpsilon(t, amplitude/2*(1<<15), mag, 0.03)

	var phase = float64(out.Arg()) / (1 << 32)
	assert.InDelta(t, -turns, phase, 0.005)
}

func Test_Lockin_AmplitudeLinearity(t *testing.T) {
	const period = 100
	const k = 9

	var mags []float64
	for _, amplitude := range []float64{1000, 2000, 4000} {
		var l = NewAdjustableLockin()
		var osc = NewAccu(0, int32(uint64(1)<<32/period))
		var out Complex
		for _, s := range lockinInput(80*period, period, amplitude, 0) {
			out = l.UpdateTimeConstant(s, osc.Next(), k)
		}
		mags = append(mags, math.Sqrt(float64(out.Power())))
	}

	assert.InEpsilon(t, 2*mags[0], mags[1], 0.02)
	assert.InEpsilon(t, 2*mags[1], mags[2], 0.02)
}

func Test_Lockin_RejectsOffFrequency(t *testing.T) {
	// A signal away from the oscillator frequency mixes to nonzero
	// difference frequencies that the lowpass attenuates.
	const oscPeriod = 100
	const sigPeriod = 37
	const amplitude = 10000.0
	const k = 9

	var l = NewAdjustableLockin()
	var osc = NewAccu(0, int32(uint64(1)<<32/oscPeriod))

	var out Complex
	for _, s := range lockinInput(8000, sigPeriod, amplitude, 0) {
		out = l.UpdateTimeConstant(s, osc.Next(), k)
	}

	var mag = math.Sqrt(float64(out.Power()))
	assert.Less(t, mag, 0.05*amplitude/2*(1<<15))
}

func Test_Lockin_FixedLowpass(t *testing.T) {
	// The biquad variant takes MSB-aligned samples and shifts the
	// product down 32, landing at the same 2^15 scale as the
	// adjustable variant; the design's DC gain of 2 then cancels the
	// mixer's 1/2.
	const period = 100
	const amplitude = 10000.0

	var l = NewLockin(LowpassInt(1e-3, 0.707, 2))
	var osc = NewAccu(0, int32(uint64(1)<<32/period))

	var out Complex
	for _, s := range lockinInput(20000, period, amplitude, 0) {
		out = l.Update(int32(s)<<16, osc.Next())
	}

	var mag = math.Sqrt(float64(out.Power()))
	assert.InEpsilon(t, amplitude*(1<<15), mag, 0.03)
}

func Test_Lockin_SuppressesSumFrequency(t *testing.T) {
	// Spectral check on the demodulated I sequence: the mixer's
	// sum-frequency image at 2/period must sit far below the
	// recovered DC line.
	const period = 64
	const amplitude = 10000.0
	const k = 9
	const n = 4096

	var l = NewAdjustableLockin()
	var osc = NewAccu(0, int32(uint64(1)<<32/period))

	var i = make([]float64, n)
	var in = lockinInput(2*n, period, amplitude, 0)
	for j, s := range in {
		var out = l.UpdateTimeConstant(s, osc.Next(), k)
		if j >= n {
			i[j-n] = float64(out.Re)
		}
	}

	var spectrum = fft.FFTReal(i)
	var dc = cmplx.Abs(spectrum[0])
	require.NotZero(t, dc)

	var sumBin = 2 * n / period
	assert.Less(t, cmplx.Abs(spectrum[sumBin]), 0.05*dc)
}

func Test_Lockin_TimeConstantHoldsStateAcrossChange(t *testing.T) {
	// Stepping the time constant must not reset the filter history:
	// two demodulators that diverge only in k keep continuous state.
	const period = 100

	var l = NewAdjustableLockin()
	var osc = NewAccu(0, int32(uint64(1)<<32/period))

	var in = lockinInput(500, period, 10000, 0)
	for _, s := range in {
		l.UpdateTimeConstant(s, osc.Next(), 6)
	}

	// Switch to a slower filter for one sample; the update must start
	// from the settled value, not from zero.
	var settled = l.lp
	var sample = in[len(in)-1]
	var phase = osc.Next()
	var out = l.UpdateTimeConstant(sample, phase, 12)

	var cos, sin = Cossin(phase)
	var i = int32(int64(sample) * int64(cos) >> 16)
	var q = int32(int64(sample) * int64(sin) >> 16)
	assert.Equal(t, settled[0]+(i-settled[0])>>12, out.Re)
	assert.Equal(t, settled[1]+(q-settled[1])>>12, out.Im)
}
