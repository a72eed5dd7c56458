package phaselock

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func Test_IIR_Identity(t *testing.T) {
	var f = Identity()
	var s IIRState
	for _, x := range []float64{0, 1, -3.5, 1e300, 0.25} {
		assert.Equal(t, x, f.Update(&s, x))
	}
}

func Test_IIR_MatchesDifferenceEquation(t *testing.T) {
	// Feed a noisy signal through the filter and through a direct
	// evaluation of the same difference equation, in the same
	// operation order.
	var f = IIR{
		BA:   Lowpass(0.01, math.Sqrt2/2, 2),
		YMin: -math.MaxFloat64,
		YMax: math.MaxFloat64,
	}

	var s IIRState
	var x1, x2, y1, y2 float64
	for i := 0; i < 1000; i++ {
		var x0 = math.Sin(float64(i)*0.7) + 0.1*math.Cos(float64(i)*3.1)
		var got = f.Update(&s, x0)

		var want = x0*f.BA[0] + x1*f.BA[1] + x2*f.BA[2] + y1*f.BA[3] + y2*f.BA[4]
		x2, x1 = x1, x0
		y2, y1 = y1, want

		assert.InDelta(t, want, got, 1e-9)
	}
}

func Test_IIR_LowpassDCGain(t *testing.T) {
	// At DC the transfer function value is (b0+b1+b2)/(1+a1+a2) == k.
	for _, k := range []float64{0.5, 1, 2, 10} {
		var ba = Lowpass(0.05, 0.707, k)
		var num = ba[0] + ba[1] + ba[2]
		var den = 1 - ba[3] - ba[4]
		assert.InDelta(t, k, num/den, 1e-12)
	}
}

func Test_IIR_LowpassSettlesToDC(t *testing.T) {
	var f = IIR{
		BA:   Lowpass(0.01, 0.707, 3),
		YMin: -math.MaxFloat64,
		YMax: math.MaxFloat64,
	}

	var s IIRState
	var y float64
	for i := 0; i < 10000; i++ {
		y = f.Update(&s, 1)
	}
	assert.InDelta(t, 3, y, 1e-9)
}

func Test_IIR_OffsetAndClamp(t *testing.T) {
	var f = Identity()
	f.YOffset = 10
	f.YMin = -5
	f.YMax = 15

	var s IIRState
	assert.Equal(t, 10.0, f.Update(&s, 0))
	assert.Equal(t, 15.0, f.Update(&s, 100))
	assert.Equal(t, -5.0, f.Update(&s, -100))

	// The clamped value is what entered the feedback history.
	assert.Equal(t, -5.0, s[2])
}

func Test_IIR_ClampInvariant(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var f = IIR{
			BA:   Lowpass(0.1, 0.707, 1),
			YMin: -1,
			YMax: 1,
		}
		var s IIRState
		for i := 0; i < 100; i++ {
			var x = rapid.Float64Range(-1e6, 1e6).Draw(t, "x")
			var y = f.Update(&s, x)
			assert.GreaterOrEqual(t, y, f.YMin)
			assert.LessOrEqual(t, y, f.YMax)
		}
	})
}
