package phaselock

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func Test_IIRInt_Identity(t *testing.T) {
	var f = IdentityInt()
	var s IIRIntState
	for _, x := range []int32{0, 1, -1, 12345, math.MaxInt32, math.MinInt32} {
		assert.Equal(t, x, f.Update(&s, x))
	}
}

func Test_IIRInt_MatchesReference(t *testing.T) {
	// Direct 64-bit evaluation of the same quantized difference
	// equation, including the rounding bias and post-clamp feedback.
	var f = IIRInt{
		BA:      LowpassInt(0.01, 0.707, 1),
		YOffset: 77,
		YMin:    -1 << 24,
		YMax:    1 << 24,
	}

	var s IIRIntState
	var x1, x2, y1, y2 int64
	for i := 0; i < 2000; i++ {
		var x0 = int64(int32(1e8 * math.Sin(float64(i)*0.3)))
		var got = f.Update(&s, int32(x0))

		var acc = int64(f.YOffset)<<IIRIntShift + 1<<(IIRIntShift-1)
		acc += x0 * int64(f.BA[0])
		acc += x1 * int64(f.BA[1])
		acc += x2 * int64(f.BA[2])
		acc += y1 * int64(f.BA[3])
		acc += y2 * int64(f.BA[4])
		var want = acc >> IIRIntShift
		if want < int64(f.YMin) {
			want = int64(f.YMin)
		} else if want > int64(f.YMax) {
			want = int64(f.YMax)
		}

		x2, x1 = x1, x0
		y2, y1 = y1, want

		assert.Equal(t, int32(want), got)
	}
}

func Test_IIRInt_TracksFloat(t *testing.T) {
	// The Q30 filter follows the float64 filter on a large-amplitude
	// impulse.  Per-sample requantization injects at most half an LSB,
	// amplified by the filter's DC error gain, so the paths stay within
	// a handful of counts of each other.
	var ba = Lowpass(0.05, 0.707, 2)
	var fi = IIRInt{
		BA:   LowpassInt(0.05, 0.707, 2),
		YMin: math.MinInt32,
		YMax: math.MaxInt32,
	}
	var ff = IIR{
		BA:   ba,
		YMin: math.MinInt32,
		YMax: math.MaxInt32,
	}

	var si IIRIntState
	var sf IIRState
	for i := 0; i < 500; i++ {
		var x = int32(0)
		if i == 0 {
			x = 1 << 20
		}
		var yi = fi.Update(&si, x)
		var yf = ff.Update(&sf, float64(x))
		assert.InDelta(t, yf, float64(yi), 16)
	}
}

func Test_IIRInt_ClampInvariant(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var f = IIRInt{
			BA:   LowpassInt(0.1, 0.707, 1),
			YMin: -1000,
			YMax: 1000,
		}
		var s IIRIntState
		for i := 0; i < 64; i++ {
			var y = f.Update(&s, rapid.Int32().Draw(t, "x"))
			assert.GreaterOrEqual(t, y, f.YMin)
			assert.LessOrEqual(t, y, f.YMax)
		}
	})
}

func Test_IIRInt_LowpassQuantization(t *testing.T) {
	// A gentle lowpass survives Q30 quantization with all five
	// coefficients nonzero and the feed-forward symmetry intact.
	var ba = LowpassInt(1e-3, 0.707, 2)
	assert.NotZero(t, ba[0])
	assert.Equal(t, ba[0], ba[2])
	assert.InDelta(t, float64(2*ba[0]), float64(ba[1]), 1)
}
