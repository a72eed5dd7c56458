package phaselock

/*------------------------------------------------------------------
 *
 * Purpose:	Fixed-point cosine/sine kernel for the local oscillator.
 *
 *		Angles are turn scaled: the full int32 range is one
 *		revolution and all angle arithmetic wraps.  One call
 *		returns both components of the unit vector so the I and Q
 *		mixers always see a coherent pair.
 *
 * Description:	Quarter-wave sine table with linear interpolation.
 *		The table is built once at startup; each call costs two
 *		interpolated lookups and a quadrant unmap, with no
 *		data-dependent iteration.  Worst case amplitude error is
 *		below one part in 2^20 of full scale (table quantization
 *		plus chord error of the 1024-entry table).
 *
 *----------------------------------------------------------------*/

import "math"

// CossinScale is the full-scale amplitude of the Cossin outputs.
const CossinScale = 1<<31 - 1

const (
	cossinDepth = 10 // log2 table entries per quarter turn
	cossinSize  = 1 << cossinDepth

	// Phase bits per quadrant and bits below the table index used for
	// interpolation.
	quadrantBits = 30
	interpBits   = quadrantBits - cossinDepth
)

// quarterSine spans a quarter turn plus one extra segment so that the
// interpolation endpoint t[idx+1] is always in range, including for the
// exact quarter-turn argument.
var quarterSine [cossinSize + 2]int32

func init() {
	for i := range quarterSine {
		var a = math.Pi / 2 * float64(i) / float64(cossinSize)
		quarterSine[i] = int32(math.Round(CossinScale * math.Sin(a)))
	}
}

// interpSine evaluates full-scale sin for q in [0, 1<<quadrantBits], i.e.
// over one quarter turn.
func interpSine(q uint32) int32 {
	var idx = q >> interpBits
	var frac = int64(q & (1<<interpBits - 1))
	var v0 = int64(quarterSine[idx])
	var v1 = int64(quarterSine[idx+1])
	return int32(v0 + ((v1-v0)*frac+1<<(interpBits-1))>>interpBits)
}

/*------------------------------------------------------------------
 *
 * Name:	Cossin
 *
 * Purpose:	Return both components of the unit vector at the given
 *		turn-scaled angle.
 *
 * Inputs:	phase	- Turn-scaled angle.  0 is 0 turns, 1<<30 is a
 *			  quarter turn, math.MinInt32 is half a turn.
 *			  Every int32 value is a valid angle.
 *
 * Returns:	cos and sin of the angle, scaled to CossinScale.
 *		Cossin(0) == (CossinScale, 0) exactly.
 *
 *----------------------------------------------------------------*/

func Cossin(phase int32) (int32, int32) {
	var p = uint32(phase)
	var quadrant = p >> quadrantBits
	var q = p & (1<<quadrantBits - 1)

	// First-quadrant values; cos(q) == sin(quarter turn - q).
	var sin = interpSine(q)
	var cos = interpSine(1<<quadrantBits - q)

	switch quadrant {
	case 0:
		return cos, sin
	case 1:
		return -sin, cos
	case 2:
		return -cos, -sin
	default:
		return sin, -cos
	}
}
