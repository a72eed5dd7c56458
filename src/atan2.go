package phaselock

/*------------------------------------------------------------------
 *
 * Purpose:	Fixed-point four-quadrant arctangent.
 *
 *		Used to extract the phase of a demodulated I/Q pair and
 *		as the inverse of Cossin in the turn-scaled angle
 *		representation.
 *
 * Description:	Octant reduction followed by a degree-9 odd polynomial
 *		for atan on [0, 1] (Abramowitz & Stegun 4.4.49, error
 *		below 1e-5 rad).  The ratio is carried in Q16 and the
 *		polynomial is evaluated by Horner's rule in 64-bit
 *		arithmetic.  Total error stays below 2^-17 turns.  The
 *		step count is fixed for every input; the only special
 *		case is the zero vector.
 *
 *----------------------------------------------------------------*/

// Polynomial coefficients a1..a9 premultiplied by 2^32/(2*pi) so the
// result comes out in turn-scaled angle units.
const (
	atanC1 = 683473678
	atanC3 = -225781269
	atanC5 = 123138132
	atanC7 = -58193963
	atanC9 = 14242151
)

/*------------------------------------------------------------------
 *
 * Name:	Atan2
 *
 * Purpose:	Return the turn-scaled angle of the vector (x, y).
 *
 * Inputs:	y, x	- Vector components.  Every int32 pair is valid.
 *
 * Returns:	Angle in turn-scaled units covering all four quadrants:
 *		Atan2(0, max) == 0, Atan2(max, 0) == 1<<30 (quarter
 *		turn), Atan2(0, -max) == half turn (wraps to
 *		math.MinInt32).  Atan2(0, 0) is defined as 0.
 *
 *----------------------------------------------------------------*/

func Atan2(y, x int32) int32 {
	var yi, xi = int64(y), int64(x)

	var ya = yi
	if ya < 0 {
		ya = -ya
	}
	var xa = xi
	if xa < 0 {
		xa = -xa
	}

	// Octant reduction: evaluate atan of the small/large ratio.
	var swapped = ya > xa
	var num, den = ya, xa
	if swapped {
		num, den = xa, ya
	}
	if den == 0 {
		return 0
	}

	// Ratio in Q16, rounded, in [0, 1<<16].
	var r = ((num << 16) + den>>1) / den
	var r2 = (r * r) >> 16

	var acc = int64(atanC9)
	acc = atanC7 + (acc*r2)>>16
	acc = atanC5 + (acc*r2)>>16
	acc = atanC3 + (acc*r2)>>16
	acc = atanC1 + (acc*r2)>>16
	var a = (acc * r) >> 16 // [0, 1<<29], first octant

	if swapped {
		a = 1<<30 - a
	}
	if xi < 0 {
		a = 1<<31 - a
	}
	if yi < 0 {
		a = -a
	}

	// Wrapping conversion: the half-turn result 1<<31 becomes
	// math.MinInt32.
	return int32(uint32(a))
}
