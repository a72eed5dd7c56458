package phaselock

// Accu is a wrapping phase accumulator.  It expands one block-level
// (phase, frequency) estimate into one phase value per sample, assuming
// the frequency is constant across the block.  The cursor only moves
// forward; construct a new Accu for each block.
type Accu struct {
	phase int32
	step  int32
}

// NewAccu returns an accumulator whose first value is phase and which
// advances by step on every read.
func NewAccu(phase, step int32) Accu {
	return Accu{phase: phase, step: step}
}

// Next returns the current phase and advances the cursor.  Overflow wraps;
// the sequence is infinite.
func (a *Accu) Next() int32 {
	var p = a.phase
	a.phase += a.step
	return p
}
