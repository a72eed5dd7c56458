package phaselock

// wrapError returns the magnitude of the shortest wrapping distance
// between two turn-scaled angles.
func wrapError(got, want int32) int64 {
	var d = int64(got - want) // wrapping difference
	if d < 0 {
		d = -d
	}
	return d
}
