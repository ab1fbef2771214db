package sliceutil

// Map returns f applied to every element of v, in order.
func Map[From, To any](v []From, f func(From) To) []To {
	out := make([]To, 0, len(v))
	for _, e := range v {
		out = append(out, f(e))
	}
	return out
}
