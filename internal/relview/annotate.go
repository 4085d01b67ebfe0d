package relview

// Count is the size of a joined collection.
func Count[R any](rs []R) int64 {
	return int64(len(rs))
}

// Sum totals a numeric field over a joined collection.
func Sum[R any](rs []R, value func(R) int64) int64 {
	var total int64
	for _, r := range rs {
		total += value(r)
	}
	return total
}

// Contains reports whether the viewer's id appears as key in the joined
// collection. It is always false for the anonymous viewer.
func Contains[R any](v Viewer, rs []R, key func(R) uint) bool {
	if v.IsAnonymous() {
		return false
	}
	for _, r := range rs {
		if key(r) == v.ID {
			return true
		}
	}
	return false
}

// ContainsID reports whether id appears as key in the joined collection.
func ContainsID[R any](id uint, rs []R, key func(R) uint) bool {
	return Contains(As(id), rs, key)
}
