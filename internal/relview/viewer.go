// Package relview turns normalized entities into viewer-relative, ranked and
// paginated result sets.
//
// A read is a small pipeline of typed stages:
//
//	Join -> Filter -> Rank -> Page -> Annotate
//
// Joins are left-outer and load each related collection with one batched call,
// so annotation runs against in-memory slices and never issues a query per record.
package relview

// Viewer is the identity a result set is computed for. The zero value is the
// anonymous viewer.
type Viewer struct {
	ID uint
}

// Anonymous returns the viewer used for unauthenticated requests.
func Anonymous() Viewer {
	return Viewer{}
}

// As returns the viewer for a user id. Zero yields the anonymous viewer.
func As(id uint) Viewer {
	return Viewer{ID: id}
}

// IsAnonymous reports whether no identity accompanies the request.
func (v Viewer) IsAnonymous() bool {
	return v.ID == 0
}

// Is reports whether the viewer is the given user.
func (v Viewer) Is(id uint) bool {
	return !v.IsAnonymous() && v.ID == id
}
