package relview

import (
	"cmp"
	"slices"
	"strings"
	"time"
)

// Direction is a sort direction.
type Direction int

const (
	Descending Direction = iota
	Ascending
)

// ParseDirection accepts "asc"/"ascending" (any case); everything else is descending.
func ParseDirection(s string) Direction {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc", "ascending":
		return Ascending
	default:
		return Descending
	}
}

func (d Direction) String() string {
	if d == Ascending {
		return "asc"
	}
	return "desc"
}

// FieldCreatedAt is the default sort field.
const FieldCreatedAt = "createdAt"

// SortSpec is a requested ordering.
type SortSpec struct {
	Field     string
	Direction Direction
}

// ParseSort builds a SortSpec from raw query values.
func ParseSort(field, direction string) SortSpec {
	return SortSpec{Field: strings.TrimSpace(field), Direction: ParseDirection(direction)}
}

// SortField compares two records on one field in ascending order.
type SortField[T any] struct {
	Compare func(a, b T) int
	// Joined is set when the value is derived from joined collections, so the
	// records must be joined before they can be ranked.
	Joined bool
}

// Field builds a SortField from a base-record accessor.
func Field[T any, K cmp.Ordered](get func(T) K) SortField[T] {
	return SortField[T]{Compare: func(a, b T) int { return cmp.Compare(get(a), get(b)) }}
}

// JoinedField builds a SortField whose value comes from joined data.
func JoinedField[T any, K cmp.Ordered](get func(T) K) SortField[T] {
	f := Field(get)
	f.Joined = true
	return f
}

// Ranking is the total order for one record type.
type Ranking[T any] struct {
	CreatedAt func(T) time.Time
	ID        func(T) uint
	// Fields is the allow-list of client-selectable sort fields.
	Fields map[string]SortField[T]
}

// field resolves the primary comparator. Unknown and empty fields fall back to
// creation time, newest first.
func (r Ranking[T]) field(spec SortSpec) (SortField[T], Direction) {
	if f, ok := r.Fields[spec.Field]; ok && spec.Field != "" {
		return f, spec.Direction
	}
	byCreated := SortField[T]{Compare: func(a, b T) int { return r.CreatedAt(a).Compare(r.CreatedAt(b)) }}
	if spec.Field == FieldCreatedAt {
		return byCreated, spec.Direction
	}
	return byCreated, Descending
}

// Sort orders records in place. Ties break by creation time descending, then
// id descending, so repeated calls over unchanged data agree.
func (r Ranking[T]) Sort(records []T, spec SortSpec) {
	primary, dir := r.field(spec)
	slices.SortFunc(records, func(a, b T) int {
		c := primary.Compare(a, b)
		if dir == Descending {
			c = -c
		}
		if c != 0 {
			return c
		}
		if c = r.CreatedAt(b).Compare(r.CreatedAt(a)); c != 0 {
			return c
		}
		return cmp.Compare(r.ID(b), r.ID(a))
	})
}

// needsJoin reports whether ranking by spec reads joined data.
func (r Ranking[T]) needsJoin(spec SortSpec) bool {
	f, _ := r.field(spec)
	return f.Joined
}
