package relview

import (
	"context"
	"fmt"
	"log/slog"
)

// Loader fetches every related record whose match key is in keys.
// It is called at most once per join per resolution.
type Loader[R any] func(ctx context.Context, keys []uint) ([]R, error)

// Resolver expands a base collection in place.
type Resolver[B any] interface {
	Resolve(ctx context.Context, base []B) error
}

// Join declares one foreign-key expansion from B to R.
//
// B and R are expected to be pointer types so that Assign and nested joins
// can write into the records.
type Join[B, R any] struct {
	// Name is the output field; used in logs and errors.
	Name string
	// Keys returns the local key values of a base record. Zero keys never match.
	Keys func(B) []uint
	// Match returns the key of a related record compared against Keys.
	Match func(R) uint
	Load  Loader[R]
	// Assign stores the matched records on the base record. It is always
	// called, with an empty slice when nothing matched.
	Assign func(B, []R)
	// Single marks a single-valued relation: at most one match is assigned.
	Single bool
	// Nested joins run on the related records before they are assigned.
	Nested []Resolver[R]
}

// Key adapts a single-key accessor for Join.Keys.
func Key[B any](f func(B) uint) func(B) []uint {
	return func(b B) []uint {
		return []uint{f(b)}
	}
}

// Resolve runs joins over base in declaration order.
func Resolve[B any](ctx context.Context, base []B, joins ...Resolver[B]) error {
	for _, j := range joins {
		if err := j.Resolve(ctx, base); err != nil {
			return err
		}
	}
	return nil
}

// Resolve implements Resolver.
func (j Join[B, R]) Resolve(ctx context.Context, base []B) error {
	if len(base) == 0 {
		return nil
	}

	keys := distinctKeys(base, j.Keys)
	var related []R
	if len(keys) > 0 {
		var err error
		related, err = j.Load(ctx, keys)
		if err != nil {
			return fmt.Errorf("join %s: %w", j.Name, err)
		}
		if err := Resolve(ctx, related, j.Nested...); err != nil {
			return err
		}
	}

	groups := make(map[uint][]R, len(keys))
	for _, r := range related {
		k := j.Match(r)
		groups[k] = append(groups[k], r)
	}

	for _, b := range base {
		matched := make([]R, 0)
		for _, k := range j.Keys(b) {
			if k == 0 {
				continue
			}
			matched = append(matched, groups[k]...)
		}
		if j.Single && len(matched) > 1 {
			slog.WarnContext(ctx, "single-valued join matched more than one record",
				slog.String("join", j.Name),
				slog.Int("matches", len(matched)),
			)
			matched = matched[:1]
		}
		j.Assign(b, matched)
	}
	return nil
}

func distinctKeys[B any](base []B, keysOf func(B) []uint) []uint {
	seen := make(map[uint]struct{}, len(base))
	keys := make([]uint, 0, len(base))
	for _, b := range base {
		for _, k := range keysOf(b) {
			if k == 0 {
				continue
			}
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	return keys
}

// First returns the single record of a single-valued join result.
func First[R any](rs []R) (R, bool) {
	var zero R
	if len(rs) == 0 {
		return zero, false
	}
	return rs[0], true
}

// Filter keeps the records accepted by every predicate. It runs on the
// expanded shape, after joins.
func Filter[T any](records []T, keep ...func(T) bool) []T {
	if len(keep) == 0 {
		return records
	}
	out := make([]T, 0, len(records))
outer:
	for _, r := range records {
		for _, k := range keep {
			if !k(r) {
				continue outer
			}
		}
		out = append(out, r)
	}
	return out
}
