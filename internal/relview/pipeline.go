package relview

import (
	"context"
	"time"

	"videotube/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

// Query carries the per-request inputs of a pipeline run.
type Query struct {
	Sort   SortSpec
	Page   PageRequest
	Viewer Viewer
}

// Pipeline composes the read stages for one record type.
type Pipeline[T any] struct {
	Name    string
	Joins   []Resolver[T]
	Filters []func(T) bool
	Ranking Ranking[T]
	// Annotate fills viewer-relative and aggregate response fields from the
	// joined collections. It must not issue queries.
	Annotate func(T, Viewer)
}

// Run executes Join -> Filter -> Rank -> Page -> Annotate over base.
//
// When no filter runs and the ranking reads only base fields, the outer joins
// cannot change membership or order, so the window is cut first and only the
// page is joined.
func (p Pipeline[T]) Run(ctx context.Context, base []T, q Query) (Page[T], error) {
	span, ctx := observability.NewSpan(ctx, "relview."+p.Name)
	defer span.End()
	defer observability.ObservePipeline(p.Name, time.Now())

	req := q.Page.Normalize()
	span.AddAttributes(
		attribute.Int("relview.base", len(base)),
		attribute.Int("relview.page", req.Page),
		attribute.Int("relview.limit", req.Limit),
		attribute.String("relview.sort", q.Sort.Field),
	)

	if len(p.Filters) == 0 && !p.Ranking.needsJoin(q.Sort) {
		p.Ranking.Sort(base, q.Sort)
		page := Paginate(base, req)
		if err := Resolve(ctx, page.Records, p.Joins...); err != nil {
			span.SetError(err)
			return Page[T]{}, err
		}
		p.annotate(page.Records, q.Viewer)
		return page, nil
	}

	if err := Resolve(ctx, base, p.Joins...); err != nil {
		span.SetError(err)
		return Page[T]{}, err
	}
	records := Filter(base, p.Filters...)
	p.Ranking.Sort(records, q.Sort)
	page := Paginate(records, req)
	p.annotate(page.Records, q.Viewer)
	return page, nil
}

// Expand runs Join -> Filter -> Annotate without ranking or windowing.
// Record order is preserved.
func (p Pipeline[T]) Expand(ctx context.Context, base []T, viewer Viewer) ([]T, error) {
	span, ctx := observability.NewSpan(ctx, "relview."+p.Name+".expand")
	defer span.End()
	defer observability.ObservePipeline(p.Name, time.Now())

	if err := Resolve(ctx, base, p.Joins...); err != nil {
		span.SetError(err)
		return nil, err
	}
	records := Filter(base, p.Filters...)
	p.annotate(records, viewer)
	return records, nil
}

// One expands a single record. ok is false when a filter rejected it.
func (p Pipeline[T]) One(ctx context.Context, record T, viewer Viewer) (T, bool, error) {
	var zero T
	records, err := p.Expand(ctx, []T{record}, viewer)
	if err != nil {
		return zero, false, err
	}
	if len(records) == 0 {
		return zero, false, nil
	}
	return records[0], true, nil
}

func (p Pipeline[T]) annotate(records []T, viewer Viewer) {
	if p.Annotate == nil {
		return
	}
	for _, r := range records {
		p.Annotate(r, viewer)
	}
}
