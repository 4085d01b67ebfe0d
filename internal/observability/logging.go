// Package observability provides logging, metrics, and tracing.
package observability

import (
	"context"
	"log/slog"
	"slices"
)

// RepoLogger tags repository log records with their table.
type RepoLogger struct {
	table string
}

// NewRepoLogger returns a RepoLogger for table.
func NewRepoLogger(table string) *RepoLogger {
	return &RepoLogger{table: table}
}

// LogCascade records the rows a cascading delete removed, one attribute per
// dependent table.
func (l *RepoLogger) LogCascade(ctx context.Context, removed map[string]any) {
	slog.InfoContext(ctx, "cascade delete", append([]any{slog.String("table", l.table)}, sortedAttrs(removed)...)...)
}

// LogError logs a store failure. Domain errors such as NotFound are not
// reported here.
func (l *RepoLogger) LogError(ctx context.Context, err error, operation string) {
	slog.ErrorContext(ctx, "repository error",
		slog.String("table", l.table),
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// LogAsyncOperationError logs and counts a failed fire-and-forget operation.
// The request that spawned it has already been answered.
func LogAsyncOperationError(ctx context.Context, operation string, err error, fields map[string]any) {
	BackgroundFailures.WithLabelValues(operation).Inc()
	attrs := append([]any{
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	}, sortedAttrs(fields)...)
	slog.WarnContext(ctx, "background operation failed", attrs...)
}

func sortedAttrs(fields map[string]any) []any {
	out := make([]any, 0, len(fields))
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		out = append(out, slog.Any(k, fields[k]))
	}
	return out
}
