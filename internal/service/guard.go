// Package service implements the use cases of the platform: it guards
// mutations and assembles the viewer-relative read models.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"videotube/internal/models"
	"videotube/internal/observability"
	"videotube/internal/relview"
	"videotube/internal/repository"
)

const (
	maxTitleLen       = 200
	maxDescriptionLen = 5000
	maxContentLen     = 10000
	maxNameLen        = 150
	maxFullNameLen    = 100
)

// cascadeAttempts is the number of tries a cascading delete gets before its
// failure is surfaced.
const cascadeAttempts = 3

var retryDelay = 50 * time.Millisecond

// requireText trims value and rejects blank or oversized input.
func requireText(field, value string, maxLen int) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", models.NewValidationError(field + " is required")
	}
	if utf8.RuneCountInString(v) > maxLen {
		return "", models.NewValidationError(fmt.Sprintf("%s too long (max %d characters)", field, maxLen))
	}
	return v, nil
}

// optionalText is requireText for fields a partial update may omit.
func optionalText(field string, value *string, maxLen int) (*string, error) {
	if value == nil {
		return nil, nil
	}
	v, err := requireText(field, *value, maxLen)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// requireViewer rejects anonymous callers of write paths.
func requireViewer(viewer relview.Viewer) error {
	if viewer.IsAnonymous() {
		return models.NewUnauthorizedError("Authentication required")
	}
	return nil
}

// requireOwner allows the write only when the viewer owns the target.
func requireOwner(viewer relview.Viewer, ownerID uint, resource string) error {
	if err := requireViewer(viewer); err != nil {
		return err
	}
	if !viewer.Is(ownerID) {
		return models.NewAuthorizationError("You are not allowed to modify this " + resource)
	}
	return nil
}

// withRetry runs op again while it fails with a transient store error.
func withRetry(ctx context.Context, entity string, op func() error) error {
	var err error
	for attempt := 1; attempt <= cascadeAttempts; attempt++ {
		err = op()
		if err == nil || !repository.IsTransient(err) {
			return err
		}
		if attempt == cascadeAttempts {
			break
		}

		observability.CascadeRetries.WithLabelValues(entity).Inc()
		slog.WarnContext(ctx, "cascading delete failed, retrying",
			slog.String("entity", entity),
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()),
		)
		select {
		case <-ctx.Done():
			return models.NewDependencyError(ctx.Err())
		case <-time.After(retryDelay * time.Duration(attempt)):
		}
	}
	return err
}

// spawn runs fire-and-forget work. Tests swap it for a synchronous call.
type spawn func(task func())

func goSpawn(task func()) { go task() }

// visibleVideo loads a video the viewer may see. Drafts of other channels
// read as missing.
func visibleVideo(ctx context.Context, videos repository.VideoRepository, videoID uint, viewer relview.Viewer) (*models.Video, error) {
	video, err := videos.GetByID(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if !video.IsPublished && !viewer.Is(video.OwnerID) {
		return nil, models.NewNotFoundError("Video", videoID)
	}
	return video, nil
}
