// Package media stores uploaded files in object storage and removes them
// once nothing references them.
package media

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

// Object is an upload waiting to be stored.
type Object struct {
	// Folder groups objects by purpose, e.g. "videos" or "avatars".
	Folder      string
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Ref points at a stored object. URL is public; Handle is what Delete takes.
type Ref struct {
	URL    string `json:"url"`
	Handle string `json:"-"`
}

// Store is the blob store the services upload to and delete from.
type Store interface {
	Upload(ctx context.Context, obj Object) (Ref, error)
	Delete(ctx context.Context, handle string) error
}

// ErrEmptyObject is returned for uploads without content.
var ErrEmptyObject = errors.New("media: empty object")

// ObjectName returns a collision-free name that keeps the file extension.
func ObjectName(folder, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	folder = strings.Trim(folder, "/")
	if folder == "" {
		folder = "misc"
	}
	return folder + "/" + uuid.NewString() + ext
}
