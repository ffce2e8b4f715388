package storage

import (
	"context"
	"errors"
	"io"
)

// ErrUnsupportedType is returned when an upload's content type is not an
// accepted image format.
var ErrUnsupportedType = errors.New("unsupported file type")

// extByType doubles as the accepted-type whitelist.
var extByType = map[string]string{
	"image/png":  "png",
	"image/jpg":  "jpg",
	"image/jpeg": "jpeg",
}

// ArtifactStore stages uploaded binaries and releases them when the record
// referencing them goes away (or never came to exist). References are opaque
// to callers; only the store that produced one can resolve it.
type ArtifactStore interface {
	// Stage persists the upload and returns its reference.
	Stage(ctx context.Context, r io.Reader, contentType string) (string, error)
	// Release deletes the artifact. Callers treat failure as loggable, not
	// fatal; a leaked file is swept out-of-band.
	Release(ctx context.Context, ref string) error
	// URL returns the public URL the reference is served from.
	URL(ref string) string
}
