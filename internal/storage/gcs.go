package storage

import (
	"context"
	"io"
	"path"

	gcs "cloud.google.com/go/storage"
	"github.com/google/uuid"

	"github.com/roamerhq/roamer-api/pkg/helpers"
)

// GCSStore keeps artifacts in a Google Cloud Storage bucket. Selected when
// GCS_BUCKET is configured; otherwise the local store is used.
type GCSStore struct {
	Client *gcs.Client
	Bucket string
}

func NewGCSStore(client *gcs.Client, bucket string) *GCSStore {
	return &GCSStore{Client: client, Bucket: bucket}
}

func (s *GCSStore) Stage(ctx context.Context, r io.Reader, contentType string) (string, error) {
	ext, ok := extByType[contentType]
	if !ok {
		return "", ErrUnsupportedType
	}
	objectPath := path.Join("images", uuid.NewString()+"."+ext)
	if _, err := helpers.UploadObject(ctx, s.Client, s.Bucket, objectPath, contentType, r); err != nil {
		return "", err
	}
	return objectPath, nil
}

func (s *GCSStore) Release(ctx context.Context, ref string) error {
	return s.Client.Bucket(s.Bucket).Object(ref).Delete(ctx)
}

func (s *GCSStore) URL(ref string) string {
	return helpers.PublicURL(s.Bucket, ref)
}

var _ ArtifactStore = (*GCSStore)(nil)
