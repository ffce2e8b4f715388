package application

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/roamerhq/roamer-api/internal/storage"
	"github.com/roamerhq/roamer-api/pkg/helpers"
	"github.com/roamerhq/roamer-api/pkg/mailer"
)

// releaseArtifact deletes a staged artifact best-effort. A failed delete is
// logged and queued for the sweep worker; it never surfaces to the caller,
// so no failure path blocks a response on cleanup.
func releaseArtifact(ctx context.Context, store storage.ArtifactStore, pub *helpers.RabbitPublisher, logger *logrus.Logger, ref string) {
	if ref == "" {
		return
	}
	err := store.Release(ctx, ref)
	if err == nil {
		return
	}
	if logger != nil {
		logger.WithError(err).WithField("artifact", ref).Warn("artifact release failed")
	}
	if pub != nil {
		if pErr := pub.PublishJSON(ctx, mailer.ArtifactSweep(ref)); pErr != nil && logger != nil {
			logger.WithError(pErr).WithField("artifact", ref).Warn("artifact sweep enqueue failed")
		}
	}
}
