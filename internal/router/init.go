package router

import (
	"github.com/roamerhq/roamer-api/internal/application"
	"github.com/roamerhq/roamer-api/internal/container"
	pginfra "github.com/roamerhq/roamer-api/internal/infrastructure/postgres"
	handlers "github.com/roamerhq/roamer-api/internal/interface/http"
	"github.com/roamerhq/roamer-api/internal/router/modules"
)

// InitModules wires repositories, services, and handlers from the container
// singletons and registers every feature module. Called once at startup.
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	pool := container.GetPGPool()
	logger := container.GetLogger()
	store := container.GetArtifactStore()
	pub := container.GetRabbitPub()
	es := container.GetES()

	userRepo := pginfra.NewUserRepository(pool)
	placeRepo := pginfra.NewPlaceRepository(pool)

	userSvc := application.NewUserService(userRepo, container.GetJWT(), store, pub, logger, es, cfg.ESUsersIndex)
	placeSvc := application.NewPlaceService(placeRepo, userRepo, container.GetGeocoder(), store, pub, logger, es, cfg.ESPlacesIndex)

	userHandler := handlers.NewUserHandler(userSvc, store, logger, cfg.UploadMaxBytes)
	placeHandler := handlers.NewPlaceHandler(placeSvc, store, logger, cfg.UploadMaxBytes)

	r.Add(modules.NewUserModule(userHandler, container.GetJWT()))
	r.Add(modules.NewPlaceModule(placeHandler, container.GetJWT()))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
}
