package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/roamerhq/roamer-api/config"
	"github.com/roamerhq/roamer-api/internal/container"
	"github.com/roamerhq/roamer-api/internal/geocode"
	pginfra "github.com/roamerhq/roamer-api/internal/infrastructure/postgres"
	"github.com/roamerhq/roamer-api/internal/interface/middleware"
	"github.com/roamerhq/roamer-api/internal/router"
	"github.com/roamerhq/roamer-api/internal/storage"
	"github.com/roamerhq/roamer-api/pkg/helpers"
	"github.com/roamerhq/roamer-api/pkg/validation"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env)
	gin.SetMode(cfg.GinMode)
	validation.Init()

	// The signing secret is shared by every request-handling goroutine and
	// loaded exactly once; running without one is only tolerated in dev.
	if cfg.JWTSecret == "" {
		if cfg.Env != "development" {
			log.Fatal("JWT_SECRET is required")
		}
		cfg.JWTSecret = "devsecret"
		logger.Warn("JWT_SECRET not set, using development default")
	}

	ctx := context.Background()

	// Initialize Postgres pool
	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	// Run migrations using database/sql with pgx stdlib
	if err := runMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil && !errors.Is(migrate.ErrNoChange, err) {
		log.Fatalf("migration failed: %v", err)
	}

	// Redis
	rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer func() { _ = rdb.Close() }()

	// Artifact store: GCS when a bucket is configured, local disk otherwise
	var store storage.ArtifactStore
	serveLocal := false
	if cfg.GCSBucket != "" {
		gcsClient, err := helpers.NewGCSClient(ctx, cfg.GCSCredsJSON)
		if err != nil {
			log.Fatalf("failed to init GCS client: %v", err)
		}
		defer func() { _ = gcsClient.Close() }()
		container.SetGCS(gcsClient)
		store = storage.NewGCSStore(gcsClient, cfg.GCSBucket)
	} else {
		local, err := storage.NewLocalStore(cfg.UploadDir)
		if err != nil {
			log.Fatalf("failed to init upload dir: %v", err)
		}
		store = local
		serveLocal = true
	}

	// RabbitMQ publisher for welcome emails and artifact sweep retries;
	// the API degrades to log-only cleanup when the broker is down.
	pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQJobQueue)
	if err != nil {
		logger.WithError(err).Warn("rabbitmq unavailable, job publishing disabled")
	} else {
		defer pub.Close()
		container.SetRabbitPub(pub)
	}

	// Elasticsearch (optional)
	if addrs := cfg.ESAddrs(); len(addrs) > 0 {
		es, err := helpers.NewESClient(addrs, cfg.ElasticsearchUser, cfg.ElasticsearchPass)
		if err != nil {
			logger.WithError(err).Warn("elasticsearch unavailable, search disabled")
		} else {
			container.SetES(es)
		}
	}

	// JWT
	jwtManager := helpers.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)

	// Geocoder with redis read-through cache
	geocoder := geocode.NewCached(
		geocode.NewNominatim(cfg.GeocoderBaseURL, cfg.GeocoderEmail),
		rdb, cfg.GeocoderCacheTTL, logger,
	)

	// Provide infra singletons to container for registry auto-wiring
	container.SetConfig(cfg)
	container.SetLogger(logger)
	container.SetPGPool(pool)
	container.SetRedis(rdb)
	container.SetJWT(jwtManager)
	container.SetArtifactStore(store)
	container.SetGeocoder(geocoder)

	// Gin engine and global middleware
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RealIP())
	// CORS
	corsCfg := cors.Config{
		AllowOrigins:     cfg.CORSOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	r.Use(cors.New(corsCfg))
	if cfg.Env == "development" || cfg.HTTPLogEnabled {
		r.Use(gin.Logger())
	}

	// Uploaded images are served from the local store directory
	if serveLocal {
		r.Static("/uploads/images", cfg.UploadDir)
	}

	// Registry: auto-register modules using container
	reg := router.NewRegistry(r)
	router.InitModules(reg)
	reg.RegisterAll()

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "could not find this route"})
	})

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		logger.Infof("server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(http.ErrServerClosed, err) {
			logger.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Fatalf("server forced to shutdown: %v", err)
	}
	logger.Info("server exited properly")
}

func runMigrations(dsn string, migrationsDir string, logger *logrus.Logger) error {
	// Open sql DB via pgx stdlib
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	driver, err := pgmigrate.WithInstance(db, &pgmigrate.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", migrationsDir), "postgres", driver)
	if err != nil {
		return err
	}
	logger.Info("running migrations...")
	err = m.Up()
	if errors.Is(migrate.ErrNoChange, err) {
		logger.Info("no migrations to run")
		return nil
	}
	return err
}
