package container

import (
	gcs "cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/roamerhq/roamer-api/config"
	"github.com/roamerhq/roamer-api/internal/geocode"
	"github.com/roamerhq/roamer-api/internal/storage"
	"github.com/roamerhq/roamer-api/pkg/helpers"
)

// app-level container to share constructed components across packages
// Router can auto-wire modules from these singletons.

var (
	cfg         *config.Config
	logger      *logrus.Logger
	pgPool      *pgxpool.Pool
	redisClient *redis.Client
	gcsClient   *gcs.Client
	esClient    *elasticsearch.Client

	jwtManager *helpers.JWTManager
	rabbitPub  *helpers.RabbitPublisher

	artifactStore storage.ArtifactStore
	geocoder      geocode.Geocoder
)

func SetConfig(c *config.Config)    { cfg = c }
func GetConfig() *config.Config     { return cfg }
func SetLogger(l *logrus.Logger)    { logger = l }
func GetLogger() *logrus.Logger     { return logger }
func SetPGPool(p *pgxpool.Pool)     { pgPool = p }
func GetPGPool() *pgxpool.Pool      { return pgPool }
func SetRedis(r *redis.Client)      { redisClient = r }
func GetRedis() *redis.Client       { return redisClient }
func SetGCS(s *gcs.Client)          { gcsClient = s }
func GetGCS() *gcs.Client           { return gcsClient }
func SetES(c *elasticsearch.Client) { esClient = c }
func GetES() *elasticsearch.Client  { return esClient }
func SetJWT(m *helpers.JWTManager)  { jwtManager = m }
func GetJWT() *helpers.JWTManager {
	if jwtManager != nil {
		return jwtManager
	}
	return helpers.DefaultJWT()
}

func SetRabbitPub(p *helpers.RabbitPublisher) { rabbitPub = p }
func GetRabbitPub() *helpers.RabbitPublisher  { return rabbitPub }

func SetArtifactStore(s storage.ArtifactStore) { artifactStore = s }
func GetArtifactStore() storage.ArtifactStore  { return artifactStore }
func SetGeocoder(g geocode.Geocoder)           { geocoder = g }
func GetGeocoder() geocode.Geocoder            { return geocoder }
