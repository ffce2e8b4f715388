package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/roamerhq/roamer-api/internal/container"
	handlers "github.com/roamerhq/roamer-api/internal/interface/http"
	"github.com/roamerhq/roamer-api/internal/interface/middleware"
	"github.com/roamerhq/roamer-api/pkg/helpers"
)

// PlaceModule wires the place routes.
// Public: GET /api/places/:id, GET /api/places/user/:uid, GET /api/places/search
// Protected: POST /api/places, PATCH /api/places/:id, DELETE /api/places/:id

type PlaceModule struct {
	Handler *handlers.PlaceHandler
	JWT     *helpers.JWTManager
}

func NewPlaceModule(h *handlers.PlaceHandler, jwt *helpers.JWTManager) *PlaceModule {
	return &PlaceModule{Handler: h, JWT: jwt}
}

func (m *PlaceModule) Register(rg *gin.RouterGroup) {
	rg.GET("/places/search", m.Handler.Search)
	rg.GET("/places/user/:uid", m.Handler.ListByUser)
	rg.GET("/places/:id", m.Handler.Get)

	auth := rg.Group("/")
	auth.Use(middleware.BearerAuth(m.JWT))
	auth.Use(
		middleware.RateLimit(container.GetRedis(), 300, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP()),
		middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID(), nil),
	)
	{
		auth.POST("/places", m.Handler.Create)
		auth.PATCH("/places/:id", m.Handler.Update)
		auth.DELETE("/places/:id", m.Handler.Delete)
	}
}
