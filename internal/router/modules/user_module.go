package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/roamerhq/roamer-api/internal/container"
	handlers "github.com/roamerhq/roamer-api/internal/interface/http"
	"github.com/roamerhq/roamer-api/internal/interface/middleware"
	"github.com/roamerhq/roamer-api/pkg/helpers"
)

// UserModule wires the user routes.
// Public: GET /api/users, POST /api/users/signup, POST /api/users/login

type UserModule struct {
	Handler *handlers.UserHandler
	JWT     *helpers.JWTManager
}

func NewUserModule(h *handlers.UserHandler, jwt *helpers.JWTManager) *UserModule {
	return &UserModule{Handler: h, JWT: jwt}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	signupLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIPAndPath(), nil)
	loginLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIPAndPath(), nil)

	rg.GET("/users", m.Handler.List)
	rg.POST("/users/signup", signupLimiter, m.Handler.Signup)
	rg.POST("/users/login", loginLimiter, m.Handler.Login)
}
