package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/roamerhq/roamer-api/internal/application"
	"github.com/roamerhq/roamer-api/internal/storage"
	"github.com/roamerhq/roamer-api/pkg/response"
	"github.com/roamerhq/roamer-api/pkg/validation"
)

type UserHandler struct {
	Svc       *application.UserService
	Store     storage.ArtifactStore
	Logger    *logrus.Logger
	MaxUpload int64
}

func NewUserHandler(svc *application.UserService, store storage.ArtifactStore, logger *logrus.Logger, maxUpload int64) *UserHandler {
	return &UserHandler{Svc: svc, Store: store, Logger: logger, MaxUpload: maxUpload}
}

type signupRequest struct {
	Name     string `form:"name" binding:"required"`
	Email    string `form:"email" binding:"required,email"`
	Password string `form:"password" binding:"required,pwd"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// List GET /api/users — all users, password hashes excluded by the
// repository projection.
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.Svc.List(c.Request.Context())
	if err != nil {
		h.Logger.WithError(err).Error("list users failed")
		c.JSON(http.StatusInternalServerError, response.Error[any](c, http.StatusInternalServerError, "unable to fetch users", nil))
		return
	}

	out := make([]gin.H, 0, len(users))
	for _, u := range users {
		out = append(out, gin.H{
			"id":         u.ID,
			"name":       u.Name,
			"email":      u.Email,
			"image":      h.Store.URL(u.Image),
			"places":     u.PlaceIDs,
			"created_at": u.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, response.Success(c, http.StatusOK, gin.H{"users": out}, "users", nil))
}

// Signup POST /api/users/signup — multipart name, email, password, image.
// The image is staged before the user record exists; the service releases
// it on any failure.
func (h *UserHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err)))
		return
	}

	ref, ok := stageUpload(c, h.Store, h.Logger, h.MaxUpload)
	if !ok {
		return
	}

	res, err := h.Svc.Signup(c.Request.Context(), req.Name, req.Email, req.Password, ref)
	if err != nil {
		if errors.Is(err, application.ErrEmailTaken) {
			c.JSON(http.StatusUnprocessableEntity, response.Error[any](c, http.StatusUnprocessableEntity, "user already exists", nil))
			return
		}
		h.Logger.WithError(err).Error("signup failed")
		c.JSON(http.StatusInternalServerError, response.Error[any](c, http.StatusInternalServerError, "could not register user", nil))
		return
	}

	c.JSON(http.StatusCreated, response.Success(c, http.StatusCreated, gin.H{
		"userId": res.UserID,
		"email":  res.Email,
		"token":  res.Token,
	}, "user created", gin.H{"expires_at": res.Expires}))
}

// Login POST /api/users/login — unknown email and wrong password share one
// response shape; only a server-side failure differs.
func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err)))
		return
	}

	res, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, application.ErrInvalidCredentials) {
			c.JSON(http.StatusForbidden, response.Error[any](c, http.StatusForbidden, "invalid credentials", nil))
			return
		}
		h.Logger.WithError(err).Error("login failed")
		c.JSON(http.StatusInternalServerError, response.Error[any](c, http.StatusInternalServerError, "could not log you in", nil))
		return
	}

	c.JSON(http.StatusOK, response.Success(c, http.StatusOK, gin.H{
		"userId": res.UserID,
		"email":  res.Email,
		"token":  res.Token,
	}, "login successful", gin.H{"expires_at": res.Expires}))
}
