package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/roamerhq/roamer-api/internal/application"
	"github.com/roamerhq/roamer-api/internal/domain/entity"
	"github.com/roamerhq/roamer-api/internal/geocode"
	"github.com/roamerhq/roamer-api/internal/interface/middleware"
	"github.com/roamerhq/roamer-api/internal/storage"
	"github.com/roamerhq/roamer-api/pkg/response"
	"github.com/roamerhq/roamer-api/pkg/validation"
)

type PlaceHandler struct {
	Svc       *application.PlaceService
	Store     storage.ArtifactStore
	Logger    *logrus.Logger
	MaxUpload int64
}

func NewPlaceHandler(svc *application.PlaceService, store storage.ArtifactStore, logger *logrus.Logger, maxUpload int64) *PlaceHandler {
	return &PlaceHandler{Svc: svc, Store: store, Logger: logger, MaxUpload: maxUpload}
}

type createPlaceRequest struct {
	Title       string `form:"title" binding:"required"`
	Description string `form:"description" binding:"required,min=5"`
	Address     string `form:"address" binding:"required"`
}

type updatePlaceRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required,min=5"`
}

func (h *PlaceHandler) placeBody(p *entity.Place) gin.H {
	return gin.H{
		"id":          p.ID,
		"title":       p.Title,
		"description": p.Description,
		"address":     p.Address,
		"location":    gin.H{"lat": p.Lat, "lng": p.Lng},
		"image":       h.Store.URL(p.Image),
		"creator":     p.CreatorID,
		"created_at":  p.CreatedAt,
		"updated_at":  p.UpdatedAt,
	}
}

// Get GET /api/places/:id
func (h *PlaceHandler) Get(c *gin.Context) {
	p, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, application.ErrPlaceNotFound) {
			c.JSON(http.StatusNotFound, response.Error[any](c, http.StatusNotFound, "could not find a place for the provided id", nil))
			return
		}
		h.Logger.WithError(err).Error("get place failed")
		c.JSON(http.StatusInternalServerError, response.Error[any](c, http.StatusInternalServerError, "could not find a place", nil))
		return
	}
	c.JSON(http.StatusOK, response.Success(c, http.StatusOK, gin.H{"place": h.placeBody(p)}, "place", nil))
}

// ListByUser GET /api/places/user/:uid — empty list for an unknown user.
func (h *PlaceHandler) ListByUser(c *gin.Context) {
	places, err := h.Svc.ListByUser(c.Request.Context(), c.Param("uid"))
	if err != nil {
		h.Logger.WithError(err).Error("list places failed")
		c.JSON(http.StatusInternalServerError, response.Error[any](c, http.StatusInternalServerError, "could not find places", nil))
		return
	}
	out := make([]gin.H, 0, len(places))
	for _, p := range places {
		out = append(out, h.placeBody(p))
	}
	c.JSON(http.StatusOK, response.Success(c, http.StatusOK, gin.H{"places": out}, "places", nil))
}

// Create POST /api/places — multipart title, description, address, image.
func (h *PlaceHandler) Create(c *gin.Context) {
	var req createPlaceRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err)))
		return
	}

	ref, ok := stageUpload(c, h.Store, h.Logger, h.MaxUpload)
	if !ok {
		return
	}

	p, err := h.Svc.Create(c.Request.Context(), application.CreateInput{
		CreatorID:   c.GetString(middleware.CtxUserIDKey),
		Title:       req.Title,
		Description: req.Description,
		Address:     req.Address,
		ArtifactRef: ref,
	})
	if err != nil {
		switch {
		case errors.Is(err, application.ErrUserNotFound):
			c.JSON(http.StatusNotFound, response.Error[any](c, http.StatusNotFound, "could not find user for the provided id", nil))
		case errors.Is(err, geocode.ErrNoResults):
			c.JSON(http.StatusUnprocessableEntity, response.Error[any](c, http.StatusUnprocessableEntity, "could not resolve the provided address", nil))
		case errors.Is(err, application.ErrGeocoderDown):
			h.Logger.WithError(err).Error("geocoding unavailable")
			c.JSON(http.StatusBadGateway, response.Error[any](c, http.StatusBadGateway, "geocoding unavailable, please try again later", nil))
		default:
			h.Logger.WithError(err).Error("create place failed")
			c.JSON(http.StatusInternalServerError, response.Error[any](c, http.StatusInternalServerError, "failed to create a place", nil))
		}
		return
	}

	c.JSON(http.StatusCreated, response.Success(c, http.StatusCreated, gin.H{"place": h.placeBody(p)}, "place created", nil))
}

// Update PATCH /api/places/:id — title/description only, owner only.
func (h *PlaceHandler) Update(c *gin.Context) {
	var req updatePlaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err)))
		return
	}

	p, err := h.Svc.Update(c.Request.Context(), c.Param("id"), c.GetString(middleware.CtxUserIDKey), application.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		h.writeMutationError(c, err, "could not update place")
		return
	}
	c.JSON(http.StatusOK, response.Success(c, http.StatusOK, gin.H{"place": h.placeBody(p)}, "place updated", nil))
}

// Delete DELETE /api/places/:id — owner only; the image is released only
// after the delete commits.
func (h *PlaceHandler) Delete(c *gin.Context) {
	err := h.Svc.Delete(c.Request.Context(), c.Param("id"), c.GetString(middleware.CtxUserIDKey))
	if err != nil {
		h.writeMutationError(c, err, "could not delete place")
		return
	}
	c.JSON(http.StatusOK, response.Success[any](c, http.StatusOK, nil, "the place has been deleted", nil))
}

// Search GET /api/places/search?q=&size=
func (h *PlaceHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		c.JSON(http.StatusBadRequest, response.Error[any](c, http.StatusBadRequest, "q is required", nil))
		return
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	hits, err := h.Svc.Search(c.Request.Context(), q, size)
	if err != nil {
		h.Logger.WithError(err).Error("place search failed")
		c.JSON(http.StatusInternalServerError, response.Error[any](c, http.StatusInternalServerError, "search failed", nil))
		return
	}
	c.JSON(http.StatusOK, response.Success(c, http.StatusOK, gin.H{"places": hits}, "search results", gin.H{"count": len(hits)}))
}

func (h *PlaceHandler) writeMutationError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, application.ErrPlaceNotFound):
		c.JSON(http.StatusNotFound, response.Error[any](c, http.StatusNotFound, "could not find place for the provided id", nil))
	case errors.Is(err, application.ErrNotOwner):
		c.JSON(http.StatusUnauthorized, response.Error[any](c, http.StatusUnauthorized, "you are not authorized to modify this place", nil))
	default:
		h.Logger.WithError(err).Error(fallback)
		c.JSON(http.StatusInternalServerError, response.Error[any](c, http.StatusInternalServerError, fallback, nil))
	}
}
