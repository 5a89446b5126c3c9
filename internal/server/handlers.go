package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/roach88/stapsync/internal/store"
)

// EntityStore is the storage the handlers need. *store.Store satisfies it.
type EntityStore interface {
	Create(ctx context.Context, in store.NewEntity) (store.Entity, error)
	Get(ctx context.Context, id int64) (store.Entity, error)
	List(ctx context.Context, opts store.ListOptions) ([]store.Entity, error)
	Update(ctx context.Context, id int64, p store.Patch) (store.Entity, error)
	Delete(ctx context.Context, id int64) (store.Entity, error)
}

// CreateRequest is the body of POST /api/stapmodels.
type CreateRequest struct {
	Name     string `json:"name" binding:"required"`
	RemoteID *int64 `json:"remote_id"`
}

// UpdateRequest is the body of PUT and PATCH /api/stapmodels/:id.
type UpdateRequest struct {
	Name     *string `json:"name"`
	RemoteID *int64  `json:"remote_id"`
}

// ListEntitiesHandler handles GET /api/stapmodels.
func ListEntitiesHandler(s EntityStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, err := queryInt(c, "limit")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		offset, err := queryInt(c, "offset")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		entities, err := s.List(c.Request.Context(), store.ListOptions{
			Search: c.Query("search"),
			Limit:  limit,
			Offset: offset,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		if entities == nil {
			entities = []store.Entity{}
		}
		c.JSON(http.StatusOK, gin.H{"data": entities})
	}
}

// CreateEntityHandler handles POST /api/stapmodels.
func CreateEntityHandler(s EntityStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid request body: %v", err)})
			return
		}

		e, err := s.Create(c.Request.Context(), store.NewEntity{Name: req.Name, RemoteID: req.RemoteID})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"data": e})
	}
}

// GetEntityHandler handles GET /api/stapmodels/:id.
func GetEntityHandler(s EntityStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		e, err := s.Get(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": e})
	}
}

// UpdateEntityHandler handles PUT and PATCH /api/stapmodels/:id. PUT
// requires name; PATCH changes only the fields present.
func UpdateEntityHandler(s EntityStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}

		var req UpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid request body: %v", err)})
			return
		}
		if c.Request.Method == http.MethodPut && req.Name == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
			return
		}

		e, err := s.Update(c.Request.Context(), id, store.Patch{Name: req.Name, RemoteID: req.RemoteID})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": e})
	}
}

// DeleteEntityHandler handles DELETE /api/stapmodels/:id.
func DeleteEntityHandler(s EntityStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		if _, err := s.Delete(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// HealthHandler handles GET /healthz.
func HealthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid id %q", c.Param("id"))})
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return n, nil
}

// respondError maps store errors onto HTTP status codes.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
