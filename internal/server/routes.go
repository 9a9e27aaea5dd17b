package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/reflectai/reflectai/internal/category"
	"github.com/reflectai/reflectai/internal/editor"
	"github.com/reflectai/reflectai/internal/treestore"
)

// uncategorizedParam addresses trees whose category was deleted.
const uncategorizedParam = "uncategorized"

// registerRoutes sets up all routes on the Gin router.
func (s *Server) registerRoutes() {
	r := s.router

	r.GET("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	r.GET("/present/:owner/:category", s.handlePresent)

	api := r.Group("/api/owners/:owner")
	api.GET("/categories", s.handleListCategories)
	api.POST("/categories", s.handleCreateCategory)
	api.PATCH("/categories/:category", s.handleRenameCategory)
	api.DELETE("/categories/:category", s.handleDeleteCategory)

	api.GET("/maps", s.handleListMaps)

	maps := api.Group("/maps/:category")
	maps.GET("", s.handleGetMap)
	maps.PUT("", s.handlePutMap)
	maps.PUT("/presentation", s.handleSetPresentation)
	maps.GET("/events", s.handleMapEvents)
	maps.POST("/nodes/:node/children", s.handleAddChild)
	maps.PATCH("/nodes/:node", s.handleUpdateNode)
	maps.DELETE("/nodes/:node", s.handleDeleteNode)

	api.GET("/reports", s.handleListReports)
	api.POST("/reports", s.handleGenerateReport)
}

func (s *Server) handleHealth(c *gin.Context) {
	sqlDB, err := s.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// resolveCategory maps the :category path segment to a tree key,
// answering 404 itself when nothing matches for the owner. "uncategorized"
// pins the newest detached tree to its own key so the editor keeps writing
// to that row after later deletes.
func (s *Server) resolveCategory(c *gin.Context) (ownerID, key string, ok bool) {
	ctx := c.Request.Context()
	ownerID = c.Param("owner")
	raw := c.Param("category")
	switch {
	case raw == uncategorizedParam:
		latest, err := s.trees.LatestDetached(ctx, ownerID)
		if err == nil && latest == treestore.Uncategorized {
			err = fmt.Errorf("%w: %s has no uncategorized map", treestore.ErrNotFound, ownerID)
		}
		if err != nil {
			s.fail(c, err)
			return "", "", false
		}
		return ownerID, latest, true
	case treestore.IsDetached(raw):
		// Registry.Get answers ErrNotFound for unknown rows.
		return ownerID, raw, true
	}
	if _, err := category.Get(s.db.WithContext(ctx), ownerID, raw); err != nil {
		s.fail(c, err)
		return "", "", false
	}
	return ownerID, raw, true
}

// editorFor resolves the category and returns its live editor.
func (s *Server) editorFor(c *gin.Context) (*editor.Editor, bool) {
	ownerID, key, ok := s.resolveCategory(c)
	if !ok {
		return nil, false
	}
	ed, err := s.registry.Get(c.Request.Context(), ownerID, key)
	if err != nil {
		s.fail(c, err)
		return nil, false
	}
	return ed, true
}

// errorStatus maps domain errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, category.ErrNotFound),
		errors.Is(err, treestore.ErrNotFound),
		errors.Is(err, errNodeNotFound):
		return http.StatusNotFound
	case errors.Is(err, category.ErrLastCategory),
		errors.Is(err, editor.ErrRootNotDeletable),
		errors.Is(err, editor.ErrProgressInactive):
		return http.StatusConflict
	case errors.Is(err, editor.ErrReadOnly):
		return http.StatusForbidden
	case errors.Is(err, category.ErrNameRequired),
		errors.Is(err, editor.ErrInvalidStatus),
		errors.Is(err, editor.ErrInvalidIcon),
		errors.Is(err, editor.ErrProgressRange),
		errors.Is(err, editor.ErrInvalidTree),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, errReportsDisabled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// fail writes err as a JSON error body with the mapped status.
func (s *Server) fail(c *gin.Context, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		c.Error(err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

var (
	errNodeNotFound    = errors.New("node not found")
	errBadRequest      = errors.New("bad request")
	errReportsDisabled = errors.New("reports are not configured")
)
