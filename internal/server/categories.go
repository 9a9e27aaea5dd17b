package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/reflectai/reflectai/internal/category"
	"github.com/reflectai/reflectai/internal/models"
	"github.com/reflectai/reflectai/internal/treestore"
)

type categoryJSON struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type categoryRequest struct {
	Name string `json:"name"`
}

func toCategoryJSON(c models.Category) categoryJSON {
	return categoryJSON{ID: c.ID, Name: c.Name}
}

// handleListCategories lists the owner's categories, creating the default
// one on first use.
func (s *Server) handleListCategories(c *gin.Context) {
	cats, err := category.EnsureDefault(s.db.WithContext(c.Request.Context()), c.Param("owner"))
	if err != nil {
		s.fail(c, err)
		return
	}
	out := make([]categoryJSON, 0, len(cats))
	for _, cat := range cats {
		out = append(out, toCategoryJSON(cat))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleCreateCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	cat, err := category.Create(s.db.WithContext(c.Request.Context()), c.Param("owner"), req.Name)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toCategoryJSON(*cat))
}

func (s *Server) handleRenameCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	db := s.db.WithContext(c.Request.Context())
	ownerID, id := c.Param("owner"), c.Param("category")
	if err := category.Rename(db, ownerID, id, req.Name); err != nil {
		s.fail(c, err)
		return
	}
	cat, err := category.Get(db, ownerID, id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toCategoryJSON(*cat))
}

// handleDeleteCategory deletes a category. Its tree survives as a detached
// uncategorized tree with its own key.
func (s *Server) handleDeleteCategory(c *gin.Context) {
	ctx := c.Request.Context()
	ownerID, id := c.Param("owner"), c.Param("category")

	// Flush first so the detached row holds the latest edits. An editor on
	// the newest-detached alias must land its saves before this tree
	// becomes the newest one.
	for _, key := range []string{id, treestore.Uncategorized} {
		if err := s.registry.Forget(ctx, ownerID, key); err != nil {
			s.log.Warn("flush before category delete",
				zap.String("owner", ownerID),
				zap.String("category", key),
				zap.Error(err))
		}
	}
	if err := category.Delete(s.db.WithContext(ctx), ownerID, id); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
