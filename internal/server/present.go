package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/reflectai/reflectai/internal/render"
)

// handlePresent renders the read-only presentation page. It offers no
// mutation controls regardless of the editor's mode.
func (s *Server) handlePresent(c *gin.Context) {
	ed, ok := s.editorFor(c)
	if !ok {
		return
	}
	root := ed.Tree()
	view := render.Build(root, ed.Highlight())
	c.HTML(http.StatusOK, "present.html", gin.H{
		"Title": ed.Title(),
		"Owner": c.Param("owner"),
		"Root":  view,
	})
}
