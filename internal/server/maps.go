package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/reflectai/reflectai/internal/category"
	"github.com/reflectai/reflectai/internal/editor"
	"github.com/reflectai/reflectai/internal/mindmap"
	"github.com/reflectai/reflectai/internal/report"
	"github.com/reflectai/reflectai/internal/treestore"
)

type highlightJSON struct {
	CurrentID string   `json:"currentId"`
	PathIDs   []string `json:"pathIds"`
}

type mapJSON struct {
	Category  string        `json:"category"`
	Title     string        `json:"title"`
	Tree      *mindmap.Node `json:"tree"`
	Highlight highlightJSON `json:"highlight"`
	ReadOnly  bool          `json:"readOnly"`
	Saving    bool          `json:"saving"`
	LastError string        `json:"lastError,omitempty"`
}

// mapState snapshots an editor for the wire.
func mapState(ed *editor.Editor) mapJSON {
	root := ed.Tree()
	hl := mindmap.ResolveHighlight(root)
	path := hl.Path(root)
	if path == nil {
		path = []string{}
	}
	saving, lastErr := ed.SaveState()
	out := mapJSON{
		Category:  ed.CategoryID(),
		Title:     ed.Title(),
		Tree:      root,
		Highlight: highlightJSON{CurrentID: hl.CurrentID, PathIDs: path},
		ReadOnly:  ed.ReadOnly(),
		Saving:    saving,
	}
	if lastErr != nil {
		out.LastError = lastErr.Error()
	}
	return out
}

// mapEntryJSON lists one stored tree. Category is the key for the
// /maps/:category routes.
type mapEntryJSON struct {
	Category     string `json:"category"`
	CategoryName string `json:"categoryName"`
	Title        string `json:"title"`
	Nodes        int    `json:"nodes"`
}

// handleListMaps lists every stored tree of the owner, detached ones
// included.
func (s *Server) handleListMaps(c *gin.Context) {
	ctx := c.Request.Context()
	ownerID := c.Param("owner")
	entries, err := s.trees.ListTrees(ctx, ownerID)
	if err != nil {
		s.fail(c, err)
		return
	}
	cats, err := category.List(s.db.WithContext(ctx), ownerID)
	if err != nil {
		s.fail(c, err)
		return
	}
	names := make(map[string]string, len(cats))
	for _, cat := range cats {
		names[cat.ID] = cat.Name
	}
	out := make([]mapEntryJSON, 0, len(entries))
	for _, e := range entries {
		name := names[e.CategoryID]
		if e.CategoryID == treestore.Uncategorized {
			name = report.UncategorizedName
		}
		out = append(out, mapEntryJSON{
			Category:     e.Key,
			CategoryName: name,
			Title:        e.Title,
			Nodes:        mindmap.Count(e.Root),
		})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleGetMap(c *gin.Context) {
	ed, ok := s.editorFor(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, mapState(ed))
}

type putMapRequest struct {
	Title string          `json:"title"`
	Tree  json.RawMessage `json:"tree"`
}

// handlePutMap replaces the whole tree. The tree payload goes through the
// lenient decoder so legacy shapes are accepted.
func (s *Server) handlePutMap(c *gin.Context) {
	ed, ok := s.editorFor(c)
	if !ok {
		return
	}
	var req putMapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if len(req.Tree) == 0 {
		s.fail(c, fmt.Errorf("%w: tree is required", errBadRequest))
		return
	}
	root, err := mindmap.Decode(req.Tree)
	if err != nil {
		s.fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	title := req.Title
	if title == "" {
		title = ed.Title()
	}
	if err := ed.Replace(root, title); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, mapState(ed))
}

type presentationRequest struct {
	Enabled bool `json:"enabled"`
}

// handleSetPresentation switches presentation mode, which rejects edits.
func (s *Server) handleSetPresentation(c *gin.Context) {
	ed, ok := s.editorFor(c)
	if !ok {
		return
	}
	var req presentationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	ed.SetReadOnly(req.Enabled)
	c.JSON(http.StatusOK, mapState(ed))
}

type addChildRequest struct {
	Label string `json:"label"`
	Kind  string `json:"kind"`
}

func (s *Server) handleAddChild(c *gin.Context) {
	ed, ok := s.editorFor(c)
	if !ok {
		return
	}
	var req addChildRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			s.fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
			return
		}
	}
	if req.Kind != "" && (!mindmap.ValidKind(req.Kind) || req.Kind == string(mindmap.KindRoot)) {
		s.fail(c, fmt.Errorf("%w: invalid kind %q", errBadRequest, req.Kind))
		return
	}
	node, err := ed.AddChild(c.Param("node"), req.Label, mindmap.Kind(req.Kind))
	if err != nil {
		s.fail(c, err)
		return
	}
	if node == nil {
		s.fail(c, fmt.Errorf("%w: %s", errNodeNotFound, c.Param("node")))
		return
	}
	c.JSON(http.StatusCreated, node)
}

// updateNodeRequest carries optional field changes; nil fields are left
// untouched. The fields are applied together or not at all.
type updateNodeRequest struct {
	Label       *string `json:"label"`
	Description *string `json:"description"`
	Icon        *string `json:"icon"`
	Status      *string `json:"status"`
	Progress    *int    `json:"progress"`
}

func (s *Server) handleUpdateNode(c *gin.Context) {
	ed, ok := s.editorFor(c)
	if !ok {
		return
	}
	id := c.Param("node")
	var req updateNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if mindmap.Find(ed.Tree(), id) == nil {
		s.fail(c, fmt.Errorf("%w: %s", errNodeNotFound, id))
		return
	}

	ch := editor.Change{
		Label:       req.Label,
		Description: req.Description,
		Progress:    req.Progress,
	}
	if req.Icon != nil {
		icon := mindmap.Icon(*req.Icon)
		ch.Icon = &icon
	}
	if req.Status != nil {
		status := mindmap.Status(*req.Status)
		ch.Status = &status
	}
	if err := ed.Update(id, ch); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, mindmap.Find(ed.Tree(), id))
}

func (s *Server) handleDeleteNode(c *gin.Context) {
	ed, ok := s.editorFor(c)
	if !ok {
		return
	}
	id := c.Param("node")
	if mindmap.Find(ed.Tree(), id) == nil {
		s.fail(c, fmt.Errorf("%w: %s", errNodeNotFound, id))
		return
	}
	if err := ed.Delete(id); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
