package server

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/reflectai/reflectai/internal/mindmap"
)

// Poll and heartbeat intervals for map event streams.
var (
	ssePoll      = 500 * time.Millisecond
	sseHeartbeat = 15 * time.Second
)

// handleMapEvents streams the map state whenever the tree, the save state
// or the presentation mode changes, so open views can follow edits made
// elsewhere.
func (s *Server) handleMapEvents(c *gin.Context) {
	ed, ok := s.editorFor(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	type seen struct {
		root     *mindmap.Node
		saving   bool
		readOnly bool
		lastErr  string
	}
	snapshot := func() (seen, mapJSON) {
		st := mapState(ed)
		return seen{root: st.Tree, saving: st.Saving, readOnly: st.ReadOnly, lastErr: st.LastError}, st
	}

	last, st := snapshot()
	writeSSE(c.Writer, "state", st)
	c.Writer.Flush()

	ctx := c.Request.Context()
	ticker := time.NewTicker(ssePoll)
	heartbeat := time.NewTicker(sseHeartbeat)
	defer ticker.Stop()
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			writeSSE(c.Writer, "heartbeat", map[string]string{
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			})
			c.Writer.Flush()
		case <-ticker.C:
			cur, st := snapshot()
			if cur == last {
				continue
			}
			last = cur
			writeSSE(c.Writer, "state", st)
			c.Writer.Flush()
		}
	}
}

// writeSSE writes a single SSE event to the writer.
func writeSSE(w io.Writer, event string, data any) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, string(jsonData))
}
