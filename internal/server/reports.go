package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/reflectai/reflectai/internal/models"
	"github.com/reflectai/reflectai/internal/report"
)

type reportJSON struct {
	ID          uint      `json:"id"`
	PeriodStart time.Time `json:"periodStart"`
	PeriodEnd   time.Time `json:"periodEnd"`
	Provider    string    `json:"provider"`
	Body        string    `json:"body"`
	CreatedAt   time.Time `json:"createdAt"`
	Delivered   *bool     `json:"delivered,omitempty"`
}

func toReportJSON(r models.Report) reportJSON {
	return reportJSON{
		ID:          r.ID,
		PeriodStart: r.PeriodStart,
		PeriodEnd:   r.PeriodEnd,
		Provider:    r.Provider,
		Body:        r.Body,
		CreatedAt:   r.CreatedAt,
	}
}

func (s *Server) handleListReports(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	reps, err := report.List(s.db.WithContext(c.Request.Context()), c.Param("owner"), limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	out := make([]reportJSON, 0, len(reps))
	for _, r := range reps {
		out = append(out, toReportJSON(r))
	}
	c.JSON(http.StatusOK, out)
}

// handleGenerateReport generates a report now. With ?send=true it is also
// delivered through the configured notifier; a delivery failure is
// reported in the body but does not fail the request.
func (s *Server) handleGenerateReport(c *gin.Context) {
	if s.reports == nil {
		s.fail(c, errReportsDisabled)
		return
	}
	ctx := c.Request.Context()
	ownerID := c.Param("owner")
	rep, err := s.reports.Generate(ctx, ownerID)
	if err != nil {
		s.fail(c, err)
		return
	}
	out := toReportJSON(*rep)
	if send, _ := strconv.ParseBool(c.Query("send")); send {
		delivered := true
		if err := report.Deliver(ctx, s.notifier, rep); err != nil {
			s.log.Warn("report delivery failed", zap.String("owner", ownerID), zap.Error(err))
			delivered = false
		}
		out.Delivered = &delivered
	}
	c.JSON(http.StatusCreated, out)
}
