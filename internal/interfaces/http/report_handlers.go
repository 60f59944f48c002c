package http

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/societyhub/internal/application/service"
)

// DashboardStats handles GET /api/dashboard/stats
func (h *Handlers) DashboardStats(c *gin.Context) {
	stats, err := h.deps.Reports.DashboardStats(c.Request.Context(), currentActor(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, stats)
}

// GetReport handles GET /api/reports
func (h *Handlers) GetReport(c *gin.Context) {
	filter, err := reportFilter(c)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	report, err := h.deps.Reports.Report(c.Request.Context(), currentActor(c), filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, report)
}

// ExportReport handles GET /api/reports/export
func (h *Handlers) ExportReport(c *gin.Context) {
	filter, err := reportFilter(c)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	// Rendered into memory first; a failed export still gets a JSON error
	var buf bytes.Buffer
	meta, err := h.deps.Reports.ExportReport(c.Request.Context(), currentActor(c), filter, &buf)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", meta.FileName))
	c.Data(http.StatusOK, meta.ContentType, buf.Bytes())
}

// reportFilter reads from, to, status and societyId from the query string
func reportFilter(c *gin.Context) (service.ReportFilter, error) {
	from, err := parseDateParam(c.Query("from"), false)
	if err != nil {
		return service.ReportFilter{}, err
	}
	to, err := parseDateParam(c.Query("to"), true)
	if err != nil {
		return service.ReportFilter{}, err
	}
	if from != nil && to != nil && to.Before(*from) {
		return service.ReportFilter{}, fmt.Errorf("'to' must not be before 'from'")
	}

	return service.ReportFilter{
		From:      from,
		To:        to,
		Status:    c.Query("status"),
		SocietyID: c.Query("societyId"),
	}, nil
}
