package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"docboard/internal/dto"
	"docboard/internal/service"
	"docboard/pkg/response"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	icsContentType  = "text/calendar; charset=utf-8"
)

// ExportHandler appointment downloads.
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler creates an ExportHandler.
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportAppointments workbook of the caller's appointments.
// GET /api/v1/appointments/export?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *ExportHandler) ExportAppointments(c *gin.Context) {
	callerID, role, ok := mustGetCaller(c)
	if !ok {
		return
	}

	var q dto.ExportAppointmentsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	buf, filename, err := h.exportSvc.ExportAppointments(c.Request.Context(), &q, callerID, role)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// CalendarFeed iCalendar feed of the caller's appointments.
// GET /api/v1/appointments/calendar.ics
func (h *ExportHandler) CalendarFeed(c *gin.Context) {
	callerID, role, ok := mustGetCaller(c)
	if !ok {
		return
	}

	feed, err := h.exportSvc.CalendarFeed(c.Request.Context(), callerID, role)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	c.Header("Content-Disposition", "inline; filename=docboard.ics")
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, icsContentType, []byte(feed))
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrExportGenerateFail) {
		response.InternalError(c)
		return
	}
	handleCommonError(c, err)
}
