package handler

import (
	"errors"
	"io"
	"strings"

	"github.com/gin-gonic/gin"

	"docboard/internal/dto"
	"docboard/internal/service"
	"docboard/pkg/response"
)

// ScheduleHandler weekly schedule, special dates and slot availability.
// Doctor ids accept "me".
type ScheduleHandler struct {
	scheduleSvc service.ScheduleService
}

// NewScheduleHandler creates a ScheduleHandler.
func NewScheduleHandler(scheduleSvc service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleSvc: scheduleSvc}
}

// GetSlots free and taken slots of one doctor on one date.
// GET /api/v1/doctors/:id/slots?date=YYYY-MM-DD
func (h *ScheduleHandler) GetSlots(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var q dto.SlotsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	slots, err := h.scheduleSvc.GetAvailableSlots(c.Request.Context(), c.Param("id"), q.Date, callerID)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, slots)
}

// GetSchedule
// GET /api/v1/doctors/:id/schedule
func (h *ScheduleHandler) GetSchedule(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	schedule, err := h.scheduleSvc.GetSchedule(c.Request.Context(), c.Param("id"), callerID)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, schedule)
}

// ReplaceSchedule replaces every weekly window.
// PUT /api/v1/doctors/:id/schedule
func (h *ScheduleHandler) ReplaceSchedule(c *gin.Context) {
	callerID, role, ok := mustGetCaller(c)
	if !ok {
		return
	}

	var req dto.ReplaceScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	schedule, err := h.scheduleSvc.ReplaceWeeklySchedule(c.Request.Context(), c.Param("id"), &req, callerID, role)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, schedule)
}

// ImportICS loads windows and overrides from a calendar file.
// POST /api/v1/doctors/:id/schedule/import
//
// Accepts multipart/form-data with field "file", or a raw text/calendar body.
func (h *ScheduleHandler) ImportICS(c *gin.Context) {
	callerID, role, ok := mustGetCaller(c)
	if !ok {
		return
	}

	var src io.Reader
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		file, _, err := c.Request.FormFile("file")
		if err != nil {
			response.BadRequest(c, 14006, "upload a calendar file in field \"file\"")
			return
		}
		defer file.Close()
		src = file
	} else {
		src = c.Request.Body
	}

	result, err := h.scheduleSvc.ImportICS(c.Request.Context(), c.Param("id"), src, callerID, role)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, result)
}

// ListSpecialDates
// GET /api/v1/doctors/:id/special-dates?from=&to=
func (h *ScheduleHandler) ListSpecialDates(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var q dto.SpecialDateQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	dates, err := h.scheduleSvc.ListSpecialDates(c.Request.Context(), c.Param("id"), &q, callerID)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, gin.H{"list": dates})
}

// UpsertSpecialDate creates or replaces the override for a date.
// POST /api/v1/doctors/:id/special-dates
func (h *ScheduleHandler) UpsertSpecialDate(c *gin.Context) {
	callerID, role, ok := mustGetCaller(c)
	if !ok {
		return
	}

	var req dto.SpecialDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	sd, err := h.scheduleSvc.UpsertSpecialDate(c.Request.Context(), c.Param("id"), &req, callerID, role)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, sd)
}

// DeleteSpecialDate
// DELETE /api/v1/doctors/:id/special-dates?date=YYYY-MM-DD
func (h *ScheduleHandler) DeleteSpecialDate(c *gin.Context) {
	callerID, role, ok := mustGetCaller(c)
	if !ok {
		return
	}

	var q dto.DeleteSpecialDateQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.scheduleSvc.DeleteSpecialDate(c.Request.Context(), c.Param("id"), q.Date, callerID, role); err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, nil)
}

func (h *ScheduleHandler) handleScheduleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidWindow):
		response.BadRequest(c, 14001, err.Error())
	case errors.Is(err, service.ErrWindowOverlap):
		response.BadRequest(c, 14002, err.Error())
	case errors.Is(err, service.ErrInvalidSpecialDate):
		response.BadRequest(c, 14003, "special date needs is_day_off or a valid start_time/end_time")
	case errors.Is(err, service.ErrSpecialDateNotFound):
		response.NotFound(c, 14004, "special date not found")
	case errors.Is(err, service.ErrICSParseFailed):
		response.BadRequest(c, 14005, "calendar file could not be parsed")
	case errors.Is(err, service.ErrICSEmpty):
		response.BadRequest(c, 14007, "calendar file contains no usable events")
	default:
		handleCommonError(c, err)
	}
}
