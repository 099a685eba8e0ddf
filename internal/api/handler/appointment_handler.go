package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"docboard/internal/dto"
	"docboard/internal/service"
	"docboard/pkg/response"
)

// AppointmentHandler booking and lifecycle.
type AppointmentHandler struct {
	appointmentSvc service.AppointmentService
}

// NewAppointmentHandler creates an AppointmentHandler.
func NewAppointmentHandler(appointmentSvc service.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{appointmentSvc: appointmentSvc}
}

// Book patient books one of the doctor's available slots.
// POST /api/v1/appointments
func (h *AppointmentHandler) Book(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.BookAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	appt, err := h.appointmentSvc.Book(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleAppointmentError(c, err)
		return
	}

	response.Created(c, appt)
}

// List caller-scoped: patients see theirs, doctors their agenda, admins all.
// GET /api/v1/appointments
func (h *AppointmentHandler) List(c *gin.Context) {
	callerID, role, ok := mustGetCaller(c)
	if !ok {
		return
	}

	var req dto.AppointmentListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	list, total, err := h.appointmentSvc.List(c.Request.Context(), &req, callerID, role)
	if err != nil {
		h.handleAppointmentError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// Get
// GET /api/v1/appointments/:id
func (h *AppointmentHandler) Get(c *gin.Context) {
	callerID, role, ok := mustGetCaller(c)
	if !ok {
		return
	}

	appt, err := h.appointmentSvc.Get(c.Request.Context(), c.Param("id"), callerID, role)
	if err != nil {
		h.handleAppointmentError(c, err)
		return
	}

	response.OK(c, appt)
}

// UpdateStatus doctor or admin moves the appointment along its lifecycle.
// PUT /api/v1/appointments/:id/status
func (h *AppointmentHandler) UpdateStatus(c *gin.Context) {
	callerID, role, ok := mustGetCaller(c)
	if !ok {
		return
	}

	var req dto.UpdateAppointmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	appt, err := h.appointmentSvc.UpdateStatus(c.Request.Context(), c.Param("id"), &req, callerID, role)
	if err != nil {
		h.handleAppointmentError(c, err)
		return
	}

	response.OK(c, appt)
}

// Cancel
// POST /api/v1/appointments/:id/cancel
func (h *AppointmentHandler) Cancel(c *gin.Context) {
	callerID, role, ok := mustGetCaller(c)
	if !ok {
		return
	}

	var req dto.CancelAppointmentRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}

	appt, err := h.appointmentSvc.Cancel(c.Request.Context(), c.Param("id"), &req, callerID, role)
	if err != nil {
		h.handleAppointmentError(c, err)
		return
	}

	response.OK(c, appt)
}

func (h *AppointmentHandler) handleAppointmentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAppointmentNotFound):
		response.NotFound(c, 15001, "appointment not found")
	case errors.Is(err, service.ErrSlotUnavailable):
		response.Conflict(c, 15002, "slot is not available")
	case errors.Is(err, service.ErrInvalidSlotTime):
		response.BadRequest(c, 15003, "invalid time, expected HH:MM")
	case errors.Is(err, service.ErrDoctorNotAccepting):
		response.BadRequest(c, 15004, "doctor is not accepting new patients")
	case errors.Is(err, service.ErrBookingBusy):
		response.Conflict(c, 15005, "another booking is in progress, retry")
	case errors.Is(err, service.ErrInvalidTransition):
		response.BadRequest(c, 15006, "appointment status transition not allowed")
	case errors.Is(err, service.ErrAppointmentNotStarted):
		response.BadRequest(c, 15007, "appointment has not started yet")
	default:
		handleCommonError(c, err)
	}
}
