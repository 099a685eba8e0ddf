package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"docboard/internal/dto"
	"docboard/internal/service"
	"docboard/pkg/response"
)

// MedicalRecordHandler clinical notes.
type MedicalRecordHandler struct {
	recordSvc service.MedicalRecordService
}

// NewMedicalRecordHandler creates a MedicalRecordHandler.
func NewMedicalRecordHandler(recordSvc service.MedicalRecordService) *MedicalRecordHandler {
	return &MedicalRecordHandler{recordSvc: recordSvc}
}

// Create
// POST /api/v1/medical-records
func (h *MedicalRecordHandler) Create(c *gin.Context) {
	callerID, role, ok := mustGetCaller(c)
	if !ok {
		return
	}

	var req dto.CreateMedicalRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	rec, err := h.recordSvc.Create(c.Request.Context(), &req, callerID, role)
	if err != nil {
		h.handleRecordError(c, err)
		return
	}

	response.Created(c, rec)
}

// List
// GET /api/v1/medical-records
func (h *MedicalRecordHandler) List(c *gin.Context) {
	callerID, role, ok := mustGetCaller(c)
	if !ok {
		return
	}

	var req dto.MedicalRecordListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	list, total, err := h.recordSvc.List(c.Request.Context(), &req, callerID, role)
	if err != nil {
		h.handleRecordError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// Get
// GET /api/v1/medical-records/:id
func (h *MedicalRecordHandler) Get(c *gin.Context) {
	callerID, role, ok := mustGetCaller(c)
	if !ok {
		return
	}

	rec, err := h.recordSvc.Get(c.Request.Context(), c.Param("id"), callerID, role)
	if err != nil {
		h.handleRecordError(c, err)
		return
	}

	response.OK(c, rec)
}

// Update
// PUT /api/v1/medical-records/:id
func (h *MedicalRecordHandler) Update(c *gin.Context) {
	callerID, role, ok := mustGetCaller(c)
	if !ok {
		return
	}

	var req dto.UpdateMedicalRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	rec, err := h.recordSvc.Update(c.Request.Context(), c.Param("id"), &req, callerID, role)
	if err != nil {
		h.handleRecordError(c, err)
		return
	}

	response.OK(c, rec)
}

// Delete
// DELETE /api/v1/medical-records/:id
func (h *MedicalRecordHandler) Delete(c *gin.Context) {
	callerID, role, ok := mustGetCaller(c)
	if !ok {
		return
	}

	if err := h.recordSvc.Delete(c.Request.Context(), c.Param("id"), callerID, role); err != nil {
		h.handleRecordError(c, err)
		return
	}

	response.OK(c, nil)
}

func (h *MedicalRecordHandler) handleRecordError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMedicalRecordNotFound):
		response.NotFound(c, 16001, "medical record not found")
	case errors.Is(err, service.ErrNoCareRelationship):
		response.Forbidden(c, 16002, "doctor has no appointment with this patient")
	case errors.Is(err, service.ErrAppointmentNotFound):
		response.NotFound(c, 15001, "appointment not found")
	default:
		handleCommonError(c, err)
	}
}
