package handler

import (
	"github.com/gin-gonic/gin"

	"docboard/internal/dto"
	"docboard/internal/service"
	"docboard/pkg/response"
)

// ════════════════════════════════════════════════════════════
// Doctors
// ════════════════════════════════════════════════════════════

// DoctorHandler doctor directory and profile.
// Every :id accepts "me" for the caller's own profile.
type DoctorHandler struct {
	doctorSvc service.DoctorService
}

// NewDoctorHandler creates a DoctorHandler.
func NewDoctorHandler(doctorSvc service.DoctorService) *DoctorHandler {
	return &DoctorHandler{doctorSvc: doctorSvc}
}

// ListDoctors
// GET /api/v1/doctors
func (h *DoctorHandler) ListDoctors(c *gin.Context) {
	var req dto.DoctorListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	doctors, total, err := h.doctorSvc.List(c.Request.Context(), &req)
	if err != nil {
		handleCommonError(c, err)
		return
	}

	response.OKPage(c, doctors, total, req.GetPage(), req.GetPageSize())
}

// GetDoctor
// GET /api/v1/doctors/:id
func (h *DoctorHandler) GetDoctor(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	doctor, err := h.doctorSvc.Get(c.Request.Context(), c.Param("id"), callerID)
	if err != nil {
		handleCommonError(c, err)
		return
	}

	response.OK(c, doctor)
}

// UpdateDoctor owner or admin.
// PUT /api/v1/doctors/:id
func (h *DoctorHandler) UpdateDoctor(c *gin.Context) {
	callerID, role, ok := mustGetCaller(c)
	if !ok {
		return
	}

	var req dto.UpdateDoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	doctor, err := h.doctorSvc.Update(c.Request.Context(), c.Param("id"), &req, callerID, role)
	if err != nil {
		handleCommonError(c, err)
		return
	}

	response.OK(c, doctor)
}

// ════════════════════════════════════════════════════════════
// Patients
// ════════════════════════════════════════════════════════════

// PatientHandler patient profile.
type PatientHandler struct {
	patientSvc service.PatientService
}

// NewPatientHandler creates a PatientHandler.
func NewPatientHandler(patientSvc service.PatientService) *PatientHandler {
	return &PatientHandler{patientSvc: patientSvc}
}

// GetMine
// GET /api/v1/patients/me
func (h *PatientHandler) GetMine(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	patient, err := h.patientSvc.GetMine(c.Request.Context(), callerID)
	if err != nil {
		handleCommonError(c, err)
		return
	}

	response.OK(c, patient)
}

// UpdateMine
// PUT /api/v1/patients/me
func (h *PatientHandler) UpdateMine(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	patient, err := h.patientSvc.UpdateMine(c.Request.Context(), callerID, &req)
	if err != nil {
		handleCommonError(c, err)
		return
	}

	response.OK(c, patient)
}

// GetPatient treating doctors and admins.
// GET /api/v1/patients/:id
func (h *PatientHandler) GetPatient(c *gin.Context) {
	callerID, role, ok := mustGetCaller(c)
	if !ok {
		return
	}

	patient, err := h.patientSvc.Get(c.Request.Context(), c.Param("id"), callerID, role)
	if err != nil {
		handleCommonError(c, err)
		return
	}

	response.OK(c, patient)
}
