package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"docboard/internal/dto"
	"docboard/internal/model"
	"docboard/internal/repository"
)

// MedicalRecordService doctors' notes about patients.
//
// Doctors write notes for patients they have an appointment with and may edit
// only their own notes. Patients read their own records. Admins read everything.
type MedicalRecordService interface {
	Create(ctx context.Context, req *dto.CreateMedicalRecordRequest, callerID, callerRole string) (*dto.MedicalRecordResponse, error)
	Get(ctx context.Context, id, callerID, callerRole string) (*dto.MedicalRecordResponse, error)
	List(ctx context.Context, req *dto.MedicalRecordListRequest, callerID, callerRole string) ([]dto.MedicalRecordResponse, int64, error)
	Update(ctx context.Context, id string, req *dto.UpdateMedicalRecordRequest, callerID, callerRole string) (*dto.MedicalRecordResponse, error)
	Delete(ctx context.Context, id, callerID, callerRole string) error
}

type medicalRecordService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewMedicalRecordService creates a MedicalRecordService.
func NewMedicalRecordService(repo *repository.Repository, logger *zap.Logger) MedicalRecordService {
	return &medicalRecordService{repo: repo, logger: logger}
}

func (s *medicalRecordService) Create(ctx context.Context, req *dto.CreateMedicalRecordRequest, callerID, callerRole string) (*dto.MedicalRecordResponse, error) {
	if callerRole != model.RoleDoctor {
		return nil, ErrNoPermission
	}
	doctor, err := s.callerDoctor(ctx, callerID)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.Patient.GetByID(ctx, req.PatientID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	if req.AppointmentID != nil {
		appt, err := s.repo.Appointment.GetByID(ctx, *req.AppointmentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrAppointmentNotFound
			}
			return nil, err
		}
		if appt.DoctorID != doctor.DoctorID || appt.PatientID != req.PatientID {
			return nil, ErrNoCareRelationship
		}
	} else {
		ok, err := s.repo.Appointment.ExistsForDoctorAndPatient(ctx, doctor.DoctorID, req.PatientID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrNoCareRelationship
		}
	}

	record := &model.MedicalRecord{
		PatientID:     req.PatientID,
		DoctorID:      doctor.DoctorID,
		AppointmentID: req.AppointmentID,
		Title:         req.Title,
		Diagnosis:     req.Diagnosis,
		Notes:         req.Notes,
		Prescription:  req.Prescription,
	}
	record.CreatedBy = &callerID
	record.Version = 1

	if err := s.repo.MedicalRecord.Create(ctx, record); err != nil {
		s.logger.Error("create medical record failed", zap.Error(err))
		return nil, err
	}
	record.Doctor = doctor

	resp := toMedicalRecordResponse(record)
	return &resp, nil
}

func (s *medicalRecordService) Get(ctx context.Context, id, callerID, callerRole string) (*dto.MedicalRecordResponse, error) {
	record, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.canRead(ctx, record, callerID, callerRole); err != nil {
		return nil, err
	}
	resp := toMedicalRecordResponse(record)
	return &resp, nil
}

// List: patients see their own; doctors must name a patient they treat; admins see all.
func (s *medicalRecordService) List(ctx context.Context, req *dto.MedicalRecordListRequest, callerID, callerRole string) ([]dto.MedicalRecordResponse, int64, error) {
	filters := &repository.MedicalRecordListFilters{PatientID: req.PatientID}

	switch callerRole {
	case model.RoleAdmin:
	case model.RoleDoctor:
		doctor, err := s.callerDoctor(ctx, callerID)
		if err != nil {
			return nil, 0, err
		}
		if req.PatientID == "" {
			filters.DoctorID = doctor.DoctorID
			break
		}
		ok, err := s.repo.Appointment.ExistsForDoctorAndPatient(ctx, doctor.DoctorID, req.PatientID)
		if err != nil {
			return nil, 0, err
		}
		if !ok {
			return nil, 0, ErrNoPermission
		}
	default:
		patient, err := s.repo.Patient.GetByUserID(ctx, callerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, 0, ErrPatientNotFound
			}
			return nil, 0, err
		}
		filters.PatientID = patient.PatientID
	}

	records, total, err := s.repo.MedicalRecord.List(ctx, filters, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("list medical records failed", zap.Error(err))
		return nil, 0, err
	}
	list := make([]dto.MedicalRecordResponse, 0, len(records))
	for i := range records {
		list = append(list, toMedicalRecordResponse(&records[i]))
	}
	return list, total, nil
}

func (s *medicalRecordService) Update(ctx context.Context, id string, req *dto.UpdateMedicalRecordRequest, callerID, callerRole string) (*dto.MedicalRecordResponse, error) {
	record, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.canWrite(ctx, record, callerID, callerRole); err != nil {
		return nil, err
	}

	record.Version = req.Version
	if req.Title != nil {
		record.Title = *req.Title
	}
	if req.Diagnosis != nil {
		record.Diagnosis = *req.Diagnosis
	}
	if req.Notes != nil {
		record.Notes = *req.Notes
	}
	if req.Prescription != nil {
		record.Prescription = *req.Prescription
	}
	record.UpdatedBy = &callerID

	if err := s.repo.MedicalRecord.Update(ctx, record); err != nil {
		s.logger.Warn("update medical record failed", zap.String("record_id", id), zap.Error(err))
		return nil, err
	}
	resp := toMedicalRecordResponse(record)
	return &resp, nil
}

func (s *medicalRecordService) Delete(ctx context.Context, id, callerID, callerRole string) error {
	record, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.canWrite(ctx, record, callerID, callerRole); err != nil {
		return err
	}
	if err := s.repo.MedicalRecord.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("delete medical record failed", zap.String("record_id", id), zap.Error(err))
		return err
	}
	return nil
}

// ── helpers ──

func (s *medicalRecordService) load(ctx context.Context, id string) (*model.MedicalRecord, error) {
	record, err := s.repo.MedicalRecord.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMedicalRecordNotFound
		}
		return nil, err
	}
	return record, nil
}

func (s *medicalRecordService) callerDoctor(ctx context.Context, callerID string) (*model.DoctorProfile, error) {
	doctor, err := s.repo.Doctor.GetByUserID(ctx, callerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}
	return doctor, nil
}

func (s *medicalRecordService) canRead(ctx context.Context, record *model.MedicalRecord, callerID, callerRole string) error {
	switch callerRole {
	case model.RoleAdmin:
		return nil
	case model.RoleDoctor:
		doctor, err := s.callerDoctor(ctx, callerID)
		if err != nil {
			return ErrNoPermission
		}
		if record.DoctorID == doctor.DoctorID {
			return nil
		}
		ok, err := s.repo.Appointment.ExistsForDoctorAndPatient(ctx, doctor.DoctorID, record.PatientID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNoPermission
		}
		return nil
	default:
		patient, err := s.repo.Patient.GetByUserID(ctx, callerID)
		if err != nil || patient.PatientID != record.PatientID {
			return ErrNoPermission
		}
		return nil
	}
}

// canWrite allows only the authoring doctor.
func (s *medicalRecordService) canWrite(ctx context.Context, record *model.MedicalRecord, callerID, callerRole string) error {
	if callerRole != model.RoleDoctor {
		return ErrNoPermission
	}
	doctor, err := s.callerDoctor(ctx, callerID)
	if err != nil {
		return ErrNoPermission
	}
	if record.DoctorID != doctor.DoctorID {
		return ErrNoPermission
	}
	return nil
}
