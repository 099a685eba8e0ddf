package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"docboard/internal/dto"
	"docboard/internal/model"
	"docboard/internal/repository"
)

// PatientService patient profile.
type PatientService interface {
	GetMine(ctx context.Context, callerID string) (*dto.PatientResponse, error)
	UpdateMine(ctx context.Context, callerID string, req *dto.UpdatePatientRequest) (*dto.PatientResponse, error)
	// Get is open to admins and to doctors the patient has booked with.
	Get(ctx context.Context, patientID, callerID, callerRole string) (*dto.PatientResponse, error)
}

type patientService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewPatientService creates a PatientService.
func NewPatientService(repo *repository.Repository, logger *zap.Logger) PatientService {
	return &patientService{repo: repo, logger: logger}
}

func (s *patientService) GetMine(ctx context.Context, callerID string) (*dto.PatientResponse, error) {
	patient, err := s.mine(ctx, callerID)
	if err != nil {
		return nil, err
	}
	resp := toPatientResponse(patient)
	return &resp, nil
}

func (s *patientService) UpdateMine(ctx context.Context, callerID string, req *dto.UpdatePatientRequest) (*dto.PatientResponse, error) {
	patient, err := s.mine(ctx, callerID)
	if err != nil {
		return nil, err
	}

	patient.Version = req.Version
	if req.DateOfBirth != nil {
		if *req.DateOfBirth == "" {
			patient.DateOfBirth = nil
		} else {
			dob, err := time.Parse(dateLayout, *req.DateOfBirth)
			if err != nil {
				return nil, ErrInvalidDate
			}
			patient.DateOfBirth = &dob
		}
	}
	if req.Gender != nil {
		patient.Gender = *req.Gender
	}
	if req.BloodType != nil {
		patient.BloodType = *req.BloodType
	}
	if req.Allergies != nil {
		patient.Allergies = *req.Allergies
	}
	if req.EmergencyContact != nil {
		patient.EmergencyContact = *req.EmergencyContact
	}
	patient.UpdatedBy = &callerID

	if err := s.repo.Patient.Update(ctx, patient); err != nil {
		s.logger.Warn("update patient failed", zap.String("patient_id", patient.PatientID), zap.Error(err))
		return nil, err
	}

	resp := toPatientResponse(patient)
	return &resp, nil
}

func (s *patientService) Get(ctx context.Context, patientID, callerID, callerRole string) (*dto.PatientResponse, error) {
	patient, err := s.repo.Patient.GetByID(ctx, patientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	switch callerRole {
	case model.RoleAdmin:
	case model.RoleDoctor:
		doctor, err := s.repo.Doctor.GetByUserID(ctx, callerID)
		if err != nil {
			return nil, ErrNoPermission
		}
		ok, err := s.repo.Appointment.ExistsForDoctorAndPatient(ctx, doctor.DoctorID, patient.PatientID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrNoPermission
		}
	default:
		if patient.UserID != callerID {
			return nil, ErrNoPermission
		}
	}

	resp := toPatientResponse(patient)
	return &resp, nil
}

func (s *patientService) mine(ctx context.Context, callerID string) (*model.PatientProfile, error) {
	patient, err := s.repo.Patient.GetByUserID(ctx, callerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	return patient, nil
}
