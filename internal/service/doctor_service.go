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

// MeAlias stands for the caller's own profile in :id path segments.
const MeAlias = "me"

// DoctorService doctor directory and profile.
type DoctorService interface {
	List(ctx context.Context, req *dto.DoctorListRequest) ([]dto.DoctorResponse, int64, error)
	Get(ctx context.Context, idOrMe, callerID string) (*dto.DoctorResponse, error)
	Update(ctx context.Context, idOrMe string, req *dto.UpdateDoctorRequest, callerID, callerRole string) (*dto.DoctorResponse, error)
}

type doctorService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewDoctorService creates a DoctorService.
func NewDoctorService(repo *repository.Repository, logger *zap.Logger) DoctorService {
	return &doctorService{repo: repo, logger: logger}
}

// findDoctor resolves a doctor id, or the caller's own profile for MeAlias.
func findDoctor(ctx context.Context, repo *repository.Repository, idOrMe, callerID string) (*model.DoctorProfile, error) {
	var (
		doctor *model.DoctorProfile
		err    error
	)
	if idOrMe == MeAlias {
		doctor, err = repo.Doctor.GetByUserID(ctx, callerID)
	} else {
		doctor, err = repo.Doctor.GetByID(ctx, idOrMe)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}
	return doctor, nil
}

// findDoctorForWrite is findDoctor restricted to the owning doctor or an admin.
func findDoctorForWrite(ctx context.Context, repo *repository.Repository, idOrMe, callerID, callerRole string) (*model.DoctorProfile, error) {
	doctor, err := findDoctor(ctx, repo, idOrMe, callerID)
	if err != nil {
		return nil, err
	}
	if callerRole != model.RoleAdmin && doctor.UserID != callerID {
		return nil, ErrNoPermission
	}
	return doctor, nil
}

func (s *doctorService) List(ctx context.Context, req *dto.DoctorListRequest) ([]dto.DoctorResponse, int64, error) {
	filters := &repository.DoctorListFilters{
		Specialty:     req.Specialty,
		Keyword:       req.Keyword,
		AcceptingOnly: req.AcceptingOnly,
	}

	doctors, total, err := s.repo.Doctor.List(ctx, filters, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("list doctors failed", zap.Error(err))
		return nil, 0, err
	}

	list := make([]dto.DoctorResponse, 0, len(doctors))
	for i := range doctors {
		list = append(list, toDoctorResponse(&doctors[i]))
	}
	return list, total, nil
}

func (s *doctorService) Get(ctx context.Context, idOrMe, callerID string) (*dto.DoctorResponse, error) {
	doctor, err := findDoctor(ctx, s.repo, idOrMe, callerID)
	if err != nil {
		return nil, err
	}
	resp := toDoctorResponse(doctor)
	return &resp, nil
}

func (s *doctorService) Update(ctx context.Context, idOrMe string, req *dto.UpdateDoctorRequest, callerID, callerRole string) (*dto.DoctorResponse, error) {
	doctor, err := findDoctorForWrite(ctx, s.repo, idOrMe, callerID, callerRole)
	if err != nil {
		return nil, err
	}

	doctor.Version = req.Version
	if req.Specialty != nil {
		doctor.Specialty = *req.Specialty
	}
	if req.LicenseNumber != nil {
		doctor.LicenseNumber = *req.LicenseNumber
	}
	if req.Bio != nil {
		doctor.Bio = *req.Bio
	}
	if req.ConsultationMinutes != nil {
		doctor.ConsultationMinutes = *req.ConsultationMinutes
	}
	if req.AcceptingPatients != nil {
		doctor.AcceptingPatients = *req.AcceptingPatients
	}
	doctor.UpdatedBy = &callerID

	if err := s.repo.Doctor.Update(ctx, doctor); err != nil {
		s.logger.Warn("update doctor failed", zap.String("doctor_id", doctor.DoctorID), zap.Error(err))
		return nil, err
	}

	resp := toDoctorResponse(doctor)
	return &resp, nil
}
