package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"docboard/config"
	"docboard/internal/dto"
	"docboard/internal/model"
	"docboard/internal/repository"
	"docboard/pkg/jwt"
)

// AuthService authentication.
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
	Logout(ctx context.Context, accessJTI string, accessExp time.Time, refreshToken string) error
	GetCurrentUser(ctx context.Context, userID string) (*dto.UserResponse, error)
	ChangePassword(ctx context.Context, userID string, req *dto.ChangePasswordRequest) error
}

type authService struct {
	cfg       *config.Config
	repo      *repository.Repository
	jwtMgr    *jwt.Manager
	blacklist TokenBlacklist
	logger    *zap.Logger
}

// NewAuthService creates an AuthService. blacklist may be nil.
func NewAuthService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:       cfg,
		repo:      repo,
		jwtMgr:    jwtMgr,
		blacklist: blacklist,
		logger:    logger,
	}
}

func (s *authService) bcryptCost() int {
	if c := s.cfg.Auth.BcryptCost; c >= bcrypt.MinCost && c <= bcrypt.MaxCost {
		return c
	}
	return bcrypt.DefaultCost
}

// ────────────────────── Register ──────────────────────

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error) {
	if _, err := s.repo.User.GetByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("lookup email failed", zap.Error(err))
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost())
	if err != nil {
		s.logger.Error("hash password failed", zap.Error(err))
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = model.RolePatient
	}

	user := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         role,
		Phone:        req.Phone,
	}

	// user and profile are created atomically
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("begin transaction failed", zap.Error(err))
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()
	txRepo := s.repo.WithTx(tx)

	rollback := func(err error, msg string) (*dto.UserResponse, error) {
		if tx != nil {
			tx.Rollback()
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailExists
		}
		s.logger.Error(msg, zap.Error(err))
		return nil, err
	}

	if err := txRepo.User.Create(ctx, user); err != nil {
		return rollback(err, "create user failed")
	}

	resp := toUserResponse(user)
	switch role {
	case model.RoleDoctor:
		minutes := s.cfg.Scheduling.SlotMinutes
		if minutes < 5 {
			minutes = 30
		}
		doctor := &model.DoctorProfile{
			UserID:              user.UserID,
			Specialty:           req.Specialty,
			LicenseNumber:       req.LicenseNumber,
			ConsultationMinutes: minutes,
			AcceptingPatients:   true,
		}
		if err := txRepo.Doctor.Create(ctx, doctor); err != nil {
			return rollback(err, "create doctor profile failed")
		}
		resp.DoctorID = doctor.DoctorID
	default:
		patient := &model.PatientProfile{UserID: user.UserID}
		if err := txRepo.Patient.Create(ctx, patient); err != nil {
			return rollback(err, "create patient profile failed")
		}
		resp.PatientID = patient.PatientID
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("commit registration failed", zap.Error(err))
			return nil, err
		}
	}

	s.logger.Info("user registered", zap.String("user_id", user.UserID), zap.String("role", role))
	return &resp, nil
}

// ────────────────────── Login ──────────────────────

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	user, err := s.repo.User.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("lookup user failed", zap.Error(err))
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issueTokens(ctx, user, req.RememberMe)
}

// ────────────────────── RefreshToken ──────────────────────

// RefreshToken rotates the pair; the presented refresh token is revoked.
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	claims, err := s.jwtMgr.ParseToken(refreshToken)
	if err != nil || claims.TokenType != jwt.TokenTypeRefresh {
		return nil, ErrInvalidRefreshToken
	}

	if s.blacklist != nil {
		revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			s.logger.Warn("blacklist lookup failed", zap.Error(err))
		} else if revoked {
			return nil, ErrInvalidRefreshToken
		}
	}

	user, err := s.repo.User.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	s.revoke(ctx, claims.ID, claims.ExpiresAt.Time)
	return s.issueTokens(ctx, user, claims.RememberMe)
}

// ────────────────────── Logout ──────────────────────

func (s *authService) Logout(ctx context.Context, accessJTI string, accessExp time.Time, refreshToken string) error {
	if accessJTI != "" {
		s.revoke(ctx, accessJTI, accessExp)
	}
	if refreshToken != "" {
		if claims, err := s.jwtMgr.ParseToken(refreshToken); err == nil && claims.TokenType == jwt.TokenTypeRefresh {
			s.revoke(ctx, claims.ID, claims.ExpiresAt.Time)
		}
	}
	return nil
}

func (s *authService) revoke(ctx context.Context, jti string, exp time.Time) {
	if s.blacklist == nil {
		return
	}
	if err := s.blacklist.BlacklistToken(ctx, jti, time.Until(exp)); err != nil {
		s.logger.Warn("blacklist token failed", zap.String("jti", jti), zap.Error(err))
	}
}

// ────────────────────── Me / password ──────────────────────

func (s *authService) GetCurrentUser(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("lookup user failed", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	resp := s.withProfileIDs(ctx, user)
	return &resp, nil
}

func (s *authService) ChangePassword(ctx context.Context, userID string, req *dto.ChangePasswordRequest) error {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		return ErrOldPasswordWrong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.bcryptCost())
	if err != nil {
		s.logger.Error("hash password failed", zap.Error(err))
		return err
	}
	user.PasswordHash = string(hash)
	user.UpdatedBy = &userID

	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("update password failed", zap.String("user_id", userID), zap.Error(err))
		return err
	}
	return nil
}

// ── helpers ──

func (s *authService) issueTokens(ctx context.Context, user *model.User, rememberMe bool) (*dto.TokenResponse, error) {
	accessToken, err := s.jwtMgr.GenerateAccessToken(user.UserID, user.Role)
	if err != nil {
		s.logger.Error("sign access token failed", zap.Error(err))
		return nil, err
	}

	refreshToken, err := s.jwtMgr.GenerateRefreshToken(user.UserID, user.Role, rememberMe)
	if err != nil {
		s.logger.Error("sign refresh token failed", zap.Error(err))
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		ExpiresIn:        int(s.jwtMgr.AccessTokenTTL().Seconds()),
		RefreshExpiresIn: int(s.jwtMgr.RefreshTokenTTL(rememberMe).Seconds()),
		User:             s.withProfileIDs(ctx, user),
	}, nil
}

// withProfileIDs attaches the doctor/patient profile id of user when present.
func (s *authService) withProfileIDs(ctx context.Context, user *model.User) dto.UserResponse {
	resp := toUserResponse(user)
	switch user.Role {
	case model.RoleDoctor:
		if d, err := s.repo.Doctor.GetByUserID(ctx, user.UserID); err == nil {
			resp.DoctorID = d.DoctorID
		}
	case model.RolePatient:
		if p, err := s.repo.Patient.GetByUserID(ctx, user.UserID); err == nil {
			resp.PatientID = p.PatientID
		}
	}
	return resp
}
