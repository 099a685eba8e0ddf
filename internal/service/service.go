package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"docboard/config"
	"docboard/internal/availability"
	"docboard/internal/repository"
	"docboard/pkg/events"
	"docboard/pkg/jwt"
)

// Service aggregates every business module.
type Service struct {
	Auth          AuthService
	User          UserService
	Doctor        DoctorService
	Patient       PatientService
	Schedule      ScheduleService
	Appointment   AppointmentService
	MedicalRecord MedicalRecordService
	Notification  NotificationService
	Export        ExportService
}

// ── infrastructure ports ──
// *redis.Client satisfies all three; each may be nil when Redis is not configured.

// SlotCache caches computed slot lists.
type SlotCache interface {
	GetJSON(ctx context.Context, key string, dst interface{}) error
	SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// Locker is a distributed mutex keyed by string.
type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (string, error)
	ReleaseLock(ctx context.Context, key, token string) error
}

// TokenBlacklist revokes JWT IDs.
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// Deps are the shared collaborators handed to NewService.
type Deps struct {
	Config     *config.Config
	Repo       *repository.Repository
	JWT        *jwt.Manager
	Calculator *availability.Calculator
	Publisher  events.Publisher
	Cache      SlotCache
	Locker     Locker
	Blacklist  TokenBlacklist
	Logger     *zap.Logger
}

// NewService wires every module.
func NewService(d Deps) *Service {
	if d.Publisher == nil {
		d.Publisher = events.NopPublisher{}
	}
	sched := &d.Config.Scheduling

	notification := NewNotificationService(d.Repo, d.Logger)
	slots := newSlotResolver(d.Repo, d.Calculator, d.Logger)
	schedule := NewScheduleService(d.Repo, slots, d.Cache, sched, d.Logger)

	return &Service{
		Auth:          NewAuthService(d.Config, d.Repo, d.JWT, d.Blacklist, d.Logger),
		User:          NewUserService(d.Repo, d.Logger),
		Doctor:        NewDoctorService(d.Repo, d.Logger),
		Patient:       NewPatientService(d.Repo, d.Logger),
		Schedule:      schedule,
		Appointment:   NewAppointmentService(d.Repo, slots, schedule, notification, d.Publisher, d.Locker, sched, d.Logger),
		MedicalRecord: NewMedicalRecordService(d.Repo, d.Logger),
		Notification:  notification,
		Export:        NewExportService(d.Repo, d.Calculator.Location(), d.Logger),
	}
}
