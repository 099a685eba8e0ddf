package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"docboard/config"
	"docboard/internal/availability"
	"docboard/internal/dto"
	"docboard/internal/model"
	"docboard/internal/repository"
	pkgerrors "docboard/pkg/errors"
	"docboard/pkg/events"
)

const (
	lockAttempts = 5
	lockBackoff  = 50 * time.Millisecond
)

// allowedTransitions lists the statuses reachable from each status.
var allowedTransitions = map[string][]string{
	model.AppointmentPending:   {model.AppointmentConfirmed, model.AppointmentCancelled, model.AppointmentNoShow},
	model.AppointmentConfirmed: {model.AppointmentCompleted, model.AppointmentCancelled, model.AppointmentNoShow},
}

// CanTransition reports whether from -> to is a legal status change.
func CanTransition(from, to string) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// AppointmentService booking flow and appointment lifecycle.
type AppointmentService interface {
	Book(ctx context.Context, req *dto.BookAppointmentRequest, callerID string) (*dto.AppointmentResponse, error)
	Get(ctx context.Context, id, callerID, callerRole string) (*dto.AppointmentResponse, error)
	List(ctx context.Context, req *dto.AppointmentListRequest, callerID, callerRole string) ([]dto.AppointmentResponse, int64, error)
	UpdateStatus(ctx context.Context, id string, req *dto.UpdateAppointmentStatusRequest, callerID, callerRole string) (*dto.AppointmentResponse, error)
	Cancel(ctx context.Context, id string, req *dto.CancelAppointmentRequest, callerID, callerRole string) (*dto.AppointmentResponse, error)
}

type appointmentService struct {
	repo         *repository.Repository
	slots        *slotResolver
	schedule     ScheduleService
	notification NotificationService
	publisher    events.Publisher
	locker       Locker
	local        *localLocks
	cfg          *config.SchedulingConfig
	logger       *zap.Logger
	now          func() time.Time
}

// NewAppointmentService creates an AppointmentService. locker may be nil,
// in which case bookings are serialised with process-local locks.
func NewAppointmentService(
	repo *repository.Repository,
	slots *slotResolver,
	schedule ScheduleService,
	notification NotificationService,
	publisher events.Publisher,
	locker Locker,
	cfg *config.SchedulingConfig,
	logger *zap.Logger,
) AppointmentService {
	return &appointmentService{
		repo:         repo,
		slots:        slots,
		schedule:     schedule,
		notification: notification,
		publisher:    publisher,
		locker:       locker,
		local:        newLocalLocks(),
		cfg:          cfg,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *appointmentService) loc() *time.Location { return s.slots.calc.Location() }

// ════════════════════════════════════════════════════════════
// Book
// ════════════════════════════════════════════════════════════
//
// 1. resolve patient and doctor, validate date/time
// 2. lock doctor+date for every day the consultation touches
// 3. recompute slots; the requested time must be available
// 4. re-check the full consultation interval against active appointments, across midnight
// 5. insert as pending, then invalidate cache, notify and publish

func (s *appointmentService) Book(ctx context.Context, req *dto.BookAppointmentRequest, callerID string) (*dto.AppointmentResponse, error) {
	patient, err := s.repo.Patient.GetByUserID(ctx, callerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	doctor, err := findDoctor(ctx, s.repo, req.DoctorID, callerID)
	if err != nil {
		return nil, err
	}
	if !doctor.AcceptingPatients {
		return nil, ErrDoctorNotAccepting
	}

	day, err := parseDate(req.Date, s.loc())
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := checkBookableDate(day, now, s.slots.calc, s.cfg.MaxAdvanceDays); err != nil {
		return nil, err
	}
	minutes, err := availability.ParseClock(req.Time)
	if err != nil || minutes >= 24*60 {
		return nil, ErrInvalidSlotTime
	}
	label := availability.FormatClock(minutes)
	startAt, _ := s.slots.calc.SlotTime(day, label)
	if !startAt.After(now) {
		return nil, ErrDateInPast
	}

	duration := doctor.ConsultationMinutes
	if duration <= 0 {
		duration = int(s.slots.calc.SlotDuration() / time.Minute)
	}

	endAt := startAt.Add(time.Duration(duration) * time.Minute)

	unlock, err := s.lockDays(ctx, doctor.DoctorID, startAt, endAt)
	if err != nil {
		return nil, err
	}
	defer unlock()

	plan, err := s.slots.resolve(ctx, doctor.DoctorID, day)
	if err != nil {
		return nil, err
	}
	if !containsSlot(plan.result.AvailableSlots, label) {
		return nil, ErrSlotUnavailable
	}

	// the visit may outlast the slot, or cross midnight into the next day
	conflicts, err := s.repo.Appointment.ListOverlapping(ctx, doctor.DoctorID, startAt, endAt)
	if err != nil {
		s.logger.Error("load overlapping appointments failed", zap.String("doctor_id", doctor.DoctorID), zap.Error(err))
		return nil, err
	}
	for i := range conflicts {
		if conflicts[i].IsActive() {
			return nil, ErrSlotUnavailable
		}
	}

	appt := &model.Appointment{
		DoctorID:        doctor.DoctorID,
		PatientID:       patient.PatientID,
		StartAt:         startAt,
		DurationMinutes: duration,
		Status:          model.AppointmentPending,
		Reason:          req.Reason,
	}
	appt.CreatedBy = &callerID
	appt.Version = 1

	if err := s.repo.Appointment.Create(ctx, appt); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrSlotUnavailable
		}
		s.logger.Error("create appointment failed", zap.Error(err))
		return nil, err
	}
	appt.Doctor = doctor
	appt.Patient = patient

	s.logger.Info("appointment booked",
		zap.String("appointment_id", appt.AppointmentID),
		zap.String("doctor_id", doctor.DoctorID),
		zap.String("patient_id", patient.PatientID),
		zap.Time("start_at", startAt),
	)

	s.schedule.InvalidateSlots(ctx, doctor.DoctorID)
	s.notification.Notify(ctx, doctor.UserID, events.TypeAppointmentBooked,
		"New appointment",
		fmt.Sprintf("%s booked %s at %s", patientName(patient), day.Format(dateLayout), label),
		appt.AppointmentID,
	)
	s.publish(ctx, events.TypeAppointmentBooked, appt, "", callerID)

	resp := toAppointmentResponse(appt, s.loc())
	return &resp, nil
}

// lockDays takes the booking lock of every calendar day [startAt, endAt) touches,
// in date order, and returns one func releasing them all.
func (s *appointmentService) lockDays(ctx context.Context, doctorID string, startAt, endAt time.Time) (func(), error) {
	var releases []func()
	unlockAll := func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}

	last := s.slots.calc.DayStart(endAt.Add(-time.Nanosecond))
	for day := s.slots.calc.DayStart(startAt); !day.After(last); day = day.AddDate(0, 0, 1) {
		unlock, err := s.lockDay(ctx, doctorID, day)
		if err != nil {
			unlockAll()
			return nil, err
		}
		releases = append(releases, unlock)
	}
	return unlockAll, nil
}

// lockDay serialises bookings for one doctor-day and returns the release func.
func (s *appointmentService) lockDay(ctx context.Context, doctorID string, day time.Time) (func(), error) {
	key := "lock:booking:" + doctorID + ":" + day.Format(dateLayout)

	if s.locker == nil {
		return s.local.lock(key), nil
	}

	ttl := s.cfg.BookingLockTTL
	if ttl <= 0 {
		ttl = 10 * time.Second
	}

	for attempt := 0; attempt < lockAttempts; attempt++ {
		token, err := s.locker.AcquireLock(ctx, key, ttl)
		if err == nil {
			return func() {
				// release even if the request context is already cancelled
				if err := s.locker.ReleaseLock(context.WithoutCancel(ctx), key, token); err != nil {
					s.logger.Warn("release booking lock failed", zap.String("key", key), zap.Error(err))
				}
			}, nil
		}
		if !errors.Is(err, pkgerrors.ErrLockNotAcquired) {
			s.logger.Warn("booking lock unavailable, using local lock", zap.String("key", key), zap.Error(err))
			return s.local.lock(key), nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockBackoff * time.Duration(attempt+1)):
		}
	}
	return nil, ErrBookingBusy
}

func containsSlot(slots []string, label string) bool {
	for _, s := range slots {
		if s == label {
			return true
		}
	}
	return false
}

func patientName(p *model.PatientProfile) string {
	if p != nil && p.User != nil && p.User.Name != "" {
		return p.User.Name
	}
	return "A patient"
}

// ════════════════════════════════════════════════════════════
// Read
// ════════════════════════════════════════════════════════════

func (s *appointmentService) Get(ctx context.Context, id, callerID, callerRole string) (*dto.AppointmentResponse, error) {
	appt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorize(ctx, appt, callerID, callerRole); err != nil {
		return nil, err
	}
	resp := toAppointmentResponse(appt, s.loc())
	return &resp, nil
}

func (s *appointmentService) List(ctx context.Context, req *dto.AppointmentListRequest, callerID, callerRole string) ([]dto.AppointmentResponse, int64, error) {
	filters, err := appointmentScope(ctx, s.repo, callerID, callerRole)
	if err != nil {
		return nil, 0, err
	}
	filters.Status = req.Status
	if err := s.applyRange(filters, req.From, req.To); err != nil {
		return nil, 0, err
	}

	appts, total, err := s.repo.Appointment.List(ctx, filters, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("list appointments failed", zap.Error(err))
		return nil, 0, err
	}

	list := make([]dto.AppointmentResponse, 0, len(appts))
	for i := range appts {
		list = append(list, toAppointmentResponse(&appts[i], s.loc()))
	}
	return list, total, nil
}

// appointmentScope limits patients and doctors to their own appointments.
func appointmentScope(ctx context.Context, repo *repository.Repository, callerID, callerRole string) (*repository.AppointmentListFilters, error) {
	filters := &repository.AppointmentListFilters{}
	switch callerRole {
	case model.RoleAdmin:
	case model.RoleDoctor:
		doctor, err := repo.Doctor.GetByUserID(ctx, callerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrDoctorNotFound
			}
			return nil, err
		}
		filters.DoctorID = doctor.DoctorID
	default:
		patient, err := repo.Patient.GetByUserID(ctx, callerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrPatientNotFound
			}
			return nil, err
		}
		filters.PatientID = patient.PatientID
	}
	return filters, nil
}

// applyRange sets [from 00:00, to+1 00:00) in the clinic timezone.
func (s *appointmentService) applyRange(filters *repository.AppointmentListFilters, from, to string) error {
	if from != "" {
		f, err := parseDate(from, s.loc())
		if err != nil {
			return err
		}
		filters.From = &f
	}
	if to != "" {
		t, err := parseDate(to, s.loc())
		if err != nil {
			return err
		}
		t = t.AddDate(0, 0, 1)
		filters.To = &t
	}
	if filters.From != nil && filters.To != nil && !filters.From.Before(*filters.To) {
		return ErrInvalidRange
	}
	return nil
}

// ════════════════════════════════════════════════════════════
// Status changes
// ════════════════════════════════════════════════════════════

// UpdateStatus is restricted to the appointment's doctor and admins.
func (s *appointmentService) UpdateStatus(ctx context.Context, id string, req *dto.UpdateAppointmentStatusRequest, callerID, callerRole string) (*dto.AppointmentResponse, error) {
	appt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	party, err := s.authorize(ctx, appt, callerID, callerRole)
	if err != nil {
		return nil, err
	}
	if party == model.RolePatient {
		return nil, ErrNoPermission
	}
	if req.Version != appt.Version {
		return nil, pkgerrors.ErrOptimisticLock
	}

	if (req.Status == model.AppointmentCompleted || req.Status == model.AppointmentNoShow) && s.now().Before(appt.StartAt) {
		return nil, ErrAppointmentNotStarted
	}
	return s.transition(ctx, appt, req.Status, req.Reason, callerID)
}

// Cancel is open to both parties and admins.
func (s *appointmentService) Cancel(ctx context.Context, id string, req *dto.CancelAppointmentRequest, callerID, callerRole string) (*dto.AppointmentResponse, error) {
	appt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorize(ctx, appt, callerID, callerRole); err != nil {
		return nil, err
	}
	return s.transition(ctx, appt, model.AppointmentCancelled, req.Reason, callerID)
}

func (s *appointmentService) transition(ctx context.Context, appt *model.Appointment, to, reason, callerID string) (*dto.AppointmentResponse, error) {
	from := appt.Status
	if !CanTransition(from, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	appt.Status = to
	appt.UpdatedBy = &callerID
	if to == model.AppointmentCancelled {
		now := s.now()
		appt.CancelledAt = &now
		appt.CancelledBy = &callerID
		appt.CancelReason = reason
	}

	if err := s.repo.Appointment.UpdateStatus(ctx, appt); err != nil {
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("update appointment status failed", zap.String("appointment_id", appt.AppointmentID), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("appointment status changed",
		zap.String("appointment_id", appt.AppointmentID),
		zap.String("from", from),
		zap.String("to", to),
		zap.String("by", callerID),
	)

	eventType := events.TypeAppointmentStatusChanged
	title := "Appointment " + to
	if to == model.AppointmentCancelled {
		eventType = events.TypeAppointmentCancelled
		title = "Appointment cancelled"
		// a cancelled appointment frees its slot
		s.schedule.InvalidateSlots(ctx, appt.DoctorID)
	}

	start := appt.StartAt.In(s.loc())
	content := fmt.Sprintf("Appointment on %s at %s is now %s", start.Format(dateLayout), start.Format("15:04"), to)
	for _, userID := range s.counterparts(appt, callerID) {
		s.notification.Notify(ctx, userID, eventType, title, content, appt.AppointmentID)
	}
	s.publish(ctx, eventType, appt, from, callerID)

	resp := toAppointmentResponse(appt, s.loc())
	return &resp, nil
}

// ── helpers ──

// load fetches an appointment with its doctor and patient attached.
func (s *appointmentService) load(ctx context.Context, id string) (*model.Appointment, error) {
	appt, err := s.repo.Appointment.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	if appt.Doctor == nil {
		if d, err := s.repo.Doctor.GetByID(ctx, appt.DoctorID); err == nil {
			appt.Doctor = d
		}
	}
	if appt.Patient == nil {
		if p, err := s.repo.Patient.GetByID(ctx, appt.PatientID); err == nil {
			appt.Patient = p
		}
	}
	return appt, nil
}

// authorize returns the caller's relation to appt: admin, doctor or patient.
func (s *appointmentService) authorize(_ context.Context, appt *model.Appointment, callerID, callerRole string) (string, error) {
	switch {
	case callerRole == model.RoleAdmin:
		return model.RoleAdmin, nil
	case appt.Doctor != nil && appt.Doctor.UserID == callerID:
		return model.RoleDoctor, nil
	case appt.Patient != nil && appt.Patient.UserID == callerID:
		return model.RolePatient, nil
	default:
		return "", ErrNoPermission
	}
}

// counterparts are the participants other than the actor.
func (s *appointmentService) counterparts(appt *model.Appointment, actorID string) []string {
	var out []string
	if appt.Doctor != nil && appt.Doctor.UserID != actorID {
		out = append(out, appt.Doctor.UserID)
	}
	if appt.Patient != nil && appt.Patient.UserID != actorID {
		out = append(out, appt.Patient.UserID)
	}
	return out
}

func (s *appointmentService) publish(ctx context.Context, eventType string, appt *model.Appointment, previous, actorID string) {
	evt := events.AppointmentEvent{
		EventType:       eventType,
		OccurredAt:      s.now().UTC(),
		AppointmentID:   appt.AppointmentID,
		DoctorID:        appt.DoctorID,
		PatientID:       appt.PatientID,
		StartAt:         appt.StartAt.UTC(),
		DurationMinutes: appt.DurationMinutes,
		Status:          appt.Status,
		PreviousStatus:  previous,
		ActorID:         actorID,
		Reason:          appt.CancelReason,
	}
	if eventType == events.TypeAppointmentBooked {
		evt.Reason = appt.Reason
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("publish appointment event failed",
			zap.String("appointment_id", appt.AppointmentID),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
