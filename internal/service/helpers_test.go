package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"docboard/config"
	"docboard/internal/availability"
	"docboard/internal/model"
	"docboard/internal/repository"
	"docboard/pkg/events"
)

// testNow is Monday 2026-03-02 08:00 UTC.
var testNow = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

const (
	testDate       = "2026-03-02" // Monday
	testDoctorUser = "u-doc"
	testDoctorID   = "doc-1"
	testPatient    = "u-pat"
	testPatientID  = "pat-1"
	otherPatient   = "u-pat2"
	otherPatientID = "pat-2"
	otherDoctor    = "u-doc2"
	otherDoctorID  = "doc-2"
	testAdmin      = "u-admin"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.AppointmentEvent
}

func (p *recordingPublisher) Publish(_ context.Context, evt events.AppointmentEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType)
	}
	return out
}

type testEnv struct {
	users         *mockUserRepo
	doctors       *mockDoctorRepo
	patients      *mockPatientRepo
	schedules     *mockScheduleRepo
	appts         *mockAppointmentRepo
	records       *mockMedicalRecordRepo
	notifications *mockNotificationRepo

	repo      *repository.Repository
	cfg       *config.Config
	calc      *availability.Calculator
	cache     *fakeCache
	publisher *recordingPublisher

	schedule     *scheduleService
	notification NotificationService
	appointment  *appointmentService
	export       *exportService
	medical      MedicalRecordService
}

// newTestEnv seeds two doctors, two patients and an admin. Doctor 1 works
// Monday 09:00-12:00; doctor 2 has no windows and falls back to the default day.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	e := &testEnv{
		users:         newMockUserRepo(),
		doctors:       newMockDoctorRepo(),
		patients:      newMockPatientRepo(),
		schedules:     newMockScheduleRepo(),
		records:       newMockMedicalRecordRepo(),
		notifications: newMockNotificationRepo(),
		cache:         newFakeCache(),
		publisher:     &recordingPublisher{},
	}
	e.appts = newMockAppointmentRepo(e.doctors, e.patients)
	e.repo = &repository.Repository{
		User:          e.users,
		Doctor:        e.doctors,
		Patient:       e.patients,
		Schedule:      e.schedules,
		Appointment:   e.appts,
		MedicalRecord: e.records,
		Notification:  e.notifications,
	}
	e.cfg = &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:               "test-secret-key-for-unit-testing-2026",
			AccessTokenTTL:          15 * time.Minute,
			RefreshTokenTTLDefault:  24 * time.Hour,
			RefreshTokenTTLRemember: 7 * 24 * time.Hour,
			BcryptCost:              4,
		},
		Scheduling: config.SchedulingConfig{
			SlotMinutes:    30,
			DefaultStart:   "09:00",
			DefaultEnd:     "17:00",
			Timezone:       "UTC",
			SlotCacheTTL:   time.Minute,
			BookingLockTTL: 5 * time.Second,
			MaxAdvanceDays: 60,
		},
	}

	calc, err := availability.NewCalculator(availability.Config{
		SlotMinutes:  30,
		DefaultStart: "09:00",
		DefaultEnd:   "17:00",
		Location:     time.UTC,
	})
	if err != nil {
		t.Fatalf("NewCalculator: %v", err)
	}
	e.calc = calc

	e.seed()

	logger := zap.NewNop()
	clock := func() time.Time { return testNow }
	slots := newSlotResolver(e.repo, calc, logger)

	e.schedule = NewScheduleService(e.repo, slots, e.cache, &e.cfg.Scheduling, logger).(*scheduleService)
	e.schedule.now = clock
	e.notification = NewNotificationService(e.repo, logger)
	e.appointment = NewAppointmentService(e.repo, slots, e.schedule, e.notification, e.publisher, nil, &e.cfg.Scheduling, logger).(*appointmentService)
	e.appointment.now = clock
	e.export = NewExportService(e.repo, time.UTC, logger).(*exportService)
	e.export.now = clock
	e.medical = NewMedicalRecordService(e.repo, logger)
	return e
}

func (e *testEnv) seed() {
	ctx := context.Background()
	add := func(id, name, email, role string) *model.User {
		u := &model.User{UserID: id, Name: name, Email: email, Role: role}
		_ = e.users.Create(ctx, u)
		return u
	}

	docUser := add(testDoctorUser, "Alice Grey", "alice@example.com", model.RoleDoctor)
	doc2User := add(otherDoctor, "Bob Stone", "bob@example.com", model.RoleDoctor)
	patUser := add(testPatient, "Carol White", "carol@example.com", model.RolePatient)
	pat2User := add(otherPatient, "Dan Black", "dan@example.com", model.RolePatient)
	add(testAdmin, "Admin", "admin@example.com", model.RoleAdmin)

	_ = e.doctors.Create(ctx, &model.DoctorProfile{
		DoctorID: testDoctorID, UserID: testDoctorUser, Specialty: "cardiology",
		ConsultationMinutes: 30, AcceptingPatients: true, User: docUser,
		VersionedModel: model.VersionedModel{Version: 1},
	})
	_ = e.doctors.Create(ctx, &model.DoctorProfile{
		DoctorID: otherDoctorID, UserID: otherDoctor, Specialty: "dermatology",
		ConsultationMinutes: 30, AcceptingPatients: true, User: doc2User,
		VersionedModel: model.VersionedModel{Version: 1},
	})
	_ = e.patients.Create(ctx, &model.PatientProfile{
		PatientID: testPatientID, UserID: testPatient, User: patUser,
		VersionedModel: model.VersionedModel{Version: 1},
	})
	_ = e.patients.Create(ctx, &model.PatientProfile{
		PatientID: otherPatientID, UserID: otherPatient, User: pat2User,
		VersionedModel: model.VersionedModel{Version: 1},
	})

	e.schedules.windows[testDoctorID] = []model.AvailabilityWindow{
		{WindowID: "w-1", DoctorID: testDoctorID, DayOfWeek: 1, StartTime: "09:00", EndTime: "12:00"},
	}
}

// addAppointment inserts an appointment directly into the mock store.
func (e *testEnv) addAppointment(t *testing.T, doctorID, patientID, date, clock, status string) *model.Appointment {
	t.Helper()
	day, err := parseDate(date, time.UTC)
	if err != nil {
		t.Fatalf("parseDate: %v", err)
	}
	start, err := e.calc.SlotTime(day, clock)
	if err != nil {
		t.Fatalf("SlotTime: %v", err)
	}
	appt := &model.Appointment{
		DoctorID:        doctorID,
		PatientID:       patientID,
		StartAt:         start,
		DurationMinutes: 30,
		Status:          status,
	}
	if err := e.appts.Create(context.Background(), appt); err != nil {
		t.Fatalf("seed appointment: %v", err)
	}
	return appt
}

func strPtr(s string) *string { return &s }
