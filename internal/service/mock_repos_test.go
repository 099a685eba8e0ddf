package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"docboard/internal/model"
	"docboard/internal/repository"
	pkgerrors "docboard/pkg/errors"
	pkgredis "docboard/pkg/redis"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
	seq   int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, user.Email) {
			return gorm.ErrDuplicatedKey
		}
	}
	if user.UserID == "" {
		m.seq++
		user.UserID = fmt.Sprintf("user-%d", m.seq)
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id string, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *mockUserRepo) List(_ context.Context, filters *repository.UserListFilters, offset, limit int) ([]model.User, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.User
	for _, u := range m.users {
		if filters != nil && filters.Role != "" && u.Role != filters.Role {
			continue
		}
		result = append(result, *u)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UserID < result[j].UserID })
	return page(result, offset, limit), int64(len(result)), nil
}

// ── Mock DoctorRepository ──

// mockDoctorRepo hands out copies so that version checks behave like the database.
type mockDoctorRepo struct {
	doctors map[string]*model.DoctorProfile
}

func newMockDoctorRepo() *mockDoctorRepo {
	return &mockDoctorRepo{doctors: make(map[string]*model.DoctorProfile)}
}

func (m *mockDoctorRepo) Create(_ context.Context, doctor *model.DoctorProfile) error {
	if doctor.DoctorID == "" {
		doctor.DoctorID = "doc-" + doctor.UserID
	}
	m.doctors[doctor.DoctorID] = doctor
	return nil
}

func (m *mockDoctorRepo) GetByID(_ context.Context, id string) (*model.DoctorProfile, error) {
	if d, ok := m.doctors[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDoctorRepo) GetByUserID(_ context.Context, userID string) (*model.DoctorProfile, error) {
	for _, d := range m.doctors {
		if d.UserID == userID {
			cp := *d
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDoctorRepo) Update(_ context.Context, doctor *model.DoctorProfile) error {
	stored, ok := m.doctors[doctor.DoctorID]
	if !ok || stored.Version != doctor.Version {
		return pkgerrors.ErrOptimisticLock
	}
	doctor.Version++
	cp := *doctor
	m.doctors[doctor.DoctorID] = &cp
	return nil
}

func (m *mockDoctorRepo) List(_ context.Context, filters *repository.DoctorListFilters, offset, limit int) ([]model.DoctorProfile, int64, error) {
	var result []model.DoctorProfile
	for _, d := range m.doctors {
		if filters != nil && filters.Specialty != "" && d.Specialty != filters.Specialty {
			continue
		}
		if filters != nil && filters.AcceptingOnly && !d.AcceptingPatients {
			continue
		}
		result = append(result, *d)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].DoctorID < result[j].DoctorID })
	return page(result, offset, limit), int64(len(result)), nil
}

// ── Mock PatientRepository ──

type mockPatientRepo struct {
	patients map[string]*model.PatientProfile
}

func newMockPatientRepo() *mockPatientRepo {
	return &mockPatientRepo{patients: make(map[string]*model.PatientProfile)}
}

func (m *mockPatientRepo) Create(_ context.Context, patient *model.PatientProfile) error {
	if patient.PatientID == "" {
		patient.PatientID = "pat-" + patient.UserID
	}
	m.patients[patient.PatientID] = patient
	return nil
}

func (m *mockPatientRepo) GetByID(_ context.Context, id string) (*model.PatientProfile, error) {
	if p, ok := m.patients[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPatientRepo) GetByUserID(_ context.Context, userID string) (*model.PatientProfile, error) {
	for _, p := range m.patients {
		if p.UserID == userID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPatientRepo) Update(_ context.Context, patient *model.PatientProfile) error {
	stored, ok := m.patients[patient.PatientID]
	if !ok || stored.Version != patient.Version {
		return pkgerrors.ErrOptimisticLock
	}
	patient.Version++
	cp := *patient
	m.patients[patient.PatientID] = &cp
	return nil
}

// ── Mock ScheduleRepository ──

type mockScheduleRepo struct {
	windows   map[string][]model.AvailabilityWindow // key: doctor_id
	special   map[string]*model.SpecialDate         // key: doctor_id|YYYY-MM-DD
	err       error                                 // returned by every read when set
	upsertErr error                                 // returned by special-date writes when set
}

func newMockScheduleRepo() *mockScheduleRepo {
	return &mockScheduleRepo{
		windows: make(map[string][]model.AvailabilityWindow),
		special: make(map[string]*model.SpecialDate),
	}
}

func specialKey(doctorID string, date time.Time) string {
	return doctorID + "|" + date.Format(dateLayout)
}

func (m *mockScheduleRepo) ListWindows(_ context.Context, doctorID string) ([]model.AvailabilityWindow, error) {
	if m.err != nil {
		return nil, m.err
	}
	return append([]model.AvailabilityWindow(nil), m.windows[doctorID]...), nil
}

func (m *mockScheduleRepo) ListWindowsByDay(_ context.Context, doctorID string, dayOfWeek int) ([]model.AvailabilityWindow, error) {
	if m.err != nil {
		return nil, m.err
	}
	var result []model.AvailabilityWindow
	for _, w := range m.windows[doctorID] {
		if w.DayOfWeek == dayOfWeek {
			result = append(result, w)
		}
	}
	return result, nil
}

func (m *mockScheduleRepo) ReplaceWindows(_ context.Context, doctorID string, windows []model.AvailabilityWindow) error {
	stored := make([]model.AvailabilityWindow, len(windows))
	for i, w := range windows {
		w.WindowID = fmt.Sprintf("win-%d", i+1)
		stored[i] = w
	}
	m.windows[doctorID] = stored
	return nil
}

func (m *mockScheduleRepo) GetSpecialDate(_ context.Context, doctorID string, date time.Time) (*model.SpecialDate, error) {
	if m.err != nil {
		return nil, m.err
	}
	if sd, ok := m.special[specialKey(doctorID, date)]; ok {
		return sd, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockScheduleRepo) ListSpecialDates(_ context.Context, doctorID string, from, to time.Time) ([]model.SpecialDate, error) {
	var result []model.SpecialDate
	for _, sd := range m.special {
		if sd.DoctorID == doctorID && !sd.Date.Before(from) && !sd.Date.After(to) {
			result = append(result, *sd)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}

func (m *mockScheduleRepo) UpsertSpecialDate(_ context.Context, sd *model.SpecialDate) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	if sd.SpecialDateID == "" {
		sd.SpecialDateID = "sd-" + sd.Date.Format(dateLayout)
	}
	m.special[specialKey(sd.DoctorID, sd.Date)] = sd
	return nil
}

func (m *mockScheduleRepo) DeleteSpecialDate(_ context.Context, doctorID string, date time.Time) error {
	key := specialKey(doctorID, date)
	if _, ok := m.special[key]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.special, key)
	return nil
}

// ImportSchedule applies nothing when any step would fail, like the transaction.
func (m *mockScheduleRepo) ImportSchedule(ctx context.Context, doctorID string, windows []model.AvailabilityWindow, dates []model.SpecialDate) error {
	if len(dates) > 0 && m.upsertErr != nil {
		return m.upsertErr
	}
	if windows != nil {
		_ = m.ReplaceWindows(ctx, doctorID, windows)
	}
	for i := range dates {
		sd := dates[i]
		sd.DoctorID = doctorID
		_ = m.UpsertSpecialDate(ctx, &sd)
	}
	return nil
}

// ── Mock AppointmentRepository ──

// mockAppointmentRepo stores copies so that version checks behave like the database.
// doctors/patients, when set, emulate Preload.
type mockAppointmentRepo struct {
	mu       sync.Mutex
	appts    map[string]model.Appointment
	seq      int
	doctors  *mockDoctorRepo
	patients *mockPatientRepo
}

func newMockAppointmentRepo(doctors *mockDoctorRepo, patients *mockPatientRepo) *mockAppointmentRepo {
	return &mockAppointmentRepo{
		appts:    make(map[string]model.Appointment),
		doctors:  doctors,
		patients: patients,
	}
}

func (m *mockAppointmentRepo) preload(a model.Appointment) model.Appointment {
	if m.doctors != nil {
		a.Doctor = m.doctors.doctors[a.DoctorID]
	}
	if m.patients != nil {
		a.Patient = m.patients.patients[a.PatientID]
	}
	return a
}

// Create enforces the one-active-appointment-per-start unique index.
func (m *mockAppointmentRepo) Create(_ context.Context, appt *model.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.appts {
		if a.DoctorID == appt.DoctorID && a.StartAt.Equal(appt.StartAt) && a.IsActive() {
			return gorm.ErrDuplicatedKey
		}
	}
	if appt.AppointmentID == "" {
		m.seq++
		appt.AppointmentID = fmt.Sprintf("appt-%d", m.seq)
	}
	if appt.Version == 0 {
		appt.Version = 1
	}
	stored := *appt
	stored.Doctor, stored.Patient = nil, nil
	m.appts[appt.AppointmentID] = stored
	return nil
}

func (m *mockAppointmentRepo) GetByID(_ context.Context, id string) (*model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	a = m.preload(a)
	return &a, nil
}

func (m *mockAppointmentRepo) ListOverlapping(_ context.Context, doctorID string, from, to time.Time) ([]model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Appointment
	for _, a := range m.appts {
		if a.DoctorID == doctorID && a.StartAt.Before(to) && a.EndAt().After(from) {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartAt.Before(result[j].StartAt) })
	return result, nil
}

func (m *mockAppointmentRepo) filter(filters *repository.AppointmentListFilters) []model.Appointment {
	var result []model.Appointment
	for _, a := range m.appts {
		if filters != nil {
			if filters.DoctorID != "" && a.DoctorID != filters.DoctorID {
				continue
			}
			if filters.PatientID != "" && a.PatientID != filters.PatientID {
				continue
			}
			if filters.Status != "" && a.Status != filters.Status {
				continue
			}
			if filters.From != nil && a.StartAt.Before(*filters.From) {
				continue
			}
			if filters.To != nil && !a.StartAt.Before(*filters.To) {
				continue
			}
		}
		result = append(result, m.preload(a))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartAt.Before(result[j].StartAt) })
	return result
}

func (m *mockAppointmentRepo) List(_ context.Context, filters *repository.AppointmentListFilters, offset, limit int) ([]model.Appointment, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := m.filter(filters)
	return page(result, offset, limit), int64(len(result)), nil
}

func (m *mockAppointmentRepo) ListAll(_ context.Context, filters *repository.AppointmentListFilters) ([]model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filter(filters), nil
}

func (m *mockAppointmentRepo) UpdateStatus(_ context.Context, appt *model.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.appts[appt.AppointmentID]
	if !ok || stored.Version != appt.Version {
		return pkgerrors.ErrOptimisticLock
	}
	stored.Status = appt.Status
	stored.CancelReason = appt.CancelReason
	stored.CancelledAt = appt.CancelledAt
	stored.CancelledBy = appt.CancelledBy
	stored.Version++
	m.appts[appt.AppointmentID] = stored
	appt.Version = stored.Version
	return nil
}

func (m *mockAppointmentRepo) ExistsForDoctorAndPatient(_ context.Context, doctorID, patientID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.appts {
		if a.DoctorID == doctorID && a.PatientID == patientID {
			return true, nil
		}
	}
	return false, nil
}

// bump simulates a concurrent writer.
func (m *mockAppointmentRepo) bump(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.appts[id]
	a.Version++
	m.appts[id] = a
}

// ── Mock MedicalRecordRepository ──

type mockMedicalRecordRepo struct {
	records map[string]*model.MedicalRecord
	seq     int
}

func newMockMedicalRecordRepo() *mockMedicalRecordRepo {
	return &mockMedicalRecordRepo{records: make(map[string]*model.MedicalRecord)}
}

func (m *mockMedicalRecordRepo) Create(_ context.Context, record *model.MedicalRecord) error {
	if record.RecordID == "" {
		m.seq++
		record.RecordID = fmt.Sprintf("rec-%d", m.seq)
	}
	if record.Version == 0 {
		record.Version = 1
	}
	m.records[record.RecordID] = record
	return nil
}

func (m *mockMedicalRecordRepo) GetByID(_ context.Context, id string) (*model.MedicalRecord, error) {
	if r, ok := m.records[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockMedicalRecordRepo) List(_ context.Context, filters *repository.MedicalRecordListFilters, offset, limit int) ([]model.MedicalRecord, int64, error) {
	var result []model.MedicalRecord
	for _, r := range m.records {
		if filters != nil && filters.PatientID != "" && r.PatientID != filters.PatientID {
			continue
		}
		if filters != nil && filters.DoctorID != "" && r.DoctorID != filters.DoctorID {
			continue
		}
		result = append(result, *r)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].RecordID < result[j].RecordID })
	return page(result, offset, limit), int64(len(result)), nil
}

func (m *mockMedicalRecordRepo) Update(_ context.Context, record *model.MedicalRecord) error {
	stored, ok := m.records[record.RecordID]
	if !ok || stored.Version != record.Version {
		return pkgerrors.ErrOptimisticLock
	}
	cp := *record
	cp.Version++
	m.records[record.RecordID] = &cp
	record.Version = cp.Version
	return nil
}

func (m *mockMedicalRecordRepo) Delete(_ context.Context, id string, _ string) error {
	if _, ok := m.records[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.records, id)
	return nil
}

// ── Mock NotificationRepository ──

type mockNotificationRepo struct {
	mu    sync.Mutex
	items []*model.Notification
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{}
}

func (m *mockNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n.NotificationID == "" {
		n.NotificationID = fmt.Sprintf("ntf-%d", len(m.items)+1)
	}
	m.items = append(m.items, n)
	return nil
}

func (m *mockNotificationRepo) ListByUser(_ context.Context, userID string, unreadOnly bool, offset, limit int) ([]model.Notification, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Notification
	for _, n := range m.items {
		if n.UserID != userID || (unreadOnly && n.IsRead()) {
			continue
		}
		result = append(result, *n)
	}
	return page(result, offset, limit), int64(len(result)), nil
}

func (m *mockNotificationRepo) CountUnread(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, item := range m.items {
		if item.UserID == userID && !item.IsRead() {
			n++
		}
	}
	return n, nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.items {
		if n.NotificationID == id && n.UserID == userID {
			if n.ReadAt == nil {
				now := time.Now()
				n.ReadAt = &now
			}
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockNotificationRepo) MarkAllRead(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.items {
		if n.UserID == userID && n.ReadAt == nil {
			now := time.Now()
			n.ReadAt = &now
		}
	}
	return nil
}

func (m *mockNotificationRepo) forUser(userID string) []*model.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*model.Notification
	for _, n := range m.items {
		if n.UserID == userID {
			result = append(result, n)
		}
	}
	return result
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if limit <= 0 || end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// ── Infrastructure fakes ──

type fakeCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	deletes []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte)}
}

func (c *fakeCache) GetJSON(_ context.Context, key string, dst interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.data[key]
	if !ok {
		return pkgredis.ErrCacheMiss
	}
	return json.Unmarshal(b, dst)
}

func (c *fakeCache) SetJSON(_ context.Context, key string, v interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.data[key] = b
	return nil
}

func (c *fakeCache) DeleteByPattern(_ context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deletes = append(c.deletes, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for k := range c.data {
		if strings.HasPrefix(k, prefix) {
			delete(c.data, k)
		}
	}
	return nil
}

// fakeLocker is a single-process Locker; busy forces ErrLockNotAcquired.
type fakeLocker struct {
	mu       sync.Mutex
	held     map[string]string
	busy     bool
	acquired int
	released int
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: make(map[string]string)}
}

func (l *fakeLocker) AcquireLock(_ context.Context, key string, _ time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.busy {
		return "", pkgerrors.ErrLockNotAcquired
	}
	if _, ok := l.held[key]; ok {
		return "", pkgerrors.ErrLockNotAcquired
	}
	l.acquired++
	token := fmt.Sprintf("tok-%d", l.acquired)
	l.held[key] = token
	return token, nil
}

func (l *fakeLocker) ReleaseLock(_ context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
		l.released++
	}
	return nil
}

type fakeBlacklist struct {
	mu   sync.Mutex
	jtis map[string]time.Duration
}

func newFakeBlacklist() *fakeBlacklist {
	return &fakeBlacklist{jtis: make(map[string]time.Duration)}
}

func (b *fakeBlacklist) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.jtis[jti] = ttl
	return nil
}

func (b *fakeBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.jtis[jti]
	return ok, nil
}
