package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"workshop-tracker/backend/internal/model"
	"workshop-tracker/backend/internal/repository"
	"workshop-tracker/backend/pkg/photo"
	"workshop-tracker/backend/pkg/timeutil"
)

var errMockStorage = errors.New("connection refused")

// ── Mock PersonRepository ──

type mockPersonRepo struct {
	people map[string]*model.Person
	err    error
}

func newMockPersonRepo() *mockPersonRepo {
	return &mockPersonRepo{people: make(map[string]*model.Person)}
}

func (m *mockPersonRepo) add(p *model.Person) {
	m.people[p.Code] = p
}

func (m *mockPersonRepo) GetByCode(_ context.Context, code string) (*model.Person, error) {
	if m.err != nil {
		return nil, m.err
	}
	if p, ok := m.people[code]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPersonRepo) GetByName(_ context.Context, name string) (*model.Person, error) {
	for _, p := range m.people {
		if p.Name == name {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPersonRepo) List(_ context.Context, role, supervisorCode string) ([]model.Person, error) {
	if m.err != nil {
		return nil, m.err
	}
	var result []model.Person
	for _, p := range m.people {
		if role != "" && p.Role != role {
			continue
		}
		if supervisorCode != "" && (p.SupervisorCode == nil || *p.SupervisorCode != supervisorCode) {
			continue
		}
		result = append(result, *p)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].Code < result[j].Code
	})
	return result, nil
}

func (m *mockPersonRepo) ReplaceAll(_ context.Context, people []model.Person) error {
	if m.err != nil {
		return m.err
	}
	m.people = make(map[string]*model.Person, len(people))
	for i := range people {
		p := people[i]
		m.people[p.Code] = &p
	}
	return nil
}

// ── Mock AttendanceRepository ──

type mockAttendanceRepo struct {
	mu     sync.Mutex
	rows   map[string]*model.Attendance
	people *mockPersonRepo // 用于按主管过滤
	err    error

	beforeCreate func()  // 模拟并发写入：在 CreateIfAbsent 判定前执行
	updateErr    error   // 仅作用于 UpdatePunchOut
}

func newMockAttendanceRepo(people *mockPersonRepo) *mockAttendanceRepo {
	return &mockAttendanceRepo{rows: make(map[string]*model.Attendance), people: people}
}

func attendanceKey(code string, date time.Time) string {
	return code + "|" + timeutil.FormatISODate(date)
}

func (m *mockAttendanceRepo) put(a *model.Attendance) {
	m.rows[attendanceKey(a.Code, a.AttendanceDate)] = a
}

func (m *mockAttendanceRepo) Get(_ context.Context, code string, date time.Time) (*model.Attendance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if a, ok := m.rows[attendanceKey(code, date)]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAttendanceRepo) GetForUpdate(ctx context.Context, code string, date time.Time) (*model.Attendance, error) {
	return m.Get(ctx, code, date)
}

func (m *mockAttendanceRepo) CreateIfAbsent(_ context.Context, a *model.Attendance) (bool, error) {
	if m.beforeCreate != nil {
		m.beforeCreate()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	key := attendanceKey(a.Code, a.AttendanceDate)
	if _, ok := m.rows[key]; ok {
		return false, nil
	}
	cp := *a
	m.rows[key] = &cp
	return true, nil
}

func (m *mockAttendanceRepo) UpdatePunchOut(_ context.Context, code string, date time.Time, out time.Time, photoRef string, shiftSeconds int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	a, ok := m.rows[attendanceKey(code, date)]
	if !ok || a.InTime == nil {
		return gorm.ErrRecordNotFound
	}
	a.OutTime = &out
	a.OutPhotoRef = &photoRef
	a.ShiftSeconds = &shiftSeconds
	return nil
}

// UpsertCoalesce 模拟 ON CONFLICT ... COALESCE：空值不覆盖，时长按合并结果重算
func (m *mockAttendanceRepo) UpsertCoalesce(_ context.Context, a *model.Attendance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	key := attendanceKey(a.Code, a.AttendanceDate)
	cur, ok := m.rows[key]
	if !ok {
		cp := *a
		m.rows[key] = &cp
		return nil
	}
	if a.InTime != nil {
		cur.InTime = a.InTime
		cur.InPhotoRef = a.InPhotoRef
	}
	if a.OutTime != nil {
		cur.OutTime = a.OutTime
		cur.OutPhotoRef = a.OutPhotoRef
	}
	cur.Name = a.Name
	cur.SupervisorName = a.SupervisorName
	if cur.InTime != nil && cur.OutTime != nil {
		secs := int64(cur.OutTime.Sub(*cur.InTime) / time.Second)
		cur.ShiftSeconds = &secs
	}
	return nil
}

func (m *mockAttendanceRepo) SetHoliday(_ context.Context, code string, date time.Time, remarks string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	a, ok := m.rows[attendanceKey(code, date)]
	if !ok || a.ShiftSeconds == nil {
		return 0, nil
	}
	a.Holiday = true
	a.HolidayRemarks = &remarks
	return 1, nil
}

func (m *mockAttendanceRepo) ClearHoliday(_ context.Context, code string, date time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.rows[attendanceKey(code, date)]; ok {
		a.Holiday = false
		a.HolidayRemarks = nil
	}
	return nil
}

func (m *mockAttendanceRepo) ListByRange(_ context.Context, start, end time.Time, supervisorCode string) ([]model.Attendance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var result []model.Attendance
	for _, a := range m.rows {
		if !inRange(a.AttendanceDate, start, end) {
			continue
		}
		if supervisorCode != "" {
			p, ok := m.people.people[a.Code]
			if !ok || p.SupervisorCode == nil || *p.SupervisorCode != supervisorCode {
				continue
			}
		}
		result = append(result, *a)
	}
	sortAttendance(result)
	return result, nil
}

func (m *mockAttendanceRepo) ListAll(_ context.Context) ([]model.Attendance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	result := make([]model.Attendance, 0, len(m.rows))
	for _, a := range m.rows {
		result = append(result, *a)
	}
	sortAttendance(result)
	return result, nil
}

func (m *mockAttendanceRepo) ReplaceAll(_ context.Context, rows []model.Attendance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.rows = make(map[string]*model.Attendance, len(rows))
	for i := range rows {
		a := rows[i]
		m.rows[attendanceKey(a.Code, a.AttendanceDate)] = &a
	}
	return nil
}

func sortAttendance(rows []model.Attendance) {
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].AttendanceDate.Equal(rows[j].AttendanceDate) {
			return rows[i].AttendanceDate.Before(rows[j].AttendanceDate)
		}
		return rows[i].Code < rows[j].Code
	})
}

// ── Mock MetricsRepository ──

type mockMetricsRepo struct {
	workstation map[string]*model.WorkstationMetric
	advisor     map[string]*model.AdvisorMetric
	err         error
}

func newMockMetricsRepo() *mockMetricsRepo {
	return &mockMetricsRepo{
		workstation: make(map[string]*model.WorkstationMetric),
		advisor:     make(map[string]*model.AdvisorMetric),
	}
}

func (m *mockMetricsRepo) UpsertWorkstation(_ context.Context, w *model.WorkstationMetric) error {
	if m.err != nil {
		return m.err
	}
	cp := *w
	m.workstation[timeutil.FormatISODate(w.MetricDate)+"|"+w.WorkstationName] = &cp
	return nil
}

func (m *mockMetricsRepo) UpsertAdvisor(_ context.Context, a *model.AdvisorMetric) error {
	if m.err != nil {
		return m.err
	}
	cp := *a
	m.advisor[timeutil.FormatISODate(a.MetricDate)+"|"+a.WorkstationName+"|"+a.AdvisorName] = &cp
	return nil
}

func (m *mockMetricsRepo) GetWorkstation(_ context.Context, date time.Time, workstation string) (*model.WorkstationMetric, error) {
	if w, ok := m.workstation[timeutil.FormatISODate(date)+"|"+workstation]; ok {
		cp := *w
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockMetricsRepo) ListWorkstationByRange(_ context.Context, start, end time.Time, workstation string) ([]model.WorkstationMetric, error) {
	if m.err != nil {
		return nil, m.err
	}
	var result []model.WorkstationMetric
	for _, w := range m.workstation {
		if inRange(w.MetricDate, start, end) && (workstation == "" || w.WorkstationName == workstation) {
			result = append(result, *w)
		}
	}
	return result, nil
}

func (m *mockMetricsRepo) ListAdvisorByRange(_ context.Context, start, end time.Time, workstation string) ([]model.AdvisorMetric, error) {
	if m.err != nil {
		return nil, m.err
	}
	var result []model.AdvisorMetric
	for _, a := range m.advisor {
		if inRange(a.MetricDate, start, end) && (workstation == "" || a.WorkstationName == workstation) {
			result = append(result, *a)
		}
	}
	return result, nil
}

// ── Mock AttendanceConfigRepository ──

type mockAttendanceConfigRepo struct {
	cfg *model.PastAttendanceConfig
}

func (m *mockAttendanceConfigRepo) Get(_ context.Context) (*model.PastAttendanceConfig, error) {
	if m.cfg == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *m.cfg
	return &cp, nil
}

func (m *mockAttendanceConfigRepo) Update(_ context.Context, cfg *model.PastAttendanceConfig) error {
	cp := *cfg
	m.cfg = &cp
	return nil
}

// ── Mock PhotoStore ──

type mockPhotoStore struct {
	saved   []string
	removed []string
	err     error
}

func (m *mockPhotoStore) Save(code string, kind photo.Kind, at time.Time, _ []byte) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	ref := timeutil.FormatDate(at) + "/" + code + "_" + string(kind) + ".jpg"
	m.saved = append(m.saved, ref)
	return ref, nil
}

func (m *mockPhotoStore) Remove(ref string) error {
	m.removed = append(m.removed, ref)
	return nil
}

// ── 测试时钟 ──

type testClock struct{ t time.Time }

func (c *testClock) Now() time.Time { return c.t.In(timeutil.Location) }
func (c *testClock) set(t time.Time) { c.t = t }
func (c *testClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func at(year int, month time.Month, day, hour, min, sec int) time.Time {
	return time.Date(year, month, day, hour, min, sec, 0, timeutil.Location)
}

// ── 测试夹具 ──

type fixture struct {
	people  *mockPersonRepo
	att     *mockAttendanceRepo
	metrics *mockMetricsRepo
	config  *mockAttendanceConfigRepo
	photos  *mockPhotoStore
	clock   *testClock
	repo    *repository.Repository
	logger  *zap.Logger
}

func strPtr(s string) *string { return &s }
func intPtr(v int) *int { return &v }

// newFixture 一名主管 S1、两名技师 T1/T2（隶属 S1）、一名技师 T3（隶属 S2）、
// 工位 W1（隶属 S1，目标 120）及其两名顾问、超级管理员 A1
func newFixture() *fixture {
	people := newMockPersonRepo()
	hash, _ := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	for _, p := range []*model.Person{
		{Code: "S1", Name: "Sunil", Role: model.RoleSupervisor},
		{Code: "S2", Name: "Suresh", Role: model.RoleSupervisor},
		{Code: "T1", Name: "Ravi", Role: model.RoleTechnician, SupervisorCode: strPtr("S1")},
		{Code: "T2", Name: "Arun", Role: model.RoleTechnician, SupervisorCode: strPtr("S1")},
		{Code: "T3", Name: "Kiran", Role: model.RoleTechnician, SupervisorCode: strPtr("S2")},
		{Code: "W1", Name: "Bay 1", Role: model.RoleWorkstation, SupervisorCode: strPtr("S1"), Target: intPtr(120)},
		{Code: "V1", Name: "Meena", Role: model.RoleAdvisor, SupervisorCode: strPtr("W1")},
		{Code: "V2", Name: "Deepa", Role: model.RoleAdvisor, SupervisorCode: strPtr("W1")},
		{Code: "A1", Name: "Admin", Role: model.RoleSuperAdmin},
	} {
		p.PasswordHash = string(hash)
		people.add(p)
	}

	f := &fixture{
		people:  people,
		att:     newMockAttendanceRepo(people),
		metrics: newMockMetricsRepo(),
		config:  &mockAttendanceConfigRepo{cfg: &model.PastAttendanceConfig{Singleton: true, Enabled: true, MaxPastDays: 7}},
		photos:  &mockPhotoStore{},
		clock:   &testClock{t: at(2024, time.January, 10, 9, 0, 0)},
		logger:  zap.NewNop(),
	}
	f.repo = &repository.Repository{
		Person:           f.people,
		Attendance:       f.att,
		Metrics:          f.metrics,
		AttendanceConfig: f.config,
	}
	return f
}

func (f *fixture) actor(code string) Actor {
	p := f.people.people[code]
	a := Actor{Code: p.Code, Name: p.Name, Role: p.Role}
	if p.SupervisorCode != nil {
		a.SupervisorCode = *p.SupervisorCode
	}
	return a
}
