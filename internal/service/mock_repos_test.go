package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"infoex/backend/config"
	"infoex/backend/internal/model"
	"infoex/backend/internal/repository"
	pkgerrors "infoex/backend/pkg/errors"
	pkgredis "infoex/backend/pkg/redis"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users    map[string]*model.User
	units    *mockUnitRepo
	stations *mockStationRepo
	seq      int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

// withRefs mimics Preload of unit and station
func (m *mockUserRepo) withRefs(u *model.User) *model.User {
	cp := *u
	if m.units != nil && cp.UnitID != nil {
		if unit, ok := m.units.units[*cp.UnitID]; ok {
			uc := *unit
			cp.Unit = &uc
		}
	}
	if m.stations != nil && cp.StationID != nil {
		if st, ok := m.stations.stations[*cp.StationID]; ok {
			sc := *st
			cp.Station = &sc
		}
	}
	return &cp
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, user.Email) {
			return gorm.ErrDuplicatedKey
		}
	}
	if user.UserID == "" {
		m.seq++
		user.UserID = fmt.Sprintf("user-%d", m.seq)
	}
	if user.Version == 0 {
		user.Version = 1
	}
	cp := *user
	m.users[user.UserID] = &cp
	return nil
}

func (m *mockUserRepo) BatchCreate(ctx context.Context, users []model.User) error {
	for i := range users {
		if err := m.Create(ctx, &users[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return m.withRefs(u), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return m.withRefs(u), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) LockByID(ctx context.Context, id string) (*model.User, error) {
	return m.GetByID(ctx, id)
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	stored, ok := m.users[user.UserID]
	if !ok || stored.Version != user.Version {
		return pkgerrors.ErrOptimisticLock
	}
	cp := *user
	cp.Unit, cp.Station = nil, nil
	cp.Version++
	m.users[user.UserID] = &cp
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.users, id)
	return nil
}

func (m *mockUserRepo) List(_ context.Context, filter repository.UserFilter, offset, limit int) ([]model.User, int64, error) {
	var all []model.User
	for _, u := range m.users {
		if filter.Role != "" && string(u.Role) != filter.Role {
			continue
		}
		if filter.UnitID != "" && u.UnitRef() != filter.UnitID {
			continue
		}
		if filter.StationID != "" && u.StationRef() != filter.StationID {
			continue
		}
		if filter.Keyword != "" {
			kw := strings.ToLower(filter.Keyword)
			if !strings.Contains(strings.ToLower(u.Name), kw) && !strings.Contains(strings.ToLower(u.Email), kw) {
				continue
			}
		}
		all = append(all, *m.withRefs(u))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })

	total := int64(len(all))
	if offset >= len(all) {
		return []model.User{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockUserRepo) ListByUnit(_ context.Context, unitID string) ([]model.User, error) {
	var out []model.User
	for _, u := range m.users {
		if u.UnitRef() == unitID {
			out = append(out, *m.withRefs(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockUserRepo) ListByStation(_ context.Context, stationID string) ([]model.User, error) {
	var out []model.User
	for _, u := range m.users {
		if u.StationRef() == stationID {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ── Mock UnitRepository ──

type mockUnitRepo struct {
	units map[string]*model.Unit
	users *mockUserRepo
	seq   int
}

func newMockUnitRepo() *mockUnitRepo {
	return &mockUnitRepo{units: make(map[string]*model.Unit)}
}

func (m *mockUnitRepo) Create(_ context.Context, unit *model.Unit) error {
	for _, u := range m.units {
		if strings.EqualFold(u.Name, unit.Name) {
			return gorm.ErrDuplicatedKey
		}
	}
	if unit.UnitID == "" {
		m.seq++
		unit.UnitID = fmt.Sprintf("unit-%d", m.seq)
	}
	if unit.Version == 0 {
		unit.Version = 1
	}
	cp := *unit
	m.units[unit.UnitID] = &cp
	return nil
}

func (m *mockUnitRepo) GetByID(_ context.Context, id string) (*model.Unit, error) {
	if u, ok := m.units[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUnitRepo) GetByName(_ context.Context, name string) (*model.Unit, error) {
	for _, u := range m.units {
		if strings.EqualFold(u.Name, name) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUnitRepo) List(_ context.Context, includeInactive bool) ([]model.Unit, error) {
	var out []model.Unit
	for _, u := range m.units {
		if u.IsActive || includeInactive {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockUnitRepo) Update(_ context.Context, unit *model.Unit) error {
	stored, ok := m.units[unit.UnitID]
	if !ok || stored.Version != unit.Version {
		return pkgerrors.ErrOptimisticLock
	}
	cp := *unit
	cp.Version++
	m.units[unit.UnitID] = &cp
	return nil
}

func (m *mockUnitRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.units, id)
	return nil
}

func (m *mockUnitRepo) CountMembers(_ context.Context, unitID string) (int64, error) {
	if m.users == nil {
		return 0, nil
	}
	var n int64
	for _, u := range m.users.users {
		if u.UnitRef() == unitID {
			n++
		}
	}
	return n, nil
}

// ── Mock StationRepository ──

type mockStationRepo struct {
	stations map[string]*model.Station
	seq      int
}

func newMockStationRepo() *mockStationRepo {
	return &mockStationRepo{stations: make(map[string]*model.Station)}
}

func (m *mockStationRepo) Create(_ context.Context, station *model.Station) error {
	for _, s := range m.stations {
		if s.UnitID == station.UnitID && strings.EqualFold(s.Name, station.Name) {
			return gorm.ErrDuplicatedKey
		}
	}
	if station.StationID == "" {
		m.seq++
		station.StationID = fmt.Sprintf("station-%d", m.seq)
	}
	cp := *station
	m.stations[station.StationID] = &cp
	return nil
}

func (m *mockStationRepo) GetByID(_ context.Context, id string) (*model.Station, error) {
	if s, ok := m.stations[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStationRepo) GetByName(_ context.Context, unitID, name string) (*model.Station, error) {
	for _, s := range m.stations {
		if s.UnitID == unitID && strings.EqualFold(s.Name, name) {
			cp := *s
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStationRepo) ListByUnit(_ context.Context, unitID string) ([]model.Station, error) {
	var out []model.Station
	for _, s := range m.stations {
		if s.UnitID == unitID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockStationRepo) Update(_ context.Context, station *model.Station) error {
	if _, ok := m.stations[station.StationID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *station
	m.stations[station.StationID] = &cp
	return nil
}

func (m *mockStationRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.stations, id)
	return nil
}

// ── Mock AttendanceRepository ──

// mockAttendanceRepo enforces one record per (user, date) like the unique index
type mockAttendanceRepo struct {
	records map[string]*model.AttendanceRecord
	seq     int
}

func newMockAttendanceRepo() *mockAttendanceRepo {
	return &mockAttendanceRepo{records: make(map[string]*model.AttendanceRecord)}
}

func (m *mockAttendanceRepo) find(userID string, date time.Time) *model.AttendanceRecord {
	for _, r := range m.records {
		if r.UserID == userID && model.DateOf(r.WorkDate).Equal(model.DateOf(date)) {
			return r
		}
	}
	return nil
}

func (m *mockAttendanceRepo) Create(_ context.Context, record *model.AttendanceRecord) error {
	if m.find(record.UserID, record.WorkDate) != nil {
		return gorm.ErrDuplicatedKey
	}
	if record.Code.IsLeave() && record.OvertimeHours.IsPositive() {
		return fmt.Errorf("chk_leave_no_overtime violated")
	}
	if record.RecordID == "" {
		m.seq++
		record.RecordID = fmt.Sprintf("rec-%d", m.seq)
	}
	cp := *record
	m.records[record.RecordID] = &cp
	return nil
}

func (m *mockAttendanceRepo) Upsert(ctx context.Context, record *model.AttendanceRecord) error {
	if existing := m.find(record.UserID, record.WorkDate); existing != nil {
		record.RecordID = existing.RecordID
		cp := *record
		m.records[record.RecordID] = &cp
		return nil
	}
	return m.Create(ctx, record)
}

func (m *mockAttendanceRepo) Update(_ context.Context, record *model.AttendanceRecord) error {
	if _, ok := m.records[record.RecordID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *record
	m.records[record.RecordID] = &cp
	return nil
}

func (m *mockAttendanceRepo) Delete(_ context.Context, id string) error {
	delete(m.records, id)
	return nil
}

func (m *mockAttendanceRepo) GetByID(_ context.Context, id string) (*model.AttendanceRecord, error) {
	if r, ok := m.records[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAttendanceRepo) filter(keep func(r *model.AttendanceRecord) bool) []model.AttendanceRecord {
	out := []model.AttendanceRecord{}
	for _, r := range m.records {
		if keep(r) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UserID != out[j].UserID {
			return out[i].UserID < out[j].UserID
		}
		return out[i].WorkDate.Before(out[j].WorkDate)
	})
	return out
}

func (m *mockAttendanceRepo) ListByUser(_ context.Context, userID string) ([]model.AttendanceRecord, error) {
	return m.filter(func(r *model.AttendanceRecord) bool { return r.UserID == userID }), nil
}

func (m *mockAttendanceRepo) ListByUserAndDate(_ context.Context, userID string, date time.Time) ([]model.AttendanceRecord, error) {
	d := model.DateOf(date)
	return m.filter(func(r *model.AttendanceRecord) bool {
		return r.UserID == userID && model.DateOf(r.WorkDate).Equal(d)
	}), nil
}

func (m *mockAttendanceRepo) ListByUserRange(_ context.Context, userID string, from, to time.Time) ([]model.AttendanceRecord, error) {
	return m.filter(func(r *model.AttendanceRecord) bool {
		return r.UserID == userID && inRange(r.WorkDate, from, to)
	}), nil
}

func (m *mockAttendanceRepo) ListByUsers(_ context.Context, userIDs []string) ([]model.AttendanceRecord, error) {
	set := toSet(userIDs)
	return m.filter(func(r *model.AttendanceRecord) bool { return set[r.UserID] }), nil
}

func (m *mockAttendanceRepo) ListByUsersRange(_ context.Context, userIDs []string, from, to time.Time) ([]model.AttendanceRecord, error) {
	set := toSet(userIDs)
	return m.filter(func(r *model.AttendanceRecord) bool {
		return set[r.UserID] && inRange(r.WorkDate, from, to)
	}), nil
}

func inRange(d, from, to time.Time) bool {
	d = model.DateOf(d)
	return !d.Before(model.DateOf(from)) && !d.After(model.DateOf(to))
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// ── Mock SystemConfigRepository ──

type mockSystemConfigRepo struct {
	row *model.SystemConfig
}

func newMockSystemConfigRepo() *mockSystemConfigRepo {
	return &mockSystemConfigRepo{}
}

func (m *mockSystemConfigRepo) Get(_ context.Context) (*model.SystemConfig, error) {
	if m.row == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *m.row
	return &cp, nil
}

func (m *mockSystemConfigRepo) Update(_ context.Context, cfg *model.SystemConfig) error {
	cp := *cfg
	cp.UpdatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.row = &cp
	return nil
}

// ── Mock Redis-backed stores ──

type mockBlacklist struct {
	tokens map[string]time.Duration
}

func newMockBlacklist() *mockBlacklist {
	return &mockBlacklist{tokens: make(map[string]time.Duration)}
}

func (m *mockBlacklist) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	m.tokens[jti] = ttl
	return nil
}

func (m *mockBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	_, ok := m.tokens[jti]
	return ok, nil
}

type mockDraftStore struct {
	drafts    map[string][]byte
	ttls      map[string]time.Duration
	deleteErr error
}

func newMockDraftStore() *mockDraftStore {
	return &mockDraftStore{drafts: make(map[string][]byte), ttls: make(map[string]time.Duration)}
}

func (m *mockDraftStore) SaveDraft(_ context.Context, key string, payload []byte, ttl time.Duration) error {
	m.drafts[key] = payload
	m.ttls[key] = ttl
	return nil
}

func (m *mockDraftStore) LoadDraft(_ context.Context, key string) ([]byte, error) {
	if p, ok := m.drafts[key]; ok {
		return p, nil
	}
	return nil, pkgredis.ErrDraftNotFound
}

func (m *mockDraftStore) DeleteDraft(_ context.Context, key string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.drafts, key)
	return nil
}

// ── fixtures ──

type mocks struct {
	users      *mockUserRepo
	units      *mockUnitRepo
	stations   *mockStationRepo
	attendance *mockAttendanceRepo
	sysCfg     *mockSystemConfigRepo
}

func newTestRepo() (*repository.Repository, *mocks) {
	m := &mocks{
		users:      newMockUserRepo(),
		units:      newMockUnitRepo(),
		stations:   newMockStationRepo(),
		attendance: newMockAttendanceRepo(),
		sysCfg:     newMockSystemConfigRepo(),
	}
	m.users.units = m.units
	m.users.stations = m.stations
	m.units.users = m.users

	repo := &repository.Repository{
		User:         m.users,
		Unit:         m.units,
		Station:      m.stations,
		Attendance:   m.attendance,
		SystemConfig: m.sysCfg,
	}
	return repo, m
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: 8080, Timezone: "UTC"},
		Auth: config.AuthConfig{
			JWTSecret:               "test-secret-key-1234567890",
			AccessTokenTTL:          15 * time.Minute,
			RefreshTokenTTLDefault:  7 * 24 * time.Hour,
			RefreshTokenTTLRemember: 30 * 24 * time.Hour,
		},
		Policy: config.PolicyConfig{
			CompDayThreshold: 3.15,
			VacationQuota:    22,
			PersonalQuota:    7,
		},
		Feature: config.FeatureConfig{
			RegistrationEnabled: true,
			DraftTTL:            72 * time.Hour,
		},
	}
}

// fixedNow 2026-06-15 12:00 UTC
func fixedNow() time.Time {
	return time.Date(2026, time.June, 15, 12, 0, 0, 0, time.UTC)
}

func strPtr(s string) *string { return &s }

func seedUnit(m *mocks, id, name string) *model.Unit {
	u := &model.Unit{UnitID: id, Name: name, IsActive: true}
	u.Version = 1
	m.units.units[id] = u
	return u
}

func seedStation(m *mocks, id, unitID, name string) *model.Station {
	s := &model.Station{StationID: id, UnitID: unitID, Name: name, IsActive: true}
	m.stations.stations[id] = s
	return s
}

func seedUser(m *mocks, id, name string, role model.Role, unitID, stationID string) *model.User {
	u := &model.User{UserID: id, Name: name, Email: id + "@infoex.test", Role: role}
	if unitID != "" {
		u.UnitID = strPtr(unitID)
	}
	if stationID != "" {
		u.StationID = strPtr(stationID)
	}
	u.Version = 1
	m.users.users[id] = u
	return u
}

func seedRecord(m *mocks, userID, date string, code model.AttendanceCode, overtime string) *model.AttendanceRecord {
	d, err := time.Parse(model.DateLayout, date)
	if err != nil {
		panic(err)
	}
	r := &model.AttendanceRecord{
		UserID:        userID,
		WorkDate:      d,
		Code:          code,
		OvertimeHours: decimal.RequireFromString(overtime),
		Source:        model.SourceEntry,
	}
	if err := m.attendance.Create(context.Background(), r); err != nil {
		panic(err)
	}
	return r
}

func callerOf(u *model.User) Caller {
	return Caller{UserID: u.UserID, Role: u.Role, UnitID: u.UnitRef()}
}
