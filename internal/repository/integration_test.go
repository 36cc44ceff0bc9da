//go:build integration

package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"infoex/backend/internal/model"
	"infoex/backend/internal/repository"
	"infoex/backend/pkg/database"
	pkgerrors "infoex/backend/pkg/errors"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5433 user=infoex password=infoex_password dbname=infoex_test sslmode=disable TimeZone=Europe/Madrid"
	}

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot connect to test database: %v\n", err)
		os.Exit(1)
	}

	// real migrations so the CHECK and UNIQUE constraints are in place
	sqlDB, err := testDB.DB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "get sql.DB: %v\n", err)
		os.Exit(1)
	}
	if err := database.RunMigrations(sqlDB, zap.NewNop()); err != nil {
		fmt.Fprintf(os.Stderr, "migrations failed: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()
	os.Exit(code)
}

// setupTestData creates a unit, a station and a worker, and returns a cleanup func
func setupTestData(t *testing.T) (unit *model.Unit, station *model.Station, user *model.User, cleanup func()) {
	t.Helper()
	ctx := context.Background()
	suffix := time.Now().UnixNano()

	unit = &model.Unit{Name: fmt.Sprintf("Unidad-%d", suffix), IsActive: true}
	if err := testDB.WithContext(ctx).Create(unit).Error; err != nil {
		t.Fatalf("create unit: %v", err)
	}

	station = &model.Station{UnitID: unit.UnitID, Name: fmt.Sprintf("Caseta-%d", suffix), IsActive: true}
	if err := testDB.WithContext(ctx).Create(station).Error; err != nil {
		t.Fatalf("create station: %v", err)
	}

	user = &model.User{
		Name:         "Bombero de prueba",
		Email:        fmt.Sprintf("bf%d@infoex.test", suffix),
		PasswordHash: "$2a$10$placeholder",
		Role:         model.RoleBF,
		UnitID:       &unit.UnitID,
		StationID:    &station.StationID,
	}
	if err := testDB.WithContext(ctx).Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}

	cleanup = func() {
		testDB.Where("user_id = ?", user.UserID).Delete(&model.AttendanceRecord{})
		testDB.Unscoped().Where("user_id = ?", user.UserID).Delete(&model.User{})
		testDB.Unscoped().Where("station_id = ?", station.StationID).Delete(&model.Station{})
		testDB.Unscoped().Where("unit_id = ?", unit.UnitID).Delete(&model.Unit{})
	}
	return
}

func workday(userID string, date time.Time, code model.AttendanceCode, overtime string) *model.AttendanceRecord {
	return &model.AttendanceRecord{
		UserID:        userID,
		WorkDate:      date,
		Code:          code,
		OvertimeHours: decimal.RequireFromString(overtime),
		Source:        model.SourceEntry,
	}
}

// ═══════════════════════════════════════════════════════════
// Test: one record per user per day
// ═══════════════════════════════════════════════════════════

func TestAttendance_UniquePerDay(t *testing.T) {
	_, _, user, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	date := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	if err := repo.Attendance.Create(ctx, workday(user.UserID, date, model.CodeJR, "0")); err != nil {
		t.Fatalf("first insert: %v", err)
	}

	err := repo.Attendance.Create(ctx, &model.AttendanceRecord{
		UserID: user.UserID, WorkDate: date, Code: model.CodeVacation, Source: model.SourceRequest,
	})
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("expected gorm.ErrDuplicatedKey, got %v", err)
	}
}

func TestAttendance_UpsertReplacesDay(t *testing.T) {
	_, _, user, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	date := time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC)

	first := workday(user.UserID, date, model.CodeJR, "1.5")
	if err := repo.Attendance.Upsert(ctx, first); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	second := workday(user.UserID, date, model.CodeTH, "2.25")
	if err := repo.Attendance.Upsert(ctx, second); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	records, err := repo.Attendance.ListByUserAndDate(ctx, user.UserID, date)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Code != model.CodeTH || !records[0].OvertimeHours.Equal(decimal.RequireFromString("2.25")) {
		t.Errorf("record not replaced: %+v", records[0])
	}
	if records[0].RecordID != first.RecordID {
		t.Errorf("upsert should keep the row id: %s vs %s", records[0].RecordID, first.RecordID)
	}
}

func TestAttendance_LeaveWithOvertimeRejected(t *testing.T) {
	_, _, user, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	err := repo.Attendance.Create(context.Background(),
		workday(user.UserID, time.Date(2025, 7, 3, 0, 0, 0, 0, time.UTC), model.CodeVacation, "1"))
	if err == nil {
		t.Fatal("expected CHECK constraint violation")
	}
}

func TestAttendance_ListByUserRange(t *testing.T) {
	_, _, user, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	for d := 1; d <= 5; d++ {
		if err := repo.Attendance.Create(ctx, workday(user.UserID, time.Date(2025, 8, d, 0, 0, 0, 0, time.UTC), model.CodeJR, "0")); err != nil {
			t.Fatalf("insert day %d: %v", d, err)
		}
	}

	records, err := repo.Attendance.ListByUserRange(ctx, user.UserID,
		time.Date(2025, 8, 2, 0, 0, 0, 0, time.UTC), time.Date(2025, 8, 4, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 3 {
		t.Errorf("expected 3 records in inclusive range, got %d", len(records))
	}
}

// ═══════════════════════════════════════════════════════════
// Test: leave intake race
// ═══════════════════════════════════════════════════════════

// Two concurrent requests for the same day: the user-row lock serialises them so the
// second sees the first one's record and backs off.
func TestLockByID_SerializesSameDayRequests(t *testing.T) {
	_, _, user, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	date := time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC)
	errTaken := errors.New("day taken")

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = repo.Transaction(ctx, func(tx *repository.Repository) error {
				if _, err := tx.User.LockByID(ctx, user.UserID); err != nil {
					return err
				}
				existing, err := tx.Attendance.ListByUserAndDate(ctx, user.UserID, date)
				if err != nil {
					return err
				}
				if len(existing) > 0 {
					return errTaken
				}
				time.Sleep(50 * time.Millisecond)
				return tx.Attendance.Create(ctx, &model.AttendanceRecord{
					UserID: user.UserID, WorkDate: date, Code: model.CodeVacation, Source: model.SourceRequest,
				})
			})
		}(i)
	}
	wg.Wait()

	var ok, taken int
	for _, err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, errTaken):
			taken++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if ok != 1 || taken != 1 {
		t.Errorf("expected one success and one rejection, got ok=%d taken=%d", ok, taken)
	}

	records, _ := repo.Attendance.ListByUserAndDate(ctx, user.UserID, date)
	if len(records) != 1 {
		t.Errorf("expected exactly 1 record, got %d", len(records))
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Transaction
// ═══════════════════════════════════════════════════════════

func TestTransaction_Rollback(t *testing.T) {
	_, _, user, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	date := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	boom := errors.New("boom")

	err := repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Attendance.Create(ctx, workday(user.UserID, date, model.CodeJR, "1")); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	records, _ := repo.Attendance.ListByUserAndDate(ctx, user.UserID, date)
	if len(records) != 0 {
		t.Fatal("expected rollback to discard the record")
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Optimistic Lock
// ═══════════════════════════════════════════════════════════

func TestOptimisticLock_User_ConflictDetected(t *testing.T) {
	_, _, user, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	copy1, _ := repo.User.GetByID(ctx, user.UserID)
	copy2, _ := repo.User.GetByID(ctx, user.UserID)

	copy1.Name = "Primer cambio"
	if err := repo.User.Update(ctx, copy1); err != nil {
		t.Fatalf("first update should succeed: %v", err)
	}
	if copy1.Version != 2 {
		t.Errorf("expected version 2, got %d", copy1.Version)
	}

	copy2.Role = model.RoleJR
	if err := repo.User.Update(ctx, copy2); !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Errorf("expected ErrOptimisticLock, got %v", err)
	}
}

func TestUser_SoftDeleteFreesEmail(t *testing.T) {
	unit, _, user, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	if err := repo.User.Delete(ctx, user.UserID, user.UserID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.User.GetByEmail(ctx, user.Email); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("deleted user should not be found, got %v", err)
	}

	again := &model.User{Name: "Reingreso", Email: user.Email, PasswordHash: "x", Role: model.RolePending, UnitID: &unit.UnitID}
	if err := repo.User.Create(ctx, again); err != nil {
		t.Fatalf("email should be reusable after soft delete: %v", err)
	}
	defer testDB.Unscoped().Where("user_id = ?", again.UserID).Delete(&model.User{})
}

func TestSystemConfig_SeededRow(t *testing.T) {
	repo := repository.NewRepository(testDB)
	cfg, err := repo.SystemConfig.Get(context.Background())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !cfg.CompDayThreshold.IsPositive() || cfg.VacationQuota <= 0 || cfg.PersonalQuota <= 0 {
		t.Errorf("unexpected policy row: %+v", cfg)
	}
}
