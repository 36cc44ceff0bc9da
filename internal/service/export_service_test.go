package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"infoex/backend/internal/dto"
	"infoex/backend/internal/model"
)

func setupExportService() (*exportService, *mocks) {
	repo, m := newTestRepo()
	cfg := testConfig()
	sysCfg := NewSystemConfigService(cfg, repo, zap.NewNop())
	svc := NewExportService(cfg, repo, sysCfg, zap.NewNop()).(*exportService)
	svc.now = fixedNow
	return svc, m
}

func TestExportService_Attendance(t *testing.T) {
	svc, m := setupExportService()
	user := seedWorker(m)
	jr := seedUser(m, "jr-1", "Jefa", model.RoleJR, "unit-1", "st-1")
	seedRecord(m, user.UserID, "2026-06-01", model.CodeJR, "2.50")
	seedRecord(m, user.UserID, "2026-06-02", model.CodeVacation, "0")
	seedRecord(m, user.UserID, "2026-07-01", model.CodeJR, "1.00")

	buf, filename, err := svc.Attendance(context.Background(), callerOf(jr), &dto.ExportAttendanceQuery{UnitID: "unit-1"})
	if err != nil {
		t.Fatalf("Attendance export should succeed: %v", err)
	}
	if filename != "asistencia_brigada_norte_2026-06.xlsx" {
		t.Errorf("unexpected filename %s", filename)
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("workbook should open: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != sheetAttendance || sheets[1] != sheetBalances {
		t.Fatalf("unexpected sheets %v", sheets)
	}

	rows, err := f.GetRows(sheetAttendance)
	if err != nil {
		t.Fatalf("read sheet: %v", err)
	}
	// title, header, Ana, Jefa, total
	if len(rows) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(rows))
	}
	ana := rows[2]
	if ana[0] != "Ana" || ana[1] != "Caseta Alta" {
		t.Errorf("unexpected member columns %v", ana[:2])
	}
	if ana[2] != "JR +2.5" || ana[3] != "V" {
		t.Errorf("unexpected day cells %q %q", ana[2], ana[3])
	}
	// June has 30 days: overtime at column 33, then V, AP, H
	if ana[32] != "2.5" || ana[33] != "1" {
		t.Errorf("unexpected totals %v", ana[32:])
	}
	if !strings.HasPrefix(rows[4][0], "Total") {
		t.Errorf("expected a totals row, got %v", rows[4])
	}

	balances, err := f.GetRows(sheetBalances)
	if err != nil {
		t.Fatalf("read balances: %v", err)
	}
	if len(balances) != 4 {
		t.Errorf("expected title, header and 2 members, got %d rows", len(balances))
	}
}

func TestExportService_Attendance_Errors(t *testing.T) {
	svc, m := setupExportService()
	user := seedWorker(m)
	seedUnit(m, "unit-2", "Vacía")
	admin := seedUser(m, "adm", "Admin", model.RoleAdmin, "", "")
	outsider := seedUser(m, "jr-9", "Otro", model.RoleJR, "unit-2", "")

	if _, _, err := svc.Attendance(context.Background(), callerOf(user), &dto.ExportAttendanceQuery{UnitID: "unit-1"}); !errors.Is(err, ErrNoPermission) {
		t.Errorf("bf export: expected ErrNoPermission, got %v", err)
	}
	if _, _, err := svc.Attendance(context.Background(), callerOf(outsider), &dto.ExportAttendanceQuery{UnitID: "unit-1"}); !errors.Is(err, ErrNoPermission) {
		t.Errorf("other unit jr: expected ErrNoPermission, got %v", err)
	}
	if _, _, err := svc.Attendance(context.Background(), callerOf(admin), &dto.ExportAttendanceQuery{UnitID: "missing"}); !errors.Is(err, ErrUnitNotFound) {
		t.Errorf("expected ErrUnitNotFound, got %v", err)
	}
	delete(m.users.users, outsider.UserID)
	if _, _, err := svc.Attendance(context.Background(), callerOf(admin), &dto.ExportAttendanceQuery{UnitID: "unit-2"}); !errors.Is(err, ErrExportNoMembers) {
		t.Errorf("expected ErrExportNoMembers, got %v", err)
	}
}

func TestDayCell(t *testing.T) {
	tests := []struct {
		code     model.AttendanceCode
		overtime string
		want     string
	}{
		{model.CodeJR, "0", "JR"},
		{model.CodeTH, "1.25", "TH +1.25"},
		{model.CodeNone, "3", "+3"},
		{model.CodeCompDay, "0", "H"},
	}
	for _, tt := range tests {
		r := &model.AttendanceRecord{Code: tt.code, OvertimeHours: decimal.RequireFromString(tt.overtime)}
		if got := dayCell(r); got != tt.want {
			t.Errorf("dayCell(%s, %s) = %q, want %q", tt.code, tt.overtime, got, tt.want)
		}
	}
}
