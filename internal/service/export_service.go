package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"infoex/backend/config"
	"infoex/backend/internal/balance"
	"infoex/backend/internal/dto"
	"infoex/backend/internal/model"
	"infoex/backend/internal/repository"
)

// ── export errors ──

var (
	ErrExportNoMembers    = errors.New("la unidad no tiene miembros")
	ErrExportGenerateFail = errors.New("no se pudo generar el fichero Excel")
)

const (
	sheetAttendance = "Asistencia"
	sheetBalances   = "Saldos"
)

// ExportService spreadsheet exports. The workbook is returned as a buffer; the handler sets the headers.
type ExportService interface {
	// Attendance monthly attendance for a unit plus the members' yearly balances
	Attendance(ctx context.Context, caller Caller, q *dto.ExportAttendanceQuery) (*bytes.Buffer, string, error)
}

type exportService struct {
	cfg    *config.Config
	repo   *repository.Repository
	policy PolicySource
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService builds an ExportService
func NewExportService(cfg *config.Config, repo *repository.Repository, policy PolicySource, logger *zap.Logger) ExportService {
	return &exportService{
		cfg:    cfg,
		repo:   repo,
		policy: policy,
		logger: logger,
		now:    time.Now,
	}
}

// ────────────────────── Attendance ──────────────────────
//
// Sheet "Asistencia": one row per member, one column per day of the month.
// Cells hold the day code, followed by "+N" when overtime was logged.
// Trailing columns total the month's overtime and leave days.
//
// Sheet "Saldos": the yearly balance snapshot of every member.

func (s *exportService) Attendance(ctx context.Context, caller Caller, q *dto.ExportAttendanceQuery) (*bytes.Buffer, string, error) {
	unit, err := s.repo.Unit.GetByID(ctx, q.UnitID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrUnitNotFound
		}
		return nil, "", err
	}
	if !caller.CanAccessUnit(unit.UnitID) {
		return nil, "", ErrNoPermission
	}

	now := today(s.cfg, s.now)
	year, month := q.Year, time.Month(q.Month)
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = now.Month()
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	members, err := s.repo.User.ListByUnit(ctx, unit.UnitID)
	if err != nil {
		s.logger.Error("list unit members failed", zap.String("unit_id", unit.UnitID), zap.Error(err))
		return nil, "", err
	}
	if len(members) == 0 {
		return nil, "", ErrExportNoMembers
	}

	ids := make([]string, 0, len(members))
	for i := range members {
		ids = append(ids, members[i].UserID)
	}
	monthRecords, err := s.repo.Attendance.ListByUsersRange(ctx, ids, first, last)
	if err != nil {
		return nil, "", err
	}
	// "user:day" → record
	index := make(map[string]*model.AttendanceRecord, len(monthRecords))
	for i := range monthRecords {
		r := &monthRecords[i]
		index[fmt.Sprintf("%s:%d", r.UserID, r.WorkDate.Day())] = r
	}

	policy, err := s.policy.CurrentPolicy(ctx)
	if err != nil {
		return nil, "", err
	}
	snaps, err := snapshotsFor(ctx, s.repo, members, policy, year)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheetAttendance)
	if err != nil {
		return nil, "", ErrExportGenerateFail
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#C6E0B4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	days := last.Day()
	// columns: name, station, days..., overtime, V, AP, H
	totalCol := 3 + days
	lastCol := totalCol + 3

	f.SetColWidth(sheetAttendance, "A", "A", 28)
	f.SetColWidth(sheetAttendance, "B", "B", 16)
	f.SetColWidth(sheetAttendance, colName(2), colName(1+days), 7)
	f.SetColWidth(sheetAttendance, colName(totalCol-1), colName(lastCol-1), 11)

	f.SetCellValue(sheetAttendance, "A1", fmt.Sprintf("%s · %s", unit.Name, first.Format("2006-01")))
	f.MergeCell(sheetAttendance, "A1", cell(colName(lastCol-1), 1))
	f.SetCellStyle(sheetAttendance, "A1", "A1", headerStyle)

	row := 2
	f.SetCellValue(sheetAttendance, cell("A", row), "Nombre")
	f.SetCellValue(sheetAttendance, cell("B", row), "Caseta")
	for d := 1; d <= days; d++ {
		f.SetCellValue(sheetAttendance, cell(colName(1+d), row), d)
	}
	f.SetCellValue(sheetAttendance, cell(colName(totalCol-1), row), "Horas extra")
	f.SetCellValue(sheetAttendance, cell(colName(totalCol), row), string(model.CodeVacation))
	f.SetCellValue(sheetAttendance, cell(colName(totalCol+1), row), string(model.CodePersonal))
	f.SetCellValue(sheetAttendance, cell(colName(totalCol+2), row), string(model.CodeCompDay))
	f.SetCellStyle(sheetAttendance, cell("A", row), cell(colName(lastCol-1), row), headerStyle)

	grandHours := decimal.Zero
	grand := map[model.AttendanceCode]int{}

	row = 3
	for i := range members {
		m := &members[i]
		f.SetCellValue(sheetAttendance, cell("A", row), m.Name)
		if m.Station != nil {
			f.SetCellValue(sheetAttendance, cell("B", row), m.Station.Name)
		}

		hours := decimal.Zero
		counts := map[model.AttendanceCode]int{}
		for d := 1; d <= days; d++ {
			r, ok := index[fmt.Sprintf("%s:%d", m.UserID, d)]
			if !ok {
				continue
			}
			f.SetCellValue(sheetAttendance, cell(colName(1+d), row), dayCell(r))
			if r.HasOvertime() {
				hours = hours.Add(r.OvertimeHours)
			}
			if r.Code.IsLeave() {
				counts[r.Code]++
			}
		}

		f.SetCellValue(sheetAttendance, cell(colName(totalCol-1), row), hours.InexactFloat64())
		for j, code := range model.LeaveCodes {
			f.SetCellValue(sheetAttendance, cell(colName(totalCol+j), row), counts[code])
			grand[code] += counts[code]
		}
		grandHours = grandHours.Add(hours)
		row++
	}

	f.SetCellValue(sheetAttendance, cell("A", row), "Total")
	f.SetCellValue(sheetAttendance, cell(colName(totalCol-1), row), grandHours.InexactFloat64())
	for j, code := range model.LeaveCodes {
		f.SetCellValue(sheetAttendance, cell(colName(totalCol+j), row), grand[code])
	}
	f.SetCellStyle(sheetAttendance, cell("A", row), cell(colName(lastCol-1), row), headerStyle)

	if err := writeBalanceSheet(f, members, snaps, year, headerStyle); err != nil {
		s.logger.Error("write balance sheet failed", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("write workbook failed", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("asistencia_%s_%s.xlsx", fileSafe(unit.Name), first.Format("2006-01"))
	return buf, filename, nil
}

var balanceHeaders = []string{
	"Nombre",
	"Horas extra acumuladas",
	"H generados",
	"H disfrutados",
	"H disponibles",
	"Horas hacia el próximo H",
	"V disfrutadas",
	"V restantes",
	"AP disfrutados",
	"AP restantes",
}

func writeBalanceSheet(f *excelize.File, members []model.User, snaps map[string]balance.Snapshot, year int, headerStyle int) error {
	if _, err := f.NewSheet(sheetBalances); err != nil {
		return err
	}
	f.SetColWidth(sheetBalances, "A", "A", 28)
	f.SetColWidth(sheetBalances, "B", colName(len(balanceHeaders)-1), 14)

	f.SetCellValue(sheetBalances, "A1", fmt.Sprintf("Saldos %d", year))
	f.SetCellStyle(sheetBalances, "A1", "A1", headerStyle)
	for i, h := range balanceHeaders {
		f.SetCellValue(sheetBalances, cell(colName(i), 2), h)
	}
	f.SetCellStyle(sheetBalances, "A2", cell(colName(len(balanceHeaders)-1), 2), headerStyle)

	for i := range members {
		row := 3 + i
		snap := snaps[members[i].UserID]
		values := []interface{}{
			members[i].Name,
			snap.Overtime.TotalOvertimeHours.InexactFloat64(),
			snap.Overtime.CompDaysEarned,
			snap.Overtime.CompDaysConsumed,
			snap.Overtime.CompDaysAvailable,
			snap.Overtime.HoursTowardNextCompDay.InexactFloat64(),
			snap.Leave.VacationUsed,
			snap.Leave.VacationRemaining,
			snap.Leave.PersonalUsed,
			snap.Leave.PersonalRemaining,
		}
		if err := f.SetSheetRow(sheetBalances, cell("A", row), &values); err != nil {
			return err
		}
	}
	return nil
}

// dayCell the day code, with overtime appended as "+N"
func dayCell(r *model.AttendanceRecord) string {
	text := string(r.Code)
	if r.HasOvertime() {
		if text != "" {
			text += " "
		}
		text += "+" + r.OvertimeHours.String()
	}
	return text
}

func fileSafe(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, strings.ToLower(name))
}

// ── helpers ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
