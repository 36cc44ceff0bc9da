package balance

import (
	"errors"
	"testing"

	"infoex/backend/internal/model"
	pkgerrors "infoex/backend/pkg/errors"
)

func conflictReason(t *testing.T, err error) string {
	t.Helper()
	var ce *pkgerrors.ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *ConflictError, got %v", err)
	}
	return ce.Reason
}

func TestCheckLeaveRequest(t *testing.T) {
	d := day(2025, 8, 10)

	tests := []struct {
		name      string
		existing  []model.AttendanceRecord
		code      model.AttendanceCode
		available int
		reason    string // empty means accepted
	}{
		{"vacation on empty day", nil, model.CodeVacation, 0, ""},
		{"personal on plain workday", []model.AttendanceRecord{rec(d, model.CodeJR, "0")}, model.CodePersonal, 0, ""},
		{"overtime logged blocks vacation", []model.AttendanceRecord{rec(d, model.CodeJR, "2")}, model.CodeVacation, 5, MsgOvertimeLogged},
		{"overtime logged blocks comp day", []model.AttendanceRecord{rec(d, model.CodeTH, "0.25")}, model.CodeCompDay, 5, MsgOvertimeLogged},
		{"existing leave blocks second leave", []model.AttendanceRecord{rec(d, model.CodeVacation, "0")}, model.CodePersonal, 5, MsgLeaveExists},
		{"existing comp day blocks vacation", []model.AttendanceRecord{rec(d, model.CodeCompDay, "0")}, model.CodeVacation, 5, MsgLeaveExists},
		{"comp day without balance", nil, model.CodeCompDay, 0, MsgNoCompDays},
		{"comp day with balance", nil, model.CodeCompDay, 1, ""},
		{"overtime rule checked before no-balance rule", []model.AttendanceRecord{rec(d, model.CodeJR, "1")}, model.CodeCompDay, 0, MsgOvertimeLogged},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckLeaveRequest(tt.existing, tt.code, tt.available)
			if tt.reason == "" {
				if err != nil {
					t.Fatalf("expected accepted, got %v", err)
				}
				return
			}
			if !errors.Is(err, pkgerrors.ErrConflict) {
				t.Fatalf("expected ErrConflict, got %v", err)
			}
			if got := conflictReason(t, err); got != tt.reason {
				t.Errorf("reason = %q, want %q", got, tt.reason)
			}
		})
	}
}

func TestCheckLeaveRequest_NonLeaveCode(t *testing.T) {
	for _, c := range []model.AttendanceCode{model.CodeNone, model.CodeJR, model.CodeB, "X"} {
		err := CheckLeaveRequest(nil, c, 10)
		if !errors.Is(err, pkgerrors.ErrValidation) {
			t.Errorf("code %q: expected validation error, got %v", c, err)
		}
	}
}

func TestCheckLeaveRequest_DoesNotMutate(t *testing.T) {
	existing := []model.AttendanceRecord{rec(day(2025, 8, 10), model.CodeJR, "2")}
	before := existing[0].OvertimeHours

	_ = CheckLeaveRequest(existing, model.CodeVacation, 0)

	if !existing[0].OvertimeHours.Equal(before) || existing[0].Code != model.CodeJR {
		t.Errorf("existing record was modified: %+v", existing[0])
	}
}

func TestCheckDayEntry(t *testing.T) {
	tests := []struct {
		name    string
		record  model.AttendanceRecord
		wantErr bool
	}{
		{"workday with overtime", rec(day(2025, 1, 1), model.CodeJR, "3"), false},
		{"workday without overtime", rec(day(2025, 1, 1), model.CodeTC, "0"), false},
		{"empty code with overtime", rec(day(2025, 1, 1), model.CodeNone, "1.5"), false},
		{"vacation without overtime", rec(day(2025, 1, 1), model.CodeVacation, "0"), false},
		{"vacation with overtime", rec(day(2025, 1, 1), model.CodeVacation, "1"), true},
		{"comp day with overtime", rec(day(2025, 1, 1), model.CodeCompDay, "0.5"), true},
		{"negative overtime", rec(day(2025, 1, 1), model.CodeJR, "-1"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckDayEntry(&tt.record)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, pkgerrors.ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}
