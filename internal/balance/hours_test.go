package balance

import (
	"errors"
	"testing"

	pkgerrors "infoex/backend/pkg/errors"
)

func TestParseOvertimeHours(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{"", "0", false},
		{"   ", "0", false},
		{"2.5", "2.5", false},
		{"2,5", "2.5", false},
		{" 3,15 ", "3.15", false},
		{"0", "0", false},
		{"24", "24", false},
		{"1.239", "1.24", false},
		{"abc", "0", true},
		{"2,5,1", "0", true},
		{"-1", "0", true},
		{"24.01", "0", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseOvertimeHours(tt.raw, false)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, pkgerrors.ErrValidation) {
					t.Errorf("expected ErrValidation, got %v", err)
				}
				return
			}
			if !got.Equal(hours(tt.want)) {
				t.Errorf("ParseOvertimeHours(%q) = %s, want %s", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseOvertimeHours_Lenient(t *testing.T) {
	for _, raw := range []string{"abc", "-3", "99", "2,5,1"} {
		got, err := ParseOvertimeHours(raw, true)
		if err != nil {
			t.Errorf("lenient %q: unexpected error %v", raw, err)
		}
		if !got.IsZero() {
			t.Errorf("lenient %q = %s, want 0", raw, got)
		}
	}

	got, err := ParseOvertimeHours("1,75", true)
	if err != nil || !got.Equal(hours("1.75")) {
		t.Errorf("lenient valid input = %s, %v", got, err)
	}
}
