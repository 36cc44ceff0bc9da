package service

import (
	"testing"
	"time"

	"infoex/backend/config"
	"infoex/backend/internal/model"
)

func TestCaller_CanAccessUser(t *testing.T) {
	ana := &model.User{UserID: "bf-1", UnitID: strPtr("unit-1")}
	marta := &model.User{UserID: "bf-9", UnitID: strPtr("unit-2")}
	loose := &model.User{UserID: "bf-0"}

	tests := []struct {
		name   string
		caller Caller
		target *model.User
		want   bool
	}{
		{"admin any", Caller{UserID: "adm", Role: model.RoleAdmin}, marta, true},
		{"jr own unit", Caller{UserID: "jr-1", Role: model.RoleJR, UnitID: "unit-1"}, ana, true},
		{"jr other unit", Caller{UserID: "jr-1", Role: model.RoleJR, UnitID: "unit-1"}, marta, false},
		{"jr without unit", Caller{UserID: "jr-1", Role: model.RoleJR}, loose, false},
		{"bf self", Caller{UserID: "bf-1", Role: model.RoleBF, UnitID: "unit-1"}, ana, true},
		{"bf teammate", Caller{UserID: "bf-2", Role: model.RoleBF, UnitID: "unit-1"}, ana, false},
		{"pending self", Caller{UserID: "bf-1", Role: model.RolePending}, ana, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.caller.CanAccessUser(tt.target); got != tt.want {
				t.Errorf("CanAccessUser = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCaller_CanAccessUnit(t *testing.T) {
	if !(Caller{Role: model.RoleAdmin}).CanAccessUnit("unit-1") {
		t.Error("admin should access any unit")
	}
	if !(Caller{Role: model.RoleJR, UnitID: "unit-1"}).CanAccessUnit("unit-1") {
		t.Error("jr should access own unit")
	}
	if (Caller{Role: model.RoleJR, UnitID: "unit-1"}).CanAccessUnit("unit-2") {
		t.Error("jr must not access another unit")
	}
	if (Caller{Role: model.RoleBF, UnitID: "unit-1"}).CanAccessUnit("unit-1") {
		t.Error("bf must not access unit views")
	}
}

func TestToday_UsesDeploymentTimezone(t *testing.T) {
	cfg := &config.Config{Server: config.ServerConfig{Timezone: "Europe/Madrid"}}
	// 23:30 UTC on 30 June is already 1 July in Madrid
	now := func() time.Time { return time.Date(2026, time.June, 30, 23, 30, 0, 0, time.UTC) }

	got := today(cfg, now)
	want := time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("today = %v, want %v", got, want)
	}
}

func TestParseClock(t *testing.T) {
	if v, err := parseClock("entry_time", ""); err != nil || v != nil {
		t.Errorf("empty should be nil, got %v %v", v, err)
	}
	if v, err := parseClock("entry_time", " 07:45 "); err != nil || *v != "07:45" {
		t.Errorf("expected 07:45, got %v %v", v, err)
	}
	if _, err := parseClock("entry_time", "25:00"); err == nil {
		t.Error("25:00 should be rejected")
	}
	if got := clockValue(strPtr("07:45:00")); got != "07:45" {
		t.Errorf("clockValue trims seconds, got %s", got)
	}
}
