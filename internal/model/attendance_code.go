package model

import (
	"fmt"
	"strings"
)

// AttendanceCode day code recorded on an attendance record
type AttendanceCode string

const (
	CodeNone AttendanceCode = ""

	// workday markers
	CodeJR AttendanceCode = "JR"
	CodeTH AttendanceCode = "TH"
	CodeTC AttendanceCode = "TC"
	CodeB  AttendanceCode = "B"

	// leave
	CodeVacation AttendanceCode = "V"
	CodePersonal AttendanceCode = "AP"
	CodeCompDay  AttendanceCode = "H"
)

// LeaveCodes the codes a worker may request for themselves
var LeaveCodes = []AttendanceCode{CodeVacation, CodePersonal, CodeCompDay}

// ParseAttendanceCode normalises case and whitespace and rejects codes outside the closed set
func ParseAttendanceCode(s string) (AttendanceCode, error) {
	c := AttendanceCode(strings.ToUpper(strings.TrimSpace(s)))
	switch c {
	case CodeNone, CodeJR, CodeTH, CodeTC, CodeB, CodeVacation, CodePersonal, CodeCompDay:
		return c, nil
	default:
		return "", fmt.Errorf("unknown attendance code %q", s)
	}
}

// IsLeave V, AP and H
func (c AttendanceCode) IsLeave() bool {
	switch c {
	case CodeVacation, CodePersonal, CodeCompDay:
		return true
	default:
		return false
	}
}

// Label human-readable Spanish label used in exports and calendars
func (c AttendanceCode) Label() string {
	switch c {
	case CodeVacation:
		return "Vacaciones"
	case CodePersonal:
		return "Asuntos propios"
	case CodeCompDay:
		return "Día de compensación (H)"
	case CodeJR, CodeTH, CodeTC, CodeB:
		return "Jornada " + string(c)
	default:
		return "Sin código"
	}
}
