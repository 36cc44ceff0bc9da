package balance

import (
	"strings"

	"github.com/shopspring/decimal"

	pkgerrors "infoex/backend/pkg/errors"
)

// MaxOvertimeHours a day has 24 hours
var MaxOvertimeHours = decimal.NewFromInt(24)

// ParseOvertimeHours reads an overtime value typed by a shift leader. Both "2.5" and "2,5" are accepted.
// In strict mode malformed or out-of-range input is a ValidationError; lenient mode coerces it to 0.
func ParseOvertimeHours(raw string, lenient bool) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, nil
	}
	s = strings.Replace(s, ",", ".", 1)

	d, err := decimal.NewFromString(s)
	if err != nil {
		if lenient {
			return decimal.Zero, nil
		}
		return decimal.Zero, pkgerrors.Validation("overtime_hours", "debe ser un número")
	}

	if d.IsNegative() || d.GreaterThan(MaxOvertimeHours) {
		if lenient {
			return decimal.Zero, nil
		}
		return decimal.Zero, pkgerrors.Validation("overtime_hours", "debe estar entre 0 y 24")
	}

	// storage is numeric(5,2)
	return d.Round(2), nil
}
