package quota

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MonthKey returns the UTC "YYYY-MM" prefix of t's ISO-8601 form
func MonthKey(t time.Time) string {
	return t.UTC().Format(time.RFC3339)[:7]
}

// NextMonth returns the "YYYY-MM" key following month; December rolls to
// January of the next year.
func NextMonth(month string) (string, error) {
	year, mon, err := parseMonth(month)
	if err != nil {
		return "", err
	}
	if mon == 12 {
		return fmt.Sprintf("%04d-01", year+1), nil
	}
	return fmt.Sprintf("%04d-%02d", year, mon+1), nil
}

// MonthWindow returns the half-open UTC window [start, end) of the month containing t
func MonthWindow(t time.Time) (start, end time.Time) {
	month := MonthKey(t)
	next, _ := NextMonth(month)
	start, _ = time.Parse(time.RFC3339, month+"-01T00:00:00Z")
	end, _ = time.Parse(time.RFC3339, next+"-01T00:00:00Z")
	return start, end
}

func parseMonth(month string) (int, int, error) {
	parts := strings.Split(month, "-")
	if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) != 2 {
		return 0, 0, fmt.Errorf("invalid month %q, want YYYY-MM", month)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month %q: %w", month, err)
	}
	mon, err := strconv.Atoi(parts[1])
	if err != nil || mon < 1 || mon > 12 {
		return 0, 0, fmt.Errorf("invalid month %q", month)
	}
	return year, mon, nil
}
