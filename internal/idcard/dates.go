package idcard

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	datePattern = regexp.MustCompile(`\d{1,2}[/-]\d{1,2}[/-]\d{2,4}`)
	dateExact   = regexp.MustCompile(`^\d{1,2}[/-]\d{1,2}[/-]\d{2,4}$`)
)

// FindDates returns every date-shaped substring of text in order of
// appearance. No calendar validation happens here.
func FindDates(text string) []string {
	return datePattern.FindAllString(text, -1)
}

func firstDate(text string) (string, bool) {
	d := datePattern.FindString(text)
	return d, d != ""
}

// uniqueDates keeps the first occurrence of each raw date string.
func uniqueDates(text string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, d := range FindDates(text) {
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	return out
}

func splitDate(raw string) (day, month, year string, ok bool) {
	if !dateExact.MatchString(raw) {
		return "", "", "", false
	}
	parts := strings.FieldsFunc(raw, func(r rune) bool { return r == '/' || r == '-' })
	if len(parts) != 3 {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}

// dateYear parses the year of a located date for ranking. Two-digit years
// are read as 20xx, like ToISO does.
func dateYear(raw string) (int, bool) {
	_, _, year, ok := splitDate(raw)
	if !ok {
		return 0, false
	}
	if len(year) == 2 {
		year = "20" + year
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return 0, false
	}
	return y, true
}

// ToISO converts a located d/m/y date to YYYY-MM-DD. It returns "" unless the
// date exists on the calendar.
func ToISO(raw string) string {
	ds, ms, ys, ok := splitDate(raw)
	if !ok {
		return ""
	}
	switch len(ys) {
	case 2:
		ys = "20" + ys
	case 3:
		return ""
	}

	day, _ := strconv.Atoi(ds)
	month, _ := strconv.Atoi(ms)
	year, _ := strconv.Atoi(ys)
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return ""
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}
