package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// stamp is a parsed calendar date with an optional time of day.
type stamp struct {
	year, month, day     int
	hour, minute, second int
	hasTime              bool
}

// String renders the canonical form. A midnight time is dropped.
func (s stamp) String() string {
	d := fmt.Sprintf("%04d-%02d-%02d", s.year, s.month, s.day)
	if !s.hasTime || (s.hour == 0 && s.minute == 0 && s.second == 0) {
		return d
	}
	return fmt.Sprintf("%s %02d:%02d:%02d", d, s.hour, s.minute, s.second)
}

func (s stamp) valid() bool {
	if s.year < MinTextYear || s.year > MaxTextYear {
		return false
	}
	if s.month < 1 || s.month > 12 || s.day < 1 || s.day > daysIn(s.year, s.month) {
		return false
	}
	return s.hour >= 0 && s.hour <= 23 && s.minute >= 0 && s.minute <= 59 && s.second >= 0 && s.second <= 59
}

// dateOrder says how the three date groups of a rule map to a calendar date.
type dateOrder int

const (
	orderYMD     dateOrder = iota // 2025-05-01, 2025/05/01
	orderNumeric                  // 01/05/2025: day first unless the second part exceeds 12
	orderDayName                  // 1-May-2025
	orderNameDay                  // May 1, 2025
)

// dateRule is one textual date format. Groups 1-3 hold the date parts and
// groups 4-7 hold hour, minute, second and the AM/PM marker.
type dateRule struct {
	name  string
	re    *regexp.Regexp
	order dateOrder
}

const (
	timePart = `(?:(?:\s+|T|,\s*)(\d{1,2}):(\d{1,2})(?::(\d{1,2})(?:\.\d+)?)?(?:\s*([AaPp][Mm]))?)?`
	zonePart = `(?:\s*(?:Z|(?:GMT|UTC)?[+-]\d{2}:?\d{2}|GMT|UTC)(?:\s*\([^)]*\))?)?`
	weekday  = `(?:[A-Za-z]{3,9},?\s+)?`
	monthRe  = `([A-Za-z]{3,9})\.?`
)

func rule(name, date string, order dateOrder) dateRule {
	return dateRule{name: name, re: regexp.MustCompile(`^` + date + timePart + zonePart + `$`), order: order}
}

// dateRules are tried in order; the first rule that matches and yields a
// valid calendar date wins.
var dateRules = []dateRule{
	rule("iso", `(\d{4})-(\d{1,2})-(\d{1,2})`, orderYMD),
	rule("ymd-slash", `(\d{4})[/.](\d{1,2})[/.](\d{1,2})`, orderYMD),
	rule("numeric", `(\d{1,2})[/.\-](\d{1,2})[/.\-](\d{4})`, orderNumeric),
	rule("numeric-short-year", `(\d{1,2})[/.\-](\d{1,2})[/.\-](\d{2})`, orderNumeric),
	rule("day-month-name", weekday+`(\d{1,2})[\s\-/.]+`+monthRe+`[\s\-/.,]+(\d{4}|\d{2})`, orderDayName),
	rule("month-name-day", weekday+monthRe+`[\s\-/.]+(\d{1,2})(?:st|nd|rd|th)?,?[\s\-/.]+(\d{4}|\d{2})`, orderNameDay),
}

var monthNames = map[string]int{
	"jan": 1, "january": 1,
	"feb": 2, "february": 2,
	"mar": 3, "march": 3,
	"apr": 4, "april": 4,
	"may": 5,
	"jun": 6, "june": 6,
	"jul": 7, "july": 7,
	"aug": 8, "august": 8,
	"sep": 9, "sept": 9, "september": 9,
	"oct": 10, "october": 10,
	"nov": 11, "november": 11,
	"dec": 12, "december": 12,
}

// ParseDate recognizes a textual date or date-time and returns its
// canonical form.
func ParseDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	for _, r := range dateRules {
		if st, ok := r.apply(s); ok {
			return st.String(), true
		}
	}
	return "", false
}

func (r dateRule) apply(s string) (stamp, bool) {
	m := r.re.FindStringSubmatch(s)
	if m == nil {
		return stamp{}, false
	}

	var st stamp
	switch r.order {
	case orderYMD:
		st.year, st.month, st.day = atoi(m[1]), atoi(m[2]), atoi(m[3])
	case orderNumeric:
		first, second := atoi(m[1]), atoi(m[2])
		if second > 12 && first <= 12 {
			st.month, st.day = first, second
		} else {
			st.day, st.month = first, second
		}
		st.year = expandYear(m[3])
	case orderDayName:
		month, ok := monthNames[strings.ToLower(m[2])]
		if !ok {
			return stamp{}, false
		}
		st.day, st.month, st.year = atoi(m[1]), month, expandYear(m[3])
	case orderNameDay:
		month, ok := monthNames[strings.ToLower(m[1])]
		if !ok {
			return stamp{}, false
		}
		st.month, st.day, st.year = month, atoi(m[2]), expandYear(m[3])
	}

	if m[4] != "" {
		st.hasTime = true
		st.hour, st.minute = atoi(m[4]), atoi(m[5])
		if m[6] != "" {
			st.second = atoi(m[6])
		}
		if m[7] != "" {
			if st.hour < 1 || st.hour > 12 {
				return stamp{}, false
			}
			st.hour = to24(st.hour, strings.EqualFold(m[7], "pm"))
		}
	}

	if !st.valid() {
		return stamp{}, false
	}
	return st, true
}

func to24(hour int, pm bool) int {
	switch {
	case !pm && hour == 12:
		return 0
	case pm && hour != 12:
		return hour + 12
	default:
		return hour
	}
}

func expandYear(s string) int {
	y := atoi(s)
	if len(s) == 2 {
		if y <= TwoDigitYearPivot {
			return 2000 + y
		}
		return 1900 + y
	}
	return y
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
