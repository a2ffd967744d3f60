package normalize

import "math"

const secondsPerDay = 24 * 60 * 60

// FromSerial converts a spreadsheet serial date. Serial 1 is 1900-01-01 and
// the fictitious 1900-02-29 (serial 60) is honored, so serials above 59 are
// shifted back one day before the calendar walk.
func FromSerial(v float64) (string, bool) {
	if v < SerialMin || v > SerialMax {
		return "", false
	}

	whole := math.Floor(v)
	frac := v - whole
	days := int(whole)
	if days > 59 {
		days--
	}

	total := int(math.Round(frac * secondsPerDay))
	if total >= secondsPerDay {
		days++
		total -= secondsPerDay
	}

	year, month, day := walkDays(days)
	if year > MaxSerialYear {
		return "", false
	}

	st := stamp{
		year: year, month: month, day: day,
		hour: total / 3600, minute: (total % 3600) / 60, second: total % 60,
		hasTime: total > 0,
	}
	return st.String(), true
}

// walkDays turns a 1-based day count from 1900-01-01 into a calendar date.
func walkDays(days int) (year, month, day int) {
	year = 1900
	for days > 365 {
		diy := 365
		if isLeap(year) {
			diy = 366
		}
		if days <= diy {
			break
		}
		days -= diy
		year++
	}

	month = 1
	for m := 1; m <= 12; m++ {
		dim := daysIn(year, m)
		if days <= dim {
			month = m
			break
		}
		days -= dim
	}
	return year, month, days
}

func isLeap(y int) bool {
	return (y%4 == 0 && y%100 != 0) || y%400 == 0
}

var monthDays = [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

func daysIn(year, month int) int {
	if month == 2 && isLeap(year) {
		return 29
	}
	return monthDays[month-1]
}
