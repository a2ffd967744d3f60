// Package classify makes heuristic decisions about whole columns from
// their header text and sampled values.
package classify

import (
	"regexp"
	"strings"

	"github.com/sells-group/tablediff/internal/normalize"
	"github.com/sells-group/tablediff/internal/table"
)

// Thresholds for IsDateColumn.
const (
	headerDateRatio   = 0.3
	plainDateRatio    = 0.5
	serialDateRatio   = 0.5
	combinedDateRatio = 0.6
)

var dateKeywords = []string{
	"date", "time", "created", "modified", "updated", "birth",
	"дата", "время", "создан", "изменен", "обновлен",
}

var isoTRe = regexp.MustCompile(`\dT\d`)

// IsDateColumn decides whether a column holds dates, so that its values
// get date normalization. It is a heuristic and tolerates misses.
func IsDateColumn(values []table.Cell, header string) bool {
	var total, dates, numbers, serials int
	for _, v := range values {
		if v.IsEmpty() {
			continue
		}
		total++
		switch v.Kind {
		case table.KindTime, table.KindDate:
			dates++
		case table.KindNumber:
			numbers++
			if v.Num >= normalize.SerialMin && v.Num <= normalize.SerialMax {
				serials++
			}
		case table.KindString:
			if looksLikeDate(v.Str) {
				dates++
			}
		}
	}
	if total == 0 {
		return false
	}

	n := float64(total)
	dateRatio := float64(dates) / n
	serialRatio := float64(serials) / n
	combined := float64(dates+serials) / n

	return (headerHas(header, dateKeywords) && combined > headerDateRatio) ||
		dateRatio > plainDateRatio ||
		(serialRatio > serialDateRatio && numbers > 0) ||
		combined > combinedDateRatio
}

// DateColumns classifies every column of t.
func DateColumns(t *table.Table) []bool {
	w := t.Width()
	out := make([]bool, w)
	for i := 0; i < w; i++ {
		var header string
		if i < len(t.Header) {
			header = t.Header[i]
		}
		out[i] = IsDateColumn(t.Column(i), header)
	}
	return out
}

func looksLikeDate(s string) bool {
	if _, ok := normalize.ParseDate(s); ok {
		return true
	}
	return isoTRe.MatchString(s) || strings.Contains(s, "GMT") || strings.Contains(s, "UTC")
}

func headerHas(header string, keywords []string) bool {
	h := strings.ToLower(header)
	for _, k := range keywords {
		if strings.Contains(h, k) {
			return true
		}
	}
	return false
}
