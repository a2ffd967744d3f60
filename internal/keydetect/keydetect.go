// Package keydetect picks the columns most likely to identify a row, so the
// matcher can weight agreement on them above agreement elsewhere.
package keydetect

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/sells-group/tablediff/internal/table"
)

// MaxKeys is the most key columns Detect returns.
const MaxKeys = 3

// Score weights and selection thresholds.
const (
	headerWeight     = 0.4
	uniquenessWeight = 0.4
	positionWeight   = 0.2

	// Extra aggregation keys need this score and confidence.
	extraAggScore      = 8
	extraAggConfidence = 0.7
	// Backfilled keys need this score and uniqueness ratio.
	backfillScore      = 6
	backfillUniqueness = 0.7

	yyyymmShare     = 0.7 // share of values shaped like YYYYMM
	validMonthShare = 0.8 // share of those with a month of 1-12
	patternShare    = 0.6 // share of values matching another aggregation pattern

	yyyymmConfidence  = 0.9
	patternConfidence = 0.7
)

var (
	highKeywords = []string{
		"id", "uid", "key", "primary", "identifier", "код", "номер", "артикул", "pk", "primarykey",
	}
	mediumKeywords = []string{
		"name", "title", "label", "имя", "название", "наименование", "фио", "customer", "client", "клиент",
	}
	lowKeywords = []string{
		"date", "time", "created", "modified", "дата", "время", "создан", "изменен",
	}
	aggregationKeywords = []string{
		"yyyymm", "yyyymmdd", "year_month", "yearmonth", "period", "период", "reporting_period",
		"отчетный_период", "year", "год", "month", "месяц", "quarter", "квартал", "partition", "раздел",
	}

	periodHeaderRe = regexp.MustCompile(`(?i)^y{4}m{2}$|yyyymm|year.*month|месяц.*год|period|период`)
	yyyymmRe       = regexp.MustCompile(`^20\d{4}$`)

	aggregationPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^20\d{2}$`),        // year
		regexp.MustCompile(`^[1-9]$|^1[0-2]$`), // month
		regexp.MustCompile(`^[1-4]$`),          // quarter
		regexp.MustCompile(`^20\d{2}-[01]\d$`), // year-month
		regexp.MustCompile(`^Q[1-4]$`),         // quarter label
	}
)

// Score is the per-column breakdown behind a detection.
type Score struct {
	Index           int     `json:"index" yaml:"index"`
	Header          string  `json:"header" yaml:"header"`
	Total           float64 `json:"score" yaml:"score"`
	HeaderScore     int     `json:"header_score" yaml:"header_score"`
	UniquenessScore int     `json:"uniqueness_score" yaml:"uniqueness_score"`
	PositionScore   int     `json:"position_score" yaml:"position_score"`
	Uniqueness      float64 `json:"uniqueness" yaml:"uniqueness"`
	Aggregation     bool    `json:"aggregation" yaml:"aggregation"`
	Confidence      float64 `json:"confidence" yaml:"confidence"`
}

// Analyze scores every column. rows should hold the data of both inputs
// in the aligned schema.
func Analyze(headers []string, rows []table.Row) []Score {
	scores := make([]Score, len(headers))
	for i, h := range headers {
		values := columnValues(rows, i)
		s := Score{
			Index:         i,
			Header:        h,
			HeaderScore:   headerScore(strings.ToLower(h)),
			PositionScore: max(1, 10-2*i),
			Uniqueness:    uniqueness(values),
		}
		s.Aggregation, s.Confidence = aggregation(values)
		s.UniquenessScore = uniquenessScore(s)
		s.Total = headerWeight*float64(s.HeaderScore) +
			uniquenessWeight*float64(s.UniquenessScore) +
			positionWeight*float64(s.PositionScore)
		scores[i] = s
	}
	return scores
}

// Detect returns between one and MaxKeys column indexes in ascending order.
// It falls back to column 0 when nothing qualifies or there is no data.
func Detect(headers []string, rows []table.Row) []int {
	if len(headers) == 0 || len(rows) == 0 {
		return []int{0}
	}

	return Select(Analyze(headers, rows))
}

// Select picks keys from scores produced by Analyze. The input slice is
// left untouched.
func Select(scores []Score) []int {
	if len(scores) == 0 {
		return []int{0}
	}

	ranked := append([]Score(nil), scores...)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Total > ranked[j].Total })

	var keys []int
	var aggs []Score
	for _, s := range ranked {
		if s.Aggregation {
			aggs = append(aggs, s)
		}
	}
	if len(aggs) > 0 {
		keys = append(keys, aggs[0].Index)
		for i := 1; i < min(MaxKeys, len(aggs)); i++ {
			if aggs[i].Total >= extraAggScore && aggs[i].Confidence >= extraAggConfidence {
				keys = append(keys, aggs[i].Index)
			}
		}
	}
	if len(keys) == 0 {
		keys = append(keys, ranked[0].Index)
	}

	for i := 0; i < min(MaxKeys, len(ranked)) && len(keys) < MaxKeys; i++ {
		s := ranked[i]
		if contains(keys, s.Index) {
			continue
		}
		if s.Total >= backfillScore && s.Uniqueness >= backfillUniqueness {
			keys = append(keys, s.Index)
		}
	}

	sort.Ints(keys)
	return keys
}

// Resolve maps user-supplied key column names onto header indexes,
// ignoring case and surrounding whitespace. Unknown names are returned
// separately.
func Resolve(headers []string, names []string) (keys []int, unknown []string) {
	for _, n := range names {
		want := strings.ToLower(strings.TrimSpace(n))
		if want == "" {
			continue
		}
		found := -1
		for i, h := range headers {
			if strings.ToLower(strings.TrimSpace(h)) == want {
				found = i
				break
			}
		}
		if found < 0 {
			unknown = append(unknown, n)
			continue
		}
		if !contains(keys, found) {
			keys = append(keys, found)
		}
	}
	sort.Ints(keys)
	return keys, unknown
}

func headerScore(h string) int {
	switch {
	case hasAny(h, aggregationKeywords):
		if periodHeaderRe.MatchString(h) {
			return 12
		}
		return 9
	case hasAny(h, highKeywords):
		return 10
	case hasAny(h, mediumKeywords):
		return 6
	case hasAny(h, lowKeywords):
		return 3
	default:
		return 1
	}
}

func uniquenessScore(s Score) int {
	if s.Aggregation {
		base := 7.0
		if s.Uniqueness >= 0.3 {
			base = 9
		}
		return int(math.Floor(base * s.Confidence))
	}
	switch u := s.Uniqueness; {
	case u >= 0.95:
		return 10
	case u >= 0.8:
		return 8
	case u >= 0.6:
		return 6
	case u >= 0.4:
		return 4
	default:
		return 1
	}
}

// aggregation reports whether values look like a period or bucket column
// (YYYYMM, year, month, quarter) and how confident that call is.
func aggregation(values []string) (bool, float64) {
	if len(values) == 0 {
		return false, 0
	}
	n := float64(len(values))

	var agg bool
	var conf float64

	var shaped, validMonth int
	for _, v := range values {
		if !yyyymmRe.MatchString(v) {
			continue
		}
		shaped++
		if num, err := strconv.Atoi(v); err == nil {
			if m := num % 100; m >= 1 && m <= 12 {
				validMonth++
			}
		}
	}
	if float64(shaped) > n*yyyymmShare && float64(validMonth) > float64(shaped)*validMonthShare {
		agg, conf = true, yyyymmConfidence
	}

	for _, re := range aggregationPatterns {
		var hits int
		for _, v := range values {
			if re.MatchString(v) {
				hits++
			}
		}
		if float64(hits) > n*patternShare {
			agg, conf = true, math.Max(conf, patternConfidence)
			break
		}
	}
	return agg, conf
}

func columnValues(rows []table.Row, col int) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		if v := strings.TrimSpace(r.At(col).Text()); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func uniqueness(values []string) float64 {
	if len(values) == 0 {
		return 0
	}
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}
	return float64(len(seen)) / float64(len(values))
}

func hasAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func contains(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
