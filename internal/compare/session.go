// Package compare runs a full comparison of two tables and keeps the
// resulting session.
package compare

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/tablediff/internal/align"
	"github.com/sells-group/tablediff/internal/classify"
	"github.com/sells-group/tablediff/internal/keydetect"
	"github.com/sells-group/tablediff/internal/match"
	"github.com/sells-group/tablediff/internal/normalize"
	"github.com/sells-group/tablediff/internal/table"
	"github.com/sells-group/tablediff/internal/tolerance"
)

// Warning codes attached to a session.
const (
	WarnPositional       = "positional_alignment"
	WarnUnknownKeyColumn = "unknown_key_column"
)

// Warning is a non-fatal condition worth showing next to the result.
type Warning struct {
	Code    string `json:"code" yaml:"code"`
	Message string `json:"message" yaml:"message"`
}

// Session is the state of one loaded pair of tables and, once compared,
// its result. A new comparison produces a new Session; sessions are never
// mutated after Run returns them.
type Session struct {
	ID        string    `json:"id" yaml:"id"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`

	A *table.Table `json:"-" yaml:"-"`
	B *table.Table `json:"-" yaml:"-"`

	Alignment   align.Alignment   `json:"alignment" yaml:"alignment"`
	Schema      align.Schema      `json:"schema" yaml:"schema"`
	KeyColumns  []int             `json:"key_columns" yaml:"key_columns"`
	KeyScores   []keydetect.Score `json:"key_scores,omitempty" yaml:"key_scores,omitempty"`
	DateColumns []bool            `json:"date_columns" yaml:"date_columns"`
	Tolerance   bool              `json:"tolerance" yaml:"tolerance"`
	Strategy    string            `json:"strategy" yaml:"strategy"`
	Pairs       []match.RowPair   `json:"pairs" yaml:"pairs"`
	Summary     Summary           `json:"summary" yaml:"summary"`
	Warnings    []Warning         `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Duration    time.Duration     `json:"duration" yaml:"duration"`
}

// NewSession starts a session for a freshly loaded pair of tables.
func NewSession(a, b *table.Table) *Session {
	return &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		A:         a,
		B:         b,
	}
}

// Compared reports whether the session holds a comparison result.
func (s *Session) Compared() bool {
	return s.Schema.Width() > 0
}

// KeyNames returns the headers of the key columns.
func (s *Session) KeyNames() []string {
	out := make([]string, 0, len(s.KeyColumns))
	for _, k := range s.KeyColumns {
		if k >= 0 && k < len(s.Schema.Headers) {
			out = append(out, s.Schema.Headers[k])
		}
	}
	return out
}

func (s *Session) warn(code, format string, args ...any) {
	w := Warning{Code: code, Message: fmt.Sprintf(format, args...)}
	s.Warnings = append(s.Warnings, w)
	zap.L().Warn("compare: "+w.Message, zap.String("session", s.ID), zap.String("code", code))
}

// Run compares a and b. The inputs are expected to have been through
// table.Prepare and are not modified.
func Run(ctx context.Context, a, b *table.Table, opts Options) (*Session, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := opts.Limits.check("A", a); err != nil {
		return nil, err
	}
	if err := opts.Limits.check("B", b); err != nil {
		return nil, err
	}

	matcher, err := match.New(opts.Strategy, opts.ExactMaxRows)
	if err != nil {
		return nil, &ConfigError{Err: err}
	}

	s := NewSession(a.Clone(), b.Clone())
	s.Tolerance = opts.Tolerance
	s.Strategy = opts.Strategy
	if s.Strategy == "" {
		s.Strategy = match.StrategyGreedy
	}
	log := zap.L().With(zap.String("session", s.ID))

	s.A.Pad()
	s.B.Pad()
	datesA := classify.DateColumns(s.A)
	datesB := classify.DateColumns(s.B)
	normalize.Table(s.A, datesA)
	normalize.Table(s.B, datesB)

	s.Alignment = align.Columns(s.A.Header, s.B.Header)
	if s.Alignment.Positional() && (s.A.Width() > 0 || s.B.Width() > 0) {
		s.warn(WarnPositional, "no column names match, comparing columns by position")
	}
	s.Schema = s.Alignment.Schema(s.A.Header, s.B.Header).Exclude(opts.Exclude)
	if s.Schema.Width() == 0 {
		return nil, &ConfigError{Err: ErrNoColumns}
	}
	s.DateColumns = schemaDates(s.Schema, datesA, datesB)

	rowsA := s.Schema.ProjectRowsA(s.A.Rows)
	rowsB := s.Schema.ProjectRowsB(s.B.Rows)

	s.KeyColumns = s.resolveKeys(opts.KeyColumns, rowsA, rowsB)
	log.Debug("compare: prepared",
		zap.Int("rows_a", len(rowsA)),
		zap.Int("rows_b", len(rowsB)),
		zap.Int("columns", s.Schema.Width()),
		zap.Strings("keys", s.KeyNames()),
	)

	every := rate.Sometimes{Interval: time.Second}
	in := match.Input{
		A:           rowsA,
		B:           rowsB,
		KeyColumns:  s.KeyColumns,
		ColumnCount: s.Schema.Width(),
		Tolerance:   opts.Tolerance,
		Comparator:  tolerance.Comparator{Threshold: opts.Threshold},
		Progress: func(p match.Progress) {
			every.Do(func() {
				log.Debug("compare: matching", zap.Int("done", p.Done), zap.Int("total", p.Total))
			})
			if opts.Progress != nil {
				opts.Progress(p)
			}
		},
	}

	pairs, err := matcher.Match(ctx, in)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if eris.Is(err, match.ErrTooLarge) {
			return nil, &ConfigError{Err: err}
		}
		return nil, eris.Wrap(err, "compare: match rows")
	}

	s.Pairs = pairs
	s.Summary = Summarize(pairs, len(rowsA), len(rowsB), opts.Tolerance)
	s.Duration = time.Since(start)

	log.Info("compare: finished",
		zap.String("strategy", s.Strategy),
		zap.Int("identical", s.Summary.Identical),
		zap.Int("tolerance", s.Summary.Tolerance),
		zap.Int("different", s.Summary.Different),
		zap.Int("only_a", s.Summary.OnlyInA),
		zap.Int("only_b", s.Summary.OnlyInB),
		zap.Float64("similarity", s.Summary.Similarity),
		zap.Duration("elapsed", s.Duration),
	)
	return s, nil
}

// resolveKeys applies user-chosen key columns, falling back to detection
// when none of them exist in the schema.
func (s *Session) resolveKeys(names []string, rowsA, rowsB []table.Row) []int {
	if len(names) > 0 {
		keys, unknown := keydetect.Resolve(s.Schema.Headers, names)
		if len(unknown) > 0 {
			s.warn(WarnUnknownKeyColumn, "unknown key columns: %s", strings.Join(unknown, ", "))
		}
		if len(keys) > 0 {
			return keys
		}
	}

	combined := make([]table.Row, 0, len(rowsA)+len(rowsB))
	combined = append(combined, rowsA...)
	combined = append(combined, rowsB...)
	if len(combined) == 0 {
		return []int{0}
	}
	s.KeyScores = keydetect.Analyze(s.Schema.Headers, combined)
	return keydetect.Select(s.KeyScores)
}

// schemaDates maps per-table date flags onto schema columns. A column
// counts as a date column when either side classified it as one.
func schemaDates(schema align.Schema, datesA, datesB []bool) []bool {
	out := make([]bool, schema.Width())
	for i := range out {
		if j := schema.A[i]; j >= 0 && j < len(datesA) && datesA[j] {
			out[i] = true
		}
		if j := schema.B[i]; j >= 0 && j < len(datesB) && datesB[j] {
			out[i] = true
		}
	}
	return out
}
