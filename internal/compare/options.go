package compare

import (
	"github.com/sells-group/tablediff/internal/config"
	"github.com/sells-group/tablediff/internal/match"
	"github.com/sells-group/tablediff/internal/table"
)

// Limits caps the accepted input size. Zero disables a check.
type Limits struct {
	MaxRows    int
	MaxColumns int
}

func (l Limits) check(side string, t *table.Table) error {
	if l.MaxRows > 0 && len(t.Rows) > l.MaxRows {
		return &CapacityError{Side: side, Dimension: DimensionRows, Count: len(t.Rows), Limit: l.MaxRows}
	}
	if w := t.Width(); l.MaxColumns > 0 && w > l.MaxColumns {
		return &CapacityError{Side: side, Dimension: DimensionColumns, Count: w, Limit: l.MaxColumns}
	}
	return nil
}

// Options controls one comparison run.
type Options struct {
	Tolerance    bool
	Threshold    float64
	KeyColumns   []string
	Exclude      []string
	Limits       Limits
	Strategy     string
	ExactMaxRows int

	// Progress, when set, receives matcher progress between batches.
	Progress func(match.Progress)
}

// OptionsFromConfig builds run options from the loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Tolerance:  cfg.Compare.Tolerance,
		Threshold:  cfg.Compare.Threshold,
		KeyColumns: cfg.Compare.KeyColumns,
		Exclude:    cfg.Compare.Exclude,
		Limits: Limits{
			MaxRows:    cfg.Limits.MaxRows,
			MaxColumns: cfg.Limits.MaxColumns,
		},
		Strategy:     cfg.Match.Strategy,
		ExactMaxRows: cfg.Match.ExactMaxRows,
	}
}
