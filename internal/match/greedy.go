package match

import (
	"context"
	"runtime"
)

// Batch sizes shrink as A grows so one batch stays short.
const (
	largeInput  = 5000
	mediumInput = 1000

	largeBatch  = 100
	mediumBatch = 250
	smallBatch  = 1000
)

// BatchSize returns how many rows of A one Run step processes.
func BatchSize(rowsA int) int {
	switch {
	case rowsA > largeInput:
		return largeBatch
	case rowsA > mediumInput:
		return mediumBatch
	default:
		return smallBatch
	}
}

// Greedy pairs each row of A, in order, with the highest scoring unused row
// of B. Ties go to the earliest row of B. It does not look for a globally
// optimal assignment.
type Greedy struct{}

// Match runs the greedy pairing to completion, yielding between batches and
// stopping early when ctx is cancelled.
func (Greedy) Match(ctx context.Context, in Input) ([]RowPair, error) {
	run := NewRun(in)
	for run.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if in.Progress != nil {
			in.Progress(run.Progress())
		}
		runtime.Gosched()
	}
	return run.Pairs(), nil
}

// Run is a resumable greedy pairing. Each call to Next processes one batch
// of A; callers can stop between batches and simply drop the Run.
type Run struct {
	in    Input
	s     scorer
	a, b  []prepared
	usedB []bool
	pairs []RowPair
	next  int
	batch int
	done  bool
}

// NewRun prepares a greedy pairing of in without doing any matching yet.
func NewRun(in Input) *Run {
	s := newScorer(in)
	return &Run{
		in:    in,
		s:     s,
		a:     prepare(in.A, s.width),
		b:     prepare(in.B, s.width),
		usedB: make([]bool, len(in.B)),
		pairs: make([]RowPair, 0, len(in.A)+len(in.B)),
		batch: BatchSize(len(in.A)),
	}
}

// Next processes the next batch and reports whether it did any work.
func (r *Run) Next() bool {
	if r.done {
		return false
	}

	end := min(r.next+r.batch, len(r.a))
	for i := r.next; i < end; i++ {
		r.matchRow(i)
	}
	r.next = end

	if r.next == len(r.a) {
		for j, used := range r.usedB {
			if !used {
				r.pairs = append(r.pairs, onlyB(r.in, j))
			}
		}
		r.done = true
	}
	return true
}

func (r *Run) matchRow(i int) {
	best, bestScore := -1, -1.0
	for j := range r.b {
		if r.usedB[j] {
			continue
		}
		if sc := r.s.score(r.a[i], r.b[j]); sc > bestScore {
			best, bestScore = j, sc
		}
	}

	if best < 0 || !r.s.accept(bestScore) {
		r.pairs = append(r.pairs, onlyA(r.in, i))
		return
	}
	r.usedB[best] = true
	r.pairs = append(r.pairs, r.s.pair(r.in, r.a[i], r.b[best], i, best, bestScore))
}

// Done reports whether every row has been placed in a pair.
func (r *Run) Done() bool {
	return r.done
}

// Progress reports rows of A processed so far.
func (r *Run) Progress() Progress {
	return Progress{Done: r.next, Total: len(r.a)}
}

// Pairs returns the pairs produced so far. Only-in-B pairs are appended
// once all of A has been processed.
func (r *Run) Pairs() []RowPair {
	return r.pairs
}
