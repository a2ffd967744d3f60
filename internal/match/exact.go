package match

import (
	"context"
	"math"

	"github.com/rotisserie/eris"
)

// Exact pairs rows by maximizing the total score over all accepted pairs
// (Hungarian assignment). Pairs whose score does not clear the acceptance
// threshold are left unmatched. Cost grows with the cube of the row count,
// so inputs above MaxRows per side are refused.
type Exact struct {
	MaxRows int
}

// Match computes the optimal assignment.
func (e Exact) Match(ctx context.Context, in Input) ([]RowPair, error) {
	if e.MaxRows > 0 && (len(in.A) > e.MaxRows || len(in.B) > e.MaxRows) {
		return nil, eris.Wrapf(ErrTooLarge, "exact strategy allows %d rows per side, got %d and %d",
			e.MaxRows, len(in.A), len(in.B))
	}

	s := newScorer(in)
	pa, pb := prepare(in.A, s.width), prepare(in.B, s.width)

	// weight[i][j] is the score of an acceptable pair, else 0.
	weight := make([][]float64, len(pa))
	for i := range pa {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		weight[i] = make([]float64, len(pb))
		for j := range pb {
			if sc := s.score(pa[i], pb[j]); s.accept(sc) {
				weight[i][j] = sc
			}
		}
	}

	assignA, err := assign(ctx, weight, len(pa), len(pb), in.Progress)
	if err != nil {
		return nil, err
	}

	usedB := make([]bool, len(pb))
	pairs := make([]RowPair, 0, len(pa)+len(pb))
	for i := range pa {
		j := assignA[i]
		if j < 0 || weight[i][j] <= 0 {
			pairs = append(pairs, onlyA(in, i))
			continue
		}
		usedB[j] = true
		pairs = append(pairs, s.pair(in, pa[i], pb[j], i, j, weight[i][j]))
	}
	for j, used := range usedB {
		if !used {
			pairs = append(pairs, onlyB(in, j))
		}
	}
	return pairs, nil
}

// assign returns, for every row i, the column it is assigned to or -1.
// It runs the Hungarian method on whichever orientation has fewer rows.
func assign(ctx context.Context, weight [][]float64, n, m int, progress func(Progress)) ([]int, error) {
	out := make([]int, n)
	for i := range out {
		out[i] = -1
	}
	if n == 0 || m == 0 {
		return out, nil
	}

	if n <= m {
		cost := func(i, j int) float64 { return -weight[i][j] }
		rowTo, err := hungarian(ctx, n, m, cost, progress)
		if err != nil {
			return nil, err
		}
		copy(out, rowTo)
		return out, nil
	}

	cost := func(j, i int) float64 { return -weight[i][j] }
	colTo, err := hungarian(ctx, m, n, cost, progress)
	if err != nil {
		return nil, err
	}
	for j, i := range colTo {
		if i >= 0 {
			out[i] = j
		}
	}
	return out, nil
}

// hungarian solves the rectangular assignment problem for n <= m with the
// potentials method, minimizing the summed cost. The result maps each row
// to its column.
func hungarian(ctx context.Context, n, m int, cost func(i, j int) float64, progress func(Progress)) ([]int, error) {
	inf := math.Inf(1)
	u := make([]float64, n+1)
	v := make([]float64, m+1)
	p := make([]int, m+1)
	way := make([]int, m+1)
	minv := make([]float64, m+1)
	used := make([]bool, m+1)

	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		p[0] = i
		j0 := 0
		for j := range minv {
			minv[j] = inf
			used[j] = false
		}
		for {
			used[j0] = true
			i0, delta, j1 := p[j0], inf, 0
			for j := 1; j <= m; j++ {
				if used[j] {
					continue
				}
				cur := cost(i0-1, j-1) - u[i0] - v[j]
				if cur < minv[j] {
					minv[j], way[j] = cur, j0
				}
				if minv[j] < delta {
					delta, j1 = minv[j], j
				}
			}
			for j := 0; j <= m; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}
			j0 = j1
			if p[j0] == 0 {
				break
			}
		}
		for j0 != 0 {
			j1 := way[j0]
			p[j0] = p[j1]
			j0 = j1
		}

		if progress != nil {
			progress(Progress{Done: i, Total: n})
		}
	}

	out := make([]int, n)
	for i := range out {
		out[i] = -1
	}
	for j := 1; j <= m; j++ {
		if p[j] != 0 {
			out[p[j]-1] = j - 1
		}
	}
	return out, nil
}
