package match

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQL pairs rows with joins in an in-memory SQLite database: first rows
// whose every column agrees, then rows whose key columns agree. Duplicate
// rows pair up in file order. Whatever is left stays single-sided. It is
// faster than Greedy on large inputs but never pairs rows that differ on a
// key column.
type SQL struct{}

const sqlSchema = `
CREATE TABLE rows_a (idx INTEGER PRIMARY KEY, row_key TEXT NOT NULL, full_key TEXT NOT NULL);
CREATE TABLE rows_b (idx INTEGER PRIMARY KEY, row_key TEXT NOT NULL, full_key TEXT NOT NULL);
CREATE TABLE paired_a (idx INTEGER PRIMARY KEY);
CREATE TABLE paired_b (idx INTEGER PRIMARY KEY);
CREATE INDEX idx_rows_a_full ON rows_a(full_key);
CREATE INDEX idx_rows_b_full ON rows_b(full_key);
CREATE INDEX idx_rows_a_key ON rows_a(row_key);
CREATE INDEX idx_rows_b_key ON rows_b(row_key);
`

// joinQuery pairs the n-th unpaired A row with the n-th unpaired B row that
// shares the same value of %[1]s.
const joinQuery = `
WITH ra AS (
	SELECT idx, %[1]s AS k, ROW_NUMBER() OVER (PARTITION BY %[1]s ORDER BY idx) AS rn
	FROM rows_a WHERE idx NOT IN (SELECT idx FROM paired_a)
), rb AS (
	SELECT idx, %[1]s AS k, ROW_NUMBER() OVER (PARTITION BY %[1]s ORDER BY idx) AS rn
	FROM rows_b WHERE idx NOT IN (SELECT idx FROM paired_b)
)
SELECT ra.idx, rb.idx FROM ra JOIN rb ON ra.k = rb.k AND ra.rn = rb.rn
ORDER BY ra.idx`

const fieldSep = "\x1f"

// Match loads both sides into SQLite and pairs them with two join passes.
func (SQL) Match(ctx context.Context, in Input) ([]RowPair, error) {
	s := newScorer(in)
	pa, pb := prepare(in.A, s.width), prepare(in.B, s.width)

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	defer db.Close()
	// Each connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqlSchema); err != nil {
		return nil, eris.Wrap(err, "sqlite: create schema")
	}
	keys := validKeys(in.KeyColumns, s.width)
	if err := loadRows(ctx, db, "rows_a", pa, keys); err != nil {
		return nil, err
	}
	if err := loadRows(ctx, db, "rows_b", pb, keys); err != nil {
		return nil, err
	}

	matchOf := make([]int, len(pa))
	for i := range matchOf {
		matchOf[i] = -1
	}
	for pass, column := range []string{"full_key", "row_key"} {
		found, err := joinPass(ctx, db, column)
		if err != nil {
			return nil, err
		}
		for _, p := range found {
			matchOf[p[0]] = p[1]
		}
		if in.Progress != nil {
			in.Progress(Progress{Done: pass + 1, Total: 2})
		}
	}

	usedB := make([]bool, len(pb))
	pairs := make([]RowPair, 0, len(pa)+len(pb))
	for i, j := range matchOf {
		if j < 0 {
			pairs = append(pairs, onlyA(in, i))
			continue
		}
		usedB[j] = true
		pairs = append(pairs, s.pair(in, pa[i], pb[j], i, j, s.score(pa[i], pb[j])))
	}
	for j, used := range usedB {
		if !used {
			pairs = append(pairs, onlyB(in, j))
		}
	}
	return pairs, nil
}

func loadRows(ctx context.Context, db *sql.DB, tableName string, rows []prepared, keys []int) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO "+tableName+" (idx, row_key, full_key) VALUES (?, ?, ?)")
	if err != nil {
		return eris.Wrapf(err, "sqlite: prepare insert %s", tableName)
	}
	defer stmt.Close()

	keyParts := make([]string, len(keys))
	for i, r := range rows {
		for k, c := range keys {
			keyParts[k] = r.upper[c]
		}
		if _, err := stmt.ExecContext(ctx, i, strings.Join(keyParts, fieldSep), strings.Join(r.upper, fieldSep)); err != nil {
			return eris.Wrapf(err, "sqlite: insert %s row %d", tableName, i)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit")
}

// joinPass runs one join and records its pairs so later passes skip them.
func joinPass(ctx context.Context, db *sql.DB, column string) ([][2]int, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(joinQuery, column))
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: join on %s", column)
	}
	defer rows.Close()

	var found [][2]int
	for rows.Next() {
		var p [2]int
		if err := rows.Scan(&p[0], &p[1]); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan pair")
		}
		found = append(found, p)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate pairs")
	}
	rows.Close()

	for _, p := range found {
		if _, err := db.ExecContext(ctx, "INSERT INTO paired_a (idx) VALUES (?)", p[0]); err != nil {
			return nil, eris.Wrap(err, "sqlite: mark paired a")
		}
		if _, err := db.ExecContext(ctx, "INSERT INTO paired_b (idx) VALUES (?)", p[1]); err != nil {
			return nil, eris.Wrap(err, "sqlite: mark paired b")
		}
	}
	return found, nil
}
