package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/sells-group/tablediff/internal/normalize"
	"github.com/sells-group/tablediff/internal/table"
)

// DecodeJSONArray decodes a JSON array streaming, sending each element to a channel.
// Expects input in the form [{...},{...}].
// Both channels are closed when processing completes.
func DecodeJSONArray[T any](ctx context.Context, r io.Reader) (<-chan T, <-chan error) {
	outCh := make(chan T, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(outCh)
		defer close(errCh)

		decoder := json.NewDecoder(r)

		// Expect opening bracket
		tok, err := decoder.Token()
		if err != nil {
			if err == io.EOF {
				return
			}
			errCh <- eris.Wrap(err, "json: read opening token")
			return
		}

		delim, ok := tok.(json.Delim)
		if !ok || delim != '[' {
			errCh <- eris.Errorf("json: expected '[', got %v", tok)
			return
		}

		for decoder.More() {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "json: context cancelled")
				return
			}

			var item T
			if err := decoder.Decode(&item); err != nil {
				errCh <- eris.Wrap(err, "json: decode element")
				return
			}

			select {
			case outCh <- item:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "json: context cancelled")
				return
			}
		}

		// Consume closing bracket
		if _, err := decoder.Token(); err != nil && err != io.EOF {
			errCh <- eris.Wrap(err, "json: read closing token")
		}
	}()

	return outCh, errCh
}

// ReadJSON reads an array of objects into a table. Headers follow the
// order keys are first seen across all objects.
func ReadJSON(ctx context.Context, r io.Reader) (*table.Table, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	objCh, errCh := DecodeJSONArray[json.RawMessage](ctx, r)

	t := &table.Table{}
	index := make(map[string]int)
	var records [][]field
	for raw := range objCh {
		fields, err := objectFields(raw)
		if err != nil {
			return nil, err
		}
		for _, f := range fields {
			if _, ok := index[f.key]; !ok {
				index[f.key] = len(t.Header)
				t.Header = append(t.Header, f.key)
			}
		}
		records = append(records, fields)
	}
	if err := <-errCh; err != nil {
		return nil, err
	}

	for _, fields := range records {
		row := make(table.Row, len(t.Header))
		for _, f := range fields {
			row[index[f.key]] = f.value
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

type field struct {
	key   string
	value table.Cell
}

// objectFields decodes one JSON object keeping its key order.
func objectFields(raw json.RawMessage) ([]field, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, eris.Wrap(err, "json: read object")
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, eris.Errorf("json: expected object, got %v", tok)
	}

	var out []field
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, eris.Wrap(err, "json: read key")
		}
		key, _ := keyTok.(string)

		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, eris.Wrapf(err, "json: decode value of %q", key)
		}
		out = append(out, field{key: key, value: jsonCell(v)})
	}
	return out, nil
}

func jsonCell(v any) table.Cell {
	switch x := v.(type) {
	case nil:
		return table.Empty()
	case json.Number:
		if f, err := x.Float64(); err == nil && normalize.FitsFloat(x.String()) {
			return table.Number(f)
		}
		return table.String(x.String())
	case string:
		return CleanValue(x)
	case bool:
		return table.String(strconv.FormatBool(x))
	default:
		b, _ := json.Marshal(x)
		return table.String(string(b))
	}
}
