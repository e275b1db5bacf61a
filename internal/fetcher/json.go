package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
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

		if _, err := decoder.Token(); err != nil {
			errCh <- eris.Wrap(err, "json: read closing token")
		}
	}()

	return outCh, errCh
}

// ReadJSONRecords reads an array of flat objects into rows. The header is the
// union of keys in first-seen order. Strings are taken verbatim, null becomes
// an empty cell, and any other value keeps its JSON text.
func ReadJSONRecords(ctx context.Context, r io.Reader) ([][]string, error) {
	itemCh, errCh := DecodeJSONArray[json.RawMessage](ctx, r)

	var header []string
	colIdx := make(map[string]int)
	var records []map[string]string

	for item := range itemCh {
		keys, values, err := decodeObject(item)
		if err != nil {
			// Drain so the decoder goroutine can exit.
			for range itemCh {
			}
			return nil, err
		}
		rec := make(map[string]string, len(keys))
		for i, k := range keys {
			if _, ok := colIdx[k]; !ok {
				colIdx[k] = len(header)
				header = append(header, k)
			}
			rec[k] = values[i]
		}
		records = append(records, rec)
	}
	for err := range errCh {
		if err != nil {
			return nil, err
		}
	}

	if len(header) == 0 {
		return nil, nil
	}

	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, header)
	for _, rec := range records {
		row := make([]string, len(header))
		for k, v := range rec {
			row[colIdx[k]] = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// decodeObject returns an object's keys in document order with their values
// rendered as text.
func decodeObject(raw json.RawMessage) ([]string, []string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, eris.Wrap(err, "json: read object")
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, eris.Errorf("json: expected object, got %s", string(raw))
	}

	var keys, values []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, eris.Wrap(err, "json: read key")
		}
		key, _ := tok.(string)

		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, nil, eris.Wrapf(err, "json: decode value of %q", key)
		}
		keys = append(keys, key)
		values = append(values, renderJSONValue(v))
	}
	return keys, values, nil
}

func renderJSONValue(v json.RawMessage) string {
	trimmed := bytes.TrimSpace(v)
	switch {
	case bytes.Equal(trimmed, []byte("null")):
		return ""
	case len(trimmed) > 0 && trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	}
	return string(trimmed)
}
