package sink

import (
	"bytes"
	"encoding/json"

	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"
)

// writeJSON writes an indented array of objects whose keys follow the table's
// column order. In append mode the existing array is read back and the new
// records are added after it before the file is rewritten.
func writeJSON(w *Writer, path string, t Table, appendMode bool) error {
	var records []json.RawMessage

	if appendMode {
		existing, err := readJSONRecords(w.fs, path)
		if err != nil {
			return err
		}
		records = existing
	}

	for _, row := range t.Rows {
		rec, err := encodeObject(t.Columns, row)
		if err != nil {
			return err
		}
		records = append(records, rec)
	}

	data, err := encodeArray(records)
	if err != nil {
		return err
	}
	return afero.WriteFile(w.fs, path, data, 0644)
}

// readJSONRecords returns the compacted elements of the array stored at path.
// A missing or empty file yields no records.
func readJSONRecords(fs afero.Fs, path string) ([]json.RawMessage, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if exists, _ := afero.Exists(fs, path); !exists {
			return nil, nil
		}
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Errorf("existing file is not a JSON array: %w", err)
	}

	out := make([]json.RawMessage, 0, len(raw))
	for _, r := range raw {
		var buf bytes.Buffer
		if err := json.Compact(&buf, r); err != nil {
			return nil, err
		}
		out = append(out, json.RawMessage(buf.Bytes()))
	}
	return out, nil
}

// encodeObject encodes one row as a compact JSON object in column order.
func encodeObject(columns []string, row []any) (json.RawMessage, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshal(col)
		if err != nil {
			return nil, err
		}
		var cell any
		if i < len(row) {
			cell = jsonValue(row[i])
		}
		val, err := marshal(cell)
		if err != nil {
			return nil, errors.Errorf("column %s: %w", col, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// marshal encodes v without escaping <, > and &.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// encodeArray joins records into an indented JSON array ending in a newline.
func encodeArray(records []json.RawMessage) ([]byte, error) {
	var compact bytes.Buffer
	compact.WriteByte('[')
	for i, r := range records {
		if i > 0 {
			compact.WriteByte(',')
		}
		compact.Write(r)
	}
	compact.WriteByte(']')

	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", "  "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}
