package sink

import (
	"encoding/csv"
	"os"

	"github.com/spf13/afero"
)

// csvDelimiter separates fields in csv output.
const csvDelimiter = ';'

// writeCSV writes a semicolon-delimited file with a header row. In append
// mode rows are added to an existing non-empty file without a second header.
func writeCSV(w *Writer, path string, t Table, appendMode bool) error {
	writeHeader := true
	flag := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if appendMode {
		if info, err := w.fs.Stat(path); err == nil && info.Size() > 0 {
			writeHeader = false
			flag = os.O_WRONLY | os.O_APPEND
		}
	}

	f, err := w.fs.OpenFile(path, flag, 0644)
	if err != nil {
		return err
	}
	if err := encodeCSV(f, t, writeHeader); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func encodeCSV(f afero.File, t Table, writeHeader bool) error {
	cw := csv.NewWriter(f)
	cw.Comma = csvDelimiter

	if writeHeader {
		if err := cw.Write(t.Columns); err != nil {
			return err
		}
	}

	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i := range record {
			record[i] = ""
			if i < len(row) {
				record[i] = text(row[i])
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
