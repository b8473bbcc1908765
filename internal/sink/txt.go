package sink

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// writeTXT writes one "Column: value" block per row, blocks separated by a
// blank line. Append mode appends to the file as is.
func writeTXT(w *Writer, path string, t Table, appendMode bool) error {
	flag := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if appendMode {
		flag = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	}

	f, err := w.fs.OpenFile(path, flag, 0644)
	if err != nil {
		return err
	}

	width := 0
	for _, col := range t.Columns {
		if len(col) > width {
			width = len(col)
		}
	}

	bw := bufio.NewWriter(f)
	for _, row := range t.Rows {
		for i, col := range t.Columns {
			var cell any
			if i < len(row) {
				cell = row[i]
			}
			line := fmt.Sprintf("%-*s %s", width+1, col+":", text(cell))
			bw.WriteString(strings.TrimRight(line, " ") + "\n")
		}
		bw.WriteString("\n")
	}

	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
