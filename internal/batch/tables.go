package batch

import (
	"github.com/xuri/excelize/v2"

	"github.com/prettymuchbryce/batchmove/internal/report"
	"github.com/prettymuchbryce/batchmove/internal/sink"
)

// Log file kinds. Each is written to "<stem> - <kind>.<format>".
const (
	KindSystemErrors   = "System errors"
	KindAllActions     = "All actions"
	KindActionErrors   = "Action errors"
	KindEventLogErrors = "Event log errors"
)

var actionColumns = []string{
	"Timestamp",
	"SourceFolder",
	"SourceFileName",
	"DestinationFolder",
	"NewFileName",
	"Moved",
	"Error",
}

var systemErrorColumns = []string{"Timestamp", "Message"}

// ActionsTable lays out result records, one row each in processing order.
func ActionsTable(name string, records []report.ResultRecord) sink.Table {
	t := sink.Table{Name: name, Columns: actionColumns}
	for _, rec := range records {
		var errValue any
		if rec.Err != nil {
			errValue = rec.Err
		}
		t.Rows = append(t.Rows, []any{
			rec.Timestamp,
			rec.SourceFolder,
			rec.SourceFileName,
			rec.DestinationFolder,
			rec.NewFileName,
			rec.Moved,
			errValue,
		})
	}
	return t
}

// SystemErrorsTable lays out system errors.
func SystemErrorsTable(name string, errs []report.SystemError) sink.Table {
	t := sink.Table{Name: name, Columns: systemErrorColumns}
	for _, se := range errs {
		t.Rows = append(t.Rows, []any{se.Timestamp, se.Message})
	}
	return t
}

var (
	failedStyle = &excelize.Style{Font: &excelize.Font{Color: "9C0006"}, Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FFC7CE"}}}
	movedStyle  = &excelize.Style{Font: &excelize.Font{Color: "006100"}, Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"C6EFCE"}}}
)

// cellStyle highlights the Moved column and every non-empty error cell.
func cellStyle(column string, value any) *excelize.Style {
	switch column {
	case "Moved":
		if moved, ok := value.(bool); ok && moved {
			return movedStyle
		}
		return failedStyle
	case "Error", "Message":
		if value != nil && value != "" {
			return failedStyle
		}
	}
	return nil
}
