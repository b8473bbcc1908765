package sink

import (
	"fmt"
	"strconv"
	"time"
)

// TimeLayout is used for timestamps in text-based formats.
const TimeLayout = "2006-01-02 15:04:05"

// text renders a cell for csv, txt and xlsx output.
func text(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		if val.IsZero() {
			return ""
		}
		return val.Format(TimeLayout)
	case error:
		return val.Error()
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// jsonValue converts a cell into a value that encodes to plain JSON.
// Errors become their message so no structured error is ever serialized.
func jsonValue(v any) any {
	switch val := v.(type) {
	case error:
		return val.Error()
	case time.Time:
		if val.IsZero() {
			return nil
		}
		return val.Format(time.RFC3339)
	case fmt.Stringer:
		return val.String()
	default:
		return val
	}
}
