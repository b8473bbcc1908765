// Package eventlog projects a run report into leveled events and forwards
// them to the operating system's structured event sink.
package eventlog

import (
	"fmt"
	"path/filepath"

	"github.com/prettymuchbryce/batchmove/internal/report"

	"gitlab.com/tozd/go/errors"
)

// Severity is the level of an event.
type Severity int

const (
	Information Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Information:
		return "Information"
	case Warning:
		return "Warning"
	case Error:
		return "Error"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// Event codes.
const (
	CodeSuccess  = 1
	CodeError    = 2
	CodeWarning  = 3
	CodeProgress = 4
	CodeStart    = 100
	CodeEnd      = 199
)

// Entry is one event to publish.
type Entry struct {
	Severity Severity
	Code     int
	Message  string
}

// Sink is the structured-event port.
type Sink interface {
	// EnsureChannel creates the channel and registers source if needed.
	EnsureChannel(name, source string) error
	Publish(name, source string, severity Severity, code int, message string) error
}

// Adapter publishes entries through a Sink, ensuring each channel/source
// pair once before its first write.
type Adapter struct {
	sink    Sink
	ensured map[string]bool
}

// NewAdapter creates an Adapter over sink.
func NewAdapter(sink Sink) *Adapter {
	return &Adapter{sink: sink, ensured: map[string]bool{}}
}

// Publish writes entries in order and stops at the first failure.
func (a *Adapter) Publish(source, channel string, entries []Entry) error {
	key := channel + "\x00" + source
	if !a.ensured[key] {
		if err := a.sink.EnsureChannel(channel, source); err != nil {
			return errors.Errorf("failed to create event log %q for source %q: %w", channel, source, err)
		}
		a.ensured[key] = true
	}

	for _, e := range entries {
		if err := a.sink.Publish(channel, source, e.Severity, e.Code, e.Message); err != nil {
			return errors.Errorf("failed to write to event log %q: %w", channel, err)
		}
	}
	return nil
}

// Entries projects the report into the event sequence: start, summary,
// one entry per result, one Error entry per system error, and a closing
// end entry that is always last.
func Entries(r *report.RunReport) []Entry {
	entries := []Entry{
		{Information, CodeStart, fmt.Sprintf("%s started (run %s)", r.ScriptName, r.ID)},
		{Information, CodeProgress, fmt.Sprintf("%d file(s) processed, %d moved, %d failed",
			len(r.Results), r.MovedCount(), len(r.ActionErrors()))},
	}

	for _, rec := range r.Results {
		src := filepath.Join(rec.SourceFolder, rec.SourceFileName)
		if rec.Failed() {
			entries = append(entries, Entry{Warning, CodeWarning, rec.Err.Error()})
			continue
		}
		entries = append(entries, Entry{Information, CodeSuccess,
			fmt.Sprintf("moved %s to %s", src, filepath.Join(rec.DestinationFolder, rec.NewFileName))})
	}

	for _, se := range r.SystemErrors {
		entries = append(entries, Entry{Error, CodeError, se.Message})
	}

	return append(entries, Entry{Information, CodeEnd, fmt.Sprintf("%s batch ended", r.ScriptName)})
}
