//go:build !windows

package eventlog

import (
	"strconv"

	"github.com/coreos/go-systemd/v22/journal"
	"gitlab.com/tozd/go/errors"
)

// JournalSink writes events to the systemd journal. The channel name is
// carried as a journal field since the journal has no channels of its own.
type JournalSink struct{}

// NewSystemSink returns the platform event sink.
func NewSystemSink() Sink {
	return JournalSink{}
}

// EnsureChannel checks that the journal is reachable.
func (JournalSink) EnsureChannel(name, source string) error {
	if !journal.Enabled() {
		return errors.New("systemd journal is not available")
	}
	return nil
}

// Publish sends one entry to the journal.
func (JournalSink) Publish(name, source string, severity Severity, code int, message string) error {
	return journal.Send(message, journalPriority(severity), map[string]string{
		"SYSLOG_IDENTIFIER": source,
		"EVENT_CHANNEL":     name,
		"EVENT_ID":          strconv.Itoa(code),
		"EVENT_SEVERITY":    severity.String(),
	})
}

func journalPriority(s Severity) journal.Priority {
	switch s {
	case Error:
		return journal.PriErr
	case Warning:
		return journal.PriWarning
	default:
		return journal.PriInfo
	}
}
