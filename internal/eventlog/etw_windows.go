//go:build windows

package eventlog

import (
	"github.com/Microsoft/go-winio/pkg/etw"
)

// ETWSink writes events through an ETW provider per channel.
type ETWSink struct {
	providers map[string]*etw.Provider
}

// NewSystemSink returns the platform event sink.
func NewSystemSink() Sink {
	return &ETWSink{providers: map[string]*etw.Provider{}}
}

// EnsureChannel registers the provider for the channel if it does not exist yet.
func (s *ETWSink) EnsureChannel(name, source string) error {
	if _, ok := s.providers[name]; ok {
		return nil
	}
	p, err := etw.NewProvider(name, nil)
	if err != nil {
		return err
	}
	s.providers[name] = p
	return nil
}

// Publish writes one event named after the source.
func (s *ETWSink) Publish(name, source string, severity Severity, code int, message string) error {
	if err := s.EnsureChannel(name, source); err != nil {
		return err
	}

	return s.providers[name].WriteEvent(source,
		[]etw.EventOpt{etw.WithLevel(etwLevel(severity))},
		[]etw.FieldOpt{
			etw.Uint16Field("EventID", uint16(code)),
			etw.StringField("Severity", severity.String()),
			etw.StringField("Message", message),
		},
	)
}

// Close unregisters all providers.
func (s *ETWSink) Close() error {
	var firstErr error
	for name, p := range s.providers {
		if err := p.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(s.providers, name)
	}
	return firstErr
}

func etwLevel(s Severity) etw.Level {
	switch s {
	case Error:
		return etw.LevelError
	case Warning:
		return etw.LevelWarning
	default:
		return etw.LevelInfo
	}
}
