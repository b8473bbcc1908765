// Package notify decides whether a run summary is mailed and builds the message.
package notify

import (
	"strings"

	"gitlab.com/tozd/go/errors"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Mode selects when a notification is sent.
type Mode string

const (
	Never           Mode = "Never"
	Always          Mode = "Always"
	OnError         Mode = "OnError"
	OnErrorOrAction Mode = "OnErrorOrAction"
)

// ErrUnknownMode is returned for a mode outside the known set.
var ErrUnknownMode = errors.New("unknown notification mode")

// ParseMode validates a configured mode.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case Never, Always, OnError, OnErrorOrAction:
		return m, nil
	}
	return "", errors.Errorf("%w %q, expected one of Never, Always, OnError, OnErrorOrAction", ErrUnknownMode, s)
}

// Priority is the mail priority.
type Priority string

const (
	PriorityNormal Priority = "Normal"
	PriorityHigh   Priority = "High"
)

// Policy is the user-facing notification configuration.
type Policy struct {
	When    Mode
	Subject string
	Body    string
}

// Decision is the outcome of evaluating a Policy against a run.
type Decision struct {
	ShouldSend  bool
	Subject     string
	Body        string
	Attachments []string
	Priority    Priority
}

// Decide evaluates the policy against the counts of a run.
// errorCount is the number of failed results.
func Decide(policy Policy, resultCount, errorCount, systemErrorCount int) (Decision, error) {
	hasErrors := errorCount > 0 || systemErrorCount > 0

	var send bool
	switch policy.When {
	case Never:
		send = false
	case Always:
		send = true
	case OnError:
		send = hasErrors
	case OnErrorOrAction:
		send = hasErrors || resultCount > 0
	default:
		return Decision{}, errors.Errorf("%w %q", ErrUnknownMode, policy.When)
	}

	d := Decision{
		ShouldSend: send,
		Subject:    Subject(policy.Subject, resultCount, errorCount+systemErrorCount),
		Body:       policy.Body,
		Priority:   PriorityNormal,
	}
	if hasErrors {
		d.Priority = PriorityHigh
	}
	return d, nil
}

// Subject composes "<n> action(s)[, <m> error(s)][, suffix]".
func Subject(suffix string, actions, errs int) string {
	p := message.NewPrinter(language.English)

	parts := []string{p.Sprintf("%d %s", actions, plural(actions, "action", "actions"))}
	if errs > 0 {
		parts = append(parts, p.Sprintf("%d %s", errs, plural(errs, "error", "errors")))
	}
	if s := strings.TrimSpace(suffix); s != "" {
		parts = append(parts, s)
	}
	return strings.Join(parts, ", ")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
