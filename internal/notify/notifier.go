package notify

import (
	"bytes"
	"html/template"
	"log/slog"

	"github.com/prettymuchbryce/batchmove/internal/fs"
	"github.com/prettymuchbryce/batchmove/internal/report"

	"gitlab.com/tozd/go/errors"
)

// ConnectionType is the SMTP transport security.
type ConnectionType string

const (
	ConnectionNone                  ConnectionType = "None"
	ConnectionAuto                  ConnectionType = "Auto"
	ConnectionSslOnConnect          ConnectionType = "SslOnConnect"
	ConnectionStartTls              ConnectionType = "StartTls"
	ConnectionStartTlsWhenAvailable ConnectionType = "StartTlsWhenAvailable"
	ConnectionTls                   ConnectionType = "Tls"
)

// Valid reports whether the connection type is known. Empty means Auto.
func (c ConnectionType) Valid() bool {
	switch c {
	case "", ConnectionNone, ConnectionAuto, ConnectionSslOnConnect, ConnectionStartTls, ConnectionStartTlsWhenAvailable, ConnectionTls:
		return true
	}
	return false
}

// SMTP describes the mail server.
type SMTP struct {
	ServerName     string
	Port           int
	ConnectionType ConnectionType
	UserName       string
	Password       string
}

// Message is a fully assembled mail.
type Message struct {
	From            string
	FromDisplayName string
	To              []string
	Bcc             []string
	Subject         string
	HTMLBody        string
	Attachments     []string
	Priority        Priority
}

// Sender is the mail port. Send fails on any connect, auth or send error.
type Sender interface {
	Send(msg Message, server SMTP) error
}

// Settings configures a Notifier.
type Settings struct {
	Policy             Policy
	From               string
	FromDisplayName    string
	To                 []string
	Bcc                []string
	ExtraAttachments   []string
	MaxAttachmentBytes int64
	SMTP               SMTP
}

// Notifier evaluates the policy for a run and sends the summary mail.
type Notifier struct {
	fs       fs.FileSystem
	sender   Sender
	settings Settings
}

// NewNotifier creates a Notifier.
func NewNotifier(filesystem fs.FileSystem, sender Sender, settings Settings) *Notifier {
	return &Notifier{fs: filesystem, sender: sender, settings: settings}
}

// Prepare builds the decision for r. logFiles are attachment candidates in
// addition to the configured extra attachments.
func (n *Notifier) Prepare(r *report.RunReport, logFiles []string) (Decision, error) {
	failed := r.ActionErrors()
	d, err := Decide(n.settings.Policy, len(r.Results), len(failed), len(r.SystemErrors))
	if err != nil || !d.ShouldSend {
		return d, err
	}

	body, err := renderBody(n.settings.Policy.Body, r, failed)
	if err != nil {
		return Decision{}, errors.Errorf("failed to render mail body: %w", err)
	}
	d.Body = body

	candidates := append(append([]string{}, logFiles...), n.settings.ExtraAttachments...)
	att := AssembleAttachments(n.fs, candidates, n.settings.MaxAttachmentBytes)
	d.Attachments = att.Paths
	if att.Truncated {
		d.Body += TruncationNotice(n.settings.MaxAttachmentBytes)
	}
	return d, nil
}

// Notify prepares and, when the policy says so, sends the mail.
// It reports whether a send was attempted successfully.
func (n *Notifier) Notify(r *report.RunReport, logFiles []string) (bool, error) {
	d, err := n.Prepare(r, logFiles)
	if err != nil {
		return false, err
	}
	if !d.ShouldSend {
		slog.Info("no mail sent", "when", n.settings.Policy.When)
		return false, nil
	}

	if err := ValidateRecipients(n.settings.To, n.settings.Bcc); err != nil {
		return false, err
	}

	msg := Message{
		From:            n.settings.From,
		FromDisplayName: n.settings.FromDisplayName,
		To:              nonEmpty(n.settings.To),
		Bcc:             nonEmpty(n.settings.Bcc),
		Subject:         d.Subject,
		HTMLBody:        d.Body,
		Attachments:     d.Attachments,
		Priority:        d.Priority,
	}
	if err := n.sender.Send(msg, n.settings.SMTP); err != nil {
		return false, errors.Errorf("failed to send mail to %v: %w", append(msg.To, msg.Bcc...), err)
	}

	slog.Info("mail sent", "subject", msg.Subject, "attachments", len(msg.Attachments))
	return true, nil
}

var bodyTemplate = template.Must(template.New("body").Parse(`{{.UserBody}}
<table>
<tr><th align="left">Files processed</th><td>{{.Processed}}</td></tr>
<tr><th align="left">Moved</th><td>{{.Moved}}</td></tr>
<tr><th align="left">Failed</th><td>{{len .Failed}}</td></tr>
<tr><th align="left">System errors</th><td>{{len .SystemErrors}}</td></tr>
</table>
{{- if .SystemErrors}}
<h3>System errors</h3>
<ul>
{{- range .SystemErrors}}
<li>{{.Message}}</li>
{{- end}}
</ul>
{{- end}}
{{- if .Failed}}
<h3>Action errors</h3>
<ul>
{{- range .Failed}}
<li>{{.SourceFileName}}: {{.Err}}</li>
{{- end}}
</ul>
{{- end}}
<p><i>{{.ScriptName}}, run {{.RunID}}</i></p>
`))

func renderBody(userBody string, r *report.RunReport, failed []report.ResultRecord) (string, error) {
	var buf bytes.Buffer
	err := bodyTemplate.Execute(&buf, map[string]any{
		// The configured body is operator-authored HTML.
		"UserBody":     template.HTML(userBody),
		"Processed":    len(r.Results),
		"Moved":        r.MovedCount(),
		"Failed":       failed,
		"SystemErrors": r.SystemErrors,
		"ScriptName":   r.ScriptName,
		"RunID":        r.ID.String(),
	})
	return buf.String(), err
}
