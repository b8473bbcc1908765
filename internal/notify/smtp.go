package notify

import (
	"bytes"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"
	"github.com/wneessen/go-mail"
	"gitlab.com/tozd/go/errors"
)

// SMTPSender sends messages through an SMTP server with go-mail.
// Attachments are read from fs.
type SMTPSender struct {
	fs afero.Fs
}

// NewSMTPSender creates an SMTPSender reading attachments from filesystem.
func NewSMTPSender(filesystem afero.Fs) *SMTPSender {
	return &SMTPSender{fs: filesystem}
}

// Send builds msg and delivers it in a single connection.
func (s *SMTPSender) Send(msg Message, server SMTP) error {
	m, err := s.build(msg)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(server.ServerName, clientOptions(server)...)
	if err != nil {
		return errors.Errorf("failed to create SMTP client for %s: %w", server.ServerName, err)
	}
	if err := client.DialAndSend(m); err != nil {
		return errors.Errorf("failed to send via %s: %w", server.ServerName, err)
	}
	return nil
}

func (s *SMTPSender) build(msg Message) (*mail.Msg, error) {
	m := mail.NewMsg()

	if msg.FromDisplayName != "" {
		if err := m.FromFormat(msg.FromDisplayName, msg.From); err != nil {
			return nil, errors.Errorf("invalid sender %q: %w", msg.From, err)
		}
	} else if err := m.From(msg.From); err != nil {
		return nil, errors.Errorf("invalid sender %q: %w", msg.From, err)
	}
	if len(msg.To) > 0 {
		if err := m.To(msg.To...); err != nil {
			return nil, errors.Errorf("invalid recipient: %w", err)
		}
	}
	if len(msg.Bcc) > 0 {
		if err := m.Bcc(msg.Bcc...); err != nil {
			return nil, errors.Errorf("invalid bcc recipient: %w", err)
		}
	}

	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextHTML, msg.HTMLBody)
	if msg.Priority == PriorityHigh {
		m.SetImportance(mail.ImportanceHigh)
	}

	for _, path := range msg.Attachments {
		data, err := afero.ReadFile(s.fs, path)
		if err != nil {
			return nil, errors.Errorf("failed to read attachment %s: %w", path, err)
		}
		ct := mail.ContentType(mimetype.Detect(data).String())
		if err := m.AttachReader(filepath.Base(path), bytes.NewReader(data), mail.WithFileContentType(ct)); err != nil {
			return nil, errors.Errorf("failed to attach %s: %w", path, err)
		}
	}

	return m, nil
}

func clientOptions(server SMTP) []mail.Option {
	var opts []mail.Option

	switch server.ConnectionType {
	case ConnectionNone:
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	case ConnectionStartTls:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	case ConnectionSslOnConnect, ConnectionTls:
		opts = append(opts, mail.WithSSL())
		if server.Port <= 0 {
			opts = append(opts, mail.WithPort(465))
		}
	default:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}

	if server.Port > 0 {
		opts = append(opts, mail.WithPort(server.Port))
	}

	if server.UserName != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthLogin),
			mail.WithUsername(server.UserName),
			mail.WithPassword(server.Password),
		)
	}
	return opts
}
