package notify

import (
	"regexp"
	"strings"

	"gitlab.com/tozd/go/errors"
)

var (
	// ErrNoRecipients is returned when neither To nor Bcc has an address.
	ErrNoRecipients = errors.New("no mail recipients: To and Bcc are both empty")
	// ErrInvalidAddress is returned for an address of the wrong shape.
	ErrInvalidAddress = errors.New("invalid e-mail address")
)

var addressShape = regexp.MustCompile(`^[^@\s<>,;]+@[^@\s<>,;]+\.[^@\s<>,;.]+$`)

// ValidAddress reports whether s looks like local@domain.tld.
func ValidAddress(s string) bool {
	return addressShape.MatchString(s)
}

// ValidateRecipients requires at least one recipient and checks every address.
func ValidateRecipients(to, bcc []string) error {
	if len(nonEmpty(to)) == 0 && len(nonEmpty(bcc)) == 0 {
		return ErrNoRecipients
	}
	for _, list := range [][]string{to, bcc} {
		for _, addr := range nonEmpty(list) {
			if !ValidAddress(addr) {
				return errors.Errorf("%w: %q", ErrInvalidAddress, addr)
			}
		}
	}
	return nil
}

func nonEmpty(list []string) []string {
	var out []string
	for _, s := range list {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
