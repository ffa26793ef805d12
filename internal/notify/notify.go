// Package notify delivers out-of-band messages such as password reset codes.
package notify

import (
	"context"
	"errors"
)

// Notifier sends one HTML message. Implementations do not retry.
type Notifier interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

var ErrNoRecipient = errors.New("notify: recipient is required")
