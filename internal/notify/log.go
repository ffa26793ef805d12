package notify

import (
	"context"
	"log/slog"
	"strings"
)

// Log writes messages to a logger instead of delivering them. It is meant for
// local development, where no relay is configured and the code has to be
// readable from the server output.
type Log struct {
	log *slog.Logger
}

func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{log: logger}
}

func (l *Log) Send(ctx context.Context, to, subject, htmlBody string) error {
	if strings.TrimSpace(to) == "" {
		return ErrNoRecipient
	}
	l.log.InfoContext(ctx, "mail not delivered (log notifier)",
		"to", to,
		"subject", subject,
		"body", htmlBody,
	)
	return nil
}
