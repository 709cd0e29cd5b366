package mailer

import (
	"context"

	"github.com/dmitrijs2005/yelpcamp/internal/logging"
)

// LogMailer writes messages to the log instead of sending them. Development
// only: the body holds the reset link.
type LogMailer struct {
	logger logging.Logger
}

func NewLogMailer(logger logging.Logger) *LogMailer {
	return &LogMailer{logger: logger.With("module", "mailer")}
}

func (m *LogMailer) Send(ctx context.Context, to, subject, body string) error {
	m.logger.Info(ctx, "mail not sent, logging instead", "to", to, "subject", subject, "body", body)
	return nil
}
