package mail

import (
	"context"

	"go.uber.org/zap"
)

// LogMailer writes mail to the log instead of SMTP. Used when no SMTP host
// is configured, so local development does not need a mail server.
type LogMailer struct {
	log *zap.Logger
}

func NewLogMailer(log *zap.Logger) *LogMailer {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogMailer{log: log}
}

func (m *LogMailer) SendVerificationCode(_ context.Context, email, username, code string) error {
	m.log.Info("verification code (log mailer)",
		zap.String("email", email),
		zap.String("username", username),
		zap.String("code", code),
	)
	return nil
}

func (m *LogMailer) SendVerificationSuccess(_ context.Context, email, username string, amount float64) error {
	m.log.Info("verification success (log mailer)",
		zap.String("email", email),
		zap.String("username", username),
		zap.Float64("amount", amount),
	)
	return nil
}
