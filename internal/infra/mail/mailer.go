package mail

import (
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"

	"solsign/internal/config"
)

// SMTPMailer delivers verification codes and reward notices over SMTP.
type SMTPMailer struct {
	client *gomail.Client
	from   string
}

func NewSMTPMailer(cfg config.Config) (*SMTPMailer, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.SMTPPort),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if cfg.SMTPUser != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.SMTPUser),
			gomail.WithPassword(cfg.SMTPPassword),
		)
	}
	client, err := gomail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &SMTPMailer{client: client, from: cfg.MailFrom}, nil
}

func (m *SMTPMailer) send(ctx context.Context, to, subject, body string) error {
	msg := gomail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)
	return m.client.DialAndSendWithContext(ctx, msg)
}

func (m *SMTPMailer) SendVerificationCode(ctx context.Context, email, username, code string) error {
	body := fmt.Sprintf(
		"Hi %s,\n\nYour SolSign verification code is: %s\n\nThe code expires in 15 minutes. If you did not request it, ignore this message.\n",
		username, code,
	)
	return m.send(ctx, email, "Your SolSign verification code", body)
}

func (m *SMTPMailer) SendVerificationSuccess(ctx context.Context, email, username string, amount float64) error {
	body := fmt.Sprintf(
		"Hi %s,\n\nYour identity is verified. %g SOLSIGN tokens were sent to your wallet.\n\nThanks for using SolSign.\n",
		username, amount,
	)
	return m.send(ctx, email, "Identity verified", body)
}
