package transport

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

// EmailClient sends HTML mail over SMTP
type EmailClient struct {
	dialer *gomail.Dialer
	from   string
}

// NewEmailClient creates an SMTP mail client
func NewEmailClient(host string, port int, username, password, from string) *EmailClient {
	return &EmailClient{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

// Send delivers one HTML email. The SMTP dial has no context support, so
// cancellation is checked before dialing.
func (c *EmailClient) Send(ctx context.Context, to, subject, html string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", c.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", html)

	if err := c.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
