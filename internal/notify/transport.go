package notify

import "context"

// SMSSender delivers a short text message to a phone number.
// Messages handed to it are already truncated to the SMS limit.
type SMSSender interface {
	Send(ctx context.Context, phone, message string) error
}

// EmailSender delivers a rendered HTML email.
type EmailSender interface {
	Send(ctx context.Context, to, subject, html string) error
}

// WhatsAppResult is the structured outcome of a WhatsApp gateway call.
// The gateway reports delivery failure through its own success flag, not
// only through a transport error, so callers must branch on Success.
type WhatsAppResult struct {
	Success      bool
	ErrorCode    string
	ErrorMessage string
}

// WhatsAppSender delivers a message through a WhatsApp gateway.
type WhatsAppSender interface {
	Send(ctx context.Context, phone, message string) (WhatsAppResult, error)
}
