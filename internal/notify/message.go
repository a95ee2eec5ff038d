package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"unicode/utf8"

	"rental-service/internal/dues"
	"rental-service/internal/model"
)

// smsMaxLength is the single-segment SMS limit messages are truncated to.
const smsMaxLength = 160

// paymentMessage renders the fixed overdue-rent template with the dues
// breakdown embedded.
func paymentMessage(t model.Tenant, b dues.Breakdown, currency string) string {
	return fmt.Sprintf(
		"Dear %s, your rent account is overdue. Outstanding dues: rent %s %s, deposit %s %s, utility %s %s. Total due: %s %s. Please settle your balance promptly.",
		t.Name,
		currency, b.RentDues.StringFixed(2),
		currency, b.DepositDues.StringFixed(2),
		currency, b.UtilityDues.StringFixed(2),
		currency, b.TotalRemainingDues.StringFixed(2),
	)
}

// fallbackMessage supplies a canned body when the caller sent none for a
// non-payment notification.
func fallbackMessage(nt model.NotificationType) string {
	switch nt {
	case model.NotifyMaintenance:
		return "Scheduled maintenance is planned for your unit. Please contact your property manager for details."
	case model.NotifyTenant:
		return "There is an update regarding your tenancy. Please contact your property manager."
	default:
		return "You have a new message from your property manager."
	}
}

// truncateSMS clips a message to the single-segment SMS limit. The cut
// falls on a rune boundary so names with multi-byte characters never
// produce invalid UTF-8.
func truncateSMS(message string) string {
	if utf8.RuneCountInString(message) <= smsMaxLength {
		return message
	}
	return string([]rune(message)[:smsMaxLength])
}

// emailSubject maps a notification type to its email subject line.
func emailSubject(nt model.NotificationType) string {
	switch nt {
	case model.NotifyPayment:
		return "Rent Payment Reminder"
	case model.NotifyMaintenance:
		return "Maintenance Notice"
	case model.NotifyTenant:
		return "Tenancy Update"
	default:
		return "Message from your Property Manager"
	}
}

var emailTmpl = template.Must(template.New("notification").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 24px;">
    <h2 style="color: #1a4a7a;">{{.Title}}</h2>
    <p>Dear {{.TenantName}},</p>
    <p>{{.Intro}}</p>
    {{if .HasDues}}
    <table style="border-collapse: collapse; width: 100%;">
      <tr><td style="padding: 6px; border: 1px solid #ddd;">Rent dues</td><td style="padding: 6px; border: 1px solid #ddd;">{{.Currency}} {{.RentDues}}</td></tr>
      <tr><td style="padding: 6px; border: 1px solid #ddd;">Deposit dues</td><td style="padding: 6px; border: 1px solid #ddd;">{{.Currency}} {{.DepositDues}}</td></tr>
      <tr><td style="padding: 6px; border: 1px solid #ddd;">Utility dues</td><td style="padding: 6px; border: 1px solid #ddd;">{{.Currency}} {{.UtilityDues}}</td></tr>
      <tr><td style="padding: 6px; border: 1px solid #ddd;"><strong>Total due</strong></td><td style="padding: 6px; border: 1px solid #ddd;"><strong>{{.Currency}} {{.TotalDues}}</strong></td></tr>
    </table>
    {{else}}
    <p>{{.Body}}</p>
    {{end}}
    <p style="color: #888; font-size: 12px;">This is an automated message from your property management service.</p>
  </div>
</body>
</html>`))

type emailData struct {
	Title       string
	TenantName  string
	Intro       string
	Body        string
	HasDues     bool
	Currency    string
	RentDues    string
	DepositDues string
	UtilityDues string
	TotalDues   string
}

// renderEmail builds the channel-specific styled HTML body. Title and
// intro vary by type; payment emails enumerate the dues breakdown.
func renderEmail(t model.Tenant, nt model.NotificationType, message, currency string, b *dues.Breakdown) (string, error) {
	data := emailData{
		Title:      emailSubject(nt),
		TenantName: t.Name,
		Intro:      message,
		Body:       message,
	}

	if nt == model.NotifyPayment && b != nil {
		data.Intro = "Our records show your rent account has an outstanding balance:"
		data.HasDues = true
		data.Currency = currency
		data.RentDues = b.RentDues.StringFixed(2)
		data.DepositDues = b.DepositDues.StringFixed(2)
		data.UtilityDues = b.UtilityDues.StringFixed(2)
		data.TotalDues = b.TotalRemainingDues.StringFixed(2)
	}

	var buf bytes.Buffer
	if err := emailTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render email template: %w", err)
	}
	return buf.String(), nil
}
