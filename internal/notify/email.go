package notify

import (
	"fmt"
	"time"

	"github.com/foundryerp/internal/config"
	"gopkg.in/gomail.v2"
)

// Mailer delivers generated report PDFs to schedule recipients over
// SMTP.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewMailer returns nil when no SMTP host is configured; delivery is
// then disabled and schedules simply write files to storage.
func NewMailer(cfg *config.Config) *Mailer {
	if cfg.Email.SMTPHost == "" {
		return nil
	}
	return &Mailer{
		dialer: gomail.NewDialer(cfg.Email.SMTPHost, cfg.Email.SMTPPort, cfg.Email.From, cfg.Email.Password),
		from:   cfg.Email.From,
	}
}

func (m *Mailer) SendReport(recipients []string, reportName, filePath string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", recipients...)
	msg.SetHeader("Subject", fmt.Sprintf("Scheduled Report: %s", reportName))

	body := fmt.Sprintf(`Report: %s
Generated: %s

The report is attached as a PDF.
`, reportName, time.Now().Format(time.RFC3339))

	msg.SetBody("text/plain", body)
	msg.Attach(filePath)

	return m.dialer.DialAndSend(msg)
}
