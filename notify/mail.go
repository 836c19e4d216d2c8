package notify

import (
	"credential-proxy/config"

	"github.com/pkg/errors"
	gomail "gopkg.in/gomail.v2"
)

// Mailer smtp 邮件通知，调用方自行决定失败是否致命
type Mailer struct {
	dialer  *gomail.Dialer
	from    string
	enabled bool
}

func NewMailer(cfg config.Mail) *Mailer {
	return &Mailer{
		dialer:  gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:    cfg.From,
		enabled: cfg.Enabled,
	}
}

// Send 发送纯文本邮件，未开启邮件功能时静默跳过
func (m *Mailer) Send(to, subject, body string) error {
	if !m.enabled {
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	err := m.dialer.DialAndSend(msg)
	if err != nil {
		return errors.Wrapf(err, "send mail to %s", to)
	}

	return nil
}
