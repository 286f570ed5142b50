package notify

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"
)

type SMTPSettings struct {
	Host string
	Port int
}

// smtpByDomain maps well-known mail domains to their submission
// endpoint, so most users only have to configure address and
// password.
var smtpByDomain = map[string]SMTPSettings{
	"outlook.de":  {Host: "smtp-mail.outlook.com", Port: 587},
	"outlook.com": {Host: "smtp-mail.outlook.com", Port: 587},
	"gmail.com":   {Host: "smtp.gmail.com", Port: 587},
	"gmx.net":     {Host: "mail.gmx.net", Port: 587},
	"web.de":      {Host: "smtp.web.de", Port: 587},
}

// Account is the mail account notifications are sent from and to.
type Account struct {
	Address  string
	Password string
	SMTP     SMTPSettings
}

// NewAccount infers the SMTP settings from the address's domain.
func NewAccount(address, password string) (Account, error) {
	_, domain, found := strings.Cut(address, "@")
	if !found {
		return Account{}, fmt.Errorf("email address %q is missing an @", address)
	}
	settings, ok := smtpByDomain[domain]
	if !ok {
		return Account{}, fmt.Errorf("no known smtp settings for %q, configure host and port explicitly", domain)
	}
	return Account{Address: address, Password: password, SMTP: settings}, nil
}

// Mailer delivers one notification message.
type Mailer interface {
	Send(subject, body string) error
}

type smtpMailer struct {
	account Account
}

// NewMailer returns a Mailer that sends self-addressed mail over
// STARTTLS.
func NewMailer(account Account) Mailer {
	return smtpMailer{account: account}
}

func (m smtpMailer) Send(subject, body string) error {
	mail := email.NewEmail()
	mail.From = m.account.Address
	mail.To = []string{m.account.Address}
	mail.Subject = subject
	mail.Text = []byte(body)

	addr := fmt.Sprintf("%s:%d", m.account.SMTP.Host, m.account.SMTP.Port)
	auth := smtp.PlainAuth("", m.account.Address, m.account.Password, m.account.SMTP.Host)
	return mail.SendWithStartTLS(addr, auth, &tls.Config{ServerName: m.account.SMTP.Host})
}
