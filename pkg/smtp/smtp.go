package smtp

import (
	"fmt"
	"mime"
	smtpPkg "net/smtp"
	"os"
	"strings"
)

type ItfSmtp interface {
	SendProviderNotification(providerEmail string, subject string, body string) error
}

type smtp struct {
	auth smtpPkg.Auth
	mail string
	addr string
}

func New() ItfSmtp {
	mail := os.Getenv("SMTP_MAIL")
	password := os.Getenv("SMTP_PASSWORD")

	host := os.Getenv("SMTP_HOST")
	if host == "" {
		host = "smtp.gmail.com"
	}
	port := os.Getenv("SMTP_PORT")
	if port == "" {
		port = "587"
	}

	auth := smtpPkg.PlainAuth("", mail, password, host)

	return &smtp{auth: auth, mail: mail, addr: host + ":" + port}
}

func (s *smtp) SendProviderNotification(providerEmail string, subject string, body string) error {
	message := buildMessage(s.mail, providerEmail, subject, body)
	return smtpPkg.SendMail(s.addr, s.auth, s.mail, []string{providerEmail}, message)
}

// headerBreaks folds any line break in a header value into a space so that a
// caller-supplied value can never start a new header line.
var headerBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

func headerValue(v string) string {
	return mime.QEncoding.Encode("UTF-8", headerBreaks.Replace(v))
}

func buildMessage(from, to, subject, body string) []byte {
	return []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n%s",
		headerBreaks.Replace(from), headerBreaks.Replace(to), headerValue(subject), body,
	))
}
