package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"

	"github.com/google/uuid"
)

// SMTPSender delivers messages over implicit-TLS SMTP (port 465 style).
// It synthesizes a Message-ID header and returns it as the delivery id.
type SMTPSender struct {
	host     string
	port     string
	username string
	password string
	from     string
}

// NewSMTPSender returns a sender authenticating as username against
// host:port. from is the envelope and header sender address.
func NewSMTPSender(host, port, username, password, from string) *SMTPSender {
	return &SMTPSender{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

// Send delivers msg and returns the generated message id.
func (s *SMTPSender) Send(ctx context.Context, msg Message) (string, error) {
	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), s.host)

	body := []byte(
		"From: " + s.from + "\r\n" +
			"To: " + msg.To + "\r\n" +
			"Subject: " + msg.Subject + "\r\n" +
			"Message-ID: " + messageID + "\r\n" +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=\"utf-8\"\r\n" +
			"\r\n" +
			msg.HTML,
	)

	dialer := &tls.Dialer{Config: &tls.Config{ServerName: s.host}}
	conn, err := dialer.DialContext(ctx, "tcp", s.host+":"+s.port)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		return "", err
	}
	defer client.Quit()

	if err := client.Auth(smtp.PlainAuth("", s.username, s.password, s.host)); err != nil {
		return "", err
	}
	if err := client.Mail(s.from); err != nil {
		return "", err
	}
	if err := client.Rcpt(msg.To); err != nil {
		return "", err
	}

	w, err := client.Data()
	if err != nil {
		return "", err
	}
	if _, err := w.Write(body); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	return messageID, nil
}
