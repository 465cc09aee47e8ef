package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// SMTPSender sends messages via SMTP email.
type SMTPSender struct {
	// SendMail defaults to smtp.SendMail.
	SendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func (s *SMTPSender) Type() ChannelType { return ChannelSMTP }

func (s *SMTPSender) Send(ctx context.Context, ch *Channel, message string) error {
	if ch.To == "" {
		return fmt.Errorf("smtp channel %q missing 'to'", ch.Label())
	}
	from := ch.From
	if from == "" {
		from = ch.Login
	}
	if from == "" {
		return fmt.Errorf("smtp channel %q missing from address", ch.Label())
	}
	subject := ch.Subject
	if subject == "" {
		subject = "droidflow run report"
	}
	port := ch.Port
	if port == 0 {
		port = 587
	}
	addr := fmt.Sprintf("%s:%d", ch.Host, port)
	to := strings.Split(ch.To, ",")
	for i := range to {
		to[i] = strings.TrimSpace(to[i])
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s",
		from, strings.Join(to, ", "), subject, message)

	var auth smtp.Auth
	if ch.Password != "" {
		login := ch.Login
		if login == "" {
			login = from
		}
		auth = smtp.PlainAuth("", login, ch.Password, ch.Host)
	}

	send := s.SendMail
	if send == nil {
		send = smtp.SendMail
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := send(addr, auth, from, to, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
