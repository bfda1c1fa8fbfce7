package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"
)

// SMTPTransport sends plain-text mail over an unauthenticated SMTP relay,
// the usual setup for an internal station mail gateway.
type SMTPTransport struct {
	addr string
	from string
}

func NewSMTPTransport(host string, port int, from string) *SMTPTransport {
	return &SMTPTransport{
		addr: net.JoinHostPort(host, fmt.Sprintf("%d", port)),
		from: from,
	}
}

func (t *SMTPTransport) Send(ctx context.Context, recipient, subject, body string) error {
	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", t.addr)
	if err != nil {
		return fmt.Errorf("dial smtp relay: %w", err)
	}
	// net/smtp has no context support past the dial, so the ctx deadline is
	// applied to the connection as a whole.
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(30 * time.Second))
	}

	host, _, _ := net.SplitHostPort(t.addr)
	client, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if err := client.Mail(t.from); err != nil {
		return fmt.Errorf("smtp MAIL FROM: %w", err)
	}
	if err := client.Rcpt(recipient); err != nil {
		return fmt.Errorf("smtp RCPT TO: %w", err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA: %w", err)
	}
	msg := strings.Join([]string{
		"From: " + t.from,
		"To: " + recipient,
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")
	if _, err := w.Write([]byte(msg)); err != nil {
		return fmt.Errorf("smtp write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close body: %w", err)
	}
	return client.Quit()
}
