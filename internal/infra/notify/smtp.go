package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"net/mail"
	"net/smtp"
	"sort"
	"strconv"
	"strings"
	"time"

	"delivery-scheduler/internal/domain/delivery"
	"delivery-scheduler/internal/pkg/clock"
	"delivery-scheduler/internal/pkg/errs"
	"delivery-scheduler/internal/usecase/commands"

	"github.com/google/uuid"
)

var ErrNoRecipient = errs.New("email has no recipient")

type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

type SMTPSettings struct {
	Host     string
	Port     int
	User     string
	Password string
}

type SMTPMailer struct {
	host      string
	port      int
	auth      smtp.Auth
	tlsConfig *tls.Config
	dialer    Dialer
	clock     clock.Clock
	helloName string
}

func NewSMTPMailer(settings SMTPSettings, clk clock.Clock) (*SMTPMailer, error) {
	if strings.TrimSpace(settings.Host) == "" {
		return nil, errs.New("smtp host is required")
	}
	if settings.Port <= 0 || settings.Port > 65535 {
		return nil, errs.New("smtp port out of range: " + strconv.Itoa(settings.Port))
	}

	m := &SMTPMailer{
		host:      settings.Host,
		port:      settings.Port,
		dialer:    &net.Dialer{Timeout: 30 * time.Second},
		clock:     clk,
		helloName: "localhost",
		tlsConfig: &tls.Config{ServerName: settings.Host, MinVersion: tls.VersionTLS12},
	}
	if strings.TrimSpace(settings.User) != "" {
		m.auth = smtp.PlainAuth("", settings.User, settings.Password, settings.Host)
	}
	return m, nil
}

// WithDialer replaces the network dialer, mainly for tests.
func (m *SMTPMailer) WithDialer(d Dialer) *SMTPMailer {
	if d != nil {
		m.dialer = d
	}
	return m
}

// SendEmail delivers one HTML message. Bcc is added to the envelope only.
func (m *SMTPMailer) SendEmail(ctx context.Context, email delivery.Email) (*commands.EmailReceipt, error) {
	from, err := envelopeAddress(email.From)
	if err != nil {
		return nil, errs.Wrap(err, "invalid from address")
	}

	var recipients []string
	for _, raw := range []string{email.To, email.Bcc} {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		addr, err := envelopeAddress(raw)
		if err != nil {
			return nil, errs.Wrap(err, "invalid recipient")
		}
		recipients = append(recipients, addr)
	}
	if email.To == "" || len(recipients) == 0 {
		return nil, ErrNoRecipient
	}

	now := m.clock.Now()
	messageID := "<" + uuid.NewString() + "@" + m.host + ">"
	message := buildMessage(email, messageID, now)

	if err := m.deliver(ctx, from, recipients, message); err != nil {
		return nil, err
	}
	return &commands.EmailReceipt{MessageID: messageID, AcceptedAt: now}, nil
}

func (m *SMTPMailer) deliver(ctx context.Context, from string, recipients []string, message []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := net.JoinHostPort(m.host, strconv.Itoa(m.port))
	conn, err := m.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return errs.Wrap(err, "smtp dial")
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	// Unblock the protocol exchange when ctx is cancelled.
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()
	defer close(done)

	client, err := smtp.NewClient(conn, m.host)
	if err != nil {
		return errs.Wrap(err, "smtp greeting")
	}
	defer client.Close()

	if err := client.Hello(m.helloName); err != nil {
		return errs.Wrap(err, "smtp hello")
	}
	if ok, _ := client.Extension("STARTTLS"); ok && m.tlsConfig != nil {
		if err := client.StartTLS(m.tlsConfig.Clone()); err != nil {
			return errs.Wrap(err, "smtp starttls")
		}
	}
	if m.auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(m.auth); err != nil {
				return errs.Wrap(err, "smtp auth")
			}
		}
	}

	if err := client.Mail(from); err != nil {
		return errs.Wrap(err, "smtp mail from")
	}
	for _, rcpt := range recipients {
		if err := client.Rcpt(rcpt); err != nil {
			return errs.Wrapf(err, "smtp rcpt to %s", rcpt)
		}
	}

	w, err := client.Data()
	if err != nil {
		return errs.Wrap(err, "smtp data")
	}
	if _, err := w.Write(message); err != nil {
		_ = w.Close()
		return errs.Wrap(err, "smtp data write")
	}
	if err := w.Close(); err != nil {
		return errs.Wrap(err, "smtp data close")
	}

	if err := client.Quit(); err != nil && !errors.Is(err, io.EOF) {
		return errs.Wrap(err, "smtp quit")
	}
	return ctx.Err()
}

func buildMessage(email delivery.Email, messageID string, now time.Time) []byte {
	headers := map[string]string{
		"From":         sanitizeHeader(email.From),
		"To":           sanitizeHeader(email.To),
		"Subject":      sanitizeHeader(email.Subject),
		"Date":         now.UTC().Format(time.RFC1123Z),
		"Message-Id":   messageID,
		"MIME-Version": "1.0",
		"Content-Type": "text/html; charset=UTF-8",
	}

	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	for _, k := range keys {
		if headers[k] == "" {
			continue
		}
		buf.WriteString(k + ": " + headers[k] + "\r\n")
	}
	buf.WriteString("\r\n")
	buf.WriteString(crlf(email.HTMLBody))
	return buf.Bytes()
}

func envelopeAddress(value string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(value))
	if err != nil {
		return "", err
	}
	return addr.Address, nil
}

func sanitizeHeader(value string) string {
	clean := strings.ReplaceAll(value, "\r", " ")
	clean = strings.ReplaceAll(clean, "\n", " ")
	return strings.TrimSpace(clean)
}

func crlf(body string) string {
	normalized := strings.ReplaceAll(body, "\r\n", "\n")
	return strings.ReplaceAll(normalized, "\n", "\r\n")
}
