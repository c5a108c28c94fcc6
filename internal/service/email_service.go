package service

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/yasinhessnawi1/authflow/internal/config"
	"github.com/yasinhessnawi1/authflow/internal/constants"
	"github.com/yasinhessnawi1/authflow/internal/utils"
)

// implicitTLSPort is the SMTPS port, which speaks TLS from the first byte.
const implicitTLSPort = 465

// EmailMessage is a plain-text email.
type EmailMessage struct {
	ToEmail string
	ToName  string
	Subject string
	Text    string
}

// Mailer delivers an email.
type Mailer interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// EmailService sends the password reset email through the configured Mailer.
type EmailService struct {
	mailer  Mailer
	timeout time.Duration
	logOnly bool
}

// NewEmailService creates an EmailService for the configured transport:
// SendGrid when an API key is set, SMTP when a host is set, and otherwise a
// sender that only logs.
func NewEmailService(cfg config.MailSettings) *EmailService {
	switch {
	case cfg.UsesSendGrid():
		return NewEmailServiceWithMailer(NewSendGridMailer(cfg), cfg.SendTimeout, false)
	case !cfg.UsesLogMailer():
		return NewEmailServiceWithMailer(NewSMTPMailer(cfg), cfg.SendTimeout, false)
	default:
		return NewEmailServiceWithMailer(LogMailer{}, cfg.SendTimeout, true)
	}
}

// NewEmailServiceWithMailer creates an EmailService around an explicit Mailer.
func NewEmailServiceWithMailer(mailer Mailer, timeout time.Duration, logOnly bool) *EmailService {
	if timeout <= 0 {
		timeout = constants.DefaultMailSendTimeout
	}
	return &EmailService{mailer: mailer, timeout: timeout, logOnly: logOnly}
}

// LogsOnly reports whether reset links end up in the server log rather than an inbox.
func (s *EmailService) LogsOnly() bool {
	return s.logOnly
}

// SendPasswordResetEmail sends the reset URL to the user.
func (s *EmailService) SendPasswordResetEmail(ctx context.Context, toEmail, toName, resetURL string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	msg := EmailMessage{
		ToEmail: toEmail,
		ToName:  toName,
		Subject: constants.MsgResetEmailSubject,
		Text:    constants.MsgResetEmailBodyPrefix + "\n\n" + resetURL,
	}

	if err := s.mailer.Send(ctx, msg); err != nil {
		log.Error().Err(err).Str("to", utils.MaskEmail(toEmail)).Msg("Failed to send password reset email")
		return err
	}

	log.Info().Str("to", utils.MaskEmail(toEmail)).Bool("log_only", s.logOnly).Msg("Password reset email sent")
	return nil
}

// LogMailer writes emails to the log. It is used when no transport is configured.
type LogMailer struct{}

// Send implements Mailer.
func (LogMailer) Send(_ context.Context, msg EmailMessage) error {
	log.Info().
		Str("to", msg.ToEmail).
		Str("subject", msg.Subject).
		Str("body", msg.Text).
		Msg("Email transport not configured, logging email instead")
	return nil
}

// SendGridMailer sends email through the SendGrid v3 API.
type SendGridMailer struct {
	from *sgmail.Email
	send func(ctx context.Context, message *sgmail.SGMailV3) (*rest.Response, error)
}

// NewSendGridMailer creates a SendGridMailer from the mail settings.
func NewSendGridMailer(cfg config.MailSettings) *SendGridMailer {
	client := sendgrid.NewSendClient(cfg.SendGridAPIKey)
	return &SendGridMailer{
		from: sgmail.NewEmail(cfg.FromName, cfg.FromEmail),
		send: client.SendWithContext,
	}
}

// Send implements Mailer.
func (m *SendGridMailer) Send(ctx context.Context, msg EmailMessage) error {
	to := sgmail.NewEmail(msg.ToName, msg.ToEmail)
	message := sgmail.NewSingleEmailPlainText(m.from, msg.Subject, to, msg.Text)

	response, err := m.send(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid request failed: %w", err)
	}
	if response.StatusCode >= 300 {
		return fmt.Errorf("sendgrid rejected message: status %d: %s", response.StatusCode, response.Body)
	}

	log.Debug().Int("status_code", response.StatusCode).Msg("SendGrid accepted message")
	return nil
}

// SMTPMailer sends email over SMTP with STARTTLS when the server offers it.
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	from     mail.Address
}

// NewSMTPMailer creates an SMTPMailer from the mail settings.
func NewSMTPMailer(cfg config.MailSettings) *SMTPMailer {
	return &SMTPMailer{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.Username,
		password: cfg.Password,
		from:     mail.Address{Name: cfg.FromName, Address: cfg.FromEmail},
	}
}

// Send implements Mailer.
func (m *SMTPMailer) Send(ctx context.Context, msg EmailMessage) error {
	addr := net.JoinHostPort(m.host, strconv.Itoa(m.port))

	conn, err := m.dial(ctx, addr)
	if err != nil {
		return fmt.Errorf("failed to connect to mail server: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return fmt.Errorf("failed to set mail deadline: %w", err)
		}
	}

	client, err := smtp.NewClient(conn, m.host)
	if err != nil {
		return fmt.Errorf("failed to start smtp session: %w", err)
	}
	defer client.Close()

	if m.port != implicitTLSPort {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: m.host, MinVersion: tls.VersionTLS12}); err != nil {
				return fmt.Errorf("starttls failed: %w", err)
			}
		}
	}

	if m.username != "" {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(smtp.PlainAuth("", m.username, m.password, m.host)); err != nil {
				return fmt.Errorf("smtp auth failed: %w", err)
			}
		}
	}

	if err := client.Mail(m.from.Address); err != nil {
		return fmt.Errorf("smtp MAIL FROM failed: %w", err)
	}
	if err := client.Rcpt(msg.ToEmail); err != nil {
		return fmt.Errorf("smtp RCPT TO failed: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA failed: %w", err)
	}
	if _, err := w.Write(m.compose(msg)); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finish message: %w", err)
	}

	return client.Quit()
}

func (m *SMTPMailer) dial(ctx context.Context, addr string) (net.Conn, error) {
	if m.port == implicitTLSPort {
		dialer := &tls.Dialer{Config: &tls.Config{ServerName: m.host, MinVersion: tls.VersionTLS12}}
		return dialer.DialContext(ctx, "tcp", addr)
	}
	var dialer net.Dialer
	return dialer.DialContext(ctx, "tcp", addr)
}

func (m *SMTPMailer) compose(msg EmailMessage) []byte {
	to := mail.Address{Name: msg.ToName, Address: msg.ToEmail}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", m.from.String())
	fmt.Fprintf(&buf, "To: %s\r\n", to.String())
	fmt.Fprintf(&buf, "Subject: %s\r\n", msg.Subject)
	fmt.Fprintf(&buf, "Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(msg.Text)
	buf.WriteString("\r\n")
	return buf.Bytes()
}
