package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/logger"
)

// ErrMissingCredentials is returned when the SMTP user or password is empty.
var ErrMissingCredentials = errors.New("smtp: user and password are required")

const defaultSMTPTimeout = 15 * time.Second

// SMTPConfig configures SMTPNotifier.
type SMTPConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	Recipient string
	Subject   string
	// TLSPolicy defaults to mandatory STARTTLS. Tests relax it.
	TLSPolicy mail.TLSPolicy
}

// SMTPNotifier sends each message in its own authenticated session. The
// sender address is the account user.
type SMTPNotifier struct {
	cfg    SMTPConfig
	client *mail.Client
}

// NewSMTPNotifier creates a notifier with PLAIN auth over STARTTLS.
func NewSMTPNotifier(cfg SMTPConfig) (*SMTPNotifier, error) {
	if cfg.User == "" || cfg.Password == "" {
		return nil, ErrMissingCredentials
	}
	if cfg.Recipient == "" {
		cfg.Recipient = cfg.User
	}

	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.User),
		mail.WithPassword(cfg.Password),
		mail.WithTLSPolicy(cfg.TLSPolicy),
		mail.WithTimeout(defaultSMTPTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}

	return &SMTPNotifier{cfg: cfg, client: client}, nil
}

// Notify sends msg as a plain-text email.
func (n *SMTPNotifier) Notify(ctx context.Context, msg Message) error {
	m, err := n.buildMessage(msg)
	if err != nil {
		return err
	}
	if sendErr := n.client.DialAndSendWithContext(ctx, m); sendErr != nil {
		return fmt.Errorf("send email: %w", sendErr)
	}

	logger.FromContext(ctx).Debug("Email sent",
		logger.Strings("to", m.GetToString()),
		logger.String("subject", msg.Subject),
	)
	return nil
}

func (n *SMTPNotifier) buildMessage(msg Message) (*mail.Msg, error) {
	recipient := msg.Recipient
	if recipient == "" {
		recipient = n.cfg.Recipient
	}
	subject := msg.Subject
	if subject == "" {
		subject = n.cfg.Subject
	}

	m := mail.NewMsg()
	if err := m.From(n.cfg.User); err != nil {
		return nil, fmt.Errorf("email sender: %w", err)
	}
	if err := m.To(recipient); err != nil {
		return nil, fmt.Errorf("email recipient: %w", err)
	}
	m.Subject(subject)
	m.SetDate()
	m.SetBodyString(mail.TypeTextPlain, msg.Body)
	return m, nil
}
