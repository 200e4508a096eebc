package notify

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wneessen/go-mail"

	"github.com/spec-kit/event-tickets/internal/config"
	"github.com/spec-kit/event-tickets/internal/domain"
	apperrors "github.com/spec-kit/event-tickets/pkg/util/errorutil"
)

// EmailChannel relays ticket messages over SMTP. It only reaches recipients
// with an email address.
type EmailChannel struct {
	cfg     config.EmailConfig
	timeout time.Duration
}

func NewEmailChannel(cfg config.EmailConfig, timeout time.Duration) *EmailChannel {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &EmailChannel{cfg: cfg, timeout: timeout}
}

func (c *EmailChannel) Name() string     { return ChannelEmail }
func (c *EmailChannel) Configured() bool { return c.cfg.Configured() }

// Accepts reports whether the recipient carries an email address.
func (c *EmailChannel) Accepts(recipient domain.Recipient) bool {
	return strings.TrimSpace(recipient.Email) != ""
}

func (c *EmailChannel) buildMessage(msg Message) (*mail.Msg, string, error) {
	m := mail.NewMsg()
	if err := m.From(c.cfg.Sender()); err != nil {
		return nil, "", fmt.Errorf("invalid sender: %w", err)
	}
	if err := m.To(strings.TrimSpace(msg.Recipient.Email)); err != nil {
		return nil, "", fmt.Errorf("invalid recipient: %w", err)
	}
	subject := msg.Subject
	if subject == "" {
		subject = ticketSubject
	}
	m.Subject(subject)

	domainPart := c.cfg.Host
	if at := strings.LastIndex(c.cfg.Sender(), "@"); at >= 0 {
		domainPart = c.cfg.Sender()[at+1:]
	}
	messageID := uuid.NewString()
	m.SetGenHeader(mail.HeaderMessageID, fmt.Sprintf("<%s@%s>", messageID, domainPart))

	m.SetBodyString(mail.TypeTextPlain, msg.Body)
	if msg.HTMLBody != "" {
		m.AddAlternativeString(mail.TypeTextHTML, msg.HTMLBody)
	}
	if msg.MediaRef != "" && !isRemoteURL(msg.MediaRef) {
		if info, err := os.Stat(msg.MediaRef); err == nil && !info.IsDir() {
			m.AttachFile(msg.MediaRef)
		}
	}
	return m, messageID, nil
}

func (c *EmailChannel) Send(ctx context.Context, msg Message) (domain.DeliveryResult, error) {
	m, messageID, err := c.buildMessage(msg)
	if err != nil {
		return domain.DeliveryResult{}, apperrors.NewValidationError(err.Error(), map[string]any{"channel": ChannelEmail})
	}

	client, err := mail.NewClient(c.cfg.Host,
		mail.WithPort(c.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(c.cfg.User),
		mail.WithPassword(c.cfg.Password),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(c.timeout),
	)
	if err != nil {
		return domain.DeliveryResult{}, apperrors.NewProviderError(ChannelEmail, err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return domain.DeliveryResult{}, apperrors.NewTimeout("smtp send", err)
		}
		return domain.DeliveryResult{}, apperrors.NewProviderError(ChannelEmail, err)
	}

	return domain.DeliveryResult{
		Channel:           ChannelEmail,
		Success:           true,
		ProviderMessageID: messageID,
	}, nil
}
