package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spec-kit/event-tickets/internal/config"
	"github.com/spec-kit/event-tickets/internal/domain"
)

// SMSChannel sends through the Twilio messages API.
type SMSChannel struct {
	cfg    config.TwilioConfig
	client *http.Client
}

func NewSMSChannel(cfg config.TwilioConfig, timeout time.Duration) *SMSChannel {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.twilio.com"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &SMSChannel{cfg: cfg, client: newHTTPClient(timeout)}
}

func (c *SMSChannel) Name() string     { return ChannelSMS }
func (c *SMSChannel) Configured() bool { return c.cfg.Configured() }

type twilioResponse struct {
	SID     string `json:"sid"`
	Message string `json:"message"`
}

func (c *SMSChannel) Send(ctx context.Context, msg Message) (domain.DeliveryResult, error) {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.cfg.BaseURL, url.PathEscape(c.cfg.AccountSID))
	form := url.Values{}
	form.Set("To", msg.Phone.E164())
	form.Set("From", c.cfg.FromNumber)
	form.Set("Body", msg.Body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return domain.DeliveryResult{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.cfg.AccountSID, c.cfg.AuthToken)

	var out twilioResponse
	if err := doProviderRequest(c.client, req, ChannelSMS, &out, func(body []byte) string {
		var e twilioResponse
		_ = json.Unmarshal(body, &e)
		return e.Message
	}); err != nil {
		return domain.DeliveryResult{}, err
	}

	return domain.DeliveryResult{
		Channel:           ChannelSMS,
		Success:           true,
		ProviderMessageID: out.SID,
	}, nil
}
