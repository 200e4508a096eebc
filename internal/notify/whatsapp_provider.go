package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spec-kit/event-tickets/internal/config"
	"github.com/spec-kit/event-tickets/internal/domain"
	apperrors "github.com/spec-kit/event-tickets/pkg/util/errorutil"
)

// WhatsAppProviderChannel sends through the Infobip WhatsApp API.
type WhatsAppProviderChannel struct {
	cfg    config.InfobipConfig
	client *http.Client
}

func NewWhatsAppProviderChannel(cfg config.InfobipConfig, timeout time.Duration) *WhatsAppProviderChannel {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.BaseURL != "" && !isRemoteURL(cfg.BaseURL) {
		cfg.BaseURL = "https://" + cfg.BaseURL
	}
	return &WhatsAppProviderChannel{cfg: cfg, client: newHTTPClient(timeout)}
}

func (c *WhatsAppProviderChannel) Name() string     { return ChannelWhatsAppProvider }
func (c *WhatsAppProviderChannel) Configured() bool { return c.cfg.Configured() }

type infobipImage struct {
	URL     string `json:"url"`
	Caption string `json:"caption,omitempty"`
}

type infobipContent struct {
	Type  string        `json:"type"`
	Text  string        `json:"text,omitempty"`
	Image *infobipImage `json:"image,omitempty"`
}

type infobipMessage struct {
	From    string         `json:"from"`
	To      string         `json:"to"`
	Content infobipContent `json:"content"`
}

type infobipRequest struct {
	Messages []infobipMessage `json:"messages"`
}

type infobipResponse struct {
	Messages []struct {
		MessageID string `json:"messageId"`
	} `json:"messages"`
	RequestError *struct {
		ServiceException struct {
			Text string `json:"text"`
		} `json:"serviceException"`
	} `json:"requestError"`
}

func (c *WhatsAppProviderChannel) Send(ctx context.Context, msg Message) (domain.DeliveryResult, error) {
	content := infobipContent{Type: "text", Text: msg.Body}
	if isRemoteURL(msg.MediaRef) {
		content = infobipContent{Type: "image", Image: &infobipImage{URL: msg.MediaRef, Caption: msg.Body}}
	}
	body, err := json.Marshal(infobipRequest{Messages: []infobipMessage{{
		From:    c.cfg.Sender,
		To:      msg.Phone.Canonical,
		Content: content,
	}}})
	if err != nil {
		return domain.DeliveryResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/whatsapp/1/message/text", bytes.NewReader(body))
	if err != nil {
		return domain.DeliveryResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "App "+c.cfg.APIKey)

	var out infobipResponse
	if err := doProviderRequest(c.client, req, ChannelWhatsAppProvider, &out, func(raw []byte) string {
		var e infobipResponse
		if json.Unmarshal(raw, &e) == nil && e.RequestError != nil {
			return e.RequestError.ServiceException.Text
		}
		return ""
	}); err != nil {
		return domain.DeliveryResult{}, err
	}
	if len(out.Messages) == 0 {
		return domain.DeliveryResult{}, apperrors.NewProviderError(ChannelWhatsAppProvider, fmt.Errorf("response carried no message id"))
	}

	return domain.DeliveryResult{
		Channel:           ChannelWhatsAppProvider,
		Success:           true,
		ProviderMessageID: out.Messages[0].MessageID,
	}, nil
}
