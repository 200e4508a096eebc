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

// WhatsAppBusinessChannel sends through the Meta WhatsApp Cloud API.
type WhatsAppBusinessChannel struct {
	cfg    config.MetaConfig
	client *http.Client
}

func NewWhatsAppBusinessChannel(cfg config.MetaConfig, timeout time.Duration) *WhatsAppBusinessChannel {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://graph.facebook.com"
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = "v18.0"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &WhatsAppBusinessChannel{cfg: cfg, client: newHTTPClient(timeout)}
}

func (c *WhatsAppBusinessChannel) Name() string     { return ChannelWhatsAppBusiness }
func (c *WhatsAppBusinessChannel) Configured() bool { return c.cfg.Configured() }

type metaText struct {
	Body string `json:"body"`
}

type metaDocument struct {
	Link     string `json:"link"`
	Filename string `json:"filename"`
	Caption  string `json:"caption,omitempty"`
}

type metaRequest struct {
	MessagingProduct string        `json:"messaging_product"`
	To               string        `json:"to"`
	Type             string        `json:"type"`
	Text             *metaText     `json:"text,omitempty"`
	Document         *metaDocument `json:"document,omitempty"`
}

type metaResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *WhatsAppBusinessChannel) Send(ctx context.Context, msg Message) (domain.DeliveryResult, error) {
	payload := metaRequest{
		MessagingProduct: "whatsapp",
		To:               msg.Phone.Canonical,
	}
	if isRemoteURL(msg.MediaRef) {
		payload.Type = "document"
		payload.Document = &metaDocument{Link: msg.MediaRef, Filename: "bilet.png", Caption: msg.Body}
	} else {
		payload.Type = "text"
		payload.Text = &metaText{Body: msg.Body}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return domain.DeliveryResult{}, err
	}
	endpoint := fmt.Sprintf("%s/%s/%s/messages", c.cfg.BaseURL, c.cfg.APIVersion, c.cfg.PhoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.DeliveryResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)

	var out metaResponse
	if err := doProviderRequest(c.client, req, ChannelWhatsAppBusiness, &out, func(raw []byte) string {
		var e metaResponse
		if json.Unmarshal(raw, &e) == nil && e.Error != nil {
			return e.Error.Message
		}
		return ""
	}); err != nil {
		return domain.DeliveryResult{}, err
	}
	if len(out.Messages) == 0 {
		return domain.DeliveryResult{}, apperrors.NewProviderError(ChannelWhatsAppBusiness, fmt.Errorf("response carried no message id"))
	}

	return domain.DeliveryResult{
		Channel:           ChannelWhatsAppBusiness,
		Success:           true,
		ProviderMessageID: out.Messages[0].ID,
	}, nil
}
