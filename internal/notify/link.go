package notify

import (
	"context"
	"net/url"
	"strings"

	"github.com/spec-kit/event-tickets/internal/domain"
)

// LinkChannel builds a click-to-chat link the organizer can open by hand.
// It performs no I/O and never fails.
type LinkChannel struct {
	baseURL string
}

func NewLinkChannel() *LinkChannel {
	return &LinkChannel{baseURL: "https://wa.me/"}
}

func (c *LinkChannel) Name() string     { return ChannelLink }
func (c *LinkChannel) Configured() bool { return true }

// Link returns the click-to-chat URL for msg.
func (c *LinkChannel) Link(msg Message) string {
	text := strings.ReplaceAll(url.QueryEscape(msg.Body), "+", "%20")
	return c.baseURL + msg.Phone.Canonical + "?text=" + text
}

func (c *LinkChannel) Send(_ context.Context, msg Message) (domain.DeliveryResult, error) {
	return domain.DeliveryResult{
		Channel: ChannelLink,
		Success: true,
		Link:    c.Link(msg),
	}, nil
}
