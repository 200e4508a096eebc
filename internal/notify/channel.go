// Package notify delivers ticket messages to holders through a prioritized
// chain of channel adapters, and layers bulk and deferred sending on top.
package notify

import (
	"context"

	"github.com/spec-kit/event-tickets/internal/domain"
	"github.com/spec-kit/event-tickets/internal/phone"
)

// Channel names as they appear in configuration and delivery results.
const (
	ChannelSMS              = "sms"
	ChannelEmail            = "email"
	ChannelWhatsAppBusiness = "whatsapp_business"
	ChannelWhatsAppProvider = "whatsapp_provider"
	ChannelWhatsAppBrowser  = "whatsapp_browser"
	ChannelLink             = "link"
)

// Message is one formatted ticket message addressed to a recipient.
type Message struct {
	TicketID  string
	Recipient domain.Recipient
	Phone     phone.Number
	Subject   string
	Body      string
	HTMLBody  string
	// MediaRef is an optional file path or URL. Channels that cannot carry
	// media ignore it.
	MediaRef string
}

// Channel is a single delivery mechanism.
type Channel interface {
	Name() string
	// Configured reports whether the credentials the channel needs are present.
	Configured() bool
	// Send attempts delivery. A returned error is recorded as a failed attempt.
	Send(ctx context.Context, msg Message) (domain.DeliveryResult, error)
}

// recipientFilter is implemented by channels that can only reach some
// recipients, e.g. email needs an address.
type recipientFilter interface {
	Accepts(recipient domain.Recipient) bool
}

// readiness is implemented by channels that need asynchronous setup.
type readiness interface {
	Ready() bool
}
