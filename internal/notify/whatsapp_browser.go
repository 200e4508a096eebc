package notify

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/event-tickets/internal/domain"
	apperrors "github.com/spec-kit/event-tickets/pkg/util/errorutil"
)

// BrowserSession is one logged-in WhatsApp Web session.
type BrowserSession interface {
	// Login blocks until the session is authenticated or ctx ends.
	Login(ctx context.Context) error
	SendMessage(ctx context.Context, to, text, mediaPath string) error
	Close() error
}

// WhatsAppBrowserChannel drives a single browser session. Sends are
// serialized through a one-slot semaphore since the session cannot
// multiplex.
type WhatsAppBrowserChannel struct {
	session      BrowserSession
	enabled      bool
	loginTimeout time.Duration
	logger       *zap.Logger

	slot  chan struct{}
	ready atomic.Bool
	stop  context.CancelFunc
	done  chan struct{}
}

func NewWhatsAppBrowserChannel(session BrowserSession, enabled bool, loginTimeout time.Duration, logger *zap.Logger) *WhatsAppBrowserChannel {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loginTimeout <= 0 {
		loginTimeout = 2 * time.Minute
	}
	return &WhatsAppBrowserChannel{
		session:      session,
		enabled:      enabled && session != nil,
		loginTimeout: loginTimeout,
		logger:       logger,
		slot:         make(chan struct{}, 1),
		done:         make(chan struct{}),
	}
}

func (c *WhatsAppBrowserChannel) Name() string     { return ChannelWhatsAppBrowser }
func (c *WhatsAppBrowserChannel) Configured() bool { return c.enabled }

// Ready reports whether the session finished logging in.
func (c *WhatsAppBrowserChannel) Ready() bool { return c.ready.Load() }

// Start logs in in the background. Until it completes, Send reports NotReady.
func (c *WhatsAppBrowserChannel) Start(ctx context.Context) {
	if !c.enabled {
		close(c.done)
		return
	}
	loginCtx, cancel := context.WithTimeout(ctx, c.loginTimeout)
	c.stop = cancel
	go func() {
		defer close(c.done)
		defer cancel()
		c.logger.Info("waiting for whatsapp web login", zap.Duration("timeout", c.loginTimeout))
		if err := c.session.Login(loginCtx); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				err = apperrors.NewTimeout("whatsapp web login", err)
			}
			c.logger.Warn("whatsapp web session not ready", zap.Error(err))
			return
		}
		c.ready.Store(true)
		c.logger.Info("whatsapp web session ready")
	}()
}

// Stop aborts a pending login and closes the session.
func (c *WhatsAppBrowserChannel) Stop() error {
	if !c.enabled {
		return nil
	}
	if c.stop != nil {
		c.stop()
		<-c.done
	}
	c.ready.Store(false)
	return c.session.Close()
}

func (c *WhatsAppBrowserChannel) Send(ctx context.Context, msg Message) (domain.DeliveryResult, error) {
	if !c.ready.Load() {
		return domain.DeliveryResult{}, apperrors.NewNotReady(ChannelWhatsAppBrowser)
	}

	select {
	case c.slot <- struct{}{}:
	case <-ctx.Done():
		return domain.DeliveryResult{}, apperrors.NewTimeout("whatsapp web session wait", ctx.Err())
	}
	defer func() { <-c.slot }()

	mediaPath := msg.MediaRef
	if isRemoteURL(mediaPath) {
		mediaPath = ""
	}
	if err := c.session.SendMessage(ctx, msg.Phone.Canonical, msg.Body, mediaPath); err != nil {
		return domain.DeliveryResult{}, err
	}
	return domain.DeliveryResult{Channel: ChannelWhatsAppBrowser, Success: true}, nil
}
