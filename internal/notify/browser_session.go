package notify

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/spec-kit/event-tickets/internal/config"
	apperrors "github.com/spec-kit/event-tickets/pkg/util/errorutil"
)

const (
	whatsAppWebURL     = "https://web.whatsapp.com"
	selChatList        = `[data-testid="chat-list"]`
	selComposeBox      = `[data-testid="conversation-compose-box-input"]`
	selAttachButton    = `[data-testid="compose-btn-attach"]`
	selAttachImage     = `[data-testid="attach-image"]`
	selFileInput       = `input[type="file"]`
	selMediaPreview    = `[data-testid="media-preview"]`
	selSendButton      = `[data-testid="send"]`
	browserSendTimeout = 45 * time.Second
)

// ChromeSession is a BrowserSession backed by a Chrome instance whose
// profile directory persists the WhatsApp Web login between restarts.
type ChromeSession struct {
	cfg    config.BrowserConfig
	logger *zap.Logger

	mu          sync.Mutex
	browserCtx  context.Context
	allocCancel context.CancelFunc
	ctxCancel   context.CancelFunc
}

func NewChromeSession(cfg config.BrowserConfig, logger *zap.Logger) *ChromeSession {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChromeSession{cfg: cfg, logger: logger}
}

func (s *ChromeSession) browser() (context.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.browserCtx != nil {
		return s.browserCtx, nil
	}

	if s.cfg.SessionDir != "" {
		if err := os.MkdirAll(s.cfg.SessionDir, 0o700); err != nil {
			return nil, fmt.Errorf("create session dir: %w", err)
		}
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", s.cfg.Headless),
		chromedp.UserDataDir(s.cfg.SessionDir),
	)
	if s.cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(s.cfg.ExecPath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, ctxCancel := chromedp.NewContext(allocCtx)

	// The first Run allocates the browser; it must not be tied to a
	// short-lived context or the browser dies with it.
	if err := chromedp.Run(browserCtx); err != nil {
		ctxCancel()
		allocCancel()
		return nil, fmt.Errorf("start browser: %w", err)
	}
	s.browserCtx, s.allocCancel, s.ctxCancel = browserCtx, allocCancel, ctxCancel
	return browserCtx, nil
}

// run executes actions on the browser, bounded by both ctx and timeout.
func (s *ChromeSession) run(ctx context.Context, op string, timeout time.Duration, actions ...chromedp.Action) error {
	browserCtx, err := s.browser()
	if err != nil {
		return apperrors.NewProviderError(ChannelWhatsAppBrowser, err)
	}
	runCtx, cancel := context.WithTimeout(browserCtx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return apperrors.NewTimeout(op, err)
		}
		return apperrors.NewProviderError(ChannelWhatsAppBrowser, err)
	}
	return nil
}

func (s *ChromeSession) Login(ctx context.Context) error {
	timeout := s.cfg.LoginTimeout()
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	s.logger.Info("opening whatsapp web; scan the QR code if prompted", zap.String("session_dir", s.cfg.SessionDir))
	return s.run(ctx, "whatsapp web login", timeout,
		chromedp.Navigate(whatsAppWebURL),
		chromedp.WaitVisible(selChatList, chromedp.ByQuery),
	)
}

func (s *ChromeSession) SendMessage(ctx context.Context, to, text, mediaPath string) error {
	actions := []chromedp.Action{
		chromedp.Navigate(whatsAppWebURL + "/send?phone=" + to),
		chromedp.WaitVisible(selComposeBox, chromedp.ByQuery),
		chromedp.Click(selComposeBox, chromedp.ByQuery),
		chromedp.SendKeys(selComposeBox, text, chromedp.ByQuery),
	}
	if mediaPath != "" {
		if _, err := os.Stat(mediaPath); err == nil {
			actions = append(actions,
				chromedp.Click(selAttachButton, chromedp.ByQuery),
				chromedp.WaitVisible(selAttachImage, chromedp.ByQuery),
				chromedp.Click(selAttachImage, chromedp.ByQuery),
				chromedp.SetUploadFiles(selFileInput, []string{mediaPath}, chromedp.ByQuery),
				chromedp.WaitVisible(selMediaPreview, chromedp.ByQuery),
			)
		}
	}
	actions = append(actions,
		chromedp.Click(selSendButton, chromedp.ByQuery),
		chromedp.Sleep(2*time.Second),
	)
	return s.run(ctx, "whatsapp web send", browserSendTimeout, actions...)
}

func (s *ChromeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctxCancel != nil {
		s.ctxCancel()
		s.allocCancel()
	}
	s.browserCtx, s.ctxCancel, s.allocCancel = nil, nil, nil
	return nil
}
