package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/spec-kit/event-tickets/pkg/util/errorutil"
)

const maxProviderBody = 1 << 20

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// doProviderRequest executes req and decodes a 2xx JSON body into out. Non-2xx
// responses are turned into a ProviderError carrying extractErr's message.
func doProviderRequest(client *http.Client, req *http.Request, channel string, out any, extractErr func([]byte) string) error {
	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return apperrors.NewTimeout(channel+" request", err)
		}
		return apperrors.NewProviderError(channel, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProviderBody))
	if err != nil {
		return apperrors.NewProviderError(channel, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(extractErr(body))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return apperrors.NewProviderError(channel, fmt.Errorf("status %d: %s", resp.StatusCode, msg))
	}

	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return apperrors.NewProviderError(channel, fmt.Errorf("decode response: %w", err))
		}
	}
	return nil
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}

func isRemoteURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}
