package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/jobscout/internal/domain"
)

const (
	// SecretHeader carries the shared secret on /post.
	SecretHeader = "X-Shared-Secret"

	DefaultHTTPTimeout = 30 * time.Second
)

// HTTPSink posts items to a remote jobscout (or legacy) /post endpoint.
type HTTPSink struct {
	url    string
	secret string
	client *http.Client
}

// NewHTTPSink creates a remote sink; a nil client gets a 30s timeout one.
func NewHTTPSink(url, secret string, client *http.Client) *HTTPSink {
	if client == nil {
		client = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	return &HTTPSink{url: url, secret: secret, client: client}
}

func (s *HTTPSink) Submit(ctx context.Context, item domain.AcceptedItem) (domain.SubmitStatus, error) {
	if err := item.Validate(); err != nil {
		return 0, err
	}

	body, err := json.Marshal(NewPayload(item))
	if err != nil {
		return 0, fmt.Errorf("%w: encode payload: %w", domain.ErrValidation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("%w: build request: %w", domain.ErrStorage, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.secret != "" {
		req.Header.Set(SecretHeader, s.secret)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: post %s: %w", domain.ErrStorage, s.url, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return 0, fmt.Errorf("%w: read response: %w", domain.ErrStorage, err)
	}

	var out Response
	_ = json.Unmarshal(raw, &out)

	switch {
	case resp.StatusCode == http.StatusOK:
		status, ok := domain.ParseSubmitStatus(out.Status)
		if !ok {
			return 0, fmt.Errorf("%w: unexpected sink status %q", domain.ErrStorage, out.Status)
		}
		return status, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return 0, fmt.Errorf("%w: sink rejected item (%d): %s", domain.ErrValidation, resp.StatusCode, describe(out, raw))
	default:
		return 0, fmt.Errorf("%w: sink returned %d: %s", domain.ErrStorage, resp.StatusCode, describe(out, raw))
	}
}

func describe(out Response, raw []byte) string {
	if out.Error != "" {
		return out.Error
	}
	return string(bytes.TrimSpace(raw))
}
