package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPSMSConfig configures HTTPSMSSender.
type HTTPSMSConfig struct {
	GatewayURL string
	Token      string
	From       string
	Timeout    time.Duration
}

// HTTPSMSSender posts {to, from, body} as JSON to an SMS gateway with a bearer token.
type HTTPSMSSender struct {
	cfg    HTTPSMSConfig
	client *http.Client
}

type smsRequest struct {
	To   string `json:"to"`
	From string `json:"from,omitempty"`
	Body string `json:"body"`
}

// NewHTTPSMSSender validates cfg and creates a sender.
func NewHTTPSMSSender(cfg HTTPSMSConfig) (*HTTPSMSSender, error) {
	if cfg.GatewayURL == "" {
		return nil, fmt.Errorf("sms gateway url is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &HTTPSMSSender{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}, nil
}

// SendSMS implements SMSSender. Any non-2xx response is an error.
func (s *HTTPSMSSender) SendSMS(ctx context.Context, to, body string) error {
	payload, err := json.Marshal(smsRequest{To: to, From: s.cfg.From, Body: body})
	if err != nil {
		return fmt.Errorf("encode sms: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.GatewayURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.Token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send sms: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sms gateway returned %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}
	return nil
}
