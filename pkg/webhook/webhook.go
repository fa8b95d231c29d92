package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"github.com/avast/retry-go/v4"
	"github.com/txsociety/w5signer/pkg/core"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

type Client struct {
	client   *http.Client
	url      string
	attempts uint
	delay    time.Duration
}

func NewClient(webhookURL string) (*Client, error) {
	_, err := url.ParseRequestURI(webhookURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %s", webhookURL)
	}
	return &Client{
		client:   &http.Client{Timeout: 10 * time.Second},
		url:      webhookURL,
		attempts: 3,
		delay:    time.Second,
	}, nil
}

// Send posts the message status. Failed deliveries are retried with a growing delay.
func (s *Client) Send(ctx context.Context, message core.OutboundMessagePrintable) error {
	jsonData, err := json.Marshal(message)
	if err != nil {
		return err
	}
	err = retry.Do(func() error {
		request, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(jsonData))
		if err != nil {
			return retry.Unrecoverable(err)
		}
		request.Header.Set("Content-Type", "application/json; charset=UTF-8")
		return doRequest(s.client, request)
	},
		retry.Context(ctx),
		retry.Attempts(s.attempts),
		retry.Delay(s.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(attempt uint, err error) {
			slog.Info("webhook sending", "attempt", attempt+1, "error", err.Error())
		}),
	)
	if err != nil {
		return fmt.Errorf("attempts to send a webhook ended: %w", err)
	}
	return nil
}

func doRequest(client *http.Client, request *http.Request) error {
	response, err := client.Do(request)
	if err != nil {
		return fmt.Errorf("webhook sending error: %w", err)
	}
	defer func() {
		err := response.Body.Close()
		if err != nil {
			slog.Error("response body close", "error", err.Error())
		}
	}()
	if response.StatusCode >= 200 && response.StatusCode < 300 {
		return nil
	}
	return fmt.Errorf("webhook response status: %v", response.Status)
}
