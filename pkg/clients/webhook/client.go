package webhook

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/breadlog/internal/config"
)

// Client delivers plain-text reports to an external endpoint.
type Client interface {
	SendReport(ctx context.Context, subject, text string) error
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
	url        string
}

// NewClient builds a webhook client using the provided configuration values.
func NewClient(cfg config.WebhookConfig) *APIClient {
	restyClient := resty.New()
	restyClient.
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)
	if cfg.Token != "" {
		restyClient.SetAuthToken(cfg.Token)
	}

	return &APIClient{httpClient: restyClient, url: cfg.URL}
}

// reportPayload is the body posted to the endpoint.
type reportPayload struct {
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

type apiError struct {
	Message string `json:"message"`
}

// SendReport posts one report.
func (c *APIClient) SendReport(ctx context.Context, subject, text string) error {
	apiErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(reportPayload{Subject: subject, Text: text}).
		SetError(apiErr).
		Post(c.url)
	if err != nil {
		return fmt.Errorf("send report webhook: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		return fmt.Errorf("report webhook error: code=%d, message=%s", resp.StatusCode(), apiErr.Message)
	}

	return nil
}
