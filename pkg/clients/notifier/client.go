package notifier

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/gestock/internal/config"
)

// Client exposes the report notification operation used by the scheduler.
type Client interface {
	PublishReport(ctx context.Context, notification ReportNotification) error
}

// ReportNotification is the JSON payload posted to the configured webhook
// after each scheduled export.
type ReportNotification struct {
	Start   string `json:"debut"`
	End     string `json:"fin"`
	File    string `json:"fichier"`
	Summary string `json:"resume"`
}

// WebhookClient is a resty-backed implementation of Client.
type WebhookClient struct {
	httpClient *resty.Client
	url        string
}

// NewClient builds a webhook notifier using the provided configuration
// values.
func NewClient(cfg config.NotifierConfig) *WebhookClient {
	restyClient := resty.New()
	restyClient.
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second)

	return &WebhookClient{
		httpClient: restyClient,
		url:        cfg.WebhookURL,
	}
}

// PublishReport posts the notification payload to the webhook.
func (c *WebhookClient) PublishReport(ctx context.Context, notification ReportNotification) error {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(notification).
		Post(c.url)
	if err != nil {
		return fmt.Errorf("publish report notification: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		return fmt.Errorf("report webhook error: code=%d, body=%s", resp.StatusCode(), resp.String())
	}

	return nil
}
