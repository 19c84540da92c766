// Package gateway реализует клиент шлюза доставки сообщений покупателям.
// Шлюз принимает получателя и произвольный текст; протокол доставки
// (мессенджер, SMS) скрыт за его API.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/magabrotheeeer/hosting-aggregator/internal/config"
)

// Client — HTTP-клиент шлюза сообщений.
type Client struct {
	url        string
	token      string
	httpClient *http.Client
}

// New создает клиент шлюза из конфигурации.
func New(cfg config.Gateway) *Client {
	return &Client{
		url:   cfg.GatewayURL,
		token: cfg.GatewayToken,
		httpClient: &http.Client{
			Timeout: cfg.SendTimeout,
		},
	}
}

type sendRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

// Send доставляет текстовое сообщение получателю.
func (c *Client) Send(ctx context.Context, recipient, text string) error {
	const op = "gateway.Send"

	body, err := json.Marshal(sendRequest{To: recipient, Message: text})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/api/send", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s: gateway returned status %d: %s", op, resp.StatusCode, string(detail))
	}
	return nil
}
