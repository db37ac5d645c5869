package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// NotifyClient posts notifications to the external sender webhook. The
// webhook accepts email and sms channels and answers with a remote id
// for the accepted message.
type NotifyClient struct {
	url    string
	from   string
	client *http.Client
}

func NewNotifyClient(url, from string, timeout time.Duration) *NotifyClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &NotifyClient{
		url:  url,
		from: from,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type sendRequest struct {
	Channel string `json:"channel"`
	To      string `json:"to"`
	From    string `json:"from,omitempty"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type sendResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
	Error   string `json:"error"`
}

func (c *NotifyClient) Send(ctx context.Context, channel, to, subject, body string) (string, error) {
	reqBody, err := json.Marshal(sendRequest{
		Channel: channel,
		To:      to,
		From:    c.from,
		Subject: subject,
		Body:    body,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(reqBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return "", fmt.Errorf("unexpected status code: %d body=%q", resp.StatusCode, string(raw))
	}

	var sr sendResponse
	if err := json.Unmarshal(raw, &sr); err != nil {
		return "", fmt.Errorf("failed to decode json: %w body=%q", err, string(raw))
	}
	if !sr.Success {
		if sr.Error != "" {
			return "", fmt.Errorf("sender rejected message: %s", sr.Error)
		}
		return "", fmt.Errorf("sender rejected message body=%q", string(raw))
	}
	if sr.ID == "" {
		return "", fmt.Errorf("missing id in response body=%q", string(raw))
	}

	return sr.ID, nil
}
