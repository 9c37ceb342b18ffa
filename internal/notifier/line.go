package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	lineAPIBase = "https://api.line.me"
	lineTimeout = 15 * time.Second
)

// Line broadcasts text messages through the LINE Messaging API to every
// follower of the bot's official account.
type Line struct {
	accessToken string
	baseURL     string
	httpClient  *http.Client
}

// NewLine creates a LINE notifier with the given channel access token.
func NewLine(accessToken string) (*Line, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("access token is required")
	}

	return &Line{
		accessToken: accessToken,
		baseURL:     lineAPIBase,
		httpClient: &http.Client{
			Timeout: lineTimeout,
		},
	}, nil
}

// Broadcast sends one text message to all followers.
func (l *Line) Broadcast(text string) error {
	if text == "" {
		return fmt.Errorf("message text is required")
	}

	payload := map[string]interface{}{
		"messages": []map[string]string{
			{
				"type": "text",
				"text": text,
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}

	req, err := http.NewRequest("POST", l.baseURL+"/v2/bot/message/broadcast", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	req.Header.Set("Authorization", "Bearer "+l.accessToken)

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending broadcast: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("LINE API error (status %d): %s", resp.StatusCode, string(respBody))
	}
	return nil
}
