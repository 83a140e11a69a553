// Package telegram talks to the Telegram Bot API: long-polling getUpdates
// and sending replies with sendMessage.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Rnaveennithyakalyan/jobshield-telegram-bot/core"
)

const (
	DefaultBaseURL = "https://api.telegram.org"

	// pollSlack is added to the long-poll timeout for the request deadline,
	// giving the server time to answer an expired poll.
	pollSlack = 10 * time.Second
	parseMode = "Markdown"
)

// Client is a stateless Bot API client.
type Client struct {
	botToken string
	client   *http.Client
	baseURL  string
}

// New creates a client for the given bot token. logger may be nil.
func New(botToken string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		botToken: botToken,
		client:   newHTTPClient(logger),
		baseURL:  DefaultBaseURL,
	}
}

// WithBaseURL overrides the Bot API base URL (for testing).
func (c *Client) WithBaseURL(baseURL string) *Client {
	if baseURL != "" {
		c.baseURL = baseURL
	}
	return c
}

// FetchUpdates long-polls getUpdates. A nil offset omits the parameter so the
// server returns its whole pending backlog. The request is bound to ctx, so
// cancelling ctx interrupts an in-flight poll.
func (c *Client) FetchUpdates(ctx context.Context, offset *int64, timeout time.Duration) ([]core.Update, error) {
	updates, err := c.getUpdates(ctx, offset, timeout)
	if err != nil {
		return nil, &core.TransportError{Op: "getUpdates", Err: err}
	}
	return updates, nil
}

func (c *Client) getUpdates(ctx context.Context, offset *int64, timeout time.Duration) ([]core.Update, error) {
	q := url.Values{}
	q.Set("timeout", strconv.Itoa(int(timeout/time.Second)))
	if offset != nil {
		q.Set("offset", strconv.FormatInt(*offset, 10))
	}
	endpoint := c.methodURL("getUpdates") + "?" + q.Encode()

	ctx, cancel := context.WithTimeout(ctx, timeout+pollSlack)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	var apiResp apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("api status: %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if err := apiError(resp.StatusCode, apiResp); err != nil {
		return nil, err
	}

	var raw []update
	if err := json.Unmarshal(apiResp.Result, &raw); err != nil {
		return nil, fmt.Errorf("decode updates: %w", err)
	}

	updates := make([]core.Update, 0, len(raw))
	for _, u := range raw {
		cu := core.Update{ID: u.UpdateID}
		if u.Message != nil {
			cu.ChatID = u.Message.Chat.ID
			cu.Text = u.Message.Text
		}
		updates = append(updates, cu)
	}
	return updates, nil
}

// SendReply posts r to sendMessage with Markdown formatting. It does not
// retry.
func (c *Client) SendReply(ctx context.Context, r core.Reply) error {
	if err := c.sendMessage(ctx, r); err != nil {
		return &core.TransportError{Op: "sendMessage", Err: err}
	}
	return nil
}

func (c *Client) sendMessage(ctx context.Context, r core.Reply) error {
	body, err := json.Marshal(sendMessageRequest{
		ChatID:    r.ChatID,
		Text:      r.Text,
		ParseMode: parseMode,
	})
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL("sendMessage"), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram request: %w", err)
	}
	defer resp.Body.Close()

	var apiResp apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil && resp.StatusCode == http.StatusOK {
		return fmt.Errorf("decode response: %w", err)
	}
	return apiError(resp.StatusCode, apiResp)
}

func (c *Client) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.botToken, method)
}

// apiError turns a non-200 status or ok=false envelope into an error.
func apiError(status int, resp apiResponse) error {
	if status == http.StatusOK && resp.OK {
		return nil
	}
	if resp.Description != "" {
		return fmt.Errorf("telegram API error %d: %s", status, resp.Description)
	}
	if status != http.StatusOK {
		return fmt.Errorf("api status: %d", status)
	}
	return errors.New("api returned ok=false")
}
