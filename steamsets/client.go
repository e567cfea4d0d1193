// Package steamsets lists the badges of an app through the SteamSets API.
package steamsets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/robertmeta/badge-cli/model"
	"github.com/tidwall/gjson"
)

// DefaultURL is the listBadges endpoint.
const DefaultURL = "https://api.steamsets.com/v1/app.listBadges"

var (
	ErrMissingAPIKey = errors.New("steamsets API key is not set")
	ErrUnauthorized  = errors.New("steamsets API rejected the API key")
	ErrInvalidJSON   = errors.New("steamsets API returned invalid JSON")
	ErrInvalidFormat = errors.New("steamsets API response has no badges array")
)

// StatusError is returned for any non-200, non-401 response.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("steamsets API returned status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("steamsets API returned status %d", e.Status)
}

// NetworkError wraps a transport failure.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("steamsets API request failed: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// UserMessage turns a ListBadges error into the text shown in place of
// the badge list.
func UserMessage(err error) string {
	var statusErr *StatusError
	var netErr *NetworkError

	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingAPIKey):
		return "SteamSets API key is not set. Badge list unavailable."
	case errors.Is(err, ErrUnauthorized):
		return "SteamSets API Error: Unauthorized (401). Please check your API key configuration."
	case errors.Is(err, ErrInvalidJSON):
		return "Error fetching badge list: Invalid JSON response."
	case errors.Is(err, ErrInvalidFormat):
		return "Error fetching badge list: Invalid data format."
	case errors.As(err, &statusErr):
		msg := fmt.Sprintf("Error fetching badge list. Status: %d.", statusErr.Status)
		if statusErr.Message != "" {
			msg += " Message: " + statusErr.Message
		}
		return msg
	case errors.As(err, &netErr):
		return "Network error fetching badge list."
	default:
		return "Error fetching badge list."
	}
}

// Client calls the SteamSets API.
type Client struct {
	url    string
	apiKey string
	client *http.Client
	logger *slog.Logger
}

// NewClient creates a Client. An empty url selects DefaultURL.
func NewClient(url, apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	if url == "" {
		url = DefaultURL
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		url:    url,
		apiKey: apiKey,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

type listBadgesRequest struct {
	AppID int64 `json:"appId"`
}

// ListBadges fetches, normalizes and sorts every badge of appID.
func (c *Client) ListBadges(ctx context.Context, appID int64) ([]model.APIBadge, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	payload, err := json.Marshal(listBadgesRequest{AppID: appID})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	c.logger.Debug("requesting badge list", "app_id", appID)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}

	c.logger.Debug("badge list response", "app_id", appID, "status", resp.StatusCode)

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return nil, ErrUnauthorized
	default:
		statusErr := &StatusError{Status: resp.StatusCode}
		if gjson.ValidBytes(body) {
			if msg := gjson.GetBytes(body, "message"); msg.Type == gjson.String {
				statusErr.Message = msg.Str
			}
		}
		return nil, statusErr
	}

	if !gjson.ValidBytes(body) {
		return nil, ErrInvalidJSON
	}
	badges := gjson.GetBytes(body, "badges")
	if !badges.IsArray() {
		return nil, ErrInvalidFormat
	}

	result := NormalizeAndSort(badges.Array(), appID)
	c.logger.Info("fetched badge list", "app_id", appID, "count", len(result))
	return result, nil
}
