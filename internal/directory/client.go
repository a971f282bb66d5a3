// Package directory fetches the externally managed list of authorized
// reviewer identifiers.
package directory

import (
	"context"
	"fmt"
	"log/slog"

	"triage-bot/internal/httpclient"
)

// Client reads the authorized-reviewer registry.
type Client struct {
	url   string
	token string
	http  *httpclient.Client
	log   *slog.Logger
}

// NewClient builds a directory client. token may be empty when the endpoint
// is unauthenticated.
func NewClient(url, token string, hc *httpclient.Client, log *slog.Logger) *Client {
	return &Client{url: url, token: token, http: hc, log: log}
}

// Reviewers returns the raw (uncanonicalized) authorized identifiers.
func (c *Client) Reviewers(ctx context.Context) ([]string, error) {
	var resp struct {
		PhoneNumbers    []string `json:"phoneNumbers"`
		PhoneNumbersAlt []string `json:"phone_numbers"`
		Count           int      `json:"count"`
	}
	headers := map[string]string{}
	if c.token != "" {
		headers["Authorization"] = "Bearer " + c.token
	}
	if err := c.http.GetJSON(ctx, c.url, headers, &resp); err != nil {
		return nil, fmt.Errorf("fetch authorized reviewers: %w", err)
	}
	numbers := resp.PhoneNumbers
	if len(numbers) == 0 {
		numbers = resp.PhoneNumbersAlt
	}
	c.log.Info("fetched authorized reviewers", "count", len(numbers))
	return numbers, nil
}
