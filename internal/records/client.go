// Package records pushes intake transcripts and completed case records to
// the patient record store. All calls are fire-and-log: a failure here never
// blocks or ends a conversation.
package records

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"triage-bot/internal/diagnostic"
	"triage-bot/internal/httpclient"
)

// CompleteRecord is the full case artifact stored once a diagnosis exists.
type CompleteRecord struct {
	Number           string                 `json:"number"`
	InitialQuestions []diagnostic.ChatEntry `json:"initialQuestions"`
	LLMQuestions     []diagnostic.ChatEntry `json:"llmQuestions"`
	PreDiagnosis     string                 `json:"preDiagnosis"`
	Comments         string                 `json:"comments"`
	Score            string                 `json:"score"`
	FilledDoc        string                 `json:"filledDoc"`
}

// Client talks to the record store.
type Client struct {
	baseURL string
	token   string
	http    *httpclient.Client
	log     *slog.Logger
}

// NewClient builds a record-store client rooted at baseURL.
func NewClient(baseURL, token string, hc *httpclient.Client, log *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    hc,
		log:     log,
	}
}

func (c *Client) headers() map[string]string {
	h := map[string]string{}
	if c.token != "" {
		h["Authorization"] = "Bearer " + c.token
	}
	return h
}

// StoreIntake records the fixed-question transcript.
func (c *Client) StoreIntake(ctx context.Context, number string, chat []diagnostic.ChatEntry) error {
	payload := struct {
		Number string                 `json:"number"`
		Chat   []diagnostic.ChatEntry `json:"chat"`
	}{Number: number, Chat: chat}
	if err := c.http.PostJSON(ctx, c.baseURL+"/intake", c.headers(), payload, nil); err != nil {
		return fmt.Errorf("store intake for %s: %w", number, err)
	}
	return nil
}

// StoreComplete records the full case once the diagnostic artifact exists.
func (c *Client) StoreComplete(ctx context.Context, rec CompleteRecord) error {
	if err := c.http.PostJSON(ctx, c.baseURL+"/complete", c.headers(), rec, nil); err != nil {
		return fmt.Errorf("store complete record for %s: %w", rec.Number, err)
	}
	return nil
}
