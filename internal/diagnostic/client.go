// Package diagnostic is the client for the external diagnostic service. The
// service is opaque: it receives a transcript and answers either with
// follow-up questions or with a terminal diagnostic artifact.
package diagnostic

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"triage-bot/internal/httpclient"
)

// ChatEntry is one question/answer pair of the transcript.
type ChatEntry struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Result is the terminal diagnostic artifact.
type Result struct {
	PreDiagnosis string
	Comments     string
	Score        string
	FilledDoc    string
}

// UnmarshalJSON accepts both key spellings the service is known to emit
// (camelCase and snake_case, plus the historical dashed pre-diagnosis key).
func (r *Result) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.PreDiagnosis = firstString(raw, "preDiagnosis", "pre_diagnosis", "pre-diagnosis")
	r.Comments = firstString(raw, "comments")
	r.Score = firstString(raw, "score")
	r.FilledDoc = firstString(raw, "filledDoc", "filled_doc")
	return nil
}

// Empty reports whether the payload carried no diagnostic content at all.
func (r *Result) Empty() bool {
	return r.PreDiagnosis == "" && r.Comments == "" && r.Score == "" && r.FilledDoc == ""
}

func firstString(raw map[string]json.RawMessage, keys ...string) string {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			return s
		}
		// Scores arrive as numbers from some deployments.
		var n json.Number
		if err := json.Unmarshal(v, &n); err == nil {
			return n.String()
		}
		return strings.Trim(string(v), `"`)
	}
	return ""
}

// InitialResponse is the answer to the initial transcript submission: either
// follow-up questions to ask, or a terminal result.
type InitialResponse struct {
	Questions []string
	Result    *Result
}

func (ir *InitialResponse) UnmarshalJSON(data []byte) error {
	var probe struct {
		Questions []string `json:"questions"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	if len(probe.Questions) > 0 {
		ir.Questions = probe.Questions
		return nil
	}
	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		return err
	}
	if !res.Empty() {
		ir.Result = &res
	}
	return nil
}

type request struct {
	PhoneNumber string      `json:"phone_number"`
	Chat        []ChatEntry `json:"chat"`
}

// Client calls the diagnostic service through the retrying client.
type Client struct {
	baseURL string
	http    *httpclient.Client
	log     *slog.Logger
}

// NewClient builds a diagnostic client rooted at baseURL.
func NewClient(baseURL string, hc *httpclient.Client, log *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
		log:     log,
	}
}

// Initial submits the fixed-question transcript. The response contains
// either follow-up questions or a terminal result.
func (c *Client) Initial(ctx context.Context, identifier string, chat []ChatEntry) (*InitialResponse, error) {
	var resp InitialResponse
	err := c.http.PostJSON(ctx, c.baseURL+"/initial", nil, request{PhoneNumber: identifier, Chat: chat}, &resp)
	if err != nil {
		return nil, fmt.Errorf("diagnostic initial call: %w", err)
	}
	c.log.Info("diagnostic initial response", "identifier", identifier, "followups", len(resp.Questions), "terminal", resp.Result != nil)
	return &resp, nil
}

// Final submits the combined transcript and returns the diagnostic artifact.
func (c *Client) Final(ctx context.Context, identifier string, chat []ChatEntry) (*Result, error) {
	var res Result
	err := c.http.PostJSON(ctx, c.baseURL+"/final", nil, request{PhoneNumber: identifier, Chat: chat}, &res)
	if err != nil {
		return nil, fmt.Errorf("diagnostic final call: %w", err)
	}
	if res.Empty() {
		return nil, &httpclient.Error{Kind: httpclient.KindMalformed, Attempts: 1, Err: fmt.Errorf("final response carried no diagnostic content")}
	}
	c.log.Info("diagnostic final response", "identifier", identifier, "score", res.Score)
	return &res, nil
}
