// Package whatsapp is the messaging-gateway client and webhook payload
// parsing for the WhatsApp Business (Graph) API.
package whatsapp

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"mime/multipart"

	"github.com/google/uuid"

	"triage-bot/internal/httpclient"
)

// Button is one interactive reply option. ID travels back in the webhook as
// the button payload, Title is what the recipient sees.
type Button struct {
	ID    string
	Title string
}

// Client sends messages through the Graph API.
type Client struct {
	graphURL string
	mediaURL string
	token    string
	http     *httpclient.Client
	log      *slog.Logger
}

// NewClient builds a gateway client. graphURL is the /messages endpoint,
// mediaURL the /media upload endpoint of the same phone number.
func NewClient(graphURL, mediaURL, token string, hc *httpclient.Client, log *slog.Logger) *Client {
	return &Client{
		graphURL: graphURL,
		mediaURL: mediaURL,
		token:    token,
		http:     hc,
		log:      log,
	}
}

func (c *Client) headers() map[string]string {
	return map[string]string{"Authorization": "Bearer " + c.token}
}

// SendText sends a plain text message.
func (c *Client) SendText(ctx context.Context, to, body string) error {
	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "text",
		"text":              map[string]string{"body": body},
	}
	if err := c.http.PostJSON(ctx, c.graphURL, c.headers(), payload, nil); err != nil {
		return fmt.Errorf("send text to %s: %w", to, err)
	}
	c.log.Debug("sent text message", "to", to, "bytes", len(body))
	return nil
}

// SendButtons sends an interactive reply-button message. The gateway limits
// these to three buttons, which matches every use in this service.
func (c *Client) SendButtons(ctx context.Context, to, body, footer string, buttons []Button) error {
	actions := make([]map[string]any, 0, len(buttons))
	for _, b := range buttons {
		id := b.ID
		if id == "" {
			id = uuid.NewString()
		}
		actions = append(actions, map[string]any{
			"type": "reply",
			"reply": map[string]string{
				"id":    id,
				"title": b.Title,
			},
		})
	}
	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "interactive",
		"interactive": map[string]any{
			"type":   "button",
			"body":   map[string]string{"text": body},
			"footer": map[string]string{"text": footer},
			"action": map[string]any{"buttons": actions},
		},
	}
	if err := c.http.PostJSON(ctx, c.graphURL, c.headers(), payload, nil); err != nil {
		return fmt.Errorf("send buttons to %s: %w", to, err)
	}
	c.log.Debug("sent interactive message", "to", to, "buttons", len(buttons))
	return nil
}

// SendDocument uploads the document to the media endpoint and sends it as an
// attachment message.
func (c *Client) SendDocument(ctx context.Context, to, filename string, data []byte, caption string) error {
	mediaID, err := c.uploadMedia(ctx, filename, data)
	if err != nil {
		return fmt.Errorf("upload document for %s: %w", to, err)
	}
	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "document",
		"document": map[string]string{
			"id":       mediaID,
			"filename": filename,
			"caption":  caption,
		},
	}
	if err := c.http.PostJSON(ctx, c.graphURL, c.headers(), payload, nil); err != nil {
		return fmt.Errorf("send document to %s: %w", to, err)
	}
	c.log.Debug("sent document", "to", to, "filename", filename, "bytes", len(data))
	return nil
}

func (c *Client) uploadMedia(ctx context.Context, filename string, data []byte) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("messaging_product", "whatsapp"); err != nil {
		return "", err
	}
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	var resp struct {
		ID string `json:"id"`
	}
	if err := c.http.PostRaw(ctx, c.mediaURL, c.headers(), w.FormDataContentType(), buf.Bytes(), &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", fmt.Errorf("media upload returned empty id")
	}
	return resp.ID, nil
}
