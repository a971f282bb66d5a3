package whatsapp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"triage-bot/internal/httpclient"
)

func TestMessageContent(t *testing.T) {
	tests := []struct {
		name string
		json string
		want string
	}{
		{
			name: "plain text",
			json: `{"from":"573001112233","type":"text","text":{"body":"hola"}}`,
			want: "hola",
		},
		{
			name: "template button payload wins over label",
			json: `{"from":"573001112233","type":"button","button":{"text":"Aprobar","payload":"approve_573001112233"}}`,
			want: "approve_573001112233",
		},
		{
			name: "template button without payload",
			json: `{"from":"573001112233","type":"button","button":{"text":"Aprobar"}}`,
			want: "Aprobar",
		},
		{
			name: "interactive button reply id",
			json: `{"from":"573001112233","type":"interactive","interactive":{"type":"button_reply","button_reply":{"id":"consent_yes","title":"Sí, acepto"}}}`,
			want: "consent_yes",
		},
		{
			name: "interactive reply falls back to title",
			json: `{"from":"573001112233","type":"interactive","interactive":{"type":"list_reply","list_reply":{"title":"Opción A"}}}`,
			want: "Opción A",
		},
		{
			name: "unsupported type",
			json: `{"from":"573001112233","type":"image"}`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m Message
			if err := json.Unmarshal([]byte(tt.json), &m); err != nil {
				t.Fatal(err)
			}
			if got := m.Content(); got != tt.want {
				t.Errorf("Content() = %q, want %q", got, tt.want)
			}
		})
	}
}

func newTestClient(graphURL, mediaURL string) *Client {
	hc := httpclient.New(httpclient.Options{
		ConnectTimeout: time.Second,
		ReadTimeout:    time.Second,
		Attempts:       1,
		Backoff:        []time.Duration{time.Millisecond},
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return NewClient(graphURL, mediaURL, "test-token", hc, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSendTextPayload(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-token" {
			t.Errorf("Authorization = %q", auth)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, srv.URL)
	if err := c.SendText(context.Background(), "573001112233", "hola"); err != nil {
		t.Fatal(err)
	}
	if got["messaging_product"] != "whatsapp" || got["to"] != "573001112233" || got["type"] != "text" {
		t.Errorf("payload = %v", got)
	}
	text, _ := got["text"].(map[string]any)
	if text["body"] != "hola" {
		t.Errorf("text = %v", text)
	}
}

func TestSendButtonsPayload(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, srv.URL)
	buttons := []Button{
		{ID: "consent_yes", Title: "Sí, acepto"},
		{Title: "No, gracias"}, // empty ID gets generated
	}
	if err := c.SendButtons(context.Background(), "573001112233", "¿Aceptas?", "Términos", buttons); err != nil {
		t.Fatal(err)
	}

	interactive, _ := got["interactive"].(map[string]any)
	if interactive["type"] != "button" {
		t.Fatalf("interactive = %v", interactive)
	}
	action, _ := interactive["action"].(map[string]any)
	rendered, _ := action["buttons"].([]any)
	if len(rendered) != 2 {
		t.Fatalf("buttons = %v", rendered)
	}
	first, _ := rendered[0].(map[string]any)
	reply, _ := first["reply"].(map[string]any)
	if reply["id"] != "consent_yes" || reply["title"] != "Sí, acepto" {
		t.Errorf("first button = %v", reply)
	}
	second, _ := rendered[1].(map[string]any)
	reply2, _ := second["reply"].(map[string]any)
	if reply2["id"] == "" {
		t.Error("empty button id was not generated")
	}
}

func TestSendDocumentUploadsThenSends(t *testing.T) {
	var uploadCT string
	var docPayload map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("/media", func(w http.ResponseWriter, r *http.Request) {
		uploadCT = r.Header.Get("Content-Type")
		w.Write([]byte(`{"id":"media-123"}`))
	})
	mux.HandleFunc("/messages", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&docPayload)
		w.Write([]byte(`{}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := newTestClient(srv.URL+"/messages", srv.URL+"/media")
	err := c.SendDocument(context.Background(), "573226235226", "caso.pdf", []byte("%PDF-1.4"), "Caso")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(uploadCT, "multipart/form-data") {
		t.Errorf("upload content type = %q", uploadCT)
	}
	doc, _ := docPayload["document"].(map[string]any)
	if doc["id"] != "media-123" || doc["filename"] != "caso.pdf" {
		t.Errorf("document payload = %v", doc)
	}
}

func TestSendDocumentFailsOnEmptyMediaID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, srv.URL)
	if err := c.SendDocument(context.Background(), "573226235226", "caso.pdf", []byte("x"), ""); err == nil {
		t.Fatal("expected error for missing media id")
	}
}
