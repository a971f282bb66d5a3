package whatsapp

// Webhook payload types for inbound message events. Only the fields this
// service reads are declared.

// Event is the top-level webhook body.
type Event struct {
	Entry []Entry `json:"entry"`
}

type Entry struct {
	Changes []Change `json:"changes"`
}

type Change struct {
	Value Value `json:"value"`
}

type Value struct {
	Messages []Message `json:"messages"`
}

// Message is one inbound message: plain text, a template button press, or an
// interactive reply.
type Message struct {
	From        string       `json:"from"`
	Type        string       `json:"type"`
	Text        *Text        `json:"text,omitempty"`
	Button      *ButtonPress `json:"button,omitempty"`
	Interactive *Interactive `json:"interactive,omitempty"`
}

type Text struct {
	Body string `json:"body"`
}

type ButtonPress struct {
	Text    string `json:"text"`
	Payload string `json:"payload"`
}

type Interactive struct {
	Type        string `json:"type"`
	ButtonReply *Reply `json:"button_reply,omitempty"`
	ListReply   *Reply `json:"list_reply,omitempty"`
}

type Reply struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Content extracts the routable text of a message. Interactive replies yield
// the structured payload id when present (it may embed a user identifier,
// e.g. "approve_573226235226"), otherwise the visible title; unsupported
// message types yield "".
func (m *Message) Content() string {
	switch m.Type {
	case "text":
		if m.Text != nil {
			return m.Text.Body
		}
	case "button":
		if m.Button != nil {
			if m.Button.Payload != "" {
				return m.Button.Payload
			}
			return m.Button.Text
		}
	case "interactive":
		if m.Interactive == nil {
			return ""
		}
		var r *Reply
		switch m.Interactive.Type {
		case "button_reply":
			r = m.Interactive.ButtonReply
		case "list_reply":
			r = m.Interactive.ListReply
		}
		if r != nil {
			if r.ID != "" {
				return r.ID
			}
			return r.Title
		}
	}
	return ""
}
