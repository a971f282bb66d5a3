// Package server exposes the HTTP surface: the gateway webhook pair, a
// health probe, and read-mostly debug endpoints over the live session stores.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"triage-bot/internal/phone"
	"triage-bot/internal/platform/whatsapp"
	"triage-bot/internal/session"
)

// MessageRouter consumes one inbound message.
type MessageRouter interface {
	Route(ctx context.Context, from, text string)
}

type Handler struct {
	verifyToken string
	router      MessageRouter
	users       *session.Store[session.User]
	reviewers   *session.Store[session.Reviewer]
	canon       *phone.Canonicalizer
	log         *slog.Logger
}

func NewHandler(
	verifyToken string,
	r MessageRouter,
	users *session.Store[session.User],
	reviewers *session.Store[session.Reviewer],
	canon *phone.Canonicalizer,
	log *slog.Logger,
) *Handler {
	return &Handler{
		verifyToken: verifyToken,
		router:      r,
		users:       users,
		reviewers:   reviewers,
		canon:       canon,
		log:         log,
	}
}

// VerifyWebhook answers the gateway's subscription handshake.
func (h *Handler) VerifyWebhook(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("hub.mode") == "subscribe" && q.Get("hub.verify_token") == h.verifyToken {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(q.Get("hub.challenge")))
		return
	}
	h.log.Warn("webhook verification rejected", "mode", q.Get("hub.mode"))
	http.Error(w, "Forbidden", http.StatusForbidden)
}

// ReceiveWebhook acknowledges the event immediately and processes each
// message on its own goroutine. The gateway redelivers on non-2xx, so even a
// malformed body is acknowledged after logging.
func (h *Handler) ReceiveWebhook(w http.ResponseWriter, r *http.Request) {
	var event whatsapp.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		h.log.Warn("undecodable webhook body", "error", err)
		w.WriteHeader(http.StatusOK)
		return
	}

	for _, entry := range event.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				content := msg.Content()
				if msg.From == "" || content == "" {
					continue
				}
				go h.router.Route(context.Background(), msg.From, content)
			}
		}
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"users":     h.users.Len(),
		"reviewers": h.reviewers.Len(),
	})
}

type userSummary struct {
	Phone        string    `json:"phone"`
	State        string    `json:"state"`
	Answers      int       `json:"answers"`
	Followups    int       `json:"followups"`
	LastActivity time.Time `json:"last_activity"`
}

type userDetail struct {
	Phone             string                    `json:"phone"`
	State             string                    `json:"state"`
	ConsentGiven      bool                      `json:"consent_given"`
	FixedAnswers      []session.Answer          `json:"fixed_answers"`
	FollowupQuestions []string                  `json:"followup_questions"`
	FollowupAnswers   []session.Answer          `json:"followup_answers"`
	Diagnostic        *session.DiagnosticResult `json:"diagnostic,omitempty"`
	NotifiedReviewers []string                  `json:"notified_reviewers"`
	FinalDecision     *session.Decision         `json:"final_decision,omitempty"`
	CreatedAt         time.Time                 `json:"created_at"`
	LastActivity      time.Time                 `json:"last_activity"`
}

func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	out := []userSummary{}
	h.users.Range(func(id string, u *session.User) {
		out = append(out, userSummary{
			Phone:        u.Phone,
			State:        string(u.State),
			Answers:      len(u.FixedAnswers),
			Followups:    len(u.FollowupAnswers),
			LastActivity: u.LastActivity,
		})
	})
	writeJSON(w, http.StatusOK, map[string]any{"count": len(out), "sessions": out})
}

// userView copies everything out of the session. The detail is encoded after
// the session lock is released, so it must not alias live slices or pointers.
func userView(u *session.User) userDetail {
	d := userDetail{
		Phone:             u.Phone,
		State:             string(u.State),
		ConsentGiven:      u.ConsentGiven,
		FixedAnswers:      append([]session.Answer(nil), u.FixedAnswers...),
		FollowupQuestions: append([]string(nil), u.FollowupQuestions...),
		FollowupAnswers:   append([]session.Answer(nil), u.FollowupAnswers...),
		CreatedAt:         u.CreatedAt,
		LastActivity:      u.LastActivity,
	}
	if u.Diagnostic != nil {
		diag := *u.Diagnostic
		d.Diagnostic = &diag
	}
	if u.FinalDecision != nil {
		dec := *u.FinalDecision
		d.FinalDecision = &dec
	}
	d.NotifiedReviewers = make([]string, 0, len(u.NotifiedReviewers))
	for rev := range u.NotifiedReviewers {
		d.NotifiedReviewers = append(d.NotifiedReviewers, rev)
	}
	return d
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	id := h.canon.Canonical(chi.URLParam(r, "phone"))
	var detail userDetail
	found := h.users.With(id, func(u *session.User) {
		detail = userView(u)
	})
	if !found {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// ResetSession discards a user session and starts it over at the consent
// gate. Intended for operators unblocking a stuck conversation.
func (h *Handler) ResetSession(w http.ResponseWriter, r *http.Request) {
	id := h.canon.Canonical(chi.URLParam(r, "phone"))
	if !h.users.Reset(id) {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	h.log.Info("session force-reset", "phone", id)
	writeJSON(w, http.StatusOK, map[string]string{"phone": id, "state": string(session.UserWaitingForConsent)})
}

type reviewerDetail struct {
	Phone         string    `json:"phone"`
	State         string    `json:"state"`
	CurrentCase   string    `json:"current_case,omitempty"`
	CasesReviewed []string  `json:"cases_reviewed"`
	RegisteredAt  time.Time `json:"registered_at"`
	LastActivity  time.Time `json:"last_activity"`
}

func reviewerView(rev *session.Reviewer) reviewerDetail {
	return reviewerDetail{
		Phone:         rev.Phone,
		State:         string(rev.State),
		CurrentCase:   rev.CurrentCase,
		CasesReviewed: append([]string{}, rev.CasesReviewed...),
		RegisteredAt:  rev.RegisteredAt,
		LastActivity:  rev.LastActivity,
	}
}

func (h *Handler) ListReviewers(w http.ResponseWriter, r *http.Request) {
	out := []reviewerDetail{}
	h.reviewers.Range(func(id string, rev *session.Reviewer) {
		out = append(out, reviewerView(rev))
	})
	writeJSON(w, http.StatusOK, map[string]any{"count": len(out), "reviewers": out})
}

func (h *Handler) GetReviewer(w http.ResponseWriter, r *http.Request) {
	id := h.canon.Canonical(chi.URLParam(r, "phone"))
	var detail reviewerDetail
	found := h.reviewers.With(id, func(rev *session.Reviewer) {
		detail = reviewerView(rev)
	})
	if !found {
		http.Error(w, "reviewer not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// RegisterRoutes mounts the webhook pair, the health probe and the debug
// surface on r.
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Get("/webhook", h.VerifyWebhook)
	r.Post("/webhook", h.ReceiveWebhook)
	r.Get("/healthz", h.Health)

	r.Route("/debug", func(r chi.Router) {
		r.Get("/sessions", h.ListSessions)
		r.Get("/sessions/{phone}", h.GetSession)
		r.Delete("/sessions/{phone}", h.ResetSession)
		r.Get("/reviewers", h.ListReviewers)
		r.Get("/reviewers/{phone}", h.GetReviewer)
	})
}
