// Package router classifies inbound messages as user or reviewer traffic and
// hands them to the owning engine.
package router

import (
	"context"
	"log/slog"
	"runtime/debug"
	"strings"

	"triage-bot/internal/phone"
	"triage-bot/internal/session"
)

// Handler consumes one inbound message for a canonical identifier.
type Handler interface {
	HandleMessage(ctx context.Context, phone, text string)
}

// Router canonicalizes the sender and routes to the user or reviewer engine.
// A sender with a live reviewer session stays on the reviewer path until that
// session ends; the registration keywords open one.
type Router struct {
	reviewers *session.Store[session.Reviewer]
	user      Handler
	reviewer  Handler
	canon     *phone.Canonicalizer
	log       *slog.Logger
}

// New wires the router.
func New(reviewers *session.Store[session.Reviewer], user, reviewer Handler, canon *phone.Canonicalizer, log *slog.Logger) *Router {
	return &Router{
		reviewers: reviewers,
		user:      user,
		reviewer:  reviewer,
		canon:     canon,
		log:       log,
	}
}

// registration keywords that open a reviewer session.
func isReviewerKeyword(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "doctor", "especialista":
		return true
	}
	return false
}

// isDecisionPayload recognizes the structured decision button ids. These are
// reviewer traffic even when no reviewer session exists anymore (stale
// buttons after a restart).
func isDecisionPayload(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	return strings.HasPrefix(t, "approve_") ||
		strings.HasPrefix(t, "deny_") ||
		strings.HasPrefix(t, "mixed_")
}

// Route processes one inbound message. It never panics outward; a failing
// engine must not take down the webhook worker.
func (r *Router) Route(ctx context.Context, rawFrom, text string) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("message handling panicked", "from", rawFrom, "panic", rec, "stack", string(debug.Stack()))
		}
	}()

	if strings.TrimSpace(text) == "" {
		r.log.Debug("ignoring message without routable content", "from", rawFrom)
		return
	}
	id := r.canon.Canonical(rawFrom)

	hasReviewerSession := r.reviewers.With(id, func(*session.Reviewer) {})
	if hasReviewerSession || isReviewerKeyword(text) || isDecisionPayload(text) {
		r.reviewer.HandleMessage(ctx, id, text)
		return
	}
	r.user.HandleMessage(ctx, id, text)
}
