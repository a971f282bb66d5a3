// Package review implements the reviewer side of the workflow: specialist
// registration, availability commands, case dispatch to the live and
// authorized reviewer pool, and decision capture.
package review

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"triage-bot/internal/catalog"
	"triage-bot/internal/platform/whatsapp"
	"triage-bot/internal/session"
)

// Messenger delivers outbound messages through the gateway.
type Messenger interface {
	SendText(ctx context.Context, to, body string) error
	SendButtons(ctx context.Context, to, body, footer string, buttons []whatsapp.Button) error
	SendDocument(ctx context.Context, to, filename string, data []byte, caption string) error
}

// DecisionSink forwards an accepted reviewer decision to the owning user
// session and reports whether it was first.
type DecisionSink interface {
	DeliverDecision(ctx context.Context, userID string, decision session.Decision, reviewerID string) session.DecisionOutcome
}

// Engine drives the reviewer state machine.
type Engine struct {
	store   *session.Store[session.Reviewer]
	cat     *catalog.Catalog
	gateway Messenger
	sink    DecisionSink
	log     *slog.Logger
}

// NewEngine wires the reviewer engine.
func NewEngine(store *session.Store[session.Reviewer], cat *catalog.Catalog, gateway Messenger, sink DecisionSink, log *slog.Logger) *Engine {
	return &Engine{store: store, cat: cat, gateway: gateway, sink: sink, log: log}
}

// decisionIntent is a parsed decision captured under the reviewer lock and
// delivered to the user session after it is released.
type decisionIntent struct {
	decision session.Decision
	target   string
}

// HandleMessage consumes one inbound message from a reviewer identifier. All
// failures are recovered here; nothing propagates.
func (e *Engine) HandleMessage(ctx context.Context, phone, text string) {
	var sends []string
	var intent *decisionIntent
	deleteSession := false

	e.store.Update(phone, func(r *session.Reviewer) {
		r.MarkActivity()
		switch r.State {
		case session.ReviewerRegistrationPending:
			sends, deleteSession = e.stepRegistration(r, text)
		case session.ReviewerInactive:
			sends = e.stepInactive(r, text)
		case session.ReviewerRegistered:
			sends = e.stepIdle(r, text)
		case session.ReviewerReviewingCase:
			sends, intent = e.stepReviewing(r, text)
		default:
			e.log.Error("reviewer session in unknown state", "phone", phone, "state", r.State)
			sends = []string{e.cat.Messages.ReviewerHelp}
		}
	})

	if deleteSession {
		e.store.Delete(phone)
	}

	for _, body := range sends {
		if err := e.gateway.SendText(ctx, phone, body); err != nil {
			e.log.Error("reviewer send failed", "phone", phone, "error", err)
		}
	}

	if intent != nil {
		e.deliver(ctx, phone, *intent)
	}
}

func (e *Engine) stepRegistration(r *session.Reviewer, text string) (sends []string, deleteSession bool) {
	if _, target, ok := parseDecision(text); ok && target != "" {
		// A stale decision button from a sender with no registered account.
		return []string{e.cat.Messages.UnregisteredHelp}, true
	}
	switch normalize(text) {
	case "doctor", "especialista":
		return []string{e.cat.Messages.RegistrationPrompt}, false
	case "confirmar", "confirm":
		r.State = session.ReviewerRegistered
		e.log.Info("reviewer registered", "phone", r.Phone)
		return []string{e.cat.Messages.RegistrationConfirmed}, false
	case "cancelar", "cancel":
		e.log.Info("reviewer registration cancelled", "phone", r.Phone)
		return []string{e.cat.Messages.RegistrationCancelled}, true
	default:
		return []string{e.cat.Messages.RegistrationRetry}, false
	}
}

func (e *Engine) stepInactive(r *session.Reviewer, text string) []string {
	if normalize(text) == "activo" {
		r.State = session.ReviewerRegistered
		e.log.Info("reviewer resumed", "phone", r.Phone)
		return []string{e.cat.Messages.ReviewerResumed}
	}
	return []string{e.cat.Messages.ReviewerInactive}
}

func (e *Engine) stepIdle(r *session.Reviewer, text string) []string {
	switch normalize(text) {
	case "estado":
		return []string{e.statusText(r)}
	case "ayuda", "help":
		return []string{e.cat.Messages.ReviewerHelp}
	case "inactivo":
		r.State = session.ReviewerInactive
		e.log.Info("reviewer paused", "phone", r.Phone)
		return []string{e.cat.Messages.ReviewerPaused}
	case "activo":
		return []string{e.statusText(r)}
	case "doctor", "especialista":
		return []string{e.cat.Messages.ReviewerHelp}
	}
	if _, _, ok := parseDecision(text); ok {
		return []string{e.cat.Messages.NoActiveCase}
	}
	return []string{e.cat.Messages.ReviewerHelp}
}

func (e *Engine) stepReviewing(r *session.Reviewer, text string) ([]string, *decisionIntent) {
	if decision, target, ok := parseDecision(text); ok {
		if target == "" {
			target = r.CurrentCase
		}
		// The reviewer is released immediately; the outcome message depends
		// on whether this was the first decision for the case.
		r.CompleteCase(target)
		return nil, &decisionIntent{decision: decision, target: target}
	}

	switch normalize(text) {
	case "estado":
		return []string{e.statusText(r)}, nil
	case "ayuda", "help":
		return []string{e.cat.Messages.ReviewerHelp}, nil
	case "inactivo":
		// The assignment is released with the pause: a non-empty CurrentCase
		// exists only while the reviewer is actually reviewing.
		e.log.Info("reviewer paused mid-review, assignment released", "phone", r.Phone, "case", r.CurrentCase)
		r.State = session.ReviewerInactive
		r.CurrentCase = ""
		return []string{e.cat.Messages.ReviewerPaused}, nil
	}
	return []string{e.cat.Messages.ReviewGuidance}, nil
}

// deliver forwards the decision to the user session. The reviewer lock is no
// longer held here, so the user lock can be taken safely.
func (e *Engine) deliver(ctx context.Context, reviewerID string, in decisionIntent) {
	outcome := e.sink.DeliverDecision(ctx, in.target, in.decision, reviewerID)

	var body string
	switch outcome {
	case session.DecisionDelivered:
		body = fmt.Sprintf(e.cat.Messages.DecisionRecorded, in.decision)
	case session.DecisionDuplicate:
		body = e.cat.Messages.CaseAlreadyHandled
	default:
		e.log.Warn("decision targeted a missing user session", "reviewer", reviewerID, "user", in.target)
		body = e.cat.Messages.NoActiveCase
	}
	if err := e.gateway.SendText(ctx, reviewerID, body); err != nil {
		e.log.Error("decision acknowledgement failed", "reviewer", reviewerID, "error", err)
	}
}

func (e *Engine) statusText(r *session.Reviewer) string {
	var b strings.Builder
	b.WriteString("📊 *ESTADO DE TU CUENTA*\n\n")
	switch r.State {
	case session.ReviewerReviewingCase:
		fmt.Fprintf(&b, "Estado: revisando caso %s\n", r.CurrentCase)
	case session.ReviewerInactive:
		b.WriteString("Estado: inactivo\n")
	default:
		b.WriteString("Estado: activo, disponible para casos\n")
	}
	fmt.Fprintf(&b, "Casos revisados: %d", len(r.CasesReviewed))
	return b.String()
}

// decisionWords maps accepted decision vocabulary, including the numbered
// shortcuts offered in the plain-text prompt.
var decisionWords = map[string]session.Decision{
	"aprobar": session.DecisionApprove,
	"apruebo": session.DecisionApprove,
	"approve": session.DecisionApprove,
	"1":       session.DecisionApprove,
	"denegar": session.DecisionDeny,
	"deniego": session.DecisionDeny,
	"deny":    session.DecisionDeny,
	"2":       session.DecisionDeny,
	"mixto":   session.DecisionMixed,
	"mixed":   session.DecisionMixed,
	"3":       session.DecisionMixed,
}

// parseDecision extracts a decision from reviewer input. Button payloads
// carry the target user identifier; free text applies to the current case.
// Free text is only considered when short enough to be unambiguous.
func parseDecision(text string) (session.Decision, string, bool) {
	t := normalize(text)

	for prefix, d := range map[string]session.Decision{
		"approve_": session.DecisionApprove,
		"deny_":    session.DecisionDeny,
		"mixed_":   session.DecisionMixed,
	} {
		if strings.HasPrefix(t, prefix) {
			return d, strings.TrimPrefix(t, prefix), true
		}
	}

	words := strings.Fields(t)
	if len(words) == 0 || len(words) > 3 {
		return "", "", false
	}
	for _, w := range words {
		w = strings.Trim(w, ".,!¡¿?")
		if d, ok := decisionWords[w]; ok {
			return d, "", true
		}
	}
	return "", "", false
}

func normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}
