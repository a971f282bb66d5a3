// Package conversation implements the per-user intake state machine: consent
// gate, fixed questionnaire, dynamically injected follow-up questions, and
// the waiting-for-review tail of a case.
package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"triage-bot/internal/catalog"
	"triage-bot/internal/diagnostic"
	"triage-bot/internal/httpclient"
	"triage-bot/internal/platform/whatsapp"
	"triage-bot/internal/records"
	"triage-bot/internal/session"
)

// Messenger delivers outbound messages through the gateway.
type Messenger interface {
	SendText(ctx context.Context, to, body string) error
	SendButtons(ctx context.Context, to, body, footer string, buttons []whatsapp.Button) error
}

// DiagnosticService is the external service that turns transcripts into
// follow-up questions or a diagnostic artifact.
type DiagnosticService interface {
	Initial(ctx context.Context, identifier string, chat []diagnostic.ChatEntry) (*diagnostic.InitialResponse, error)
	Final(ctx context.Context, identifier string, chat []diagnostic.ChatEntry) (*diagnostic.Result, error)
}

// RecordStore archives transcripts and completed cases. Calls are
// fire-and-log; failures never block the conversation.
type RecordStore interface {
	StoreIntake(ctx context.Context, number string, chat []diagnostic.ChatEntry) error
	StoreComplete(ctx context.Context, rec records.CompleteRecord) error
}

// CaseDispatcher hands a completed case to the reviewer pool.
type CaseDispatcher interface {
	Dispatch(ctx context.Context, userID string)
}

// Engine drives the user conversation state machine.
type Engine struct {
	store      *session.Store[session.User]
	cat        *catalog.Catalog
	gateway    Messenger
	diag       DiagnosticService
	records    RecordStore
	dispatcher CaseDispatcher
	log        *slog.Logger
}

// NewEngine wires the user conversation engine. records may be nil when no
// record store is configured.
func NewEngine(
	store *session.Store[session.User],
	cat *catalog.Catalog,
	gateway Messenger,
	diag DiagnosticService,
	recs RecordStore,
	dispatcher CaseDispatcher,
	log *slog.Logger,
) *Engine {
	return &Engine{
		store:      store,
		cat:        cat,
		gateway:    gateway,
		diag:       diag,
		records:    recs,
		dispatcher: dispatcher,
		log:        log,
	}
}

type callKind int

const (
	callNone callKind = iota
	callInitial
	callFinal
)

// outbound is a queued message, sent after the session lock is released.
type outbound struct {
	body    string
	footer  string
	buttons []whatsapp.Button
}

type plan struct {
	sends      []outbound
	call       callKind
	transcript []diagnostic.ChatEntry
	intake     []diagnostic.ChatEntry
}

func (p *plan) text(body string) {
	p.sends = append(p.sends, outbound{body: body})
}

func (p *plan) interactive(body, footer string, buttons []whatsapp.Button) {
	p.sends = append(p.sends, outbound{body: body, footer: footer, buttons: buttons})
}

// HandleMessage consumes one inbound message for the given canonical
// identifier. All failures are recovered here; nothing propagates.
func (e *Engine) HandleMessage(ctx context.Context, phone, text string) {
	var p plan
	e.store.Update(phone, func(u *session.User) {
		u.MarkActivity()
		e.step(u, text, &p)
	})

	e.flush(ctx, phone, p.sends)

	if p.intake != nil && e.records != nil {
		go e.storeIntake(phone, p.intake)
	}

	switch p.call {
	case callInitial:
		e.runInitial(ctx, phone, p.transcript)
	case callFinal:
		e.runFinal(ctx, phone, p.transcript)
	}
}

// step performs the state transition under the session lock and queues the
// resulting side effects on p.
func (e *Engine) step(u *session.User, text string, p *plan) {
	msgs := &e.cat.Messages

	switch u.State {
	case session.UserConversationEnded:
		// Any message on an ended conversation starts a fresh one.
		*u = *session.NewUser(u.Phone)
		p.text(msgs.Restarted)
		e.beginConsent(u, p)

	case session.UserConsentDeclined:
		p.text(msgs.ConsentDeclined)
		u.State = session.UserConversationEnded

	case session.UserProcessingDiagnostic:
		p.text(msgs.PleaseWait)

	case session.UserWaitingForReview:
		p.text(msgs.UnderReview)

	case session.UserWaitingForConsent:
		if !u.GreetingSent {
			e.beginConsent(u, p)
			return
		}
		e.stepConsent(u, text, p)

	case session.UserWaitingForAnswer:
		e.stepFixedQuestion(u, text, p)

	case session.UserWaitingForFollowup:
		e.stepFollowup(u, text, p)

	case session.UserWaitingForFallbackChoice:
		e.stepFallbackChoice(u, text, p)

	default:
		e.log.Error("user session in unknown state", "phone", u.Phone, "state", u.State)
		p.text(msgs.Apology)
		u.State = session.UserConversationEnded
	}
}

func (e *Engine) beginConsent(u *session.User, p *plan) {
	p.text(e.cat.Messages.Greeting)
	p.interactive(e.cat.Messages.Consent, e.cat.Messages.ConsentPrompt, []whatsapp.Button{
		{ID: "consent_yes", Title: "Sí, acepto"},
		{ID: "consent_no", Title: "No, gracias"},
	})
	u.GreetingSent = true
}

func (e *Engine) stepConsent(u *session.User, text string, p *plan) {
	switch {
	case matchVocab(text, e.cat.ConsentAccept) || strings.Contains(text, "consent_yes"):
		u.ConsentGiven = true
		u.State = session.UserWaitingForAnswer
		p.text(e.cat.Questions[0].Text)
		u.FirstQuestionAsked = true

	case matchVocab(text, e.cat.ConsentDecline) || strings.Contains(text, "consent_no"):
		u.ConsentGiven = false
		u.State = session.UserConsentDeclined
		p.text(e.cat.Messages.ConsentDeclined)

	default:
		p.text(e.cat.Messages.ConsentRetry)
	}
}

func (e *Engine) stepFixedQuestion(u *session.User, text string, p *plan) {
	if !u.FirstQuestionAsked {
		p.text(e.cat.Questions[u.NextFixedIndex()].Text)
		u.FirstQuestionAsked = true
		return
	}

	idx := u.NextFixedIndex()
	if idx >= len(e.cat.Questions) {
		// Answers already complete; the state should have moved on.
		e.log.Warn("fixed answer received past questionnaire end", "phone", u.Phone)
		return
	}
	u.FixedAnswers = append(u.FixedAnswers, newAnswer(e.cat.Questions[idx].ID, text))

	if next := u.NextFixedIndex(); next < len(e.cat.Questions) {
		p.text(e.cat.Questions[next].Text)
		return
	}

	u.State = session.UserProcessingDiagnostic
	p.text(e.cat.Messages.ProcessingAck)
	p.call = callInitial
	p.transcript = e.fixedTranscript(u)
	p.intake = p.transcript
}

func (e *Engine) stepFollowup(u *session.User, text string, p *plan) {
	if len(u.FollowupAnswers) >= len(u.FollowupQuestions) {
		e.log.Warn("follow-up answer received past question list end", "phone", u.Phone)
		return
	}
	u.FollowupAnswers = append(u.FollowupAnswers, newAnswer("followup_"+uuid.NewString(), text))

	if next := len(u.FollowupAnswers); next < len(u.FollowupQuestions) {
		p.text(u.FollowupQuestions[next])
		return
	}

	u.State = session.UserProcessingDiagnostic
	p.text(e.cat.Messages.ProcessingAck)
	p.call = callFinal
	p.transcript = append(e.fixedTranscript(u), e.followupTranscript(u)...)
}

func (e *Engine) stepFallbackChoice(u *session.User, text string, p *plan) {
	switch {
	case matchVocab(text, e.cat.FallbackAccept):
		p.text(HeuristicSummary(u.FixedAnswers))
		p.text(e.cat.Messages.Farewell)
		u.State = session.UserConversationEnded

	case matchVocab(text, e.cat.FallbackDecline):
		p.text(e.cat.Messages.Farewell)
		u.State = session.UserConversationEnded

	default:
		p.text(e.cat.Messages.FallbackRetry)
	}
}

// runInitial performs the initial diagnostic call outside the session lock
// and applies the outcome.
func (e *Engine) runInitial(ctx context.Context, phone string, transcript []diagnostic.ChatEntry) {
	resp, err := e.diag.Initial(ctx, phone, transcript)

	var p plan
	e.store.Update(phone, func(u *session.User) {
		if u.State != session.UserProcessingDiagnostic {
			// Session was reset while the call was in flight.
			e.log.Warn("discarding initial diagnostic outcome, session moved on", "phone", phone, "state", u.State)
			return
		}
		if err != nil {
			e.failDiagnostic(u, err, &p)
			return
		}
		switch {
		case len(resp.Questions) > 0:
			u.FollowupQuestions = append([]string(nil), resp.Questions...)
			u.State = session.UserWaitingForFollowup
			p.text(u.FollowupQuestions[0])
		case resp.Result != nil:
			p.text(formatResultForUser(resp.Result))
			p.text(e.cat.Messages.Farewell)
			u.State = session.UserConversationEnded
		default:
			e.log.Error("initial diagnostic response had neither questions nor result", "phone", phone)
			p.text(e.cat.Messages.Apology)
			u.State = session.UserConversationEnded
		}
	})

	e.flush(ctx, phone, p.sends)
}

// runFinal performs the final diagnostic call outside the session lock,
// applies the artifact and hands the case to the reviewer pool.
func (e *Engine) runFinal(ctx context.Context, phone string, transcript []diagnostic.ChatEntry) {
	res, err := e.diag.Final(ctx, phone, transcript)

	var p plan
	var complete *records.CompleteRecord
	dispatch := false
	e.store.Update(phone, func(u *session.User) {
		if u.State != session.UserProcessingDiagnostic {
			e.log.Warn("discarding final diagnostic outcome, session moved on", "phone", phone, "state", u.State)
			return
		}
		if err != nil {
			e.failDiagnostic(u, err, &p)
			return
		}
		u.Diagnostic = &session.DiagnosticResult{
			PreDiagnosis: res.PreDiagnosis,
			Comments:     res.Comments,
			Score:        res.Score,
			FilledDoc:    res.FilledDoc,
		}
		u.State = session.UserWaitingForReview
		p.text(formatResultForUser(res))
		p.text(e.cat.Messages.UnderReview)
		complete = &records.CompleteRecord{
			Number:           u.Phone,
			InitialQuestions: e.fixedTranscript(u),
			LLMQuestions:     e.followupTranscript(u),
			PreDiagnosis:     res.PreDiagnosis,
			Comments:         res.Comments,
			Score:            res.Score,
			FilledDoc:        res.FilledDoc,
		}
		dispatch = true
	})

	e.flush(ctx, phone, p.sends)

	if complete != nil && e.records != nil {
		go e.storeComplete(*complete)
	}
	if dispatch {
		e.dispatcher.Dispatch(ctx, phone)
	}
}

// failDiagnostic maps a diagnostic call failure onto the session. Timeout
// after retry exhaustion is recoverable: the user may opt into a locally
// computed summary.
func (e *Engine) failDiagnostic(u *session.User, err error, p *plan) {
	switch {
	case httpclient.IsTimeout(err):
		e.log.Warn("diagnostic call timed out, offering degraded summary", "phone", u.Phone, "error", err)
		u.State = session.UserWaitingForFallbackChoice
		p.text(e.cat.Messages.FallbackOffer)
	case httpclient.IsConnection(err):
		e.log.Error("diagnostic service unreachable", "phone", u.Phone, "error", err)
		u.State = session.UserConversationEnded
		p.text(e.cat.Messages.TryLater)
	default:
		e.log.Error("diagnostic call failed", "phone", u.Phone, "error", err)
		u.State = session.UserConversationEnded
		p.text(e.cat.Messages.Apology)
	}
}

// DeliverDecision applies a reviewer decision to the user session. The first
// decision wins; later ones are reported as duplicates and discarded.
func (e *Engine) DeliverDecision(ctx context.Context, userID string, decision session.Decision, reviewerID string) session.DecisionOutcome {
	outcome := session.DecisionNoSession
	var body string
	e.store.With(userID, func(u *session.User) {
		if u.DecisionDelivered {
			outcome = session.DecisionDuplicate
			return
		}
		d := decision
		u.FinalDecision = &d
		u.DecisionDelivered = true
		u.State = session.UserConversationEnded
		u.MarkActivity()
		outcome = session.DecisionDelivered

		switch decision {
		case session.DecisionApprove:
			body = e.cat.Messages.DecisionApproved
		case session.DecisionDeny:
			body = e.cat.Messages.DecisionDenied
		default:
			body = e.cat.Messages.DecisionMixed
		}
	})

	if outcome == session.DecisionDelivered {
		e.log.Info("reviewer decision delivered to user", "user", userID, "reviewer", reviewerID, "decision", decision)
		if err := e.gateway.SendText(ctx, userID, body); err != nil {
			e.log.Error("failed to notify user of decision", "user", userID, "error", err)
		}
	}
	return outcome
}

func (e *Engine) flush(ctx context.Context, phone string, sends []outbound) {
	for _, s := range sends {
		var err error
		if len(s.buttons) > 0 {
			err = e.gateway.SendButtons(ctx, phone, s.body, s.footer, s.buttons)
			if err != nil {
				// Interactive sends may be rejected by the gateway; fall back
				// to plain text so the conversation can still advance.
				e.log.Warn("interactive send rejected, falling back to text", "phone", phone, "error", err)
				err = e.gateway.SendText(ctx, phone, s.body+"\n\n"+s.footer)
			}
		} else {
			err = e.gateway.SendText(ctx, phone, s.body)
		}
		if err != nil {
			e.log.Error("outbound send failed", "phone", phone, "error", err)
		}
	}
}

func (e *Engine) storeIntake(phone string, chat []diagnostic.ChatEntry) {
	ctx := context.Background()
	if err := e.records.StoreIntake(ctx, phone, chat); err != nil {
		e.log.Error("intake record store failed", "phone", phone, "error", err)
	}
}

func (e *Engine) storeComplete(rec records.CompleteRecord) {
	ctx := context.Background()
	if err := e.records.StoreComplete(ctx, rec); err != nil {
		e.log.Error("complete record store failed", "phone", rec.Number, "error", err)
	}
}

func (e *Engine) fixedTranscript(u *session.User) []diagnostic.ChatEntry {
	out := make([]diagnostic.ChatEntry, 0, len(u.FixedAnswers))
	for _, a := range u.FixedAnswers {
		out = append(out, diagnostic.ChatEntry{
			Question: e.cat.QuestionText(a.QuestionID),
			Answer:   a.Value,
		})
	}
	return out
}

func (e *Engine) followupTranscript(u *session.User) []diagnostic.ChatEntry {
	n := min(len(u.FollowupAnswers), len(u.FollowupQuestions))
	out := make([]diagnostic.ChatEntry, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, diagnostic.ChatEntry{
			Question: u.FollowupQuestions[i],
			Answer:   u.FollowupAnswers[i].Value,
		})
	}
	return out
}

func formatResultForUser(res *diagnostic.Result) string {
	var b strings.Builder
	b.WriteString("📋 *RESULTADO DE TU EVALUACIÓN*\n\n")
	if res.PreDiagnosis != "" {
		b.WriteString(res.PreDiagnosis)
		b.WriteString("\n\n")
	}
	if res.Comments != "" {
		b.WriteString("💬 ")
		b.WriteString(res.Comments)
		b.WriteString("\n\n")
	}
	if res.Score != "" {
		fmt.Fprintf(&b, "📊 Prioridad: %s", res.Score)
	}
	return strings.TrimRight(b.String(), "\n ")
}

func matchVocab(text string, vocab []string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	for _, v := range vocab {
		if t == v {
			return true
		}
	}
	return false
}

func newAnswer(questionID, value string) session.Answer {
	return session.Answer{QuestionID: questionID, Value: value, Timestamp: time.Now()}
}
