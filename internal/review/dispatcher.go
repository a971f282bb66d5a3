package review

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"triage-bot/internal/catalog"
	"triage-bot/internal/diagnostic"
	"triage-bot/internal/phone"
	"triage-bot/internal/platform/whatsapp"
	"triage-bot/internal/session"
)

// DirectoryService lists the externally authorized reviewer identifiers.
type DirectoryService interface {
	Reviewers(ctx context.Context) ([]string, error)
}

// notifyConcurrency bounds parallel gateway sends during a dispatch.
const notifyConcurrency = 4

// Dispatcher fans a completed case out to every reviewer that is both live
// (registered and not paused) and present in the authorized directory.
type Dispatcher struct {
	users     *session.Store[session.User]
	reviewers *session.Store[session.Reviewer]
	directory DirectoryService
	canon     *phone.Canonicalizer
	gateway   Messenger
	cat       *catalog.Catalog
	log       *slog.Logger
}

// NewDispatcher wires the case dispatcher.
func NewDispatcher(
	users *session.Store[session.User],
	reviewers *session.Store[session.Reviewer],
	dir DirectoryService,
	canon *phone.Canonicalizer,
	gateway Messenger,
	cat *catalog.Catalog,
	log *slog.Logger,
) *Dispatcher {
	return &Dispatcher{
		users:     users,
		reviewers: reviewers,
		directory: dir,
		canon:     canon,
		gateway:   gateway,
		cat:       cat,
		log:       log,
	}
}

// Dispatch notifies the eligible reviewer pool about the user's completed
// case. The user stays in the waiting-for-review state regardless of the
// outcome; dispatch failures are logged, never surfaced to the user.
func (d *Dispatcher) Dispatch(ctx context.Context, userID string) {
	authorized, err := d.directory.Reviewers(ctx)
	if err != nil {
		d.log.Error("reviewer directory unavailable, case not dispatched", "user", userID, "error", err)
		return
	}
	authorizedSet := make(map[string]struct{}, len(authorized))
	for _, id := range d.canon.CanonicalAll(authorized) {
		authorizedSet[id] = struct{}{}
	}

	var targets []string
	d.reviewers.Range(func(id string, r *session.Reviewer) {
		if !r.IsActive() {
			return
		}
		if _, ok := authorizedSet[d.canon.Canonical(id)]; ok {
			targets = append(targets, id)
		}
	})

	if len(targets) == 0 {
		d.log.Error("no live authorized reviewers, case stays queued for review",
			"user", userID, "live_candidates", d.reviewers.Len(), "authorized", len(authorizedSet))
		return
	}

	snap, ok := d.snapshot(userID)
	if !ok {
		d.log.Error("case vanished before dispatch", "user", userID)
		return
	}

	casefile, cfErr := BuildCaseFile(snap)
	if cfErr != nil {
		// The text summary still carries the full case.
		d.log.Warn("case file render failed, dispatching text only", "user", userID, "error", cfErr)
	}

	// The assignment is recorded before the first message goes out, so a
	// reviewer answering the prompt instantly always finds the case in place.
	for _, target := range targets {
		d.reviewers.With(target, func(r *session.Reviewer) {
			r.StartCase(userID)
		})
	}

	errs := make([]error, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(notifyConcurrency)
	for i, target := range targets {
		i, target := i, target
		g.Go(func() error {
			errs[i] = d.notify(gctx, target, snap, casefile)
			return nil
		})
	}
	_ = g.Wait()

	var merr *multierror.Error
	notified := make([]string, 0, len(targets))
	for i, target := range targets {
		if err := errs[i]; err != nil {
			merr = multierror.Append(merr, fmt.Errorf("notify %s: %w", target, err))
			// Release the assignment unless the reviewer already acted on it.
			d.reviewers.With(target, func(r *session.Reviewer) {
				if r.State == session.ReviewerReviewingCase && r.CurrentCase == userID {
					r.State = session.ReviewerRegistered
					r.CurrentCase = ""
				}
			})
			continue
		}
		notified = append(notified, target)
	}

	if err := merr.ErrorOrNil(); err != nil {
		d.log.Error("reviewer notifications partially failed", "user", userID, "error", err)
	}
	if len(notified) == 0 {
		return
	}

	d.users.With(userID, func(u *session.User) {
		for _, target := range notified {
			u.NotifiedReviewers[target] = struct{}{}
		}
	})
	d.log.Info("case dispatched", "user", userID, "reviewers", len(notified))
}

// snapshot captures the case under the user lock.
func (d *Dispatcher) snapshot(userID string) (CaseSnapshot, bool) {
	var snap CaseSnapshot
	found := false
	d.users.With(userID, func(u *session.User) {
		if u.Diagnostic == nil {
			return
		}
		snap = CaseSnapshot{
			UserID:      u.Phone,
			PatientName: answerValue(u.FixedAnswers, "name"),
			Diagnostic:  *u.Diagnostic,
			CompletedAt: time.Now(),
		}
		for _, a := range u.FixedAnswers {
			snap.Transcript = append(snap.Transcript, diagnostic.ChatEntry{
				Question: d.cat.QuestionText(a.QuestionID),
				Answer:   a.Value,
			})
		}
		for i, a := range u.FollowupAnswers {
			if i >= len(u.FollowupQuestions) {
				break
			}
			snap.Followups = append(snap.Followups, diagnostic.ChatEntry{
				Question: u.FollowupQuestions[i],
				Answer:   a.Value,
			})
		}
		found = true
	})
	return snap, found
}

// notify sends the full case sequence to one reviewer: the assignment
// notice, the text summary, the PDF case file when available, and the
// decision prompt.
func (d *Dispatcher) notify(ctx context.Context, target string, snap CaseSnapshot, casefile []byte) error {
	msgs := &d.cat.Messages

	notice := fmt.Sprintf(msgs.CaseNotification, snap.PatientName, snap.CompletedAt.Format("02/01/2006 15:04"))
	if err := d.gateway.SendText(ctx, target, notice); err != nil {
		return err
	}
	if err := d.gateway.SendText(ctx, target, snap.Summary()); err != nil {
		return err
	}
	if len(casefile) > 0 {
		filename := fmt.Sprintf("caso_%s.pdf", snap.UserID)
		if err := d.gateway.SendDocument(ctx, target, filename, casefile, msgs.DecisionPromptTitle); err != nil {
			d.log.Warn("case file delivery failed", "reviewer", target, "error", err)
		}
	}

	buttons := []whatsapp.Button{
		{ID: "approve_" + snap.UserID, Title: "✅ Aprobar"},
		{ID: "deny_" + snap.UserID, Title: "❌ Denegar"},
		{ID: "mixed_" + snap.UserID, Title: "🔄 Mixto"},
	}
	if err := d.gateway.SendButtons(ctx, target, msgs.DecisionPrompt, msgs.DecisionPromptTitle, buttons); err != nil {
		d.log.Warn("interactive decision prompt rejected, sending plain text", "reviewer", target, "error", err)
		return d.gateway.SendText(ctx, target, msgs.DecisionPromptPlain)
	}
	return nil
}

func answerValue(answers []session.Answer, questionID string) string {
	for _, a := range answers {
		if a.QuestionID == questionID {
			return a.Value
		}
	}
	return "desconocido"
}
