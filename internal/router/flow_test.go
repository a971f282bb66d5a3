package router

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"triage-bot/internal/catalog"
	"triage-bot/internal/conversation"
	"triage-bot/internal/diagnostic"
	"triage-bot/internal/phone"
	"triage-bot/internal/platform/whatsapp"
	"triage-bot/internal/review"
	"triage-bot/internal/session"
)

// The full happy path wired with real engines, stores and dispatcher; only
// the gateway, the diagnostic service and the directory are faked.

type recordingGateway struct {
	mu    sync.Mutex
	sends map[string][]string
}

func newRecordingGateway() *recordingGateway {
	return &recordingGateway{sends: make(map[string][]string)}
}

func (g *recordingGateway) record(to, body string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sends[to] = append(g.sends[to], body)
}

func (g *recordingGateway) SendText(_ context.Context, to, body string) error {
	g.record(to, body)
	return nil
}

func (g *recordingGateway) SendButtons(_ context.Context, to, body, _ string, buttons []whatsapp.Button) error {
	ids := make([]string, len(buttons))
	for i, b := range buttons {
		ids[i] = b.ID
	}
	g.record(to, body+" ["+strings.Join(ids, " ")+"]")
	return nil
}

func (g *recordingGateway) SendDocument(_ context.Context, to, filename string, _ []byte, _ string) error {
	g.record(to, "<document "+filename+">")
	return nil
}

func (g *recordingGateway) received(to string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return strings.Join(g.sends[to], "\n")
}

type scriptedDiag struct{}

func (scriptedDiag) Initial(_ context.Context, _ string, _ []diagnostic.ChatEntry) (*diagnostic.InitialResponse, error) {
	return &diagnostic.InitialResponse{Questions: []string{"¿Desde cuándo te sientes así?"}}, nil
}

func (scriptedDiag) Final(_ context.Context, _ string, _ []diagnostic.ChatEntry) (*diagnostic.Result, error) {
	return &diagnostic.Result{PreDiagnosis: "ansiedad moderada", Comments: "consulta sugerida", Score: "media"}, nil
}

type staticDirectory struct{ numbers []string }

func (d staticDirectory) Reviewers(context.Context) ([]string, error) {
	return d.numbers, nil
}

func TestFullTriageFlow(t *testing.T) {
	const (
		patient = "573001112233"
		doctor  = "573226235226"
	)
	ctx := context.Background()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cat := catalog.Default()
	canon := &phone.Canonicalizer{CountryCode: "57"}
	gw := newRecordingGateway()

	users := session.NewStore(session.NewUser)
	reviewers := session.NewStore(session.NewReviewer)
	dispatcher := review.NewDispatcher(users, reviewers, staticDirectory{numbers: []string{doctor}}, canon, gw, cat, log)
	userEngine := conversation.NewEngine(users, cat, gw, scriptedDiag{}, nil, dispatcher, log)
	reviewerEngine := review.NewEngine(reviewers, cat, gw, userEngine, log)
	rt := New(reviewers, userEngine, reviewerEngine, canon, log)

	// Specialist registers.
	rt.Route(ctx, doctor, "doctor")
	rt.Route(ctx, doctor, "confirmar")

	// Patient runs the whole intake.
	rt.Route(ctx, patient, "hola")
	rt.Route(ctx, patient, "sí, acepto")
	for i := range cat.Questions {
		rt.Route(ctx, patient, fmt.Sprintf("respuesta %d", i+1))
	}
	rt.Route(ctx, patient, "desde hace un mes") // follow-up answer

	users.With(patient, func(u *session.User) {
		if u.State != session.UserWaitingForReview {
			t.Fatalf("patient state = %s", u.State)
		}
		if _, ok := u.NotifiedReviewers[doctor]; !ok {
			t.Error("doctor not recorded as notified")
		}
	})
	reviewers.With(doctor, func(r *session.Reviewer) {
		if r.State != session.ReviewerReviewingCase || r.CurrentCase != patient {
			t.Fatalf("doctor state=%s case=%s", r.State, r.CurrentCase)
		}
	})
	if got := gw.received(doctor); !strings.Contains(got, "approve_"+patient) {
		t.Fatalf("doctor did not get the decision prompt:\n%s", got)
	}

	// Doctor approves via the button payload.
	rt.Route(ctx, doctor, "approve_"+patient)

	users.With(patient, func(u *session.User) {
		if u.State != session.UserConversationEnded || !u.DecisionDelivered {
			t.Errorf("patient not closed out: state=%s delivered=%v", u.State, u.DecisionDelivered)
		}
		if u.FinalDecision == nil || *u.FinalDecision != session.DecisionApprove {
			t.Errorf("final decision = %v", u.FinalDecision)
		}
	})
	reviewers.With(doctor, func(r *session.Reviewer) {
		if r.State != session.ReviewerRegistered || len(r.CasesReviewed) != 1 {
			t.Errorf("doctor not released: state=%s reviewed=%v", r.State, r.CasesReviewed)
		}
	})
	if got := gw.received(patient); !strings.Contains(got, cat.Messages.DecisionApproved) {
		t.Error("patient did not receive the approval notice")
	}

	// A second doctor decision for the same case is a duplicate.
	reviewers.With(doctor, func(r *session.Reviewer) { r.StartCase(patient) })
	rt.Route(ctx, doctor, "denegar")
	if got := gw.received(doctor); !strings.Contains(got, cat.Messages.CaseAlreadyHandled) {
		t.Error("duplicate decision not acknowledged as already handled")
	}
	users.With(patient, func(u *session.User) {
		if *u.FinalDecision != session.DecisionApprove {
			t.Error("duplicate decision overwrote the first")
		}
	})
}
