package router

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"triage-bot/internal/phone"
	"triage-bot/internal/session"
)

type recordedCall struct {
	phone string
	text  string
}

type fakeHandler struct {
	mu    sync.Mutex
	calls []recordedCall
	panic bool
}

func (h *fakeHandler) HandleMessage(_ context.Context, phone, text string) {
	if h.panic {
		panic("engine blew up")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, recordedCall{phone: phone, text: text})
}

func (h *fakeHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.calls)
}

func newTestRouter() (*Router, *fakeHandler, *fakeHandler, *session.Store[session.Reviewer]) {
	user := &fakeHandler{}
	reviewer := &fakeHandler{}
	reviewers := session.NewStore(session.NewReviewer)
	canon := &phone.Canonicalizer{CountryCode: "57"}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(reviewers, user, reviewer, canon, log), user, reviewer, reviewers
}

func TestRouteDefaultsToUserEngine(t *testing.T) {
	r, user, reviewer, _ := newTestRouter()
	r.Route(context.Background(), "573001112233", "hola")

	if user.count() != 1 || reviewer.count() != 0 {
		t.Fatalf("user=%d reviewer=%d", user.count(), reviewer.count())
	}
	if got := user.calls[0]; got.phone != "573001112233" || got.text != "hola" {
		t.Errorf("call = %+v", got)
	}
}

func TestRouteCanonicalizesSender(t *testing.T) {
	r, user, _, _ := newTestRouter()
	r.Route(context.Background(), "+57 300 111 2233", "hola")
	r.Route(context.Background(), "3001112233", "segunda")

	if user.count() != 2 {
		t.Fatalf("calls = %d", user.count())
	}
	if user.calls[0].phone != "573001112233" || user.calls[1].phone != "573001112233" {
		t.Errorf("identifiers not canonicalized: %+v", user.calls)
	}
}

func TestRouteKeywordOpensReviewerPath(t *testing.T) {
	r, user, reviewer, _ := newTestRouter()
	for _, kw := range []string{"doctor", "DOCTOR", " Especialista "} {
		r.Route(context.Background(), "573226235226", kw)
	}
	if reviewer.count() != 3 || user.count() != 0 {
		t.Errorf("user=%d reviewer=%d", user.count(), reviewer.count())
	}
}

func TestRouteDecisionPayloadGoesToReviewerPath(t *testing.T) {
	r, user, reviewer, _ := newTestRouter()
	// No reviewer session exists: a stale decision button is still reviewer
	// traffic, never user intake input.
	r.Route(context.Background(), "573226235226", "approve_573001112233")
	if reviewer.count() != 1 || user.count() != 0 {
		t.Errorf("user=%d reviewer=%d", user.count(), reviewer.count())
	}
}

func TestRouteStickyReviewerSession(t *testing.T) {
	r, user, reviewer, reviewers := newTestRouter()
	reviewers.Update("573226235226", func(rev *session.Reviewer) {
		rev.State = session.ReviewerRegistered
	})

	// Non-keyword traffic from a live reviewer stays on the reviewer path.
	r.Route(context.Background(), "573226235226", "estado")
	if reviewer.count() != 1 || user.count() != 0 {
		t.Errorf("user=%d reviewer=%d", user.count(), reviewer.count())
	}
}

func TestRouteIgnoresEmptyContent(t *testing.T) {
	r, user, reviewer, _ := newTestRouter()
	r.Route(context.Background(), "573001112233", "   ")
	if user.count() != 0 || reviewer.count() != 0 {
		t.Error("blank message should be dropped")
	}
}

func TestRouteRecoversPanics(t *testing.T) {
	r, user, _, _ := newTestRouter()
	user.panic = true

	defer func() {
		if rec := recover(); rec != nil {
			t.Fatalf("panic escaped the router: %v", rec)
		}
	}()
	r.Route(context.Background(), "573001112233", "hola")
}
