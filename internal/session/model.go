// Package session holds the volatile per-identifier conversation state and
// the store that serializes access to it. Sessions live for the process
// lifetime only.
package session

import "time"

// Decision is a reviewer verdict for a case.
type Decision string

const (
	DecisionApprove Decision = "APROBAR"
	DecisionDeny    Decision = "DENEGAR"
	DecisionMixed   Decision = "MIXTO"
)

// DecisionOutcome reports what happened when a decision was forwarded to a
// user session.
type DecisionOutcome int

const (
	// DecisionDelivered means this was the first decision and the user was
	// notified.
	DecisionDelivered DecisionOutcome = iota
	// DecisionDuplicate means another reviewer already decided the case.
	DecisionDuplicate
	// DecisionNoSession means the referenced user session no longer exists.
	DecisionNoSession
)

// Answer records one reply, either to a fixed question or to a follow-up.
type Answer struct {
	QuestionID string    `json:"question_id"`
	Value      string    `json:"value"`
	Timestamp  time.Time `json:"timestamp"`
}

// UserState enumerates the intake conversation states.
type UserState string

const (
	UserWaitingForConsent        UserState = "waiting_for_consent"
	UserConsentDeclined          UserState = "consent_declined"
	UserWaitingForAnswer         UserState = "waiting_for_answer"
	UserProcessingDiagnostic     UserState = "processing_diagnostic"
	UserWaitingForFollowup       UserState = "waiting_for_followup"
	UserWaitingForFallbackChoice UserState = "waiting_for_fallback_choice"
	UserWaitingForReview         UserState = "waiting_for_review"
	UserConversationEnded        UserState = "conversation_ended"
)

// DiagnosticResult is the opaque artifact returned by the final diagnostic
// call.
type DiagnosticResult struct {
	PreDiagnosis string `json:"pre_diagnosis"`
	Comments     string `json:"comments"`
	Score        string `json:"score"`
	FilledDoc    string `json:"filled_doc"`
}

// User is the per-user intake session, keyed by canonical phone identifier.
type User struct {
	Phone              string
	State              UserState
	FixedAnswers       []Answer
	FollowupQuestions  []string
	FollowupAnswers    []Answer
	ConsentGiven       bool
	GreetingSent       bool
	FirstQuestionAsked bool
	Diagnostic         *DiagnosticResult
	NotifiedReviewers  map[string]struct{}
	FinalDecision      *Decision
	DecisionDelivered  bool
	CreatedAt          time.Time
	LastActivity       time.Time
}

// NewUser creates a fresh session in the consent-gate state.
func NewUser(phone string) *User {
	now := time.Now()
	return &User{
		Phone:             phone,
		State:             UserWaitingForConsent,
		NotifiedReviewers: make(map[string]struct{}),
		CreatedAt:         now,
		LastActivity:      now,
	}
}

// NextFixedIndex is the index of the next fixed question to ask. It equals
// the number of fixed answers collected so far.
func (u *User) NextFixedIndex() int { return len(u.FixedAnswers) }

// MarkActivity refreshes the activity timestamp.
func (u *User) MarkActivity() { u.LastActivity = time.Now() }

// ReviewerState enumerates the reviewer workflow states.
type ReviewerState string

const (
	ReviewerRegistrationPending ReviewerState = "registration_pending"
	ReviewerRegistered          ReviewerState = "registered"
	ReviewerReviewingCase       ReviewerState = "reviewing_case"
	ReviewerInactive            ReviewerState = "inactive"
)

// Reviewer is the per-reviewer session, keyed by canonical phone identifier.
type Reviewer struct {
	Phone         string
	State         ReviewerState
	CasesReviewed []string
	// CurrentCase references the assigned user session by identifier only;
	// the session is always resolved through the store.
	CurrentCase  string
	RegisteredAt time.Time
	LastActivity time.Time
}

// NewReviewer creates a session awaiting registration confirmation.
func NewReviewer(phone string) *Reviewer {
	now := time.Now()
	return &Reviewer{
		Phone:        phone,
		State:        ReviewerRegistrationPending,
		RegisteredAt: now,
		LastActivity: now,
	}
}

// IsActive reports whether the reviewer may receive cases.
func (r *Reviewer) IsActive() bool {
	return r.State == ReviewerRegistered || r.State == ReviewerReviewingCase
}

// StartCase assigns a user case to the reviewer.
func (r *Reviewer) StartCase(userID string) {
	r.State = ReviewerReviewingCase
	r.CurrentCase = userID
	r.MarkActivity()
}

// CompleteCase records the reviewed case and returns the reviewer to the
// available state.
func (r *Reviewer) CompleteCase(userID string) {
	for _, c := range r.CasesReviewed {
		if c == userID {
			r.CurrentCase = ""
			r.State = ReviewerRegistered
			r.MarkActivity()
			return
		}
	}
	r.CasesReviewed = append(r.CasesReviewed, userID)
	r.CurrentCase = ""
	r.State = ReviewerRegistered
	r.MarkActivity()
}

// MarkActivity refreshes the activity timestamp.
func (r *Reviewer) MarkActivity() { r.LastActivity = time.Now() }
