// Package catalog holds the fixed intake questionnaire and every outbound
// message text. Defaults are compiled in; a YAML file may override any field
// so deployments can adjust wording without a rebuild.
package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Question is one entry of the fixed intake questionnaire.
type Question struct {
	ID       string `yaml:"id"`
	Text     string `yaml:"text"`
	Required bool   `yaml:"required"`
}

// Messages holds all user- and reviewer-facing texts.
type Messages struct {
	Greeting        string `yaml:"greeting"`
	Consent         string `yaml:"consent"`
	ConsentPrompt   string `yaml:"consent_prompt"`
	ConsentDeclined string `yaml:"consent_declined"`
	ConsentRetry    string `yaml:"consent_retry"`
	ProcessingAck   string `yaml:"processing_ack"`
	PleaseWait      string `yaml:"please_wait"`
	UnderReview     string `yaml:"under_review"`
	Restarted       string `yaml:"restarted"`
	Apology         string `yaml:"apology"`
	TryLater        string `yaml:"try_later"`
	FallbackOffer   string `yaml:"fallback_offer"`
	FallbackRetry   string `yaml:"fallback_retry"`
	Farewell        string `yaml:"farewell"`

	DecisionApproved string `yaml:"decision_approved"`
	DecisionDenied   string `yaml:"decision_denied"`
	DecisionMixed    string `yaml:"decision_mixed"`

	RegistrationPrompt    string `yaml:"registration_prompt"`
	RegistrationConfirmed string `yaml:"registration_confirmed"`
	RegistrationCancelled string `yaml:"registration_cancelled"`
	RegistrationRetry     string `yaml:"registration_retry"`
	ReviewerHelp          string `yaml:"reviewer_help"`
	ReviewerPaused        string `yaml:"reviewer_paused"`
	ReviewerInactive      string `yaml:"reviewer_inactive"`
	ReviewerResumed       string `yaml:"reviewer_resumed"`
	ReviewGuidance        string `yaml:"review_guidance"`
	NoActiveCase          string `yaml:"no_active_case"`
	UnregisteredHelp      string `yaml:"unregistered_help"`
	CaseAlreadyHandled    string `yaml:"case_already_handled"`
	DecisionRecorded      string `yaml:"decision_recorded"` // fmt verb: decision
	CaseNotification      string `yaml:"case_notification"` // fmt verbs: user, timestamp
	DecisionPrompt        string `yaml:"decision_prompt"`
	DecisionPromptTitle   string `yaml:"decision_prompt_title"`
	DecisionPromptPlain   string `yaml:"decision_prompt_plain"`
}

// Catalog bundles questions, consent vocabularies and message texts.
type Catalog struct {
	Questions       []Question `yaml:"questions"`
	ConsentAccept   []string   `yaml:"consent_accept"`
	ConsentDecline  []string   `yaml:"consent_decline"`
	FallbackAccept  []string   `yaml:"fallback_accept"`
	FallbackDecline []string   `yaml:"fallback_decline"`
	Messages        Messages   `yaml:"messages"`
}

// Load returns the default catalog, overlaid with the YAML file at path when
// path is non-empty.
func Load(path string) (*Catalog, error) {
	cat := Default()
	if path == "" {
		return cat, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	if err := yaml.Unmarshal(data, cat); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return cat, nil
}

// Validate rejects catalogs that would break the conversation flow.
func (c *Catalog) Validate() error {
	if len(c.Questions) == 0 {
		return fmt.Errorf("catalog must define at least one question")
	}
	seen := make(map[string]struct{}, len(c.Questions))
	for _, q := range c.Questions {
		if q.ID == "" || q.Text == "" {
			return fmt.Errorf("question id and text are required")
		}
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("duplicate question id %q", q.ID)
		}
		seen[q.ID] = struct{}{}
	}
	if len(c.ConsentAccept) == 0 || len(c.ConsentDecline) == 0 {
		return fmt.Errorf("consent vocabularies cannot be empty")
	}
	return nil
}

// QuestionText returns the text for a question id, falling back to the id
// itself for synthetic follow-up identifiers.
func (c *Catalog) QuestionText(id string) string {
	for _, q := range c.Questions {
		if q.ID == id {
			return q.Text
		}
	}
	return id
}
