package conversation

import (
	"strings"
	"testing"

	"triage-bot/internal/session"
)

func answers(pairs map[string]string) []session.Answer {
	out := make([]session.Answer, 0, len(pairs))
	for id, v := range pairs {
		out = append(out, session.Answer{QuestionID: id, Value: v})
	}
	return out
}

func TestHeuristicSummaryUrgent(t *testing.T) {
	got := HeuristicSummary(answers(map[string]string{
		"self_harm_thoughts": "sí, a veces lo he pensado",
	}))
	if !strings.Contains(got, "URGENTE") {
		t.Errorf("urgent flag missing:\n%s", got)
	}
	if !strings.Contains(got, "ALTA PRIORIDAD") {
		t.Errorf("urgent priority missing:\n%s", got)
	}
}

func TestHeuristicSummaryModerateHigh(t *testing.T) {
	got := HeuristicSummary(answers(map[string]string{
		"anxiety":          "sí, con mucha frecuencia",
		"sadness":          "me siento triste casi siempre",
		"loss_of_interest": "sí, ya nada me interesa",
	}))
	if !strings.Contains(got, "PRIORIDAD MODERADA-ALTA") {
		t.Errorf("expected moderate-high priority:\n%s", got)
	}
	if strings.Contains(got, "URGENTE") {
		t.Errorf("non-urgent answers flagged urgent:\n%s", got)
	}
}

func TestHeuristicSummaryModerate(t *testing.T) {
	got := HeuristicSummary(answers(map[string]string{
		"anxiety": "mucho, sobre todo de noche",
	}))
	if !strings.Contains(got, "PRIORIDAD MODERADA") || strings.Contains(got, "MODERADA-ALTA") {
		t.Errorf("expected moderate priority:\n%s", got)
	}
}

func TestHeuristicSummaryPreventive(t *testing.T) {
	got := HeuristicSummary(answers(map[string]string{
		"anxiety":            "no",
		"sadness":            "no",
		"self_harm_thoughts": "no, nunca",
	}))
	if !strings.Contains(got, "SEGUIMIENTO PREVENTIVO") {
		t.Errorf("expected preventive follow-up:\n%s", got)
	}
}

func TestHeuristicSummaryDisclaimsDiagnosis(t *testing.T) {
	got := HeuristicSummary(nil)
	if !strings.Contains(got, "no constituye un diagnóstico") {
		t.Errorf("summary must carry the disclaimer:\n%s", got)
	}
}
