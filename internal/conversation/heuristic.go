package conversation

import (
	"strings"

	"triage-bot/internal/session"
)

// concernPattern flags an answer to a specific fixed question when it
// contains any of the keywords.
type concernPattern struct {
	questionID string
	keywords   []string
	label      string
	urgent     bool
}

var concernPatterns = []concernPattern{
	{
		questionID: "self_harm_thoughts",
		keywords:   []string{"sí", "si", "a veces", "frecuentemente"},
		label:      "⚠️ URGENTE: pensamientos de autolesión reportados",
		urgent:     true,
	},
	{
		questionID: "anxiety",
		keywords:   []string{"sí", "si", "mucho", "frecuentemente", "ansios"},
		label:      "Niveles de ansiedad elevados",
	},
	{
		questionID: "sadness",
		keywords:   []string{"sí", "si", "triste", "deprimid", "mal"},
		label:      "Síntomas de tristeza o ánimo bajo",
	},
	{
		questionID: "loss_of_interest",
		keywords:   []string{"sí", "si", "nada", "perdido"},
		label:      "Pérdida de interés en actividades habituales",
	},
	{
		questionID: "hallucinations_meds",
		keywords:   []string{"sí", "si", "voces", "medicamento", "pastilla"},
		label:      "Posibles alucinaciones o medicación psiquiátrica activa",
	},
}

// HeuristicSummary builds a keyword-matched orientation summary from the
// fixed answers. It runs only when the diagnostic service is unreachable and
// is explicitly framed as not being a diagnosis.
func HeuristicSummary(answers []session.Answer) string {
	byID := make(map[string]string, len(answers))
	for _, a := range answers {
		byID[a.QuestionID] = strings.ToLower(a.Value)
	}

	var flagged []string
	urgent := false
	for _, p := range concernPatterns {
		answer, ok := byID[p.questionID]
		if !ok {
			continue
		}
		for _, kw := range p.keywords {
			if strings.Contains(answer, kw) {
				flagged = append(flagged, p.label)
				urgent = urgent || p.urgent
				break
			}
		}
	}

	var priority string
	switch {
	case urgent:
		priority = "ALTA PRIORIDAD: busca atención profesional de inmediato. Línea de atención en crisis: 106."
	case len(flagged) >= 3:
		priority = "PRIORIDAD MODERADA-ALTA: te recomendamos agendar una consulta profesional esta semana."
	case len(flagged) >= 1:
		priority = "PRIORIDAD MODERADA: considera agendar una consulta profesional próximamente."
	default:
		priority = "SEGUIMIENTO PREVENTIVO: no identificamos señales de alarma, mantén hábitos de autocuidado."
	}

	var b strings.Builder
	b.WriteString("📝 *ANÁLISIS BÁSICO DE TUS RESPUESTAS*\n")
	b.WriteString("_Este resumen es orientativo y no constituye un diagnóstico._\n\n")
	if len(flagged) > 0 {
		b.WriteString("Aspectos identificados:\n")
		for _, f := range flagged {
			b.WriteString("• ")
			b.WriteString(f)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	b.WriteString(priority)
	return b.String()
}
