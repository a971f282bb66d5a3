package review

import (
	"bytes"
	"fmt"
	"time"

	"github.com/signintech/gopdf"

	"triage-bot/internal/diagnostic"
	"triage-bot/internal/session"
)

// CaseSnapshot is the immutable view of a user case captured under the
// session lock and rendered for reviewers.
type CaseSnapshot struct {
	UserID      string
	PatientName string
	Transcript  []diagnostic.ChatEntry
	Followups   []diagnostic.ChatEntry
	Diagnostic  session.DiagnosticResult
	CompletedAt time.Time
}

// dejaVuPaths lists the font locations probed at render time, covering the
// Alpine and Debian package layouts.
var dejaVuPaths = []string{
	"/usr/share/fonts/ttf-dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
}

// BuildCaseFile renders the case as a PDF. Callers treat a failure as
// non-fatal: the text summary is always delivered separately.
func BuildCaseFile(snap CaseSnapshot) ([]byte, error) {
	pdf := gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	pdf.AddPage()

	var fontErr error
	fontLoaded := false
	for _, path := range dejaVuPaths {
		if err := pdf.AddTTFFont("DejaVu", path); err == nil {
			fontLoaded = true
			break
		} else {
			fontErr = err
		}
	}
	if !fontLoaded {
		return nil, fmt.Errorf("load case file font: %w", fontErr)
	}

	if err := pdf.SetFont("DejaVu", "", 20); err != nil {
		return nil, err
	}
	pdf.Cell(nil, "Apoyo Diagnóstico - Caso para Validación")
	pdf.Br(30)

	if err := pdf.SetFont("DejaVu", "", 12); err != nil {
		return nil, err
	}
	pdf.Cell(nil, fmt.Sprintf("Fecha: %s", snap.CompletedAt.Format("02/01/2006 15:04")))
	pdf.Br(15)
	pdf.Cell(nil, fmt.Sprintf("Paciente: %s", snap.PatientName))
	pdf.Br(15)
	pdf.Cell(nil, fmt.Sprintf("Identificador: %s", snap.UserID))
	pdf.Br(25)

	writeSection := func(title string, entries []diagnostic.ChatEntry) error {
		if len(entries) == 0 {
			return nil
		}
		if err := pdf.SetFont("DejaVu", "", 14); err != nil {
			return err
		}
		pdf.Cell(nil, title)
		pdf.Br(15)
		if err := pdf.SetFont("DejaVu", "", 11); err != nil {
			return err
		}
		for _, e := range entries {
			for _, raw := range []string{"P: " + e.Question, "R: " + e.Answer} {
				lines, _ := pdf.SplitText(raw, 500)
				for _, l := range lines {
					pdf.Cell(nil, l)
					pdf.Br(12)
				}
			}
			pdf.Br(5)
		}
		pdf.Br(10)
		return nil
	}

	if err := writeSection("Cuestionario inicial:", snap.Transcript); err != nil {
		return nil, err
	}
	if err := writeSection("Preguntas de seguimiento:", snap.Followups); err != nil {
		return nil, err
	}

	if err := pdf.SetFont("DejaVu", "", 14); err != nil {
		return nil, err
	}
	pdf.Cell(nil, "Apoyo diagnóstico:")
	pdf.Br(15)
	if err := pdf.SetFont("DejaVu", "", 11); err != nil {
		return nil, err
	}
	for _, raw := range []string{
		"Pre-diagnóstico: " + snap.Diagnostic.PreDiagnosis,
		"Comentarios: " + snap.Diagnostic.Comments,
		"Prioridad: " + snap.Diagnostic.Score,
	} {
		lines, _ := pdf.SplitText(raw, 500)
		for _, l := range lines {
			pdf.Cell(nil, l)
			pdf.Br(12)
		}
		pdf.Br(5)
	}

	var buf bytes.Buffer
	if _, err := pdf.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write case file: %w", err)
	}
	return buf.Bytes(), nil
}

// Summary renders the plain-text version of the case sent alongside (or
// instead of) the PDF.
func (s CaseSnapshot) Summary() string {
	var b bytes.Buffer
	b.WriteString("📋 *APOYO DIAGNÓSTICO PARA VALIDACIÓN*\n\n")
	fmt.Fprintf(&b, "👤 Paciente: %s\n", s.PatientName)
	fmt.Fprintf(&b, "📱 Identificador: %s\n\n", s.UserID)
	if s.Diagnostic.PreDiagnosis != "" {
		fmt.Fprintf(&b, "🩺 Pre-diagnóstico:\n%s\n\n", s.Diagnostic.PreDiagnosis)
	}
	if s.Diagnostic.Comments != "" {
		fmt.Fprintf(&b, "💬 Comentarios:\n%s\n\n", s.Diagnostic.Comments)
	}
	if s.Diagnostic.Score != "" {
		fmt.Fprintf(&b, "📊 Prioridad: %s\n", s.Diagnostic.Score)
	}
	return b.String()
}
