// Package cfpqc checks call-for-papers marketing emails before they are sent.
//
// Validate runs the compliance checklist over a draft body and its metadata.
// ScoreSubject and ScoreContent score a subject line and a body on 0-100
// scales. All three are deterministic, use the built-in spam lexicon and
// never return errors: problems with the input are reported inside the
// result.
package cfpqc

import (
	"github.com/ppiankov/cfpqc/internal/lexicon"
	"github.com/ppiankov/cfpqc/internal/model"
	"github.com/ppiankov/cfpqc/internal/score"
	"github.com/ppiankov/cfpqc/internal/validate"
)

type (
	QCReport     = model.QCReport
	RuleResult   = model.RuleResult
	SubjectScore = model.SubjectScore
	ContentScore = model.ContentScore
)

var defaultLexicon = lexicon.MustDefault()

// Validate runs every compliance rule over text. context carries the draft
// metadata keyed by field name (subject_line, sender_name, sender_email,
// journal_name, submission_deadline_text, waiver_available, submit_url...).
// Missing keys count as empty values.
func Validate(text string, context map[string]interface{}) QCReport {
	return validate.NewEngine(defaultLexicon).Validate(text, context)
}

// ScoreSubject scores a subject line
func ScoreSubject(text string) SubjectScore {
	return score.NewSubjectScorer(defaultLexicon).Score(text)
}

// ScoreContent scores the structure of an HTML or plain-text body
func ScoreContent(body string) ContentScore {
	return score.NewContentAnalyzer().Analyze(body)
}
