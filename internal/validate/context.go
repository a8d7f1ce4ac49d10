package validate

import "github.com/ppiankov/cfpqc/internal/model"

// Validate runs the checklist over a body text with its metadata supplied as
// a loosely typed record (journal_name, submit_url, waiver_available, ...).
// Nil and missing values are treated as empty. A "body" key in context is
// ignored in favour of text.
func (e *Engine) Validate(text string, context map[string]interface{}) model.QCReport {
	draft := model.DraftFromRecord(context)
	draft.Body = text
	return e.Run(draft, draft.SubmitURL)
}
