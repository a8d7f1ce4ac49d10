package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ppiankov/cfpqc/internal/model"
)

const banner = "═══════════════════════════════════════════════════════════"

// Renderer writes results as JSON and Markdown
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes the result as indented JSON to path
func (r *Renderer) RenderJSON(res *Result, path string) error {
	return writeFile(path, func(w io.Writer) error {
		return WriteJSON(w, res)
	})
}

// RenderMarkdown writes the Markdown report to path
func (r *Renderer) RenderMarkdown(res *Result, path string) error {
	return writeFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, r.Markdown(res))
		return err
	})
}

// WriteJSON encodes v as indented JSON
func WriteJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// StatusMark is the checklist symbol for a rule status
func StatusMark(s model.RuleStatus) string {
	switch s {
	case model.StatusPass:
		return "✔"
	case model.StatusFail:
		return "❌"
	}
	return "?"
}

// Checklist renders one line per rule: mark, id and the detail of
// non-passing rules
func Checklist(report model.QCReport) string {
	var b strings.Builder
	for _, res := range report.Results {
		fmt.Fprintf(&b, "%s %s", StatusMark(res.Status), res.RuleID)
		if res.Status != model.StatusPass && res.Detail != "" {
			fmt.Fprintf(&b, ": %s", res.Detail)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Markdown renders the full report
func (r *Renderer) Markdown(res *Result) string {
	var b strings.Builder
	report := res.Report

	title := res.Draft.ID
	if title == "" {
		title = res.Draft.SubjectLine
	}
	fmt.Fprintf(&b, "# CFP QC Report: %s\n\n", mdEscape(title))

	verdict := "PASS"
	if !report.Passed {
		verdict = "FAIL"
	}
	fmt.Fprintf(&b, "- **Subject:** %s\n", mdEscape(res.Draft.SubjectLine))
	fmt.Fprintf(&b, "- **Checklist:** %s (%d failed, %d need review)\n", verdict, len(report.Failed()), len(report.NeedReview))
	fmt.Fprintf(&b, "- **Overall score:** %.1f (%s confidence)\n", res.Overall, res.Risk.Confidence)
	fmt.Fprintf(&b, "- **Words:** %d\n", report.WordCount)
	if !report.EvaluatedAt.IsZero() {
		fmt.Fprintf(&b, "- **Evaluated:** %s\n", report.EvaluatedAt.Format("2006-01-02"))
	}
	b.WriteString("\n")

	b.WriteString("## Checklist\n\n")
	b.WriteString("| | Rule | Detail |\n|---|---|---|\n")
	for _, rr := range report.Results {
		fmt.Fprintf(&b, "| %s | `%s` | %s |\n", StatusMark(rr.Status), rr.RuleID, mdEscape(rr.Detail))
	}
	b.WriteString("\n")

	s := res.Subject
	b.WriteString("## Subject Line\n\n")
	fmt.Fprintf(&b, "| Component | Score |\n|---|---|\n")
	fmt.Fprintf(&b, "| Length (%d chars) | %.1f |\n", s.Length, s.LengthScore)
	fmt.Fprintf(&b, "| Caps (%.1f%%) | %.1f |\n", s.CapsPercentage, s.CapsScore)
	fmt.Fprintf(&b, "| Spam words | %.1f |\n", s.SpamScore)
	fmt.Fprintf(&b, "| Punctuation | %.1f |\n", s.PunctuationScore)
	fmt.Fprintf(&b, "| Keyword bonus | %.1f |\n", s.KeywordBonus)
	fmt.Fprintf(&b, "| **Overall** | **%.1f** |\n\n", s.OverallScore)
	if len(s.SpamHits) > 0 {
		fmt.Fprintf(&b, "Spam words: %s\n\n", mdEscape(strings.Join(s.SpamHits, ", ")))
	}

	c := res.Content
	b.WriteString("## Content Structure\n\n")
	fmt.Fprintf(&b, "- Intro words: %d\n", c.IntroWordCount)
	fmt.Fprintf(&b, "- Bullets: %s\n", c.BulletsPosition)
	fmt.Fprintf(&b, "- Calls to action: %d\n", c.CTACount)
	fmt.Fprintf(&b, "- External domains: %d\n", c.ExternalDomainCount)
	fmt.Fprintf(&b, "- **Overall:** %.1f\n\n", c.OverallScore)

	if res.Review != nil {
		b.WriteString("## Tone Review\n\n")
		fmt.Fprintf(&b, "Reviewer: %s", res.Review.Reviewer)
		if res.Review.Model != "" {
			fmt.Fprintf(&b, " (%s)", res.Review.Model)
		}
		b.WriteString("\n\n")
		for _, id := range sortedKeys(res.Review.Verdicts) {
			mark := "❌"
			if res.Review.Verdicts[id] {
				mark = "✔"
			}
			fmt.Fprintf(&b, "- %s `%s`", mark, id)
			if reason := res.Review.Reasons[id]; reason != "" {
				fmt.Fprintf(&b, ": %s", mdEscape(reason))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(res.Links) > 0 {
		b.WriteString("## Links\n\n")
		b.WriteString("| Role | URL | Status |\n|---|---|---|\n")
		for _, l := range res.Links {
			fmt.Fprintf(&b, "| %s | %s | %s |\n", l.Role, l.URL, linkState(l))
		}
		b.WriteString("\n")
	}

	if len(report.Warnings) > 0 {
		b.WriteString("## Warnings\n\n")
		for _, w := range report.Warnings {
			fmt.Fprintf(&b, "- %s\n", mdEscape(w))
		}
		b.WriteString("\n")
	}

	if r.includeFooter {
		b.WriteString("---\n\n")
		b.WriteString("*Generated by cfpqc. Checklist results are deterministic; tone review verdicts come from an external model and are advisory.*\n")
	}

	return b.String()
}

// RenderSummary prints a short banner summary
func (r *Renderer) RenderSummary(w io.Writer, res *Result) {
	verdict := "✓ PASS"
	if !res.Report.Passed {
		verdict = "✗ FAIL"
	}
	fmt.Fprintln(w, banner)
	fmt.Fprintf(w, "  %s  %s\n", verdict, res.Draft.ID)
	fmt.Fprintln(w, banner)
	fmt.Fprintf(w, "  Overall:     %.1f (%s)\n", res.Overall, res.Risk.Confidence)
	fmt.Fprintf(w, "  Subject:     %.1f\n", res.Subject.OverallScore)
	fmt.Fprintf(w, "  Content:     %.1f\n", res.Content.OverallScore)
	fmt.Fprintf(w, "  Summary:     %s\n", res.Risk.Summary)
	if len(res.Report.NeedReview) > 0 {
		fmt.Fprintf(w, "  Review:      %s\n", strings.Join(res.Report.NeedReview, ", "))
	}
	fmt.Fprintln(w)
}

func linkState(l model.LinkStatus) string {
	switch {
	case l.BlockedByRobots:
		return "blocked by robots.txt"
	case l.Reachable && l.RedirectURL != "":
		return fmt.Sprintf("%d → %s", l.StatusCode, l.RedirectURL)
	case l.Reachable:
		return fmt.Sprintf("%d", l.StatusCode)
	case l.Dead:
		return fmt.Sprintf("dead (%d)", l.StatusCode)
	case l.Error != "":
		return mdEscape(l.Error)
	}
	return fmt.Sprintf("unreachable (%d)", l.StatusCode)
}

func mdEscape(s string) string {
	return strings.NewReplacer("|", `\|`, "\n", " ").Replace(s)
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, closeErr)
		}
	}()

	if err := write(f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
