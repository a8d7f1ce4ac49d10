package cli

import (
	"fmt"
	"html"
	"os"

	"github.com/ppiankov/cfpqc/internal/extract"
	"github.com/ppiankov/cfpqc/internal/pipeline"
	"github.com/spf13/cobra"
)

var highlightOut string

// highlightCmd represents the highlight command
var highlightCmd = &cobra.Command{
	Use:   "highlight <draft>",
	Short: "Mark spam-lexicon hits in a draft body",
	Long: `Highlight prints the draft body as escaped HTML with every spam-lexicon
hit wrapped in <mark class="spam">. Configured lexicon exceptions are
never marked.

Example:
  cfpqc highlight draft.yaml --out preview.html`,
	Args: cobra.ExactArgs(1),
	RunE: runHighlight,
}

func init() {
	rootCmd.AddCommand(highlightCmd)
	highlightCmd.Flags().StringVar(&highlightOut, "out", "", "write to this file instead of stdout")
}

func runHighlight(cmd *cobra.Command, args []string) error {
	drafts, err := pipeline.LoadDraft(args[0])
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	out := os.Stdout
	if highlightOut != "" {
		f, err := os.Create(highlightOut)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer func() { _ = f.Close() }()
		out = f
	}

	for _, d := range drafts {
		text := extract.PlainText(d.Body)
		if _, err := fmt.Fprintf(out, "<div class=\"draft\" id=\"%s\">\n<p class=\"subject\">%s</p>\n<pre>%s</pre>\n</div>\n",
			html.EscapeString(d.ID), a.lex.Highlight(d.SubjectLine, a.cfg.Lexicon.Exceptions...), a.lex.Highlight(text, a.cfg.Lexicon.Exceptions...)); err != nil {
			return err
		}
	}

	if highlightOut != "" {
		fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", highlightOut)
	}
	return nil
}
