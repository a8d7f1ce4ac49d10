package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ppiankov/cfpqc/internal/linkcheck"
	"github.com/ppiankov/cfpqc/internal/pipeline"
	"github.com/ppiankov/cfpqc/internal/validate"
	"github.com/spf13/cobra"
)

var (
	validateFlags pipelineFlags
	jsonOutput    bool
	mdOutput      string
	checkLinks    bool
	noFooter      bool
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate <draft>",
	Short: "Run the QC checklist over a draft",
	Long: `Validate runs every compliance rule over a draft and prints the checklist:

  ✔ rule passed
  ❌ rule failed, with the reason
  ? rule needs a human (or --review) judgment

Drafts are YAML or JSON files with the email and its metadata, or a
plain .txt/.html body with an optional leading "Subject:" line.

Exit status is 2 when any rule fails.

Example:
  cfpqc validate draft.yaml
  cfpqc validate draft.yaml --today 2025-03-01 --json
  cfpqc validate draft.yaml --review --links --md report.md`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateFlags.register(validateCmd)
	validateCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the full result as JSON")
	validateCmd.Flags().StringVar(&mdOutput, "md", "", "also write a Markdown report to this path")
	validateCmd.Flags().BoolVar(&checkLinks, "links", false, "check that submit and credibility links resolve")
	validateCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
}

func runValidate(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd, 0)
	defer cancel()

	drafts, err := pipeline.LoadDraft(args[0])
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	p, err := a.pipeline(ctx, validateFlags)
	if err != nil {
		return err
	}

	renderer := pipeline.NewRenderer(!noFooter)
	failed := false
	var results []*pipeline.Result

	for _, draft := range drafts {
		res, err := p.Process(ctx, draft)
		if err != nil {
			return fmt.Errorf("%s: %w", draft.ID, err)
		}

		if checkLinks {
			checker := linkcheck.New(a.cfg.LinkCheck, a.cfg.Workers.Concurrency, a.log)
			targets := linkcheck.TargetsFor(draft, validate.NewCredibilityClassifier(&a.cfg.Rules))
			res.Links = checker.Check(ctx, targets)
		}

		if !res.Report.Passed || deadLinks(res) > 0 {
			failed = true
		}
		results = append(results, res)

		if mdOutput != "" {
			path := mdOutput
			if len(drafts) > 1 {
				path = fmt.Sprintf("%s.%s.md", mdOutput, draft.ID)
			}
			if err := renderer.RenderMarkdown(res, path); err != nil {
				return err
			}
		}
	}

	if jsonOutput {
		var v interface{} = results
		if len(results) == 1 {
			v = results[0]
		}
		if err := pipeline.WriteJSON(os.Stdout, v); err != nil {
			return err
		}
	} else {
		for _, res := range results {
			if len(results) > 1 {
				fmt.Printf("# %s\n", res.Draft.ID)
			}
			fmt.Print(pipeline.Checklist(res.Report))
			printLinks(res)
			if verbose {
				renderer.RenderSummary(os.Stderr, res)
			}
		}
	}

	if failed {
		return ErrChecksFailed
	}
	return nil
}

func printLinks(res *pipeline.Result) {
	for _, l := range res.Links {
		switch {
		case l.Reachable:
			fmt.Printf("✓ %s %s (%d)\n", l.Role, l.URL, l.StatusCode)
		case l.BlockedByRobots:
			fmt.Printf("? %s %s (blocked by robots.txt)\n", l.Role, l.URL)
		default:
			fmt.Printf("✗ %s %s %s\n", l.Role, l.URL, linkProblem(l.StatusCode, l.Error))
		}
	}
}

func linkProblem(code int, errText string) string {
	if errText != "" {
		return "(" + errText + ")"
	}
	return fmt.Sprintf("(%d)", code)
}

func deadLinks(res *pipeline.Result) int {
	n := 0
	for _, l := range res.Links {
		if l.Dead {
			n++
		}
	}
	return n
}

// commandContext bounds a command by timeout when one is set
func commandContext(cmd *cobra.Command, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
