package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/ppiankov/cfpqc/internal/model"
	"github.com/ppiankov/cfpqc/internal/pipeline"
	"github.com/ppiankov/cfpqc/internal/score"
	"github.com/ppiankov/cfpqc/internal/worker"
	"github.com/spf13/cobra"
)

var (
	rankFlags   pipelineFlags
	rankTimeout time.Duration
)

// subjectCmd represents the subject command
var subjectCmd = &cobra.Command{
	Use:   "subject <text>",
	Short: "Score a subject line (0-100)",
	Long: `Subject scores a subject line on length, capitals, spam words,
punctuation and the presence of call-for-papers keywords.

Example:
  cfpqc subject "Call for Papers: Special Issue on Sustainable Energy"
  cfpqc subject "FREE PUBLICATION!!!" --json`,
	Args: cobra.ExactArgs(1),
	RunE: runSubject,
}

// contentCmd represents the content command
var contentCmd = &cobra.Command{
	Use:   "content <draft>",
	Short: "Score the structure of an email body (0-100)",
	Long: `Content scores an email body on intro length, bullet placement,
number of calls to action and number of external domains.

Example:
  cfpqc content draft.yaml
  cfpqc content body.html --json`,
	Args: cobra.ExactArgs(1),
	RunE: runContent,
}

// rankCmd represents the rank command
var rankCmd = &cobra.Command{
	Use:   "rank <draft>...",
	Short: "Rank competing drafts by composite score",
	Long: `Rank evaluates every draft and orders them by composite score.
Ties keep input order.

Example:
  cfpqc rank a.yaml b.yaml c.yaml
  cfpqc rank variants.yaml --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRank,
}

func init() {
	rootCmd.AddCommand(subjectCmd)
	rootCmd.AddCommand(contentCmd)
	rootCmd.AddCommand(rankCmd)

	subjectCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the score breakdown as JSON")
	contentCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the score breakdown as JSON")

	rankFlags.register(rankCmd)
	rankCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the ranking as JSON")
	rankCmd.Flags().DurationVar(&rankTimeout, "timeout", 5*time.Minute, "total timeout")
}

func runSubject(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	s := score.NewSubjectScorer(a.lex).Score(args[0])
	if jsonOutput {
		return pipeline.WriteJSON(os.Stdout, s)
	}

	fmt.Printf("Subject score: %.1f/100\n", s.OverallScore)
	printSignals(s.Signals)
	return nil
}

func runContent(cmd *cobra.Command, args []string) error {
	drafts, err := pipeline.LoadDraft(args[0])
	if err != nil {
		return err
	}

	analyzer := score.NewContentAnalyzer()
	var scores []model.ContentScore
	for _, d := range drafts {
		scores = append(scores, analyzer.Analyze(d.Body))
	}

	if jsonOutput {
		if len(scores) == 1 {
			return pipeline.WriteJSON(os.Stdout, scores[0])
		}
		return pipeline.WriteJSON(os.Stdout, scores)
	}

	for i, s := range scores {
		if len(scores) > 1 {
			fmt.Printf("# %s\n", drafts[i].ID)
		}
		fmt.Printf("Content score: %.1f/100 (raw %.0f/55)\n", s.OverallScore, s.RawScore)
		printSignals(s.Signals)
	}
	return nil
}

func runRank(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd, rankTimeout)
	defer cancel()

	drafts, err := pipeline.LoadDrafts(args)
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	p, err := a.pipeline(ctx, rankFlags)
	if err != nil {
		return err
	}

	results := worker.NewBatchProcessor(p, a.cfg.Workers.Concurrency).ProcessDrafts(ctx, drafts)
	for _, r := range results {
		if r.Error != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", r.Draft.ID, r.Error)
		}
	}

	ranked := p.Composite().Rank(worker.Candidates(results))
	if jsonOutput {
		return pipeline.WriteJSON(os.Stdout, ranked)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tDRAFT\tOVERALL\tSUBJECT\tCONTENT\tCONFIDENCE")
	for _, r := range ranked {
		fmt.Fprintf(w, "%d\t%s\t%.1f\t%.1f\t%.1f\t%s\n",
			r.Rank, r.DraftID, r.Overall, r.Subject.OverallScore, r.Content.OverallScore, r.Confidence)
	}
	return w.Flush()
}

func printSignals(signals []model.Signal) {
	for _, sig := range signals {
		mark := "✓"
		switch sig.Severity {
		case model.SeverityWarning:
			mark = "!"
		case model.SeverityCritical:
			mark = "✗"
		}
		fmt.Printf("  %s %-20s %s\n", mark, sig.Type, strings.TrimSpace(sig.Description))
	}
}
