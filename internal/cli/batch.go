package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ppiankov/cfpqc/internal/pipeline"
	"github.com/ppiankov/cfpqc/internal/worker"
	"github.com/spf13/cobra"
)

var (
	batchFlags   pipelineFlags
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <dir|list>",
	Short: "Validate many drafts in parallel",
	Long: `Batch validates every draft in a directory, or every path listed in a
file (one per line, # comments allowed), with a bounded worker pool:
- Each draft gets a JSON and a Markdown report in the output directory
- A summary of passes and failures is printed at the end

Exit status is 2 when any draft fails its checklist.

Example:
  cfpqc batch ./drafts
  cfpqc batch drafts.txt --concurrency 8 --output-dir ./qc-reports
  cfpqc batch ./drafts --review --store --timeout 10m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchFlags.register(batchCmd)
	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default: workers.concurrency)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./cfpqc-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
}

func runBatch(cmd *cobra.Command, args []string) error {
	input := args[0]
	ctx, cancel := commandContext(cmd, batchTimeout)
	defer cancel()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	workers := concurrency
	if workers <= 0 {
		workers = a.cfg.Workers.Concurrency
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  cfpqc Batch Validation\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input:        %s\n", input)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", workers)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	if batchFlags.review {
		fmt.Fprintf(os.Stderr, "  LLM:          %s\n", a.cfg.LLM.Provider)
	}
	fmt.Fprintf(os.Stderr, "\n")

	paths, err := batchPaths(input)
	if err != nil {
		return err
	}

	drafts, err := pipeline.LoadDrafts(paths)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "✓ Loaded %d drafts from %d files\n", len(drafts), len(paths))

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	p, err := a.pipeline(ctx, batchFlags)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "⚙️  Validating drafts with %d workers...\n", workers)
	fmt.Fprintf(os.Stderr, "\n")

	results := worker.NewBatchProcessor(p, workers).ProcessDrafts(ctx, drafts)
	renderer := pipeline.NewRenderer(!noFooter)

	passed, failed, errored := 0, 0, 0
	for _, r := range results {
		if r.Error != nil {
			errored++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", r.Draft.ID, r.Error)
			continue
		}

		slug := sanitizeFilename(r.Draft.ID)
		if err := renderer.RenderJSON(r.Result, filepath.Join(outputDir, slug+".json")); err != nil {
			errored++
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", r.Draft.ID, err)
			continue
		}
		if err := renderer.RenderMarkdown(r.Result, filepath.Join(outputDir, slug+".md")); err != nil {
			errored++
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write Markdown: %v\n", r.Draft.ID, err)
			continue
		}

		report := r.Result.Report
		if report.Passed {
			passed++
			fmt.Fprintf(os.Stderr, "✓ %s (score: %.1f/100)\n", r.Draft.ID, r.Result.Overall)
		} else {
			failed++
			fmt.Fprintf(os.Stderr, "✗ %s: %d rules failed (score: %.1f/100)\n", r.Draft.ID, len(report.Failed()), r.Result.Overall)
		}
	}

	// Summary
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d drafts\n", len(results))
	fmt.Fprintf(os.Stderr, "  Passed:    %d\n", passed)
	fmt.Fprintf(os.Stderr, "  Failed:    %d\n", failed)
	fmt.Fprintf(os.Stderr, "  Errors:    %d\n", errored)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	if failed > 0 || errored > 0 {
		return ErrChecksFailed
	}
	return nil
}

// batchPaths expands a directory into its draft files or reads a list file
func batchPaths(input string) ([]string, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return pipeline.DraftFiles(input)
	}
	return worker.ReadPathsFromFile(input)
}

// sanitizeFilename makes a draft id safe to use as a file name
func sanitizeFilename(s string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "-",
	)
	s = replacer.Replace(strings.TrimSpace(s))
	if s == "" || s == "." || s == ".." {
		s = "draft"
	}

	// Limit length
	if len(s) > 100 {
		s = s[:100]
	}

	return s
}
