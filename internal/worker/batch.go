package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/cfpqc/internal/model"
	"github.com/ppiankov/cfpqc/internal/pipeline"
	"github.com/ppiankov/cfpqc/internal/score"
)

// Processor runs the QC pipeline for one draft
type Processor interface {
	Process(ctx context.Context, draft model.Draft) (*pipeline.Result, error)
}

// DraftJob represents one draft evaluation
type DraftJob struct {
	Index     int
	Draft     model.Draft
	Processor Processor
}

// Execute executes the draft job
func (j *DraftJob) Execute(ctx context.Context) Result {
	result, err := j.Processor.Process(ctx, j.Draft)
	return &DraftResult{
		Index:  j.Index,
		Draft:  j.Draft,
		Result: result,
		Error:  err,
	}
}

// DraftResult represents the result of a draft job
type DraftResult struct {
	Index  int
	Draft  model.Draft
	Result *pipeline.Result
	Error  error
}

// GetIndex returns the draft's position in the batch
func (r *DraftResult) GetIndex() int {
	return r.Index
}

// GetError returns the error from the draft result
func (r *DraftResult) GetError() error {
	return r.Error
}

// BatchProcessor evaluates many drafts concurrently
type BatchProcessor struct {
	processor   Processor
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(processor Processor, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		processor:   processor,
		concurrency: concurrency,
	}
}

// ProcessDrafts evaluates drafts in parallel. The returned slice is aligned
// with drafts; drafts skipped because ctx ended carry ctx's error.
func (b *BatchProcessor) ProcessDrafts(ctx context.Context, drafts []model.Draft) []*DraftResult {
	if len(drafts) == 0 {
		return []*DraftResult{}
	}

	jobs := make([]Job, len(drafts))
	for i, d := range drafts {
		jobs[i] = &DraftJob{Index: i, Draft: d, Processor: b.processor}
	}

	out := make([]*DraftResult, len(drafts))
	for _, res := range Run(ctx, b.concurrency, jobs) {
		dr := res.(*DraftResult)
		out[dr.Index] = dr
	}

	for i := range out {
		if out[i] == nil {
			err := ctx.Err()
			if err == nil {
				err = fmt.Errorf("draft not processed")
			}
			out[i] = &DraftResult{Index: i, Draft: drafts[i], Error: err}
		}
	}

	return out
}

// Candidates converts successful results into ranking input, keeping batch order
func Candidates(results []*DraftResult) []score.Candidate {
	var out []score.Candidate
	for _, r := range results {
		if r.Error != nil || r.Result == nil {
			continue
		}
		out = append(out, r.Result.Candidate())
	}
	return out
}

// ReadPathsFromFile reads draft file paths from a list file (one per line)
func ReadPathsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var paths []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			paths = append(paths, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return paths, nil
}
