package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/ppiankov/cfpqc/internal/model"
	"github.com/ppiankov/cfpqc/internal/pipeline"
)

// mockProcessor implements Processor
type mockProcessor struct {
	failID string
}

func (m *mockProcessor) Process(ctx context.Context, draft model.Draft) (*pipeline.Result, error) {
	time.Sleep(5 * time.Millisecond) // Simulate work
	if draft.ID == m.failID {
		return nil, errors.New("process error")
	}
	return &pipeline.Result{
		Draft:   draft,
		Subject: model.SubjectScore{Subject: draft.SubjectLine, OverallScore: 60},
	}, nil
}

func testDrafts(ids ...string) []model.Draft {
	drafts := make([]model.Draft, len(ids))
	for i, id := range ids {
		drafts[i] = model.Draft{ID: id, SubjectLine: "Call for papers " + id}
	}
	return drafts
}

func TestBatchProcessor_ProcessDrafts(t *testing.T) {
	processor := NewBatchProcessor(&mockProcessor{}, 3)

	results := processor.ProcessDrafts(context.Background(), testDrafts("a", "b", "c", "d", "e", "f", "g"))

	if len(results) != 7 {
		t.Fatalf("expected 7 results, got %d", len(results))
	}
	for i, res := range results {
		if res.Error != nil {
			t.Errorf("unexpected error for %s: %v", res.Draft.ID, res.Error)
		}
		if res.Index != i {
			t.Errorf("expected result %d to keep its index, got %d", i, res.Index)
		}
		if res.Result == nil || res.Result.Draft.ID != res.Draft.ID {
			t.Errorf("expected result for draft %s", res.Draft.ID)
		}
	}
}

func TestBatchProcessor_ProcessDrafts_Error(t *testing.T) {
	processor := NewBatchProcessor(&mockProcessor{failID: "b"}, 2)

	results := processor.ProcessDrafts(context.Background(), testDrafts("a", "b", "c"))

	if results[1].Error == nil {
		t.Error("expected error for draft b")
	}
	if results[1].Result != nil {
		t.Error("expected nil result on error")
	}
	if results[0].Error != nil || results[2].Error != nil {
		t.Error("expected other drafts to succeed")
	}

	candidates := Candidates(results)
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}
	if candidates[0].DraftID != "a" || candidates[1].DraftID != "c" {
		t.Errorf("expected candidates a, c in batch order, got %s, %s", candidates[0].DraftID, candidates[1].DraftID)
	}
}

func TestBatchProcessor_ProcessDrafts_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := NewBatchProcessor(&mockProcessor{}, 2).ProcessDrafts(ctx, testDrafts("a", "b"))
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, res := range results {
		if !errors.Is(res.Error, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", res.Error)
		}
	}
}

func TestBatchProcessor_ProcessDrafts_Empty(t *testing.T) {
	results := NewBatchProcessor(&mockProcessor{}, 2).ProcessDrafts(context.Background(), nil)
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestReadPathsFromFile(t *testing.T) {
	content := `drafts/a.yaml
# comment
drafts/b.json

drafts/a.yaml
   drafts/c.yaml   `

	path := filepath.Join(t.TempDir(), "drafts.txt")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	paths, err := ReadPathsFromFile(path)
	if err != nil {
		t.Fatalf("ReadPathsFromFile failed: %v", err)
	}

	expected := []string{"drafts/a.yaml", "drafts/b.json", "drafts/c.yaml"}
	if !reflect.DeepEqual(paths, expected) {
		t.Errorf("expected %v, got %v", expected, paths)
	}
}

func TestReadPathsFromFile_Missing(t *testing.T) {
	if _, err := ReadPathsFromFile(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}
