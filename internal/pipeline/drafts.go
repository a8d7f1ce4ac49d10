package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/cfpqc/internal/model"
)

// draftExtensions are the file types LoadDraft understands
var draftExtensions = map[string]bool{
	".yaml": true, ".yml": true, ".json": true,
	".txt": true, ".html": true, ".htm": true, ".eml": true,
}

// LoadDraft reads the drafts in one file. YAML and JSON files hold a single
// draft or a list of drafts; any other supported file is taken as a bare
// body, with an optional leading "Subject:" line. Drafts without an id are
// named after the file.
func LoadDraft(path string) ([]model.Draft, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read draft: %w", err)
	}

	var drafts []model.Draft
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		drafts, err = decodeYAML(data)
	case ".json":
		drafts, err = decodeJSON(data)
	default:
		drafts = []model.Draft{bodyDraft(string(data))}
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	for i := range drafts {
		d := &drafts[i]
		if d.WaiverPercentage < 0 {
			d.WaiverPercentage = 0
		}
		if d.WaiverPercentage > 100 {
			d.WaiverPercentage = 100
		}
		if d.ID != "" {
			continue
		}
		d.ID = base
		if len(drafts) > 1 {
			d.ID = fmt.Sprintf("%s-%d", base, i+1)
		}
	}
	return drafts, nil
}

// LoadDrafts reads every file in paths, in order
func LoadDrafts(paths []string) ([]model.Draft, error) {
	var all []model.Draft
	for _, p := range paths {
		drafts, err := LoadDraft(p)
		if err != nil {
			return nil, err
		}
		all = append(all, drafts...)
	}
	return all, nil
}

// DraftFiles lists the supported draft files directly inside dir, sorted
func DraftFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if draftExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

func decodeYAML(data []byte) ([]model.Draft, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	if len(node.Content) == 0 {
		return nil, fmt.Errorf("empty document")
	}

	root := node.Content[0]
	if root.Kind == yaml.SequenceNode {
		var drafts []model.Draft
		if err := root.Decode(&drafts); err != nil {
			return nil, err
		}
		return drafts, nil
	}

	var d model.Draft
	if err := root.Decode(&d); err != nil {
		return nil, err
	}
	return []model.Draft{d}, nil
}

func decodeJSON(data []byte) ([]model.Draft, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty document")
	}

	if trimmed[0] == '[' {
		var drafts []model.Draft
		if err := json.Unmarshal(trimmed, &drafts); err != nil {
			return nil, err
		}
		return drafts, nil
	}

	var d model.Draft
	if err := json.Unmarshal(trimmed, &d); err != nil {
		return nil, err
	}
	return []model.Draft{d}, nil
}

func bodyDraft(text string) model.Draft {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	trimmed := strings.TrimLeft(text, " \t\n")
	if strings.HasPrefix(trimmed, "Subject:") {
		line, rest, _ := strings.Cut(trimmed, "\n")
		return model.Draft{
			SubjectLine: strings.TrimSpace(strings.TrimPrefix(line, "Subject:")),
			Body:        strings.TrimLeft(rest, "\n"),
		}
	}
	return model.Draft{Body: text}
}
