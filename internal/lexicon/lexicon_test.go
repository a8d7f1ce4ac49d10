package lexicon

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func testLexicon() *Lexicon {
	return New([]string{"amazing", "discount", "groundbreaking", "act now", "don't miss out", "free", "free of charge", "100%", "deadline"})
}

func TestDefault_Loads(t *testing.T) {
	lex, err := Default()
	if err != nil {
		t.Fatalf("Default lexicon failed to load: %v", err)
	}
	if lex.Len() < 300 {
		t.Errorf("Expected several hundred entries, got %d", lex.Len())
	}
	for _, w := range []string{"groundbreaking", "act now", "exclusive", "hurry"} {
		if !lex.Contains(w) {
			t.Errorf("Expected default lexicon to contain %q", w)
		}
	}
	// Words that appear in every legitimate CFP must not be spam
	for _, w := range []string{"call", "papers", "submit", "journal", "manuscript"} {
		if lex.Contains(w) {
			t.Errorf("Expected default lexicon not to contain %q", w)
		}
	}
}

func TestFindHits(t *testing.T) {
	lex := testLexicon()

	tests := []struct {
		name       string
		text       string
		exceptions []string
		want       []string
	}{
		{"none", "Submit your manuscript", nil, nil},
		{"case insensitive", "AMAZING Discount", nil, []string{"amazing", "discount"}},
		{"whole word only", "amazingly discounted", nil, nil},
		{"punctuation ignored", "Amazing! Discount, groundbreaking.", nil, []string{"amazing", "discount", "groundbreaking"}},
		{"phrase", "Please act now.", nil, []string{"act now"}},
		{"curly apostrophe", "Don’t miss out on this", nil, []string{"don't miss out"}},
		{"longest phrase wins", "APC is free of charge", nil, []string{"free of charge"}},
		{"distinct", "free free free", nil, []string{"free"}},
		{"percent token", "100% acceptance", nil, []string{"100%"}},
		{"exception suppressed", "Deadline is near, amazing", []string{"deadline"}, []string{"amazing"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := lex.FindHits(tt.text, tt.exceptions...)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestOccurrences(t *testing.T) {
	lex := testLexicon()
	if got := lex.Occurrences("free free and amazing"); got != 3 {
		t.Errorf("Expected 3 occurrences, got %d", got)
	}
}

func TestDensity(t *testing.T) {
	if got := Density("", nil); got != 0 {
		t.Errorf("Expected 0 density for empty text, got %f", got)
	}
	if got := Density("one two three four", []string{"one"}); got != 0.25 {
		t.Errorf("Expected 0.25, got %f", got)
	}
	// Hits without counted words cannot push density past 1
	if got := Density("100%", []string{"100%", "x"}); got != 1 {
		t.Errorf("Expected density clamped to 1, got %f", got)
	}
}

func TestDensity_Bounded(t *testing.T) {
	lex := testLexicon()
	texts := []string{"", "amazing", "amazing discount free", "plain words only", strings.Repeat("free ", 50)}
	for _, text := range texts {
		d := Density(text, lex.FindHits(text))
		if d < 0 || d > 1 {
			t.Errorf("Density(%q) out of range: %f", text, d)
		}
	}
}

func TestHighlight(t *testing.T) {
	lex := testLexicon()

	got := lex.Highlight(`<b>Amazing</b> & free`)
	want := `&lt;b&gt;<mark class="spam">Amazing</mark>&lt;/b&gt; &amp; <mark class="spam">free</mark>`
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}

	plain := lex.Highlight("nothing <here>")
	if plain != "nothing &lt;here&gt;" {
		t.Errorf("Expected escaped text without marks, got %q", plain)
	}
}

func TestHighlight_Exceptions(t *testing.T) {
	lex := testLexicon()
	got := lex.Highlight("deadline amazing", "deadline")
	if strings.Contains(got, `<mark class="spam">deadline</mark>`) {
		t.Errorf("Expected exception not to be highlighted, got %q", got)
	}
}

func TestLoad_Empty(t *testing.T) {
	_, err := Load(strings.NewReader("# only comments\n\n"))
	if err == nil {
		t.Fatal("Expected error for empty lexicon")
	}
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Errorf("Expected ConfigurationError, got %T", err)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "words.txt")
	if err := os.WriteFile(path, []byte("hype\n# comment\nact now\n"), 0644); err != nil {
		t.Fatal(err)
	}

	lex, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if lex.Len() != 2 {
		t.Errorf("Expected 2 entries, got %d", lex.Len())
	}

	_, err = LoadFile(filepath.Join(dir, "missing.txt"))
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Expected ConfigurationError for missing file, got %v", err)
	}
	if cfgErr.Source != filepath.Join(dir, "missing.txt") {
		t.Errorf("Expected source to name the file, got %q", cfgErr.Source)
	}
}
