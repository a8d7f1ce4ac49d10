package validate

import (
	"testing"

	"github.com/ppiankov/cfpqc/internal/model"
)

func TestCredibilityClassifier_IsCredibility(t *testing.T) {
	classifier := NewCredibilityClassifier(nil)
	submit := "https://www.jaem-journal.org/submit"

	tests := []struct {
		url      string
		expected bool
		desc     string
	}{
		{"https://www.jaem-journal.org/about", true, "about page"},
		{"https://jaem-journal.org/about-us/", true, "about variant on bare domain"},
		{"https://www.jaem-journal.org/journal/editorial-board", true, "nested editorial board"},
		{"https://www.jaem-journal.org/editorial_board.html", true, "underscore with extension"},
		{"https://issues.jaem-journal.org/current-issue", true, "subdomain of the same site"},
		{"https://www.jaem-journal.org/archives", true, "plural segment"},
		{"https://www.jaem-journal.org/submit", false, "submission page itself"},
		{"https://www.jaem-journal.org/aboutface", false, "segment prefix only"},
		{"https://other-journal.org/about", false, "different registered domain"},
		{"not a url", false, "garbage"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if got := classifier.IsCredibility(tt.url, submit); got != tt.expected {
				t.Errorf("Expected %v for %s, got %v", tt.expected, tt.url, got)
			}
		})
	}
}

func TestCredibilityClassifier_ConfiguredPaths(t *testing.T) {
	config := &model.RulesConfig{CredibilityPaths: []string{"indexing-policy"}}
	classifier := NewCredibilityClassifier(config)

	if !classifier.MatchesPath("https://x.org/indexing_policy") {
		t.Error("Expected configured segment to match")
	}
	if classifier.MatchesPath("https://x.org/about") {
		t.Error("Expected default segments to be replaced by configuration")
	}
}

func TestCredibilityClassifier_Listed(t *testing.T) {
	classifier := NewCredibilityClassifier(nil).WithListed([]string{"https://doi.org/10.1000/jaem.2024.1/"})

	if !classifier.IsCredibility("http://www.doi.org/10.1000/jaem.2024.1", "https://jaem-journal.org/submit") {
		t.Error("Expected listed URL to be credibility regardless of domain and formatting")
	}
	if classifier.IsCredibility("https://doi.org/10.1000/other", "https://jaem-journal.org/submit") {
		t.Error("Expected unlisted URL on a foreign domain not to be credibility")
	}
}

func TestCredibilityClassifier_NoSubmitURL(t *testing.T) {
	classifier := NewCredibilityClassifier(nil)
	if classifier.SameSite("https://jaem-journal.org/about", "") {
		t.Error("Expected no site match without a submit URL")
	}
}
