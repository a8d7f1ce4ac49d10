package extract

import (
	"strings"
	"testing"
)

const scenarioBody = `<html><body>
<p>Dear Dr. Rivera,</p>
<p>Data-driven ecology research gains reach when it is published where field scientists read, and the Journal of Applied Ecology Methods invites your work.</p>
<ul>
<li>Original research articles</li>
<li>Reviews</li>
</ul>
<p>Submit at <a href="https://submit.example.org/jaem">the submission portal</a>.</p>
<p>Learn about us at https://www.example.org/about and the board at https://example.org/editorial-board plus https://doi.org/10.1000/xyz.</p>
<p>Warm Regards,<br>Ana Rivera<br>Editorial Office<br>Email: <a href="mailto:ana@example.org">ana@example.org</a></p>
<p><a href="https://mailer.example.net/unsubscribe?id=1">Unsubscribe</a> | <a href="https://mailer.example.net/webversion/1">View online</a></p>
</body></html>`

func TestIsHTML(t *testing.T) {
	tests := []struct {
		body string
		want bool
	}{
		{"<p>Hello</p>", true},
		{"Line one<br>Line two", true},
		{"Plain text with a < b comparison", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsHTML(tt.body); got != tt.want {
			t.Errorf("IsHTML(%q): expected %v, got %v", tt.body, tt.want, got)
		}
	}
}

func TestMalformed(t *testing.T) {
	if Malformed("<p>ok</p><div><ul><li>x</li></ul></div>") {
		t.Error("Expected balanced markup to be well-formed")
	}
	if !Malformed("<div><p>unclosed container</p>") {
		t.Error("Expected unclosed div to be malformed")
	}
	if !Malformed(`<p>see <a href="https://x.org">link</p>`) {
		t.Error("Expected unclosed anchor to be malformed")
	}
	if Malformed("plain text") {
		t.Error("Expected plain text not to be reported as malformed HTML")
	}
}

func TestPlainText(t *testing.T) {
	body := `<style>p{color:red}</style><p>First &amp; foremost</p><p>Line<br>break</p><script>alert(1)</script>`
	got := PlainText(body)

	if strings.Contains(got, "color") || strings.Contains(got, "alert") {
		t.Errorf("Expected script and style content dropped, got %q", got)
	}
	if !strings.Contains(got, "First & foremost") {
		t.Errorf("Expected entities decoded, got %q", got)
	}
	if !strings.Contains(got, "Line\nbreak") {
		t.Errorf("Expected <br> rendered as newline, got %q", got)
	}
}

func TestStripTags_Malformed(t *testing.T) {
	got := PlainText("<div><p>Hello <b>world</p>")
	if got != "Hello world" {
		t.Errorf("Expected best-effort stripped text, got %q", got)
	}
}

func TestLinks(t *testing.T) {
	links := Links(scenarioBody)

	kinds := make(map[LinkKind]int)
	for _, l := range links {
		kinds[l.Kind]++
	}

	if kinds[LinkCTA] != 4 {
		t.Errorf("Expected 4 CTA-class links, got %d (%v)", kinds[LinkCTA], links)
	}
	if kinds[LinkUnsubscribe] != 1 || kinds[LinkWebVersion] != 1 || kinds[LinkMailto] != 1 {
		t.Errorf("Expected one unsubscribe, webversion and mailto link, got %v", kinds)
	}

	for _, l := range links {
		if strings.HasSuffix(l.URL, ".") {
			t.Errorf("Expected trailing punctuation trimmed from %q", l.URL)
		}
	}
}

func TestLinks_PlainText(t *testing.T) {
	body := "Submit here: https://submit.example.org/x.\nAbout: (https://example.org/about)"
	links := Links(body)
	if len(links) != 2 {
		t.Fatalf("Expected 2 links, got %d", len(links))
	}
	if links[0].URL != "https://submit.example.org/x" {
		t.Errorf("Expected trimmed URL, got %q", links[0].URL)
	}
	if links[1].URL != "https://example.org/about" {
		t.Errorf("Expected URL without closing paren, got %q", links[1].URL)
	}
	if links[0].Anchor {
		t.Error("Expected bare URL not to be marked as anchor")
	}
}

func TestMaskURLs(t *testing.T) {
	text := "see https://example.org/aims-and-scope for topics"
	got := MaskURLs(text)

	if len(got) != len(text) {
		t.Fatalf("Expected length %d kept, got %d", len(text), len(got))
	}
	if strings.Contains(got, "scope") {
		t.Errorf("Expected URL text blanked, got %q", got)
	}
	if strings.Index(got, "topics") != strings.Index(text, "topics") {
		t.Error("Expected offsets after the URL to be unchanged")
	}
}

func TestRegisteredDomain(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://sub.example.com/path", "example.com"},
		{"https://example.com", "example.com"},
		{"https://journals.example.co.uk/about", "example.co.uk"},
		{"WWW.Example.ORG", "example.org"},
		{"http://localhost:8080/x", "localhost"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := RegisteredDomain(tt.in); got != tt.want {
			t.Errorf("RegisteredDomain(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestEmails(t *testing.T) {
	got := Emails("Write to Ana@Example.org or ana@example.org, cc ed@journal.net")
	if len(got) != 2 {
		t.Fatalf("Expected 2 distinct emails, got %v", got)
	}
	if got[0] != "ana@example.org" {
		t.Errorf("Expected lower-cased first email, got %q", got[0])
	}
}

func TestParse_IntroAndBullets(t *testing.T) {
	st := Parse(scenarioBody)

	if st.Malformed {
		t.Fatal("Expected well-formed body")
	}

	intro := st.Intro()
	if !strings.HasPrefix(intro, "Data-driven ecology") {
		t.Errorf("Expected salutation skipped in intro, got %q", intro)
	}
	if !st.ListBetween(1) {
		t.Error("Expected list between paragraphs 1 and 2")
	}
	if st.ListBetween(2) {
		t.Error("Expected no list between paragraphs 2 and 3")
	}
}

func TestParse_ListAfterSecondParagraph(t *testing.T) {
	body := `<p>One.</p><p>Two.</p><ol><li>a</li></ol><p>Three.</p>`
	st := Parse(body)
	if st.ListBetween(1) {
		t.Error("Expected no list between paragraphs 1 and 2")
	}
	if !st.ListBetween(2) {
		t.Error("Expected list between paragraphs 2 and 3")
	}
}

func TestParse_TrailingListIsNotBetween(t *testing.T) {
	st := Parse(`<p>One.</p><ul><li>a</li></ul>`)
	if st.ListBetween(1) {
		t.Error("Expected a list with no following paragraph not to count")
	}
}

func TestParse_PlainTextBullets(t *testing.T) {
	body := "Intro line here.\n• first\n• second\nSecond paragraph.\n- dash item\nThird."
	st := Parse(body)

	if st.HTML {
		t.Error("Expected plain text body")
	}
	if !st.ListBetween(1) {
		t.Error("Expected literal bullets between paragraphs 1 and 2")
	}
	if len(st.Paragraphs()) != 3 {
		t.Errorf("Expected 3 paragraphs, got %d", len(st.Paragraphs()))
	}
}

func TestParse_NestedLists(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		nested bool
	}{
		{"flat html", `<p>One.</p><ul><li>a</li><li>b</li></ul><p>Two.</p>`, false},
		{"html sub-list", `<p>One.</p><ul><li>a<ul><li>a1</li></ul></li><li>b</li></ul><p>Two.</p>`, true},
		{"flat text", "One.\n● a\n● b\nTwo.", false},
		{"indented text bullet", "One.\n● a\n    ● a1\n● b\nTwo.", true},
		{"tab indented text bullet", "One.\n● a\n\t- a1\nTwo.", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var lists []Block
			for _, b := range Parse(tt.body).Blocks {
				if b.Kind == BlockList {
					lists = append(lists, b)
				}
			}
			if len(lists) != 1 {
				t.Fatalf("Expected one list block, got %+v", lists)
			}
			if lists[0].Nested != tt.nested {
				t.Errorf("Expected nested=%v, got %v", tt.nested, lists[0].Nested)
			}
		})
	}
}

func TestParse_PlainTextSingleBlockIntro(t *testing.T) {
	st := Parse("We invite submissions on soil science. The deadline is close. Submit soon.")
	if got := st.Intro(); got != "We invite submissions on soil science." {
		t.Errorf("Expected first sentence, got %q", got)
	}
}

func TestParse_BreakSeparatedText(t *testing.T) {
	st := Parse("First line<br>• bullet<br>Second line<br>Third line")
	if !st.HTML {
		t.Error("Expected HTML body")
	}
	if !st.ListBetween(1) {
		t.Errorf("Expected bullet between first and second line, got %+v", st.Blocks)
	}
}

func TestParse_MalformedFallsBack(t *testing.T) {
	st := Parse("<div><p>Intro text</p><ul><li>x</li>")
	if !st.Malformed {
		t.Error("Expected malformed flag")
	}
	if st.Intro() != "Intro text" {
		t.Errorf("Expected intro from stripped text, got %q", st.Intro())
	}
}

func TestFindSignature(t *testing.T) {
	tests := []struct {
		name string
		body string
		ok   bool
		want string
	}{
		{
			name: "html single paragraph",
			body: scenarioBody[:strings.Index(scenarioBody, "<p><a href=\"https://mailer")] + "</body></html>",
			ok:   true,
		},
		{
			name: "html one paragraph per line",
			body: `<p>Body.</p><p>Warm Regards,</p><p>Ana</p><p>Email: ana@example.org</p>`,
			want: "signature is split across blocks",
		},
		{
			name: "plain text contiguous",
			body: "Body text.\n\nWarm Regards,\nAna Rivera\nEditorial Office\nEmail: ana@example.org\n",
			ok:   true,
		},
		{
			name: "plain text with gap",
			body: "Body text.\n\nKind regards,\nAna Rivera\n\nEmail: ana@example.org",
			want: "signature is split across blocks",
		},
		{
			name: "missing email line",
			body: "Body.\n\nSincerely,\nAna Rivera\nEditorial Office",
			want: "signature does not end with an Email: line",
		},
		{
			name: "no closing",
			body: "Body only.",
			want: "closing line not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := FindSignature(tt.body)
			if sig.OK() != tt.ok {
				t.Errorf("Expected OK=%v, got %v (%s)", tt.ok, sig.OK(), sig.Problem())
			}
			if !tt.ok && sig.Problem() != tt.want {
				t.Errorf("Expected problem %q, got %q", tt.want, sig.Problem())
			}
		})
	}
}

func TestCoreContent(t *testing.T) {
	draft := "Subject: Call for Papers\n\nDear Dr. Rivera,\n\nWe invite you.\nSubmit now.\n\nWarm Regards,\nAna\nEmail: ana@example.org"
	got := CoreContent(draft)
	if got != "We invite you.\nSubmit now." {
		t.Errorf("Expected core letter body, got %q", got)
	}

	if got := CoreContent("No salutation here.\nMore text."); got != "No salutation here.\nMore text." {
		t.Errorf("Expected text kept when no salutation, got %q", got)
	}

	if got := CoreContent(""); got != "" {
		t.Errorf("Expected empty core for empty draft, got %q", got)
	}
}
