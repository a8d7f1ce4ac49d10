package extract

import (
	"regexp"
	"strings"
)

var (
	closingPattern   = regexp.MustCompile(`(?i)^(?:(?:with\s+)?(?:warm|warmest|kind|best)\s+regards|regards|(?:yours\s+)?sincerely|best\s+wishes|yours\s+faithfully)\s*,?$`)
	emailLinePattern = regexp.MustCompile(`(?i)^e-?mail\s*:\s*[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}\s*$`)
)

// Signature describes the closing block of a body
type Signature struct {
	Found        bool     // A closing line exists
	Contiguous   bool     // Closing line and everything after it form one block
	EndsWithMail bool     // Last line is "Email: <address>"
	Lines        []string // Closing line onwards
}

// OK reports whether the signature has the required shape
func (s Signature) OK() bool {
	return s.Found && s.Contiguous && s.EndsWithMail
}

// Problem describes why the signature is not OK, or "" when it is
func (s Signature) Problem() string {
	switch {
	case !s.Found:
		return "closing line not found"
	case !s.Contiguous:
		return "signature is split across blocks"
	case !s.EndsWithMail:
		return "signature does not end with an Email: line"
	}
	return ""
}

// IsClosingLine reports whether line is a letter closing such as "Warm Regards,"
func IsClosingLine(line string) bool {
	return closingPattern.MatchString(strings.TrimSpace(line))
}

// FindSignature locates the last closing line of body and checks that it and
// every line after it sit in one block ending with a visible Email line.
// In well-formed HTML the block is a single element with <br> separators;
// in plain text it is a run of non-blank lines.
func FindSignature(body string) Signature {
	st := Parse(body)
	if st.HTML && !st.Malformed {
		return htmlSignature(st.Blocks)
	}

	text := PlainText(body)
	if st.Malformed {
		text = StripTags(body)
	}
	return textSignature(strings.Split(text, "\n"))
}

func htmlSignature(blocks []Block) Signature {
	for i := len(blocks) - 1; i >= 0; i-- {
		lines := blocks[i].Lines()
		for j, line := range lines {
			if !IsClosingLine(line) {
				continue
			}
			sig := Signature{Found: true}
			sig.Lines = append(sig.Lines, lines[j:]...)
			for _, b := range blocks[i+1:] {
				sig.Lines = append(sig.Lines, b.Lines()...)
			}
			// One <p> per line puts every line in its own block
			sig.Contiguous = i == len(blocks)-1 && len(lines[j:]) > 1
			sig.EndsWithMail = emailLinePattern.MatchString(sig.Lines[len(sig.Lines)-1])
			return sig
		}
	}
	return Signature{}
}

func textSignature(lines []string) Signature {
	start := -1
	for i := len(lines) - 1; i >= 0; i-- {
		if IsClosingLine(lines[i]) {
			start = i
			break
		}
	}
	if start < 0 {
		return Signature{}
	}

	sig := Signature{Found: true, Contiguous: true}
	trailing := lines[start:]
	for len(trailing) > 0 && strings.TrimSpace(trailing[len(trailing)-1]) == "" {
		trailing = trailing[:len(trailing)-1]
	}
	for _, line := range trailing {
		line = strings.TrimSpace(line)
		if line == "" {
			sig.Contiguous = false
			continue
		}
		sig.Lines = append(sig.Lines, line)
	}
	if len(sig.Lines) < 2 {
		sig.Contiguous = false
	}
	sig.EndsWithMail = emailLinePattern.MatchString(sig.Lines[len(sig.Lines)-1])

	return sig
}
