package extract

import "strings"

// CoreContent returns the letter body of a plain-text draft: "Subject:" lines
// and the salutation are skipped and everything from the closing line on is
// dropped.
func CoreContent(draft string) string {
	lines := strings.Split(strings.TrimSpace(strings.ReplaceAll(draft, "\r\n", "\n")), "\n")

	start := len(lines)
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "Subject:") || trimmed == "" {
			continue
		}
		start = i
		if IsSalutation(trimmed) {
			start = i + 1
		}
		break
	}

	end := len(lines)
	for i := start; i < len(lines); i++ {
		if IsClosingLine(lines[i]) {
			end = i
			break
		}
	}

	if start >= end {
		return ""
	}
	return strings.TrimSpace(strings.Join(lines[start:end], "\n"))
}
