package textstat

import (
	"strings"
	"unicode"
)

// CountChars counts an essay's length the way Chinese schools count 字数: every Han
// character counts as one, and each run of Latin letters or digits counts as
// one word. Punctuation and whitespace are not counted.
func CountChars(content string) int {
	text := stripMarkers(content)

	count := 0
	inWord := false
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Han, r):
			count++
			inWord = false
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if !inWord {
				count++
				inWord = true
			}
		default:
			inWord = false
		}
	}
	return count
}

// CountParagraphs counts non-blank lines
func CountParagraphs(content string) int {
	n := 0
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}

// stripMarkers removes list bullets and numbering students paste from editors
func stripMarkers(content string) string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "- ") {
			line = strings.TrimPrefix(line, "- ")
		} else if strings.HasPrefix(line, "* ") {
			line = strings.TrimPrefix(line, "* ")
		}
		// Numbered list markers (e.g., "1. ", "2. ")
		if len(line) > 2 && unicode.IsDigit(rune(line[0])) && line[1] == '.' {
			line = line[2:]
		}
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}
