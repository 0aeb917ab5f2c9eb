package textdiff

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// UnknownPosition is returned when the target cannot be found.
	UnknownPosition = "[位置未知]"

	// OpeningSection is returned when the document has a single segment.
	OpeningSection = "开头部分"

	startMarker = "[开头]"
	endMarker   = "[结尾]"

	// contextPreviewLength bounds the neighbouring-segment previews.
	contextPreviewLength = 15

	// contextLines is how many raw lines of context the fallback collects on
	// each side of the target.
	contextLines = 2

	// minParagraphs is the paragraph count below which the document is
	// segmented by single lines instead.
	minParagraphs = 3
)

var paragraphBreak = regexp.MustCompile(`\n[ \t\r]*\n`)

// Locate describes where target sits inside document, in terms of the
// segments around it. It never fails: unknown targets yield UnknownPosition.
func Locate(document, target string) string {
	if target == "" || !strings.Contains(document, target) {
		return UnknownPosition
	}

	segments := Segments(document)
	for i, segment := range segments {
		if !strings.Contains(segment, target) {
			continue
		}

		if len(segments) == 1 {
			return OpeningSection
		}

		switch i {
		case 0:
			return before(head(segments[1]))
		case len(segments) - 1:
			return after(head(segments[i-1]))
		default:
			return between(head(segments[i-1]), head(segments[i+1]))
		}
	}

	// The target spans a segment boundary; fall back to raw line context.
	offset := strings.Index(document, target)
	prevContext := tailLines(document[:offset], contextLines)
	nextContext := headLines(document[offset+len(target):], contextLines)

	if prevContext == "" {
		prevContext = startMarker
	} else {
		prevContext = tail(prevContext)
	}
	if nextContext == "" {
		nextContext = endMarker
	} else {
		nextContext = head(nextContext)
	}

	return between(prevContext, nextContext)
}

// Segments splits document into paragraphs, or into lines when there are
// fewer than three paragraphs. Blank segments are dropped.
func Segments(document string) []string {
	segments := nonBlank(paragraphBreak.Split(document, -1))
	if len(segments) < minParagraphs {
		segments = nonBlank(strings.Split(document, "\n"))
	}
	return segments
}

func nonBlank(parts []string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func before(next string) string {
	return fmt.Sprintf("在\"%s\"之前", next)
}

func after(prev string) string {
	return fmt.Sprintf("在\"%s\"之后", prev)
}

func between(prev, next string) string {
	return fmt.Sprintf("在\"%s\"和\"%s\"之间", prev, next)
}

// head returns the leading runes of s.
func head(s string) string {
	runes := []rune(s)
	if len(runes) > contextPreviewLength {
		runes = runes[:contextPreviewLength]
	}
	return string(runes)
}

// tail returns the trailing runes of s, the part closest to what follows it.
func tail(s string) string {
	runes := []rune(s)
	if len(runes) > contextPreviewLength {
		runes = runes[len(runes)-contextPreviewLength:]
	}
	return string(runes)
}

func tailLines(text string, n int) string {
	lines := nonBlank(strings.Split(text, "\n"))
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " ")
}

func headLines(text string, n int) string {
	lines := nonBlank(strings.Split(text, "\n"))
	if len(lines) > n {
		lines = lines[:n]
	}
	return strings.Join(lines, " ")
}
