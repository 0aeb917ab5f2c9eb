package textdiff

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// linePreviewLength bounds added/removed line previews.
	linePreviewLength = 20

	// modifiedPreviewLength bounds the old/new previews of a modified line.
	modifiedPreviewLength = 10

	// fullContentRatio is the summary-to-original length ratio at which the
	// summary stops being worth sending instead of the full text.
	fullContentRatio = 0.8

	ellipsis = "..."
)

// Result describes the line-level differences between two texts.
//
// Added and Removed hold truncated line previews. Modified holds one entry per
// line index whose content differs between the two texts. When
// UseFullContentInstead is true the caller should send the whole new text
// rather than the summary.
type Result struct {
	Added                 []string `json:"added"`
	Removed               []string `json:"removed"`
	Modified              []string `json:"modified"`
	UseFullContentInstead bool     `json:"use_full_content_instead"`
}

// Empty reports whether the result carries no change entries.
func (r Result) Empty() bool {
	return len(r.Added) == 0 && len(r.Removed) == 0 && len(r.Modified) == 0
}

// Diff compares oldText and newText line by line.
//
// This is a heuristic, not a minimal edit script: lines are matched by exact
// content for added/removed detection and by index for modified detection, so
// inserting a line near the top marks every later line as modified.
func Diff(oldText, newText string) Result {
	result := Result{
		Added:    []string{},
		Removed:  []string{},
		Modified: []string{},
	}

	switch {
	case oldText == "" && newText == "":
		return result
	case oldText == "":
		result.Added = append(result.Added, newText)
		result.UseFullContentInstead = true
		return result
	case newText == "":
		result.Removed = append(result.Removed, oldText)
		result.UseFullContentInstead = true
		return result
	}

	oldLines := SplitLines(oldText)
	newLines := SplitLines(newText)

	oldSet := make(map[string]struct{}, len(oldLines))
	for _, line := range oldLines {
		oldSet[line] = struct{}{}
	}
	newSet := make(map[string]struct{}, len(newLines))
	for _, line := range newLines {
		newSet[line] = struct{}{}
	}

	for _, line := range newLines {
		if _, ok := oldSet[line]; !ok {
			result.Added = append(result.Added, Truncate(line, linePreviewLength))
		}
	}
	for _, line := range oldLines {
		if _, ok := newSet[line]; !ok {
			result.Removed = append(result.Removed, Truncate(line, linePreviewLength))
		}
	}

	shared := min(len(oldLines), len(newLines))
	for i := 0; i < shared; i++ {
		if oldLines[i] == newLines[i] {
			continue
		}
		result.Modified = append(result.Modified, fmt.Sprintf("第%d行：\"%s\" → \"%s\"",
			i+1,
			Truncate(oldLines[i], modifiedPreviewLength),
			Truncate(newLines[i], modifiedPreviewLength),
		))
	}

	summaryLength := 0
	for _, group := range [][]string{result.Added, result.Removed, result.Modified} {
		for _, entry := range group {
			summaryLength += utf8.RuneCountInString(entry)
		}
	}
	if float64(summaryLength) >= fullContentRatio*float64(utf8.RuneCountInString(oldText)) {
		result.UseFullContentInstead = true
	}

	return result
}

// SplitLines splits text into trimmed, non-blank lines.
func SplitLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// Truncate shortens s to at most limit runes, appending "..." when it cuts.
func Truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + ellipsis
}

// StripEllipsis removes the marker Truncate appends, returning the raw prefix.
func StripEllipsis(preview string) string {
	return strings.TrimSuffix(preview, ellipsis)
}
