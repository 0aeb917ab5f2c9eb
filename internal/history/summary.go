package history

import (
	"fmt"
	"strings"

	"essaycoach/internal/domain/models/essay"
	"essaycoach/internal/textdiff"
)

// Summarize renders an essay's revision history as prompt context. The first
// and last versions appear in full; versions in between are described by
// their differences from the version they were based on.
func Summarize(e *essay.Essay) string {
	return SummarizeRecent(e, 0)
}

// SummarizeRecent is Summarize restricted to the most recent limit versions.
// A limit of zero or less keeps every version. Version numbers and parents
// still refer to the full history.
func SummarizeRecent(e *essay.Essay, limit int) string {
	if len(e.Versions) == 0 {
		return "这篇作文只有一个版本：\n" + e.Content
	}

	f := BuildForest(e.Versions)
	nodes := f.Chronological()
	if limit > 0 && len(nodes) > limit {
		nodes = nodes[len(nodes)-limit:]
	}

	if len(nodes) == 1 {
		return fullSection(nodes[0])
	}

	sections := make([]string, 0, len(nodes))
	for i, node := range nodes {
		if i == 0 || i == len(nodes)-1 {
			sections = append(sections, fullSection(node))
			continue
		}
		sections = append(sections, diffSection(f, node))
	}
	return strings.Join(sections, "\n\n")
}

func fullSection(node *Node) string {
	return fmt.Sprintf("版本%d：[完整内容]\n%s", node.Order, node.Content)
}

// diffSection describes node relative to its parent, or to the version created
// just before it when it has none.
func diffSection(f *Forest, node *Node) string {
	base := f.Parent(node.ID)
	if base == nil {
		base = f.Nodes[f.chronological[node.Order-2]]
	}

	header := fmt.Sprintf("版本%d：基于版本%d", node.Order, base.Order)
	diff := textdiff.Diff(base.Content, node.Content)

	if diff.UseFullContentInstead {
		return fmt.Sprintf("%s，有较大修改\n%s", header, node.Content)
	}
	if diff.Empty() {
		return header
	}

	var parts []string
	if len(diff.Removed) > 0 {
		preview := diff.Removed[0]
		where := textdiff.Locate(base.Content, textdiff.StripEllipsis(preview))
		parts = append(parts, fmt.Sprintf("%s删除了\"%s\"%s", where, preview, more(len(diff.Removed))))
	}
	if len(diff.Added) > 0 {
		preview := diff.Added[0]
		where := textdiff.Locate(node.Content, textdiff.StripEllipsis(preview))
		parts = append(parts, fmt.Sprintf("%s添加了\"%s\"%s", where, preview, more(len(diff.Added))))
	}
	if len(diff.Modified) > 0 {
		parts = append(parts, fmt.Sprintf("修改了%s%s", diff.Modified[0], more(len(diff.Modified))))
	}

	return header + "，" + strings.Join(parts, "，")
}

// more renders the "and N more" suffix for a category with count entries.
func more(count int) string {
	if count <= 1 {
		return ""
	}
	return fmt.Sprintf("（还有%d处）", count-1)
}
