package essay

import (
	"time"
)

// Version is one snapshot of an essay. Content and ParentID never change after
// creation; Feedback and ActionItems are rewritten when the essay is
// re-reviewed without a content change.
type Version struct {
	ID          string       `json:"id"`
	Content     string       `json:"content"`
	Feedback    *string      `json:"feedback,omitempty"`
	ActionItems []ActionItem `json:"action_items"`
	ParentID    *string      `json:"parent_id,omitempty"` // nil = root of a history line
	ToolUsed    *string      `json:"tool_used,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// ActionItem is a single checklist entry produced by AI feedback.
type ActionItem struct {
	ID        string `json:"id"`
	Task      string `json:"task"`
	Completed bool   `json:"completed"`
}

// HasParent reports whether the version claims a parent. The parent may still
// be missing from the essay, in which case the version is treated as a root.
func (v *Version) HasParent() bool {
	return v.ParentID != nil && *v.ParentID != ""
}
