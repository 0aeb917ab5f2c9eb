package services

import (
	"context"

	"essaycoach/internal/domain/models/essay"
	"essaycoach/internal/history"
)

// EssayService manages essays and their version forests
type EssayService interface {
	CreateEssay(ctx context.Context, clientKey string, req *CreateEssayRequest) (*essay.Essay, error)
	ListEssays(ctx context.Context, clientKey string) ([]essay.Essay, error)
	GetEssay(ctx context.Context, clientKey, essayID string) (*essay.Essay, error)
	UpdateEssay(ctx context.Context, clientKey, essayID string, req *UpdateEssayRequest) (*essay.Essay, error)
	DeleteEssay(ctx context.Context, clientKey, essayID string) error

	// AddVersion appends a revision. Parent defaults to the current version.
	AddVersion(ctx context.Context, clientKey, essayID string, req *AddVersionRequest) (*essay.Version, error)

	// UpdateVersionFeedback replaces feedback and action items in place
	UpdateVersionFeedback(ctx context.Context, clientKey, essayID, versionID string, req *UpdateFeedbackRequest) (*essay.Version, error)

	ToggleActionItem(ctx context.Context, clientKey, essayID, versionID, itemID string) (*essay.Version, error)

	// DeleteVersion removes a version; children become roots
	DeleteVersion(ctx context.Context, clientKey, essayID, versionID string) (*essay.Essay, error)

	GetTree(ctx context.Context, clientKey, essayID string) (*Tree, error)

	// GetPath returns the path through versionID, or the default path when empty
	GetPath(ctx context.Context, clientKey, essayID, versionID string) (*PathView, error)

	// SwitchSibling moves the path to an adjacent sibling and persists any
	// selection change
	SwitchSibling(ctx context.Context, clientKey, essayID string, req *SwitchSiblingRequest) (*PathView, error)

	GetHistorySummary(ctx context.Context, clientKey, essayID string) (string, error)

	// RequestFeedback asks the AI collaborator to review a version
	RequestFeedback(ctx context.Context, clientKey, essayID, versionID string) (*essay.Version, error)
}

// CreateEssayRequest creates an essay with its first version
type CreateEssayRequest struct {
	Title    string  `json:"title"`
	Content  string  `json:"content"`
	ToolUsed *string `json:"tool_used,omitempty"`
}

// UpdateEssayRequest renames an essay
type UpdateEssayRequest struct {
	Title *string `json:"title,omitempty"`
}

// AddVersionRequest creates a revision
type AddVersionRequest struct {
	Content  string  `json:"content"`
	ParentID *string `json:"parent_id,omitempty"` // nil: current version
	ToolUsed *string `json:"tool_used,omitempty"`
}

// UpdateFeedbackRequest stores a re-review without a content change
type UpdateFeedbackRequest struct {
	Feedback    string   `json:"feedback"`
	ActionItems []string `json:"action_items"`
}

// SwitchSiblingRequest switches the displayed branch at VersionID
type SwitchSiblingRequest struct {
	VersionID  string            `json:"version_id"`
	Direction  history.Direction `json:"direction"`
	SelectedID *string           `json:"selected_id,omitempty"` // nil: essay's current version
}

// TreeNode is the serialized view of one forest node
type TreeNode struct {
	essay.Version
	Order        int      `json:"order"`
	Children     []string `json:"children"`
	SiblingIndex int      `json:"sibling_index"`
	SiblingCount int      `json:"sibling_count"`
	CharCount    int      `json:"char_count"`
	Paragraphs   int      `json:"paragraphs"`
}

// Tree is the serialized version forest of one essay
type Tree struct {
	EssayID          string              `json:"essay_id"`
	Nodes            map[string]TreeNode `json:"nodes"`
	RootIDs          []string            `json:"root_ids"`
	CurrentVersionID *string             `json:"current_version_id,omitempty"`
}

// PathView is a root-to-leaf path plus the selected version
type PathView struct {
	Path       []TreeNode `json:"path"`
	SelectedID *string    `json:"selected_id,omitempty"`
	Changed    bool       `json:"selection_changed"`
}
