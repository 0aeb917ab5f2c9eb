package essay

import (
	"time"
)

// Essay owns its versions exclusively. Title, Content, ToolUsed and Feedback
// mirror the current version so older clients can read an essay without
// walking its history.
type Essay struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Content          string    `json:"content"`
	ToolUsed         *string   `json:"tool_used,omitempty"`
	Feedback         *string   `json:"feedback,omitempty"`
	CurrentVersionID *string   `json:"current_version_id,omitempty"`
	Versions         []Version `json:"versions"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// FindVersion returns a pointer into e.Versions, or nil.
func (e *Essay) FindVersion(id string) *Version {
	for i := range e.Versions {
		if e.Versions[i].ID == id {
			return &e.Versions[i]
		}
	}
	return nil
}

// MirrorVersion copies v's fields into the essay's top-level fields and
// selects it.
func (e *Essay) MirrorVersion(v *Version) {
	id := v.ID
	e.CurrentVersionID = &id
	e.Content = v.Content
	e.ToolUsed = v.ToolUsed
	e.Feedback = v.Feedback
}
