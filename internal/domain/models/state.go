package models

import (
	"time"

	"essaycoach/internal/domain/models/essay"
)

// CurrentSchemaVersion is the AppState layout written by this build.
// Older layouts are upgraded by the state store on load.
const CurrentSchemaVersion = 2

// AIConfig is the student's model choice, persisted without API keys.
// An empty Model uses the server's configured model list.
type AIConfig struct {
	Model     string    `json:"model,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OptionalModel tracks tri-state semantics for model updates (RFC 7396 PATCH).
// This is transport-agnostic (no JSON tags) - handler maps from httputil.OptionalString.
//   - Present=false: field absent from request (don't change)
//   - Present=true, Value=nil: field is null (back to server default)
//   - Present=true, Value=&"model": use that model first
type OptionalModel struct {
	Present bool
	Value   *string
}

// UpdateAIConfigRequest is a partial AIConfig update
type UpdateAIConfigRequest struct {
	Model OptionalModel
}

// AppState is everything persisted for one client under a single key.
type AppState struct {
	SchemaVersion int           `json:"schema_version"`
	Progress      *Progress     `json:"progress"`
	Essays        []essay.Essay `json:"essays"`
	AIConfig      *AIConfig     `json:"ai_config,omitempty"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// FindEssay returns a pointer into s.Essays, or nil.
func (s *AppState) FindEssay(id string) *essay.Essay {
	for i := range s.Essays {
		if s.Essays[i].ID == id {
			return &s.Essays[i]
		}
	}
	return nil
}

// RemoveEssay deletes the essay with the given id and reports whether it existed.
func (s *AppState) RemoveEssay(id string) bool {
	for i := range s.Essays {
		if s.Essays[i].ID == id {
			s.Essays = append(s.Essays[:i], s.Essays[i+1:]...)
			return true
		}
	}
	return false
}

// Upgrade migrates a state decoded from an older layout in place and reports
// whether anything changed. State stores call it on every load.
//
//	v0/v1: versions could lack created_at and action_items, and progress
//	       could be missing entirely.
func (s *AppState) Upgrade() bool {
	if s.SchemaVersion >= CurrentSchemaVersion {
		return false
	}

	for i := range s.Essays {
		e := &s.Essays[i]
		if e.Versions == nil {
			e.Versions = []essay.Version{}
		}
		for j := range e.Versions {
			v := &e.Versions[j]
			if v.CreatedAt.IsZero() {
				// Keep list order stable: later entries sort after earlier ones
				v.CreatedAt = e.CreatedAt.Add(time.Duration(j) * time.Millisecond)
			}
			if v.ActionItems == nil {
				v.ActionItems = []essay.ActionItem{}
			}
		}
	}
	if s.Progress != nil && s.Progress.Practice == nil {
		s.Progress.Practice = map[string]int{}
	}

	s.SchemaVersion = CurrentSchemaVersion
	return true
}
