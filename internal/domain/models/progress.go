package models

import (
	"slices"
	"time"
)

// Progress is a student's position in the writing tool ladder.
type Progress struct {
	UnlockedTools []string       `json:"unlocked_tools"`
	MasteredTools []string       `json:"mastered_tools"`
	Practice      map[string]int `json:"practice"` // tool id -> practice count
	Points        int            `json:"points"`
	Level         int            `json:"level"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// IsUnlocked reports whether toolID can be practised.
func (p *Progress) IsUnlocked(toolID string) bool {
	return slices.Contains(p.UnlockedTools, toolID)
}

// IsMastered reports whether toolID has reached its mastery count.
func (p *Progress) IsMastered(toolID string) bool {
	return slices.Contains(p.MasteredTools, toolID)
}
