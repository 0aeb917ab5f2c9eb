package catalog

import (
	"testing"
)

func TestLoad_EmbeddedCatalog(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	tools := c.List()
	if len(tools) < 2 {
		t.Fatalf("expected several tools, got %d", len(tools))
	}
	if c.First().ID != tools[0].ID {
		t.Errorf("First() = %s, want %s", c.First().ID, tools[0].ID)
	}

	next, ok := c.Next(tools[0].ID)
	if !ok || next.ID != tools[1].ID {
		t.Errorf("Next(%s) = %v, want %s", tools[0].ID, next, tools[1].ID)
	}
	if _, ok := c.Next(tools[len(tools)-1].ID); ok {
		t.Error("last tool should have no successor")
	}
	if _, ok := c.Get("no-such-tool"); ok {
		t.Error("unknown tool should not be found")
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty", "tools: []"},
		{"missing id", "tools:\n  - title: x\n    mastery_count: 1"},
		{"duplicate id", "tools:\n  - id: a\n    mastery_count: 1\n  - id: a\n    mastery_count: 1"},
		{"zero mastery", "tools:\n  - id: a\n    mastery_count: 0"},
		{"not yaml", "tools: [::"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.yaml)); err == nil {
				t.Error("expected error")
			}
		})
	}
}
