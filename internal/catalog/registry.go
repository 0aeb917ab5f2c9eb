package catalog

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed config/tools.yaml
var toolsFile []byte

// Catalog holds the writing tools in unlock order. It is read-only after
// loading and safe for concurrent use.
type Catalog struct {
	tools []Tool
	index map[string]int
}

// Load parses the embedded tool catalog.
func Load() (*Catalog, error) {
	return Parse(toolsFile)
}

// Parse builds a catalog from YAML data.
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tool catalog: %w", err)
	}
	if len(file.Tools) == 0 {
		return nil, fmt.Errorf("tool catalog is empty")
	}

	c := &Catalog{
		tools: file.Tools,
		index: make(map[string]int, len(file.Tools)),
	}
	for i, tool := range file.Tools {
		if tool.ID == "" {
			return nil, fmt.Errorf("tool %d has no id", i)
		}
		if _, dup := c.index[tool.ID]; dup {
			return nil, fmt.Errorf("duplicate tool id: %s", tool.ID)
		}
		if tool.MasteryCount <= 0 {
			return nil, fmt.Errorf("tool %s: mastery_count must be positive", tool.ID)
		}
		c.index[tool.ID] = i
	}

	return c, nil
}

// List returns all tools in unlock order.
func (c *Catalog) List() []Tool {
	out := make([]Tool, len(c.tools))
	copy(out, c.tools)
	return out
}

// Get returns the tool with the given id.
func (c *Catalog) Get(id string) (*Tool, bool) {
	i, ok := c.index[id]
	if !ok {
		return nil, false
	}
	tool := c.tools[i]
	return &tool, true
}

// First returns the tool unlocked for new students.
func (c *Catalog) First() Tool {
	return c.tools[0]
}

// Next returns the tool unlocked after id is mastered; false at the end of
// the ladder or for unknown ids.
func (c *Catalog) Next(id string) (*Tool, bool) {
	i, ok := c.index[id]
	if !ok || i+1 >= len(c.tools) {
		return nil, false
	}
	tool := c.tools[i+1]
	return &tool, true
}
