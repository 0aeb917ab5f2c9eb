package catalog

// Tool is one writing technique a student can unlock and practise.
type Tool struct {
	ID          string `yaml:"id" json:"id"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
	Example     string `yaml:"example" json:"example"`

	// FeedbackFocus tells the reviewer what to look at when the student
	// applies this tool
	FeedbackFocus string `yaml:"feedback_focus" json:"feedback_focus"`

	// MasteryCount is how many practised essays master the tool
	MasteryCount int `yaml:"mastery_count" json:"mastery_count"`

	// Points awarded per practice
	Points int `yaml:"points" json:"points"`
}

// catalogFile is the YAML document layout
type catalogFile struct {
	Tools []Tool `yaml:"tools"`
}
