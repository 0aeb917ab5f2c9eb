package config

const (
	// MaxEssayTitleLength is the maximum length for essay titles.
	MaxEssayTitleLength = 255

	// MaxEssayContentLength bounds a single version's content in runes.
	// Student essays are a few thousand characters; anything past this is
	// almost certainly a paste accident.
	MaxEssayContentLength = 50000

	// MaxFeedbackLength bounds stored AI feedback.
	MaxFeedbackLength = 20000

	// MaxActionItems bounds the checklist attached to one version.
	MaxActionItems = 20

	// MaxHistoryVersions is how many recent versions go into the AI prompt's
	// history summary.
	MaxHistoryVersions = 10

	// MaxImageBytes bounds decoded vision uploads (photos of handwritten essays).
	MaxImageBytes = 8 << 20
)
