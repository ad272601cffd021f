// Package assets embeds the bundled events, ideas and categories used when no
// URL or data directory is configured for them.
package assets

import "embed"

//go:embed data/*.json
var FS embed.FS

// File names inside FS.
const (
	EventsFile     = "data/events.json"
	IdeasFile      = "data/ideas.json"
	CategoriesFile = "data/categories.json"
)
