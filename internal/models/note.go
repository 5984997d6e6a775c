// Package models defines the domain types shared by the publishing pipeline.
package models

import (
	"github.com/starford/notepress/internal/frontmatter"
)

// FolderConfig routes one vault folder to a site prefix.
type FolderConfig struct {
	VaultFolder string `yaml:"vault_folder" json:"vaultFolder"`
	RouteBase   string `yaml:"route_base" json:"routeBase"`
}

// CollectedNote is a raw note as enumerated from the vault.
type CollectedNote struct {
	NoteID         string         `json:"noteId"`
	Title          string         `json:"title"`
	VaultPath      string         `json:"vaultPath"`
	RelativePath   string         `json:"relativePath"`
	Content        string         `json:"content"`
	RawFrontmatter map[string]any `json:"rawFrontmatter,omitempty"`
	Folder         FolderConfig   `json:"folderConfig"`
}

// IgnoredByRule records which ignore rule excluded a note.
type IgnoredByRule struct {
	Property     string `json:"property"`
	Reason       string `json:"reason"`
	MatchedValue any    `json:"matchedValue"`
	RuleIndex    int    `json:"ruleIndex"`
}

// Eligibility is the publish verdict for a note.
type Eligibility struct {
	IsPublishable bool           `json:"isPublishable"`
	IgnoredByRule *IgnoredByRule `json:"ignoredByRule,omitempty"`
}

// Origin tells where a token was found.
type Origin string

const (
	OriginContent     Origin = "content"
	OriginFrontmatter Origin = "frontmatter"
)

// Routing is the computed URL of a note.
type Routing struct {
	Slug      string `json:"slug"`
	Path      string `json:"path"`
	RouteBase string `json:"routeBase"`
	FullPath  string `json:"fullPath"`
}

// PublishableNote is the unit that flows through the pipeline. Each stage
// fills in its own fields and returns a new slice.
type PublishableNote struct {
	CollectedNote
	Frontmatter frontmatter.Frontmatter `json:"frontmatter"`
	Eligibility Eligibility             `json:"eligibility"`
	Assets      []AssetRef              `json:"assets"`
	Links       []ResolvedWikilink      `json:"links"`
	Routing     Routing                 `json:"routing"`
}
