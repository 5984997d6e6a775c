package models

import "time"

// ManifestPage is a persisted page record.
type ManifestPage struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Route        string    `json:"route"`
	Slug         string    `json:"slug"`
	PublishedAt  time.Time `json:"publishedAt"`
	VaultPath    string    `json:"vaultPath"`
	RelativePath string    `json:"relativePath"`
	Tags         []string  `json:"tags"`
}

// Manifest is the durable record of every page published by one session.
type Manifest struct {
	SessionID     string         `json:"sessionId"`
	CreatedAt     time.Time      `json:"createdAt"`
	LastUpdatedAt time.Time      `json:"lastUpdatedAt"`
	Pages         []ManifestPage `json:"pages"`
}

// FolderEntry is a subfolder listed in a folder index.
type FolderEntry struct {
	Name  string `json:"name"`
	Link  string `json:"link"`
	Count int    `json:"count"`
}

// PageEntry is a page listed in a folder index.
type PageEntry struct {
	Title string `json:"title"`
	Route string `json:"route"`
	Slug  string `json:"slug"`
}

// FolderIndex is the navigational document for one folder.
type FolderIndex struct {
	Path       string        `json:"path"`
	Subfolders []FolderEntry `json:"subfolders"`
	Pages      []PageEntry   `json:"pages"`
}

// NoteError reports a per-note persistence failure.
type NoteError struct {
	NoteID  string `json:"noteId"`
	Message string `json:"message"`
}

// PublishResult is the user-visible outcome of a batch.
type PublishResult struct {
	SessionID string      `json:"sessionId"`
	Published int         `json:"published"`
	Skipped   int         `json:"skipped"`
	Errors    []NoteError `json:"errors"`
}
