package models

// AssetKind classifies an embedded file by extension.
type AssetKind string

const (
	AssetImage AssetKind = "image"
	AssetAudio AssetKind = "audio"
	AssetVideo AssetKind = "video"
	AssetPDF   AssetKind = "pdf"
	AssetOther AssetKind = "other"
)

// Alignment values accepted in embed modifiers.
const (
	AlignLeft   = "left"
	AlignRight  = "right"
	AlignCenter = "center"
)

// AssetDisplay carries the presentation modifiers of an embed.
type AssetDisplay struct {
	Alignment    string   `json:"alignment,omitempty"`
	Width        int      `json:"width,omitempty"`
	Classes      []string `json:"classes"`
	RawModifiers []string `json:"rawModifiers"`
}

// AssetRef is one `![[...]]` embed found in a note.
type AssetRef struct {
	Origin          Origin       `json:"origin"`
	FrontmatterPath string       `json:"frontmatterPath,omitempty"`
	Raw             string       `json:"raw"`
	Target          string       `json:"target"`
	Kind            AssetKind    `json:"kind"`
	Display         AssetDisplay `json:"display"`
}

// WikilinkKind distinguishes links to notes from links to other files.
type WikilinkKind string

const (
	LinkNote WikilinkKind = "note"
	LinkFile WikilinkKind = "file"
)

// WikilinkRef is one `[[...]]` link found in a note.
type WikilinkRef struct {
	Origin          Origin       `json:"origin"`
	FrontmatterPath string       `json:"frontmatterPath,omitempty"`
	Raw             string       `json:"raw"`
	Target          string       `json:"target"`
	Path            string       `json:"path"`
	Subpath         string       `json:"subpath,omitempty"`
	Alias           string       `json:"alias,omitempty"`
	Kind            WikilinkKind `json:"kind"`
}

// ResolvedWikilink is a WikilinkRef after lookup against the batch. Href is
// only set once routing has run.
type ResolvedWikilink struct {
	WikilinkRef
	IsResolved   bool   `json:"isResolved"`
	TargetNoteID string `json:"targetNoteId,omitempty"`
	Href         string `json:"href,omitempty"`
}
