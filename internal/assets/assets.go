// Package assets detects `![[...]]` embeds in note bodies and frontmatter.
package assets

import (
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/starford/notepress/internal/frontmatter"
	"github.com/starford/notepress/internal/models"
)

var embedRe = regexp.MustCompile(`!\[\[([^\[\]]+?)\]\]`)

var kindByExt = map[string]models.AssetKind{
	".png": models.AssetImage, ".jpg": models.AssetImage, ".jpeg": models.AssetImage,
	".gif": models.AssetImage, ".webp": models.AssetImage, ".svg": models.AssetImage,
	".bmp": models.AssetImage, ".avif": models.AssetImage, ".ico": models.AssetImage,

	".mp3": models.AssetAudio, ".wav": models.AssetAudio, ".ogg": models.AssetAudio,
	".m4a": models.AssetAudio, ".flac": models.AssetAudio, ".aac": models.AssetAudio,
	".3gp": models.AssetAudio,

	".mp4": models.AssetVideo, ".webm": models.AssetVideo, ".mov": models.AssetVideo,
	".mkv": models.AssetVideo, ".ogv": models.AssetVideo, ".avi": models.AssetVideo,

	".pdf": models.AssetPDF,
}

// otherFileExts are non-markdown files that are neither media nor pdf.
var otherFileExts = map[string]struct{}{
	".zip": {}, ".txt": {}, ".csv": {}, ".json": {}, ".xlsx": {}, ".docx": {},
	".pptx": {}, ".canvas": {}, ".excalidraw": {},
}

// Classify maps a target path to its asset kind by extension.
func Classify(target string) models.AssetKind {
	if k, ok := kindByExt[strings.ToLower(path.Ext(target))]; ok {
		return k
	}
	return models.AssetOther
}

// IsFile reports whether target names a known non-markdown file.
func IsFile(target string) bool {
	ext := strings.ToLower(path.Ext(target))
	if _, ok := kindByExt[ext]; ok {
		return true
	}
	_, ok := otherFileExts[ext]
	return ok
}

// NormalizeTarget unifies slashes and strips "./" and "/" prefixes.
func NormalizeTarget(target string) string {
	t := strings.ReplaceAll(strings.TrimSpace(target), "\\", "/")
	for {
		switch {
		case strings.HasPrefix(t, "./"):
			t = t[2:]
		case strings.HasPrefix(t, "/"):
			t = t[1:]
		default:
			return t
		}
	}
}

// Detect returns the embeds found in body followed by those found in string
// leaves of the nested frontmatter, each in order of appearance.
func Detect(body string, nested map[string]frontmatter.Value) []models.AssetRef {
	out := scan(body, models.OriginContent, "")
	frontmatter.WalkStrings(frontmatter.Map(nested), func(p, s string) {
		out = append(out, scan(s, models.OriginFrontmatter, p)...)
	})
	return out
}

// ParseEmbed parses a single raw token such as "![[a.png|center|300]]".
// ok is false if raw is not an embed or names no file.
func ParseEmbed(raw string) (models.AssetRef, bool) {
	m := embedRe.FindStringSubmatch(raw)
	if m == nil || m[0] != raw {
		return models.AssetRef{}, false
	}
	return build(m[0], m[1], models.OriginContent, "")
}

func scan(text string, origin models.Origin, fmPath string) []models.AssetRef {
	if !strings.Contains(text, "![[") {
		return nil
	}
	var out []models.AssetRef
	for _, m := range embedRe.FindAllStringSubmatch(text, -1) {
		if ref, ok := build(m[0], m[1], origin, fmPath); ok {
			out = append(out, ref)
		}
	}
	return out
}

func build(raw, inner string, origin models.Origin, fmPath string) (models.AssetRef, bool) {
	parts := strings.Split(inner, "|")
	target := NormalizeTarget(parts[0])
	if target == "" {
		return models.AssetRef{}, false
	}

	kind := Classify(target)
	if kind == models.AssetOther && !strings.Contains(target, ".") {
		return models.AssetRef{}, false
	}

	ref := models.AssetRef{
		Origin:  origin,
		Raw:     raw,
		Target:  target,
		Kind:    kind,
		Display: parseModifiers(parts[1:]),
	}
	if origin == models.OriginFrontmatter {
		ref.FrontmatterPath = fmPath
	}
	return ref, true
}

// parseModifiers classifies modifiers left to right. Only the first
// alignment and the first width are honoured; later ones become classes.
// Every token is kept in RawModifiers.
func parseModifiers(tokens []string) models.AssetDisplay {
	d := models.AssetDisplay{Classes: []string{}, RawModifiers: []string{}}
	haveAlign, haveWidth := false, false

	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		d.RawModifiers = append(d.RawModifiers, tok)

		if !haveAlign {
			if a, ok := alignment(tok); ok {
				d.Alignment = a
				haveAlign = true
				continue
			}
		}
		if !haveWidth && isDigits(tok) {
			if w, err := strconv.Atoi(tok); err == nil {
				d.Width = w
				haveWidth = true
				continue
			}
		}
		d.Classes = append(d.Classes, tok)
	}
	return d
}

func alignment(tok string) (string, bool) {
	switch strings.ToLower(tok) {
	case "left":
		return models.AlignLeft, true
	case "right":
		return models.AlignRight, true
	case "center", "centre":
		return models.AlignCenter, true
	}
	return "", false
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
