// Package parser splits a Markdown note into its YAML frontmatter and body
// and derives the note title.
package parser

import (
	"bytes"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

const delim = "---"

// Document is a parsed note file.
type Document struct {
	// Frontmatter is nil when the file has no valid frontmatter block.
	Frontmatter map[string]any
	Body        string
	Title       string
}

// Parse splits data into frontmatter and body. name is the file path used
// for the title fallback. Invalid YAML is not an error: the whole file is
// then kept as body.
func Parse(name string, data []byte) Document {
	fm, body := Split(data)
	return Document{
		Frontmatter: fm,
		Body:        body,
		Title:       Title(fm, body, name),
	}
}

// Split separates a leading `---` delimited YAML block from the body.
func Split(data []byte) (map[string]any, string) {
	trimmed := bytes.TrimLeft(data, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data)
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data)
	}

	block := rest[:idx]
	body := strings.TrimLeft(string(rest[idx+1+len(delim):]), "\n\r")

	var fm map[string]any
	if err := yaml.Unmarshal(block, &fm); err != nil {
		return nil, string(data)
	}
	if fm == nil {
		fm = map[string]any{}
	}
	return fm, body
}

// Title returns the frontmatter title, else the first H1 of body, else the
// base name of name without its extension.
func Title(fm map[string]any, body, name string) string {
	if s, ok := fm["title"].(string); ok && strings.TrimSpace(s) != "" {
		return strings.TrimSpace(s)
	}

	inFence := false
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
			continue
		}
		if !inFence && strings.HasPrefix(trimmed, "# ") {
			if h := strings.TrimSpace(trimmed[2:]); h != "" {
				return h
			}
		}
	}

	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	return strings.TrimSuffix(base, path.Ext(base))
}
