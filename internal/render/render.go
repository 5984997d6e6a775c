// Package render turns processed notes and folder documents into HTML.
package render

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"go.abhg.dev/goldmark/frontmatter"

	"github.com/starford/notepress/internal/models"
)

// DefaultAssetsRoute is where embedded files are served from.
const DefaultAssetsRoute = "/assets"

// Options configure a Renderer.
type Options struct {
	SiteTitle   string
	AssetsRoute string
}

// Renderer converts notes to complete HTML pages. It is safe for
// concurrent use.
type Renderer struct {
	md     goldmark.Markdown
	page   *template.Template
	folder *template.Template
	opts   Options
}

// New builds a Renderer.
func New(opts Options) (*Renderer, error) {
	if opts.AssetsRoute == "" {
		opts.AssetsRoute = DefaultAssetsRoute
	}
	opts.AssetsRoute = "/" + strings.Trim(opts.AssetsRoute, "/")

	page, err := template.New("page").Parse(pageTemplate)
	if err != nil {
		return nil, fmt.Errorf("render: parse page template: %w", err)
	}
	folder, err := template.New("folder").Parse(folderTemplate)
	if err != nil {
		return nil, fmt.Errorf("render: parse folder template: %w", err)
	}

	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			&frontmatter.Extender{},
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			gmhtml.WithUnsafe(),
		),
	)
	return &Renderer{md: md, page: page, folder: folder, opts: opts}, nil
}

type pageContext struct {
	SiteTitle string
	Title     string
	Route     string
	Tags      []string
	Content   template.HTML
}

// Render returns the full HTML document of n.
func (r *Renderer) Render(n models.PublishableNote) ([]byte, error) {
	body, err := r.Body(n)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	err = r.page.Execute(&buf, pageContext{
		SiteTitle: r.opts.SiteTitle,
		Title:     n.Title,
		Route:     n.Routing.FullPath,
		Tags:      n.Frontmatter.Tags,
		Content:   template.HTML(body),
	})
	if err != nil {
		return nil, fmt.Errorf("render: page %s: %w", n.NoteID, err)
	}
	return buf.Bytes(), nil
}

// Body returns the HTML fragment of the note content alone.
func (r *Renderer) Body(n models.PublishableNote) (string, error) {
	src := r.Substitute(n)
	var buf bytes.Buffer
	ctx := parser.NewContext()
	if err := r.md.Convert([]byte(src), &buf, parser.WithContext(ctx)); err != nil {
		return "", fmt.Errorf("render: convert %s: %w", n.NoteID, err)
	}
	return buf.String(), nil
}

// Folder returns the HTML listing of a folder document.
func (r *Renderer) Folder(doc models.FolderIndex) ([]byte, error) {
	var buf bytes.Buffer
	err := r.folder.Execute(&buf, struct {
		SiteTitle string
		models.FolderIndex
	}{r.opts.SiteTitle, doc})
	if err != nil {
		return nil, fmt.Errorf("render: folder %s: %w", doc.Path, err)
	}
	return buf.Bytes(), nil
}

// Substitute replaces the raw embed and wikilink tokens of the note body
// with inline HTML. Tokens found in frontmatter are left alone.
func (r *Renderer) Substitute(n models.PublishableNote) string {
	var pairs []string
	seen := make(map[string]struct{})
	add := func(raw, repl string) {
		if _, dup := seen[raw]; dup {
			return
		}
		seen[raw] = struct{}{}
		pairs = append(pairs, raw, repl)
	}

	for _, a := range n.Assets {
		if a.Origin == models.OriginContent {
			add(a.Raw, r.Asset(a))
		}
	}
	for _, l := range n.Links {
		if l.Origin == models.OriginContent {
			add(l.Raw, r.Link(l))
		}
	}
	if len(pairs) == 0 {
		return n.Content
	}
	return strings.NewReplacer(pairs...).Replace(n.Content)
}

// Asset returns the HTML element for an embed.
func (r *Renderer) Asset(a models.AssetRef) string {
	src := html.EscapeString(r.assetURL(a.Target))
	name := html.EscapeString(path.Base(a.Target))
	attrs := displayAttrs(a.Kind, a.Display)

	switch a.Kind {
	case models.AssetImage:
		return fmt.Sprintf(`<img src="%s" alt="%s"%s>`, src, name, attrs)
	case models.AssetAudio:
		return fmt.Sprintf(`<audio controls src="%s"%s></audio>`, src, attrs)
	case models.AssetVideo:
		return fmt.Sprintf(`<video controls src="%s"%s></video>`, src, attrs)
	case models.AssetPDF:
		return fmt.Sprintf(`<iframe src="%s" title="%s"%s></iframe>`, src, name, attrs)
	default:
		return fmt.Sprintf(`<a href="%s"%s download>%s</a>`, src, attrs, name)
	}
}

// Link returns the anchor for a resolved link, or a marked span for a miss.
func (r *Renderer) Link(l models.ResolvedWikilink) string {
	label := l.Alias
	if label == "" {
		label = l.Target
		if l.Path != "" && l.Subpath == "" {
			label = strings.TrimSuffix(path.Base(l.Path), ".md")
		}
	}
	label = html.EscapeString(label)

	switch {
	case l.Kind == models.LinkFile:
		return fmt.Sprintf(`<a class="wikilink file" href="%s">%s</a>`, html.EscapeString(r.assetURL(l.Path)), label)
	case l.IsResolved && l.Href != "":
		return fmt.Sprintf(`<a class="wikilink" href="%s">%s</a>`, html.EscapeString(l.Href), label)
	default:
		return fmt.Sprintf(`<span class="wikilink unresolved">%s</span>`, label)
	}
}

func (r *Renderer) assetURL(target string) string {
	segs := strings.Split(strings.Trim(target, "/"), "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return r.opts.AssetsRoute + "/" + strings.Join(segs, "/")
}

func displayAttrs(kind models.AssetKind, d models.AssetDisplay) string {
	classes := []string{"embed", "embed-" + string(kind)}
	if d.Alignment != "" {
		classes = append(classes, "align-"+d.Alignment)
	}
	classes = append(classes, d.Classes...)

	var b strings.Builder
	b.WriteString(` class="`)
	b.WriteString(html.EscapeString(strings.Join(classes, " ")))
	b.WriteString(`"`)
	if d.Width > 0 {
		b.WriteString(` width="`)
		b.WriteString(strconv.Itoa(d.Width))
		b.WriteString(`"`)
	}
	return b.String()
}
