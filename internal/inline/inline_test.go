package inline

import (
	"testing"

	"github.com/starford/notepress/internal/frontmatter"
)

func nested(raw map[string]any) map[string]frontmatter.Value {
	return frontmatter.Normalize(raw).Nested
}

func TestRender(t *testing.T) {
	fm := nested(map[string]any{
		"title":   "My Note",
		"tags":    []any{"go", "notes"},
		"rating":  4.5,
		"author":  map[string]any{"name": "Ada"},
		"visible": true,
	})

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"scalar", "Title: `=this.title`.", "Title: My Note."},
		{"array", "Tags: `=this.tags`", "Tags: go, notes"},
		{"number", "`=this.rating`/5", "4.5/5"},
		{"bool", "`= this.visible`", "true"},
		{"nested path", "by `=this.author.name`", "by Ada"},
		{"missing renders empty", "[`=this.nope.deeper`]", "[]"},
		{"not this", "`=date(today)`", "`=date(today)`"},
		{"plain code", "run `go test`", "run `go test`"},
		{"duplicates", "`=this.title` and `=this.title`", "My Note and My Note"},
		{"double backticks untouched", "``=this.title``", "``=this.title``"},
		{"unclosed", "a `=this.title", "a `=this.title"},
		{"case insensitive path", "`=this.Title`", "My Note"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Render(tc.in, fm); got != tc.want {
				t.Errorf("Render(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestRender_SkipsFencedBlocks(t *testing.T) {
	fm := nested(map[string]any{"title": "X"})
	in := "```\n`=this.title`\n```\nafter `=this.title`"
	want := "```\n`=this.title`\n```\nafter X"
	if got := Render(in, fm); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestEval(t *testing.T) {
	fm := nested(map[string]any{"title": "X"})
	if out, ok := Eval("=this.title", fm); !ok || out != "X" {
		t.Errorf("Eval = %q, %v", out, ok)
	}
	if _, ok := Eval("plain", fm); ok {
		t.Error("plain text is not an expression")
	}
}

func TestRenderFrontmatter(t *testing.T) {
	fm := frontmatter.Normalize(map[string]any{
		"title":       "Deep Dive",
		"description": "About `=this.title`",
		"seo.title":   "`=this.title` | Site",
	})
	out := RenderFrontmatter(fm)

	if s, _ := out.Flat["description"].AsString(); s != "About Deep Dive" {
		t.Errorf("flat description = %q", s)
	}
	if v, _ := out.Lookup("seo.title"); v.String() != "Deep Dive | Site" {
		t.Errorf("nested seo.title = %q", v.String())
	}
	if s, _ := fm.Flat["description"].AsString(); s != "About `=this.title`" {
		t.Error("input frontmatter was modified")
	}
}
