package sanitize

import (
	"testing"

	"github.com/starford/notepress/internal/frontmatter"
	"github.com/starford/notepress/internal/models"
)

func TestFrontmatter_RemoveTags(t *testing.T) {
	s, err := New(Config{RemoveTags: []string{"private"}})
	if err != nil {
		t.Fatal(err)
	}
	fm := frontmatter.Normalize(map[string]any{"tags": []any{"public", "private"}})
	out := s.Frontmatter(fm)
	if len(out.Tags) != 1 || out.Tags[0] != "public" {
		t.Errorf("tags = %v, want [public]", out.Tags)
	}
	if len(fm.Tags) != 2 {
		t.Error("input tags were modified")
	}
}

func TestFrontmatter_RemoveKeys(t *testing.T) {
	s, err := New(Config{RemoveKeys: []string{"Secret", "seo.internal"}})
	if err != nil {
		t.Fatal(err)
	}
	fm := frontmatter.Normalize(map[string]any{
		"secret":       map[string]any{"token": "x"},
		"seo.title":    "T",
		"seo.internal": "hidden",
		"keep":         1,
	})
	out := s.Frontmatter(fm)

	if _, ok := out.Flat["secret"]; ok {
		t.Error("flat secret not removed")
	}
	if _, ok := out.Flat["seo.internal"]; ok {
		t.Error("flat seo.internal not removed")
	}
	if _, ok := out.Flat["seo.title"]; !ok {
		t.Error("flat seo.title should survive")
	}
	if _, ok := out.Nested["secret"]; ok {
		t.Error("nested secret not removed")
	}
	if _, ok := out.Lookup("seo.internal"); ok {
		t.Error("nested seo.internal not removed")
	}
	if _, ok := out.Lookup("seo.title"); !ok {
		t.Error("nested seo.title should survive")
	}
	if _, ok := fm.Lookup("seo.internal"); !ok {
		t.Error("input nested map was modified")
	}
}

func TestBody_Rules(t *testing.T) {
	s, err := New(Config{Rules: []Rule{
		{Name: "comments", Pattern: `%%[\s\S]*?%%`, Replacement: "", Enabled: true},
		{Name: "disabled", Pattern: `keep`, Replacement: "gone", Enabled: false},
		{Name: "highlight", Pattern: `==(.+?)==`, Replacement: "<mark>$1</mark>", Enabled: true},
	}})
	if err != nil {
		t.Fatal(err)
	}
	got := s.Body("keep %%secret%% this ==bright==")
	want := "keep  this <mark>bright</mark>"
	if got != want {
		t.Errorf("Body = %q, want %q", got, want)
	}
}

func TestBody_DropsLeadingBlock(t *testing.T) {
	s, _ := New(Config{})
	got := s.Body("---\ntitle: x\nsecret: y\n---\n\n# Heading\n")
	if got != "# Heading" {
		t.Errorf("Body = %q", got)
	}

	// A thematic break later in the body is not a metadata block.
	body := "text\n---\nmore"
	if got := s.Body(body); got != body {
		t.Errorf("Body = %q, want unchanged", got)
	}
}

func TestBody_KeepsLeadingRuleBlock(t *testing.T) {
	s, _ := New(Config{})
	for _, body := range []string{
		"---\nThis note opens with a rule and a paragraph.\n---\n\nRest of note.",
		"---\n- one\n- two\n---\nA list between two rules.",
	} {
		if got := s.Body(body); got != body {
			t.Errorf("Body(%q) = %q, want unchanged", body, got)
		}
	}
}

func TestNew_InvalidPattern(t *testing.T) {
	if _, err := New(Config{Rules: []Rule{{Name: "bad", Pattern: "(", Enabled: true}}}); err == nil {
		t.Error("expected compile error")
	}
	if _, err := New(Config{Rules: []Rule{{Name: "bad", Pattern: "(", Enabled: false}}}); err != nil {
		t.Errorf("disabled rule should not be compiled: %v", err)
	}
}

func TestApply(t *testing.T) {
	s, _ := New(Config{RemoveTags: []string{"private"}})
	n := models.PublishableNote{
		CollectedNote: models.CollectedNote{Content: "hello"},
		Frontmatter:   frontmatter.Normalize(map[string]any{"tags": "private"}),
	}
	out := s.Apply(n)
	if len(out.Frontmatter.Tags) != 0 || out.Content != "hello" {
		t.Errorf("Apply = %+v", out)
	}
}
