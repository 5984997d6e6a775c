// Package inline evaluates `=this.<path>` inline code expressions against a
// note's frontmatter.
package inline

import (
	"strings"

	"github.com/starford/notepress/internal/frontmatter"
)

const thisPrefix = "this."

// Render replaces every candidate inline code span in content with the
// frontmatter value it references. Spans that are not `=this.` expressions
// are copied verbatim; unresolved paths render as the empty string. Fenced
// code blocks are left untouched.
func Render(content string, nested map[string]frontmatter.Value) string {
	if !strings.Contains(content, "`") {
		return content
	}

	var b strings.Builder
	b.Grow(len(content))

	i := 0
	for i < len(content) {
		if content[i] != '`' {
			b.WriteByte(content[i])
			i++
			continue
		}

		run := backtickRun(content, i)
		if run >= 3 && atLineStart(content, i) {
			end := fenceEnd(content, i, run)
			b.WriteString(content[i:end])
			i = end
			continue
		}

		closeAt := findClosing(content, i+run, run)
		if closeAt < 0 {
			b.WriteString(content[i : i+run])
			i += run
			continue
		}

		span := content[i+run : closeAt]
		if out, ok := evaluate(span, nested); ok && run == 1 {
			b.WriteString(out)
		} else {
			b.WriteString(content[i : closeAt+run])
		}
		i = closeAt + run
	}
	return b.String()
}

// Eval evaluates a single expression body such as "=this.title". ok is false
// when expr is not an inline expression at all.
func Eval(expr string, nested map[string]frontmatter.Value) (string, bool) {
	return evaluate(expr, nested)
}

func evaluate(span string, nested map[string]frontmatter.Value) (string, bool) {
	text := strings.TrimSpace(span)
	if !strings.HasPrefix(text, "=") {
		return "", false
	}
	expr := strings.TrimSpace(text[1:])
	if !strings.HasPrefix(expr, thisPrefix) {
		return "", false
	}
	segments := frontmatter.SplitPath(expr[len(thisPrefix):])
	v, ok := frontmatter.Lookup(nested, segments)
	if !ok {
		return "", true
	}
	return v.String(), true
}

func backtickRun(s string, i int) int {
	n := 0
	for i+n < len(s) && s[i+n] == '`' {
		n++
	}
	return n
}

// findClosing returns the index of the next run of exactly n backticks on
// the same line, or -1.
func findClosing(s string, from, n int) int {
	for j := from; j < len(s); {
		switch s[j] {
		case '\n':
			return -1
		case '`':
			run := backtickRun(s, j)
			if run == n {
				return j
			}
			j += run
		default:
			j++
		}
	}
	return -1
}

func atLineStart(s string, i int) bool {
	for j := i - 1; j >= 0; j-- {
		switch s[j] {
		case '\n':
			return true
		case ' ', '\t':
			continue
		default:
			return false
		}
	}
	return true
}

// fenceEnd returns the offset just past the closing fence of the block that
// opens at i, or len(s) when the fence is never closed.
func fenceEnd(s string, i, run int) int {
	fence := strings.Repeat("`", run)
	nl := strings.IndexByte(s[i:], '\n')
	if nl < 0 {
		return len(s)
	}
	pos := i + nl + 1
	for pos < len(s) {
		lineEnd := strings.IndexByte(s[pos:], '\n')
		line := s[pos:]
		next := len(s)
		if lineEnd >= 0 {
			line = s[pos : pos+lineEnd]
			next = pos + lineEnd + 1
		}
		if strings.HasPrefix(strings.TrimSpace(line), fence) {
			return next
		}
		pos = next
	}
	return len(s)
}

// RenderFrontmatter evaluates expressions inside every string leaf of fm.
// Lookups always read the original nested map, so one value never sees
// another value's rendered form.
func RenderFrontmatter(fm frontmatter.Frontmatter) frontmatter.Frontmatter {
	render := func(_ string, s string) string { return Render(s, fm.Nested) }
	out := frontmatter.Frontmatter{
		Flat:   make(map[string]frontmatter.Value, len(fm.Flat)),
		Nested: frontmatter.MapStrings(frontmatter.Map(fm.Nested), "", render).Fields(),
		Tags:   fm.Tags,
	}
	for k, v := range fm.Flat {
		out.Flat[k] = frontmatter.MapStrings(v, k, render)
	}
	return out
}
