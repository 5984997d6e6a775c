package mcpserver

// NoteFormatContract describes the Markdown notes the publisher understands
// so LLM consumers can write notes that publish as intended.
const NoteFormatContract = `# Note Format Contract

Notes are UTF-8 Markdown files ending in ` + "`" + `.md` + "`" + ` inside one of the configured
vault folders. Each folder maps to a route base; a note's URL is the route
base, its slugified sub-folders and its slugified file name.

## Structure

` + "```" + `markdown
---
title: Human-readable title      # OPTIONAL – falls back to the first H1, then the file name
tags: [travel, japan]            # OPTIONAL – a list or a single string
publish: true                    # whatever field the ignore rules look at
cover: "![[cover.jpg|center]]"   # embeds and links in frontmatter strings are detected too
---

# Kyoto in autumn

![[maple.jpg|center|600|rounded]]

Day two took us to [[Temples#Fushimi Inari|the shrine]].
` + "```" + `

## Rules

1. **Frontmatter is optional.** When present, the ` + "`" + `---` + "`" + ` fences must be the first
   line of the file. Invalid YAML leaves the whole file as body.
2. **Keys are case-insensitive.** ` + "`" + `Title` + "`" + `, ` + "`" + `title` + "`" + ` and ` + "`" + `TITLE` + "`" + ` collapse into one key; avoid
   writing more than one of them.
3. **Ignore rules** exclude a note when a frontmatter property matches, e.g.
   ` + "`" + `publish: false` + "`" + ` or ` + "`" + `status: draft` + "`" + `. Excluded notes are never published and
   links to them stay unresolved.
4. **Wikilinks** use ` + "`" + `[[target]]` + "`" + `, ` + "`" + `[[target|alias]]` + "`" + ` or ` + "`" + `[[target#heading]]` + "`" + `.
   The target may be a file name, a vault path, or a title.
5. **Embeds** use ` + "`" + `![[file.ext|modifiers]]` + "`" + `. Modifiers after the file are read left
   to right: ` + "`" + `left` + "`" + `, ` + "`" + `right` + "`" + `, ` + "`" + `center` + "`" + ` set alignment, a number sets the width in
   pixels, anything else becomes a CSS class.
6. **Inline expressions** written as inline code ` + "`" + `=this.key` + "`" + ` are replaced with the
   value of the frontmatter key. Nested keys use dots: ` + "`" + `=this.trip.city` + "`" + `.

## Supported embeds

- Images: png, jpg, jpeg, gif, webp, svg, bmp, avif, ico.
- Audio: mp3, wav, ogg, m4a, flac, aac.
- Video: mp4, webm, mov, mkv, ogv.
- Documents: pdf (shown inline); any other file is offered as a download.
`
