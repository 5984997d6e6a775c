// Package collector enumerates the Markdown notes of the configured vault
// folders.
package collector

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/starford/notepress/internal/models"
	"github.com/starford/notepress/internal/parser"
)

const noteExt = ".md"

// Namespace seeds note ids. A note keeps its id for as long as its vault
// path does not change.
var Namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("notepress:note"))

// Source is the read side of a vault.
type Source interface {
	List(dir, ext string) ([]string, error)
	Read(path string) ([]byte, error)
}

// Collector reads notes from a vault.
type Collector struct {
	src     Source
	folders []models.FolderConfig
	logger  *slog.Logger
}

// New returns a Collector over folders in src.
func New(src Source, folders []models.FolderConfig, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{src: src, folders: folders, logger: logger}
}

// NoteID returns the stable id of the note at vaultPath.
func NoteID(vaultPath string) string {
	return uuid.NewSHA1(Namespace, []byte(vaultPath)).String()
}

// Collect returns every note of every folder, folder by folder, each in
// path order. A note listed under two overlapping folders is taken from
// the first. Unreadable files are logged and skipped.
func (c *Collector) Collect(ctx context.Context) ([]models.CollectedNote, error) {
	var out []models.CollectedNote
	seen := make(map[string]struct{})

	for _, folder := range c.folders {
		dir := cleanDir(folder.VaultFolder)
		files, err := c.src.List(dir, noteExt)
		if err != nil {
			return nil, fmt.Errorf("collector: list %q: %w", folder.VaultFolder, err)
		}
		for _, vaultPath := range files {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if _, dup := seen[vaultPath]; dup {
				continue
			}
			seen[vaultPath] = struct{}{}

			data, err := c.src.Read(vaultPath)
			if err != nil {
				c.logger.Warn("collector: skipping unreadable note",
					slog.String("path", vaultPath),
					slog.String("error", err.Error()))
				continue
			}
			out = append(out, Note(folder, vaultPath, data))
		}
	}
	return out, nil
}

// Note builds the collected form of one file.
func Note(folder models.FolderConfig, vaultPath string, data []byte) models.CollectedNote {
	doc := parser.Parse(vaultPath, data)
	return models.CollectedNote{
		NoteID:         NoteID(vaultPath),
		Title:          doc.Title,
		VaultPath:      vaultPath,
		RelativePath:   relativeTo(cleanDir(folder.VaultFolder), vaultPath),
		Content:        doc.Body,
		RawFrontmatter: doc.Frontmatter,
		Folder:         folder,
	}
}

func cleanDir(dir string) string {
	return strings.Trim(path.Clean("/"+strings.ReplaceAll(dir, "\\", "/")), "/")
}

func relativeTo(dir, p string) string {
	if dir == "" {
		return p
	}
	return strings.TrimPrefix(p, dir+"/")
}
