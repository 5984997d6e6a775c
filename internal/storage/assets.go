package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/starford/notepress/internal/apperr"
	"github.com/starford/notepress/internal/checksum"
)

// AnyExt makes List return files of every extension.
const AnyExt = "*"

// AssetCopier mirrors embedded vault files into the site so that the URLs
// produced by the renderer resolve.
type AssetCopier struct {
	vault  Provider
	site   Provider
	dir    string
	logger *slog.Logger
}

// NewAssetCopier copies from vault into dir of site. dir is the assets
// route without its leading slash.
func NewAssetCopier(vault, site Provider, dir string, logger *slog.Logger) *AssetCopier {
	if logger == nil {
		logger = slog.Default()
	}
	return &AssetCopier{
		vault:  vault,
		site:   site,
		dir:    strings.Trim(dir, "/"),
		logger: logger,
	}
}

// Copy writes every target into the site. A target is looked up by its
// exact vault path first and then by file name anywhere in the vault, the
// way embeds usually name their files. Targets found nowhere are returned
// as missing; they are not an error.
func (c *AssetCopier) Copy(ctx context.Context, targets []string) (copied int, missing []string, err error) {
	if len(targets) == 0 {
		return 0, nil, nil
	}
	byName, err := c.indexByName()
	if err != nil {
		return 0, nil, err
	}

	seen := make(map[string]struct{}, len(targets))
	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			return copied, missing, err
		}
		target = strings.TrimPrefix(path.Clean("/"+target), "/")
		if _, dup := seen[target]; dup || target == "" {
			continue
		}
		seen[target] = struct{}{}

		data, err := c.read(target, byName)
		if errors.Is(err, apperr.ErrNotFound) {
			missing = append(missing, target)
			continue
		}
		if err != nil {
			return copied, missing, err
		}

		dst := path.Join(c.dir, target)
		if old, rerr := c.site.Read(dst); rerr == nil && checksum.Same(old, data) {
			continue
		}
		if err := c.site.Write(dst, data); err != nil {
			return copied, missing, fmt.Errorf("storage: copy asset %s: %w", target, err)
		}
		copied++
	}
	if len(missing) > 0 {
		c.logger.Warn("storage: assets not found in vault", slog.Any("targets", missing))
	}
	return copied, missing, nil
}

func (c *AssetCopier) read(target string, byName map[string]string) ([]byte, error) {
	data, err := c.vault.Read(target)
	if err == nil || !errors.Is(err, apperr.ErrNotFound) {
		return data, err
	}
	if p, ok := byName[strings.ToLower(path.Base(target))]; ok {
		return c.vault.Read(p)
	}
	return nil, err
}

// indexByName maps lower-cased file names to the first vault path
// carrying them.
func (c *AssetCopier) indexByName() (map[string]string, error) {
	files, err := c.vault.List("", AnyExt)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(files))
	for _, f := range files {
		if strings.EqualFold(path.Ext(f), ".md") {
			continue
		}
		name := strings.ToLower(path.Base(f))
		if _, ok := out[name]; !ok {
			out[name] = f
		}
	}
	return out, nil
}
