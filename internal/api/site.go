package api

import (
	"bytes"
	"net/http"
	"path"
	"time"

	"github.com/spf13/afero"

	"github.com/starford/notepress/internal/storage"
)

// SiteHandler serves the generated site. Extension-less paths are page
// routes and map to their .html file, falling back to the folder index;
// anything else is served as a plain file.
type SiteHandler struct {
	site  *storage.FS
	files http.Handler
}

// NewSiteHandler serves the site rooted at site.
func NewSiteHandler(site *storage.FS) *SiteHandler {
	base := afero.NewBasePathFs(site.Afero(), site.Root())
	return &SiteHandler{
		site:  site,
		files: http.FileServer(afero.NewHttpFs(base).Dir("/")),
	}
}

func (h *SiteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p := path.Clean("/" + r.URL.Path)
	if path.Ext(p) != "" {
		h.files.ServeHTTP(w, r)
		return
	}

	candidates := []string{path.Join(storage.FolderPath(p), storage.FolderHTML)}
	if p != "/" {
		candidates = append([]string{storage.PagePath(p)}, candidates...)
	}
	for _, c := range candidates {
		data, err := h.site.Read(c)
		if err != nil {
			continue
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		http.ServeContent(w, r, path.Base(c), time.Time{}, bytes.NewReader(data))
		return
	}
	http.NotFound(w, r)
}
