package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// handleImage serves service icons, preferring the user's images directory
// over the bundled placeholders. Missing files 404; the frontend falls back
// to a glyph.
func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/images/")
	if name == "" || !filepath.IsLocal(name) {
		http.NotFound(w, r)
		return
	}

	for _, dir := range []string{s.opts.ImagesDir, s.opts.FallbackImagesDir} {
		if dir == "" {
			continue
		}
		target := filepath.Join(dir, name)
		if fi, err := os.Stat(target); err == nil && fi.Mode().IsRegular() {
			http.ServeFile(w, r, target)
			return
		}
	}
	http.NotFound(w, r)
}
