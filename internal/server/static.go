package server

import (
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
)

// SPAHandler serves files from dist and falls back to index.html for any
// path that does not name a file, so client-side routes resolve.
func SPAHandler(dist fs.FS, logger *slog.Logger) http.Handler {
	fileServer := http.FileServer(http.FS(dist))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.NotFound(w, r)
			return
		}

		name := strings.TrimPrefix(r.URL.Path, "/")
		if name != "" {
			info, err := fs.Stat(dist, name)
			switch {
			case errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrInvalid), err == nil && info.IsDir():
				r.URL.Path = "/"
			case err != nil:
				logger.Warn("unexpected error opening static file", "path", r.URL.Path, "error", err)
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}
		}
		fileServer.ServeHTTP(w, r)
	})
}
