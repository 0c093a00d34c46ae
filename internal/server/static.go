// static.go — раздача собранного front-end (SPA) и файлов локального backend'а.
package server

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// spaHandler раздаёт файлы из dir под префиксом prefix.
// Неизвестные пути отдают index.html (маршрутизация на стороне клиента).
type spaHandler struct {
	dir    string
	prefix string
	files  http.Handler
}

func newSPAHandler(dir, prefix string) *spaHandler {
	return &spaHandler{
		dir:    dir,
		prefix: prefix,
		files:  http.StripPrefix(strings.TrimSuffix(prefix, "/"), http.FileServer(http.Dir(dir))),
	}
}

func (h *spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rel := strings.TrimPrefix(r.URL.Path, h.prefix)
	clean := path.Clean("/" + rel)

	if clean != "/" {
		info, err := os.Stat(filepath.Join(h.dir, filepath.FromSlash(clean)))
		if err == nil && !info.IsDir() {
			h.files.ServeHTTP(w, r)
			return
		}
	}

	http.ServeFile(w, r, filepath.Join(h.dir, "index.html"))
}

// noDirListing запрещает листинг директорий FileServer.
func noDirListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
