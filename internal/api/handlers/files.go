// files.go — обработчик GET /files/{id}: скачивание файла элемента.
package handlers

import (
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

// GetFile — GET /files/{id}. Отдаёт файл целиком как вложение.
func (h *APIHandler) GetFile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	fc, err := h.items.GetFile(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, "get_file", id, err)
		return
	}

	w.Header().Set("Content-Disposition", contentDisposition(fc.Filename))
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(fc.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(fc.Data)
}

// contentDisposition формирует `attachment; filename="<name>"`.
// Имена с не-ASCII символами или кавычками кодируются по RFC 2231.
func contentDisposition(name string) string {
	if isPlainASCII(name) {
		return `attachment; filename="` + name + `"`
	}
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": name}); v != "" {
		return v
	}
	return "attachment"
}

func isPlainASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 0x20 || c > 0x7e {
			return false
		}
	}
	return !strings.ContainsAny(s, `"\`)
}
