// limit.go — ограничение числа одновременных загрузок файлов.
// Файл multipart-запроса целиком держится в памяти, поэтому число
// одновременных загрузок ограничивает потребление памяти процессом.
package middleware

import (
	"net/http"
	"strconv"

	apierrors "github.com/Rexchan06/fms-web-app/internal/api/errors"
)

// retryAfterSeconds — значение заголовка Retry-After при 503.
const retryAfterSeconds = "5"

// UploadLimiter — неблокирующий семафор на канале. Запрос, не получивший
// слот, сразу получает 503 + Retry-After, без ожидания в очереди.
type UploadLimiter struct {
	sem chan struct{}
}

// NewUploadLimiter создаёт лимитер на maxConcurrent одновременных загрузок.
func NewUploadLimiter(maxConcurrent int) *UploadLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &UploadLimiter{sem: make(chan struct{}, maxConcurrent)}
}

// Limit оборачивает handler: каждый запрос должен занять слот семафора.
func (l *UploadLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case l.sem <- struct{}{}:
			defer func() { <-l.sem }()
			next.ServeHTTP(w, r)
		default:
			w.Header().Set("Retry-After", retryAfterSeconds)
			w.Header().Set("X-Active-Uploads", strconv.Itoa(len(l.sem)))
			apierrors.ServerBusy(w, "Слишком много одновременных загрузок, повторите позже")
		}
	})
}

// Active возвращает число занятых слотов.
func (l *UploadLimiter) Active() int { return len(l.sem) }

// Cap возвращает максимальное число одновременных загрузок.
func (l *UploadLimiter) Cap() int { return cap(l.sem) }
