// Пакет blobstore — Blob Store: хранилище файлов элементов, адресуемое по ключу.
// Backend'ы: S3-совместимое хранилище (Supabase Storage, MinIO, AWS S3),
// Google Cloud Storage и локальная файловая система.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Ошибки Blob Store.
var (
	// ErrBlobNotFound — объект с указанным ключом отсутствует.
	ErrBlobNotFound = errors.New("объект не найден в хранилище")
	// ErrInvalidKey — недопустимый ключ объекта.
	ErrInvalidKey = errors.New("недопустимый ключ объекта")
	// ErrBlobExists — объект с таким ключом уже существует, перезапись запрещена.
	ErrBlobExists = errors.New("объект с таким ключом уже существует")
)

// Store — операции Blob Store, необходимые жизненному циклу элементов.
// Файл целиком находится в памяти: потоковая передача не используется.
type Store interface {
	// Upload сохраняет data под ключом key с указанным Content-Type.
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	// Download возвращает содержимое объекта или ErrBlobNotFound.
	Download(ctx context.Context, key string) ([]byte, error)
	// Remove удаляет объекты. Отсутствующие ключи ошибкой не считаются.
	Remove(ctx context.Context, keys ...string) error
	// PublicURL возвращает публичную ссылку на объект.
	PublicURL(key string) string
	// Ping проверяет доступность хранилища.
	Ping(ctx context.Context) error
}

// maxKeyLength — максимальная длина ключа объекта (ограничение S3).
const maxKeyLength = 1024

// ValidateKey проверяет ключ объекта: непустой, без ведущего "/",
// без сегментов "." и "..", без нулевых байтов.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: пустой ключ", ErrInvalidKey)
	}
	if len(key) > maxKeyLength {
		return fmt.Errorf("%w: длина %d превышает %d", ErrInvalidKey, len(key), maxKeyLength)
	}
	if strings.ContainsRune(key, 0) {
		return fmt.Errorf("%w: нулевой байт в ключе", ErrInvalidKey)
	}
	if strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return nil
}

// joinPublicURL строит {base}/{bucket}/{key} с экранированием сегментов ключа.
// Пустой bucket опускается: {base}/{key} (virtual-hosted адресация).
func joinPublicURL(base, bucket, key string) string {
	segs := strings.Split(key, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	base = strings.TrimRight(base, "/")
	if bucket == "" {
		return base + "/" + strings.Join(segs, "/")
	}
	return fmt.Sprintf("%s/%s/%s", base, url.PathEscape(bucket), strings.Join(segs, "/"))
}

// ReadinessChecker — проверка готовности Blob Store для health endpoint.
// Реализует интерфейс handlers.ReadinessChecker.
type ReadinessChecker struct {
	store Store
}

// NewReadinessChecker создаёт проверку готовности Blob Store.
func NewReadinessChecker(store Store) *ReadinessChecker {
	return &ReadinessChecker{store: store}
}

// CheckReady проверяет доступность хранилища.
// Возвращает статус ("ok", "fail") и сообщение.
func (c *ReadinessChecker) CheckReady() (status string, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := c.store.Ping(ctx); err != nil {
		return "fail", fmt.Sprintf("хранилище файлов недоступно: %v", err)
	}
	return "ok", "хранилище доступно"
}
