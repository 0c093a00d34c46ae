package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// LocalStore — Blob Store на локальной файловой системе.
// Объекты хранятся в {dataDir}/{bucket}/{key} и раздаются сервером по /public/.
type LocalStore struct {
	root      string
	bucket    string
	publicURL string
	logger    *slog.Logger
}

// NewLocalStore создаёт LocalStore и директорию bucket'а, если её нет.
func NewLocalStore(dataDir, bucket, publicURL string, logger *slog.Logger) (*LocalStore, error) {
	root := filepath.Join(dataDir, bucket)
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию данных %s: %w", root, err)
	}

	return &LocalStore{
		root:      root,
		bucket:    bucket,
		publicURL: publicURL,
		logger:    logger.With(slog.String("component", "blobstore_local")),
	}, nil
}

// Root возвращает директорию bucket'а (для раздачи файлов сервером).
func (l *LocalStore) Root() string {
	return l.root
}

// Upload записывает объект: temp файл → fsync → hard link под ключом.
// Существующий объект не перезаписывается (ErrBlobExists).
// Content-Type не сохраняется, при раздаче определяется по расширению.
func (l *LocalStore) Upload(_ context.Context, key string, data []byte, _ string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	fullPath := l.path(key)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o750); err != nil {
		return fmt.Errorf("ошибка создания директории: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".upload-*.tmp")
	if err != nil {
		return fmt.Errorf("ошибка создания временного файла: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка записи данных: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка закрытия временного файла: %w", err)
	}
	// Существующий ключ не заменяется: Link завершается ErrExist.
	err = os.Link(tmpPath, fullPath)
	os.Remove(tmpPath)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", ErrBlobExists, key)
		}
		return fmt.Errorf("ошибка публикации файла: %w", err)
	}

	l.logger.Debug("Объект записан",
		slog.String("key", key),
		slog.Int("bytes", len(data)),
	)
	return nil
}

// Download читает объект целиком.
func (l *LocalStore) Download(_ context.Context, key string) ([]byte, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(l.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrBlobNotFound, key)
		}
		return nil, fmt.Errorf("ошибка чтения файла %q: %w", key, err)
	}
	return data, nil
}

// Remove удаляет объекты. Отсутствующие файлы пропускаются.
func (l *LocalStore) Remove(_ context.Context, keys ...string) error {
	for _, k := range keys {
		if err := ValidateKey(k); err != nil {
			return err
		}
		if err := os.Remove(l.path(k)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("ошибка удаления файла %q: %w", k, err)
		}
	}
	return nil
}

// PublicURL возвращает ссылку вида {publicURL}/{bucket}/{key}.
func (l *LocalStore) PublicURL(key string) string {
	return joinPublicURL(l.publicURL, l.bucket, key)
}

// Ping проверяет, что директория bucket'а существует.
func (l *LocalStore) Ping(_ context.Context) error {
	info, err := os.Stat(l.root)
	if err != nil {
		return fmt.Errorf("директория %s недоступна: %w", l.root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s не является директорией", l.root)
	}
	return nil
}

func (l *LocalStore) path(key string) string {
	return filepath.Join(l.root, filepath.FromSlash(key))
}
