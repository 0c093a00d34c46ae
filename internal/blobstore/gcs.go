package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// gcsBucket — абстракция bucket'а GCS для подмены в тестах.
type gcsBucket interface {
	Object(name string) gcsObject
	Attrs(ctx context.Context) error
}

// gcsObject — абстракция объекта GCS.
type gcsObject interface {
	NewReader(ctx context.Context) (io.ReadCloser, error)
	// NewWriter создаёт запись, которая завершится ошибкой 412,
	// если объект уже существует.
	NewWriter(ctx context.Context, contentType string) io.WriteCloser
	Delete(ctx context.Context) error
}

type realGCSBucket struct{ bh *storage.BucketHandle }

func (r *realGCSBucket) Object(name string) gcsObject {
	return &realGCSObject{oh: r.bh.Object(name)}
}

func (r *realGCSBucket) Attrs(ctx context.Context) error {
	_, err := r.bh.Attrs(ctx)
	return err
}

type realGCSObject struct{ oh *storage.ObjectHandle }

func (r *realGCSObject) NewReader(ctx context.Context) (io.ReadCloser, error) {
	return r.oh.NewReader(ctx)
}

func (r *realGCSObject) NewWriter(ctx context.Context, contentType string) io.WriteCloser {
	w := r.oh.If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	w.ContentType = contentType
	return w
}

func (r *realGCSObject) Delete(ctx context.Context) error { return r.oh.Delete(ctx) }

// GCSConfig — параметры подключения к Google Cloud Storage.
type GCSConfig struct {
	Bucket string
	// CredentialsFile — путь к JSON ключу сервисного аккаунта. Пусто — ADC.
	CredentialsFile string
	// Project — quota project.
	Project string
	// PublicURL — база публичных ссылок, по умолчанию https://storage.googleapis.com.
	PublicURL string
}

// GCSStore — Blob Store поверх Google Cloud Storage.
type GCSStore struct {
	client *storage.Client
	bucket gcsBucket
	cfg    GCSConfig
	logger *slog.Logger
}

const gcsDefaultPublicURL = "https://storage.googleapis.com"

// NewGCSStore создаёт клиент GCS.
func NewGCSStore(ctx context.Context, cfg GCSConfig, logger *slog.Logger) (*GCSStore, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithAuthCredentialsFile(option.ServiceAccount, cfg.CredentialsFile))
	}
	if cfg.Project != "" {
		opts = append(opts, option.WithQuotaProject(cfg.Project))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания клиента GCS: %w", err)
	}

	s := newGCSStoreWithBucket(&realGCSBucket{bh: client.Bucket(cfg.Bucket)}, cfg, logger)
	s.client = client
	return s, nil
}

func newGCSStoreWithBucket(bucket gcsBucket, cfg GCSConfig, logger *slog.Logger) *GCSStore {
	if cfg.PublicURL == "" {
		cfg.PublicURL = gcsDefaultPublicURL
	}
	return &GCSStore{
		bucket: bucket,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "blobstore_gcs")),
	}
}

// Close закрывает клиент GCS.
func (g *GCSStore) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

// Upload записывает объект только если ключ свободен. Ошибка записи проявляется при Close.
func (g *GCSStore) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	w := g.bucket.Object(key).NewWriter(ctx, contentType)
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("ошибка записи объекта %q: %w", key, err)
	}
	if err := w.Close(); err != nil {
		if isGCSConflict(err) {
			return fmt.Errorf("%w: %s", ErrBlobExists, key)
		}
		return fmt.Errorf("ошибка завершения записи объекта %q: %w", key, err)
	}

	g.logger.Debug("Объект загружен",
		slog.String("key", key),
		slog.String("bucket", g.cfg.Bucket),
		slog.Int("bytes", len(data)),
	)
	return nil
}

// Download читает объект целиком.
func (g *GCSStore) Download(ctx context.Context, key string) ([]byte, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	r, err := g.bucket.Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrBlobNotFound, key)
		}
		return nil, fmt.Errorf("ошибка открытия объекта %q: %w", key, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения объекта %q: %w", key, err)
	}
	return data, nil
}

// Remove удаляет объекты по одному. Отсутствующие объекты пропускаются.
func (g *GCSStore) Remove(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		if err := ValidateKey(k); err != nil {
			return err
		}
		if err := g.bucket.Object(k).Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
			return fmt.Errorf("ошибка удаления объекта %q: %w", k, err)
		}
	}
	return nil
}

// PublicURL возвращает ссылку вида {base}/{bucket}/{key}.
func (g *GCSStore) PublicURL(key string) string {
	return joinPublicURL(g.cfg.PublicURL, g.cfg.Bucket, key)
}

// Ping запрашивает атрибуты bucket'а.
func (g *GCSStore) Ping(ctx context.Context) error {
	if err := g.bucket.Attrs(ctx); err != nil {
		return fmt.Errorf("bucket %q недоступен: %w", g.cfg.Bucket, err)
	}
	return nil
}

// isGCSConflict — отказ предусловия DoesNotExist (HTTP 412).
func isGCSConflict(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed
}
