package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// s3API — минимальный набор операций S3, используемый S3Store.
// Реализуется *s3.Client; в тестах подменяется mock-реализацией.
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObjects(ctx context.Context, in *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3Config — параметры подключения к S3-совместимому хранилищу.
type S3Config struct {
	Bucket string
	Region string
	// Endpoint — кастомный endpoint (Supabase Storage S3, MinIO). Пусто — AWS.
	Endpoint  string
	AccessKey string
	SecretKey string
	// PublicURL — база публичных ссылок. Пусто — вычисляется из Endpoint/Region.
	PublicURL string
}

// S3Store — Blob Store поверх S3-совместимого хранилища.
type S3Store struct {
	client s3API
	cfg    S3Config
	logger *slog.Logger
}

// NewS3Store создаёт клиент S3 со статическими учётными данными.
// При заданном Endpoint используется path-style адресация.
func NewS3Store(ctx context.Context, cfg S3Config, logger *slog.Logger) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки конфигурации AWS: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		ep := cfg.Endpoint
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = &ep
			o.UsePathStyle = true
		})
	}

	return newS3StoreWithClient(s3.NewFromConfig(awsCfg, s3Opts...), cfg, logger), nil
}

// newS3StoreWithClient создаёт S3Store с готовым клиентом (используется в тестах).
func newS3StoreWithClient(client s3API, cfg S3Config, logger *slog.Logger) *S3Store {
	return &S3Store{
		client: client,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "blobstore_s3")),
	}
}

// Upload загружает объект в bucket. Существующий объект не перезаписывается
// (условная запись If-None-Match: *), конфликт возвращается как ErrBlobExists.
func (s *S3Store) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		IfNoneMatch:   aws.String("*"),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		if isS3Conflict(err) {
			return fmt.Errorf("%w: %s", ErrBlobExists, key)
		}
		return fmt.Errorf("ошибка загрузки объекта %q: %w", key, err)
	}

	s.logger.Debug("Объект загружен",
		slog.String("key", key),
		slog.String("bucket", s.cfg.Bucket),
		slog.Int("bytes", len(data)),
	)
	return nil
}

// Download читает объект целиком.
func (s *S3Store) Download(ctx context.Context, key string) ([]byte, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrBlobNotFound, key)
		}
		return nil, fmt.Errorf("ошибка скачивания объекта %q: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения объекта %q: %w", key, err)
	}
	return data, nil
}

// Remove удаляет объекты одним запросом DeleteObjects.
func (s *S3Store) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	ids := make([]types.ObjectIdentifier, 0, len(keys))
	for _, k := range keys {
		if err := ValidateKey(k); err != nil {
			return err
		}
		ids = append(ids, types.ObjectIdentifier{Key: aws.String(k)})
	}

	out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(s.cfg.Bucket),
		Delete: &types.Delete{Objects: ids, Quiet: aws.Bool(true)},
	})
	if err != nil {
		return fmt.Errorf("ошибка удаления объектов: %w", err)
	}
	if out != nil && len(out.Errors) > 0 {
		first := out.Errors[0]
		return fmt.Errorf("ошибка удаления объекта %q: %s", aws.ToString(first.Key), aws.ToString(first.Message))
	}

	s.logger.Debug("Объекты удалены",
		slog.Any("keys", keys),
		slog.String("bucket", s.cfg.Bucket),
	)
	return nil
}

// PublicURL возвращает публичную ссылку на объект.
// Приоритет: PublicURL → path-style от Endpoint → virtual-hosted AWS URL.
func (s *S3Store) PublicURL(key string) string {
	switch {
	case s.cfg.PublicURL != "":
		return joinPublicURL(s.cfg.PublicURL, s.cfg.Bucket, key)
	case s.cfg.Endpoint != "":
		return joinPublicURL(s.cfg.Endpoint, s.cfg.Bucket, key)
	default:
		host := fmt.Sprintf("https://%s.s3.%s.amazonaws.com", s.cfg.Bucket, s.cfg.Region)
		return joinPublicURL(host, "", key)
	}
}

// Ping проверяет доступность bucket через HeadBucket.
func (s *S3Store) Ping(ctx context.Context) error {
	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.cfg.Bucket)}); err != nil {
		return fmt.Errorf("bucket %q недоступен: %w", s.cfg.Bucket, err)
	}
	return nil
}

// isS3NotFound определяет ошибку «объект не найден» (NoSuchKey или HTTP 404).
func isS3NotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchKey" {
		return true
	}
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusNotFound {
		return true
	}
	return false
}

// isS3Conflict определяет отказ условной записи: объект с ключом уже есть
// (412 PreconditionFailed) или параллельная запись того же ключа (409).
func isS3Conflict(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "PreconditionFailed", "ConditionalRequestConflict":
			return true
		}
	}
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		code := respErr.HTTPStatusCode()
		return code == http.StatusPreconditionFailed || code == http.StatusConflict
	}
	return false
}
