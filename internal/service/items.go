// items.go — жизненный цикл элементов: каждая операция последовательно
// вызывает Record Store и Blob Store и сводит результаты в один ответ.
// Атомарности между хранилищами нет. Частичные отказы фиксируются как
// нарушения целостности (лог + метрика), но не откатываются, если не
// включён режим компенсации.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Rexchan06/fms-web-app/internal/blobstore"
	"github.com/Rexchan06/fms-web-app/internal/domain/model"
	"github.com/Rexchan06/fms-web-app/internal/repository"
)

// defaultContentType — Content-Type файла, если клиент его не указал.
const defaultContentType = "application/octet-stream"

// Виды нарушений целостности (лейбл kind).
const (
	// IntegrityOrphanedBlob — файл загружен, но запись на него не ссылается.
	IntegrityOrphanedBlob = "orphaned_blob"
	// IntegrityMissingBlob — запись ссылается на отсутствующий файл.
	IntegrityMissingBlob = "missing_blob"
	// IntegrityStaleBlob — старый файл не удалён после замены.
	IntegrityStaleBlob = "stale_blob"
)

// Prometheus-метрики жизненного цикла элементов.
var (
	itemOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fms_item_operations_total",
		Help: "Общее количество операций над элементами (по операции и статусу).",
	}, []string{"op", "status"})

	itemOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fms_item_operation_duration_seconds",
		Help:    "Длительность операций над элементами.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"op"})

	blobBytesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fms_blob_bytes_total",
		Help: "Общее количество байт, переданных в Blob Store и из него.",
	}, []string{"direction"})

	integrityWarningsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fms_integrity_warnings_total",
		Help: "Количество обнаруженных нарушений целостности Record Store / Blob Store.",
	}, []string{"kind"})
)

// Upload — файл из multipart-запроса, целиком в памяти.
type Upload struct {
	// Filename — имя файла, переданное клиентом
	Filename    string
	ContentType string
	Data        []byte
}

// CreateInput — данные для создания элемента.
type CreateInput struct {
	Name        string
	Description *string
	File        *Upload
}

// UpdateInput — данные для обновления элемента.
// Пустые Name/Description означают «оставить как есть».
type UpdateInput struct {
	Name        *string
	Description *string
	File        *Upload
}

// FileContent — результат скачивания файла.
type FileContent struct {
	Data []byte
	// Filename — имя для Content-Disposition
	Filename string
}

// Options — настройки ItemService.
type Options struct {
	// Compensation — компенсирующие действия при частичных отказах:
	// удаление загруженного файла при ошибке вставки, порядок
	// «загрузить новый → обновить запись → удалить старый» при замене файла.
	Compensation bool
}

// ItemService — менеджер жизненного цикла элементов.
// Не хранит состояния между вызовами и не блокирует конкурентные запросы к одному элементу.
type ItemService struct {
	repo   repository.ItemRepository
	blobs  blobstore.Store
	keys   *KeyGenerator
	cache  *ItemCache
	opts   Options
	logger *slog.Logger
}

// NewItemService создаёт менеджер жизненного цикла элементов.
// cache может быть nil.
func NewItemService(
	repo repository.ItemRepository,
	blobs blobstore.Store,
	keys *KeyGenerator,
	cache *ItemCache,
	opts Options,
	logger *slog.Logger,
) *ItemService {
	return &ItemService{
		repo:   repo,
		blobs:  blobs,
		keys:   keys,
		cache:  cache,
		opts:   opts,
		logger: logger.With(slog.String("component", "item_service")),
	}
}

// List возвращает все элементы в порядке создания.
func (s *ItemService) List(ctx context.Context) (_ []*model.Item, err error) {
	defer s.observe("list", time.Now(), &err)

	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, recordErr("select", err)
	}
	return items, nil
}

// GetFile возвращает содержимое файла элемента.
// ErrNotFound — элемента нет; ErrDownloadFailed — запись есть, файла нет или хранилище недоступно.
func (s *ItemService) GetFile(ctx context.Context, id string) (_ *FileContent, err error) {
	defer s.observe("get_file", time.Now(), &err)

	id, ok := canonicalID(id)
	if !ok {
		return nil, ErrNotFound
	}

	item, err := s.cachedItem(ctx, id)
	if err != nil {
		return nil, err
	}

	if !item.HasFile() {
		s.integrityWarning(IntegrityMissingBlob, id, "", errors.New("filepath не задан"))
		return nil, ErrDownloadFailed
	}
	key := *item.Filepath

	data, err := s.blobs.Download(ctx, key)
	if err != nil {
		if errors.Is(err, blobstore.ErrBlobNotFound) {
			s.integrityWarning(IntegrityMissingBlob, id, key, err)
			s.cache.Delete(id)
		}
		return nil, fmt.Errorf("%w: %w", ErrDownloadFailed, blobErr("download", err))
	}
	blobBytesTotal.WithLabelValues("download").Add(float64(len(data)))

	filename := key
	if item.OriginalName != nil && *item.OriginalName != "" {
		filename = *item.OriginalName
	}

	return &FileContent{Data: data, Filename: filename}, nil
}

// Create загружает файл и создаёт запись элемента.
// Без файла (или без имени) возвращает ошибку валидации до любых удалённых вызовов.
func (s *ItemService) Create(ctx context.Context, in CreateInput) (_ *model.Item, err error) {
	defer s.observe("create", time.Now(), &err)

	if in.File == nil {
		return nil, ErrNoFile
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, ErrNameRequired
	}

	originalName := BaseName(in.File.Filename)
	key := s.keys.Next(originalName)

	if err := s.upload(ctx, key, in.File); err != nil {
		return nil, err
	}

	item, err := s.repo.Create(ctx, model.NewItem{
		Name:         in.Name,
		Description:  in.Description,
		Filepath:     key,
		OriginalName: originalName,
		URL:          s.blobs.PublicURL(key),
	})
	if err != nil {
		s.orphanedBlob(ctx, "", key, err)
		return nil, recordErr("insert", err)
	}

	s.cache.Set(item)

	s.logger.Info("Элемент создан",
		slog.String("item_id", item.ID),
		slog.String("filepath", key),
		slog.Int("bytes", len(in.File.Data)),
	)
	return item, nil
}

// Update обновляет метаданные элемента и, если передан файл, заменяет его.
// Пустые name/description сохраняют прежние значения.
func (s *ItemService) Update(ctx context.Context, id string, in UpdateInput) (_ *model.Item, err error) {
	defer s.observe("update", time.Now(), &err)

	id, ok := canonicalID(id)
	if !ok {
		return nil, ErrNotFound
	}

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, recordErr("select", err)
	}
	s.cache.Delete(id)

	upd := model.ItemUpdate{
		Name:        model.StringPtr(existing.Name),
		Description: existing.Description,
	}
	if in.Name != nil && *in.Name != "" {
		upd.Name = in.Name
	}
	if in.Description != nil && *in.Description != "" {
		upd.Description = in.Description
	}

	var item *model.Item
	switch {
	case in.File == nil:
		item, err = s.updateRecord(ctx, id, upd)
	case s.opts.Compensation:
		item, err = s.replaceFileSafe(ctx, existing, upd, in.File)
	default:
		item, err = s.replaceFile(ctx, existing, upd, in.File)
	}
	if err != nil {
		return nil, err
	}

	s.cache.Set(item)

	s.logger.Info("Элемент обновлён",
		slog.String("item_id", id),
		slog.Bool("file_replaced", in.File != nil),
	)
	return item, nil
}

// replaceFile — замена файла в исходном порядке: удалить старый файл
// (ошибка логируется, обработка продолжается), загрузить новый, обновить запись.
func (s *ItemService) replaceFile(
	ctx context.Context, existing *model.Item, upd model.ItemUpdate, file *Upload,
) (*model.Item, error) {
	originalName := BaseName(file.Filename)
	key := s.keys.Next(originalName)

	oldRemoved := false
	if existing.HasFile() {
		if err := s.blobs.Remove(ctx, *existing.Filepath); err != nil {
			s.integrityWarning(IntegrityStaleBlob, existing.ID, *existing.Filepath, err)
		} else {
			oldRemoved = true
		}
	}

	if err := s.upload(ctx, key, file); err != nil {
		if oldRemoved {
			s.integrityWarning(IntegrityMissingBlob, existing.ID, *existing.Filepath, err)
		}
		return nil, err
	}

	upd.File = &model.FileRef{Filepath: key, OriginalName: originalName, URL: s.blobs.PublicURL(key)}
	item, err := s.updateRecord(ctx, existing.ID, upd)
	if err != nil {
		s.integrityWarning(IntegrityOrphanedBlob, existing.ID, key, err)
		return nil, err
	}
	return item, nil
}

// replaceFileSafe — замена файла с компенсацией: загрузить новый файл,
// обновить запись, затем удалить старый. Запись никогда не указывает на удалённый файл.
func (s *ItemService) replaceFileSafe(
	ctx context.Context, existing *model.Item, upd model.ItemUpdate, file *Upload,
) (*model.Item, error) {
	originalName := BaseName(file.Filename)
	key := s.keys.Next(originalName)

	if err := s.upload(ctx, key, file); err != nil {
		return nil, err
	}

	upd.File = &model.FileRef{Filepath: key, OriginalName: originalName, URL: s.blobs.PublicURL(key)}
	item, err := s.updateRecord(ctx, existing.ID, upd)
	if err != nil {
		s.orphanedBlob(ctx, existing.ID, key, err)
		return nil, err
	}

	if existing.HasFile() {
		if err := s.blobs.Remove(ctx, *existing.Filepath); err != nil {
			s.integrityWarning(IntegrityStaleBlob, existing.ID, *existing.Filepath, err)
		}
	}
	return item, nil
}

// Delete удаляет файл (если прикреплён) и запись элемента.
// Ошибка удаления файла прерывает операцию до удаления записи.
func (s *ItemService) Delete(ctx context.Context, id string) (err error) {
	defer s.observe("delete", time.Now(), &err)

	id, ok := canonicalID(id)
	if !ok {
		return ErrNotFound
	}

	fp, err := s.repo.GetFilepath(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return recordErr("select", err)
	}

	if fp != nil && *fp != "" {
		if err := s.blobs.Remove(ctx, *fp); err != nil {
			return blobErr("remove", err)
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.cache.Delete(id)
		if fp != nil && *fp != "" {
			s.integrityWarning(IntegrityMissingBlob, id, *fp, err)
		}
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return recordErr("delete", err)
	}
	s.cache.Delete(id)

	s.logger.Info("Элемент удалён", slog.String("item_id", id))
	return nil
}

// cachedItem получает запись из кэша или Record Store.
func (s *ItemService) cachedItem(ctx context.Context, id string) (*model.Item, error) {
	if item, ok := s.cache.Get(id); ok {
		return item, nil
	}

	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, recordErr("select", err)
	}

	s.cache.Set(item)
	return item, nil
}

func (s *ItemService) updateRecord(ctx context.Context, id string, upd model.ItemUpdate) (*model.Item, error) {
	item, err := s.repo.Update(ctx, id, upd)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, recordErr("update", err)
	}
	return item, nil
}

func (s *ItemService) upload(ctx context.Context, key string, file *Upload) error {
	ct := file.ContentType
	if ct == "" {
		ct = defaultContentType
	}
	if err := s.blobs.Upload(ctx, key, file.Data, ct); err != nil {
		return blobErr("upload", err)
	}
	blobBytesTotal.WithLabelValues("upload").Add(float64(len(file.Data)))
	return nil
}

// orphanedBlob обрабатывает файл, на который не ссылается ни одна запись.
// В режиме компенсации файл удаляется (даже при отменённом контексте запроса);
// нарушение целостности фиксируется, только если файл остался в хранилище.
func (s *ItemService) orphanedBlob(ctx context.Context, id, key string, cause error) {
	if s.opts.Compensation {
		err := s.blobs.Remove(context.WithoutCancel(ctx), key)
		if err == nil {
			s.logger.Info("Компенсация: загруженный файл удалён", slog.String("filepath", key))
			return
		}
		s.logger.Error("Компенсация не выполнена: файл остался без записи",
			slog.String("filepath", key),
			slog.String("error", err.Error()),
		)
	}
	s.integrityWarning(IntegrityOrphanedBlob, id, key, cause)
}

func (s *ItemService) integrityWarning(kind, id, key string, cause error) {
	integrityWarningsTotal.WithLabelValues(kind).Inc()

	attrs := []any{slog.String("kind", kind)}
	if id != "" {
		attrs = append(attrs, slog.String("item_id", id))
	}
	if key != "" {
		attrs = append(attrs, slog.String("filepath", key))
	}
	if cause != nil {
		attrs = append(attrs, slog.String("error", cause.Error()))
	}
	s.logger.Warn("Нарушение целостности Record Store / Blob Store", attrs...)
}

func (s *ItemService) observe(op string, start time.Time, errp *error) {
	status := "success"
	if err := *errp; err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			status = "not_found"
		case errors.Is(err, ErrNoFile), errors.Is(err, ErrNameRequired):
			status = "validation_error"
		default:
			status = "error"
		}
	}
	itemOperationsTotal.WithLabelValues(op, status).Inc()
	itemOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// canonicalID приводит идентификатор к каноническому виду UUID.
// Строки, не являющиеся UUID, заведомо не найдены.
func canonicalID(id string) (string, bool) {
	u, err := uuid.Parse(id)
	if err != nil {
		return "", false
	}
	return u.String(), true
}
