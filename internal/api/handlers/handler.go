// handler.go — основной обработчик API FMS backend.
// Объединяет health и обработчики элементов, делегирует в сервисный слой.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/Rexchan06/fms-web-app/internal/domain/model"
	"github.com/Rexchan06/fms-web-app/internal/service"
)

// ItemManager — операции жизненного цикла элементов, используемые обработчиками.
// Реализуется *service.ItemService.
type ItemManager interface {
	List(ctx context.Context) ([]*model.Item, error)
	GetFile(ctx context.Context, id string) (*service.FileContent, error)
	Create(ctx context.Context, in service.CreateInput) (*model.Item, error)
	Update(ctx context.Context, id string, in service.UpdateInput) (*model.Item, error)
	Delete(ctx context.Context, id string) error
}

// APIHandler — основной обработчик API.
type APIHandler struct {
	health        *HealthHandler
	items         ItemManager
	maxUploadSize int64
	logger        *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
// maxUploadSize — лимит тела multipart-запроса в байтах.
func NewAPIHandler(
	health *HealthHandler,
	items ItemManager,
	maxUploadSize int64,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		health:        health,
		items:         items,
		maxUploadSize: maxUploadSize,
		logger:        logger.With(slog.String("component", "api_handler")),
	}
}

// --- Health endpoints (делегируются в HealthHandler) ---

// HealthLive — liveness probe.
func (h *APIHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	h.health.HealthLive(w, r)
}

// HealthReady — readiness probe.
func (h *APIHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	h.health.HealthReady(w, r)
}

// GetMetrics — Prometheus метрики.
func (h *APIHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.health.GetMetrics(w, r)
}

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
