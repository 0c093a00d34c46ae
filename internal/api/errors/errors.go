// Пакет errors — конструкторы стандартных ошибок FMS backend.
// Единый формат: {"error": {"code": "...", "message": "...", "details": "..."}}.
// Все HTTP-ответы с ошибками должны использовать WriteError.
package errors

import (
	"encoding/json"
	"net/http"
)

// Коды ошибок.
const (
	CodeValidationError  = "VALIDATION_ERROR"
	CodeNotFound         = "NOT_FOUND"
	CodeDownloadFailed   = "DOWNLOAD_FAILED"
	CodeRemoteStoreError = "REMOTE_STORE_ERROR"
	CodePayloadTooLarge  = "PAYLOAD_TOO_LARGE"
	CodeServerBusy       = "SERVER_BUSY"
	CodeInternalError    = "INTERNAL_ERROR"
)

// errorBody — структура тела ответа ошибки.
type errorBody struct {
	Error errorDetail `json:"error"`
}

// errorDetail — детали ошибки.
type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// WriteError записывает ответ ошибки в стандартном формате.
// statusCode — HTTP статус-код, code — машиночитаемый код, message — описание.
func WriteError(w http.ResponseWriter, statusCode int, code, message string) {
	WriteErrorDetails(w, statusCode, code, message, "")
}

// WriteErrorDetails — WriteError с дополнительным полем details.
func WriteErrorDetails(w http.ResponseWriter, statusCode int, code, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorBody{
		Error: errorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// --- Конструкторы для типичных ошибок ---

// ValidationError — 400 некорректные входные данные.
func ValidationError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, CodeValidationError, message)
}

// NotFound — 404 ресурс не найден.
func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, CodeNotFound, message)
}

// DownloadFailed — 500 запись есть, но файл получить не удалось.
func DownloadFailed(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, CodeDownloadFailed, message)
}

// RemoteStoreError — 500 ошибка Record Store или Blob Store.
func RemoteStoreError(w http.ResponseWriter, message, details string) {
	WriteErrorDetails(w, http.StatusInternalServerError, CodeRemoteStoreError, message, details)
}

// PayloadTooLarge — 413 тело запроса превышает лимит.
func PayloadTooLarge(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusRequestEntityTooLarge, CodePayloadTooLarge, message)
}

// ServerBusy — 503 превышен лимит одновременных загрузок.
func ServerBusy(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusServiceUnavailable, CodeServerBusy, message)
}

// InternalError — 500 внутренняя ошибка сервера.
func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, CodeInternalError, message)
}
