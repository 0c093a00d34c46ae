// items.go — обработчики /items: список, создание, обновление, удаление.
package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/Rexchan06/fms-web-app/internal/api/errors"
	"github.com/Rexchan06/fms-web-app/internal/service"
)

// deleteResponse — ответ DELETE /items/{id}.
type deleteResponse struct {
	Message string `json:"message"`
}

// ListItems — GET /items. Все элементы в порядке создания.
func (h *APIHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.items.List(r.Context())
	if err != nil {
		h.writeServiceError(w, "list", "", err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// CreateItem — POST /items, multipart: file, name, description.
func (h *APIHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	form, ok := h.parseItemForm(w, r)
	if !ok {
		return
	}

	in := service.CreateInput{File: form.file, Description: form.description}
	if form.name != nil {
		in.Name = *form.name
	}

	item, err := h.items.Create(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, "create", "", err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// UpdateItem — PUT /items/{id}, multipart: необязательные file, name, description.
func (h *APIHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	form, ok := h.parseItemForm(w, r)
	if !ok {
		return
	}

	item, err := h.items.Update(r.Context(), id, service.UpdateInput{
		Name:        form.name,
		Description: form.description,
		File:        form.file,
	})
	if err != nil {
		h.writeServiceError(w, "update", id, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// DeleteItem — DELETE /items/{id}.
func (h *APIHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.items.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, "delete", id, err)
		return
	}
	writeJSON(w, http.StatusOK, deleteResponse{Message: "Item deleted"})
}

// itemForm — поля multipart-формы элемента. nil — поле не передано.
type itemForm struct {
	name        *string
	description *string
	file        *service.Upload
}

// parseItemForm разбирает multipart (или urlencoded) форму с ограничением размера.
// При ошибке записывает ответ и возвращает false.
func (h *APIHandler) parseItemForm(w http.ResponseWriter, r *http.Request) (*itemForm, bool) {
	if r.ContentLength > h.maxUploadSize {
		apierrors.PayloadTooLarge(w, fmt.Sprintf("Размер запроса превышает %d байт", h.maxUploadSize))
		return nil, false
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			apierrors.PayloadTooLarge(w, fmt.Sprintf("Размер запроса превышает %d байт", mbe.Limit))
			return nil, false
		}
		apierrors.ValidationError(w, "Некорректная multipart-форма: "+err.Error())
		return nil, false
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	form := &itemForm{
		name:        formValue(r, "name"),
		description: formValue(r, "description"),
	}

	file, header, err := r.FormFile("file")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return form, true
	case err != nil:
		apierrors.ValidationError(w, "Некорректное поле file: "+err.Error())
		return nil, false
	}
	defer file.Close()

	upload, err := readUpload(file, header)
	if err != nil {
		apierrors.ValidationError(w, "Ошибка чтения файла: "+err.Error())
		return nil, false
	}
	form.file = upload
	return form, true
}

func readUpload(file multipart.File, header *multipart.FileHeader) (*service.Upload, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	return &service.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// formValue возвращает значение поля формы или nil, если поле не передано.
func formValue(r *http.Request, key string) *string {
	vals, ok := r.Form[key]
	if !ok || len(vals) == 0 {
		return nil
	}
	v := vals[0]
	return &v
}

// writeServiceError отображает ошибку сервисного слоя в HTTP-ответ.
func (h *APIHandler) writeServiceError(w http.ResponseWriter, op, id string, err error) {
	var rse *service.RemoteStoreError

	switch {
	case errors.Is(err, service.ErrNotFound):
		apierrors.NotFound(w, "Элемент не найден")
		return
	case errors.Is(err, service.ErrNoFile):
		apierrors.ValidationError(w, "Файл не загружен")
		return
	case errors.Is(err, service.ErrNameRequired):
		apierrors.ValidationError(w, "Не указано имя элемента")
		return
	case errors.Is(err, service.ErrDownloadFailed):
		apierrors.DownloadFailed(w, "Ошибка скачивания файла")
	case errors.As(err, &rse):
		details := ""
		if op == "create" {
			details = fmt.Sprintf("%s %s", rse.Store, rse.Op)
		}
		apierrors.RemoteStoreError(w, rse.Err.Error(), details)
	default:
		apierrors.InternalError(w, "Внутренняя ошибка сервера")
	}

	h.logger.Error("Ошибка операции над элементом",
		slog.String("op", op),
		slog.String("item_id", id),
		slog.String("error", err.Error()),
	)
}
