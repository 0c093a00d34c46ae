// Пакет service — бизнес-логика FMS backend: жизненный цикл элементов
// (Record Store + Blob Store), кэш записей, мониторинг зависимостей.
package service

import (
	"errors"
	"fmt"
)

// Ошибки сервисного слоя.
var (
	// ErrNotFound — элемент не найден.
	ErrNotFound = errors.New("элемент не найден")
	// ErrNoFile — файл не передан при создании элемента.
	ErrNoFile = errors.New("файл не загружен")
	// ErrNameRequired — не указано имя при создании элемента.
	ErrNameRequired = errors.New("имя элемента обязательно")
	// ErrDownloadFailed — запись существует, но файл получить не удалось.
	ErrDownloadFailed = errors.New("ошибка скачивания файла")
)

// Хранилища, к которым относится RemoteStoreError.
const (
	StoreRecord = "record_store"
	StoreBlob   = "blob_store"
)

// RemoteStoreError — ошибка вызова Record Store или Blob Store.
// Сообщение удалённой стороны передаётся вызывающему без классификации.
type RemoteStoreError struct {
	// Store — StoreRecord или StoreBlob
	Store string
	// Op — операция (upload, insert, update, ...)
	Op  string
	Err error
}

func (e *RemoteStoreError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Store, e.Op, e.Err)
}

func (e *RemoteStoreError) Unwrap() error {
	return e.Err
}

func recordErr(op string, err error) error {
	return &RemoteStoreError{Store: StoreRecord, Op: op, Err: err}
}

func blobErr(op string, err error) error {
	return &RemoteStoreError{Store: StoreBlob, Op: op, Err: err}
}
