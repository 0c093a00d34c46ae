// Пакет model — доменные модели FMS backend.
// Item — маппинг таблицы items (Record Store).
package model

import "time"

// Item — элемент: метаданные + прикреплённый файл в Blob Store.
type Item struct {
	// ID — UUID элемента, назначается Record Store при создании
	ID string `json:"id"`
	// Name — отображаемое имя
	Name string `json:"name"`
	// Description — произвольное описание (опционально)
	Description *string `json:"description"`
	// Filepath — ключ файла в Blob Store. nil — файл не прикреплён.
	Filepath *string `json:"filepath"`
	// OriginalName — имя файла, переданное клиентом при загрузке
	OriginalName *string `json:"originalName"`
	// URL — публичная ссылка на файл, вычисляется из Filepath
	URL *string `json:"url"`
	// CreatedAt — время создания записи
	CreatedAt time.Time `json:"created_at"`
}

// HasFile сообщает, прикреплён ли к элементу файл.
func (i *Item) HasFile() bool {
	return i.Filepath != nil && *i.Filepath != ""
}

// NewItem — данные для вставки нового элемента.
type NewItem struct {
	Name         string
	Description  *string
	Filepath     string
	OriginalName string
	URL          string
}

// ItemUpdate — частичное обновление элемента.
// Все поля — указатели, nil = столбец не изменяется.
// Filepath, OriginalName и URL меняются только вместе.
type ItemUpdate struct {
	Name        *string
	Description *string
	File        *FileRef
}

// FileRef — ссылка на файл в Blob Store.
type FileRef struct {
	Filepath     string
	OriginalName string
	URL          string
}

// StringPtr возвращает указатель на копию s.
func StringPtr(s string) *string {
	return &s
}
