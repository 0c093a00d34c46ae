package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Rexchan06/fms-web-app/internal/domain/model"
)

// itemColumns — список столбцов таблицы items для SELECT/RETURNING.
const itemColumns = `id, name, description, filepath, original_name, url, created_at`

// ItemRepository — операции Record Store над таблицей items.
type ItemRepository interface {
	// List возвращает все элементы в порядке вставки.
	List(ctx context.Context) ([]*model.Item, error)
	// GetByID возвращает элемент по UUID или ErrNotFound.
	GetByID(ctx context.Context, id string) (*model.Item, error)
	// GetFilepath возвращает только ключ файла (nil, если файл не прикреплён).
	GetFilepath(ctx context.Context, id string) (*string, error)
	// Create вставляет элемент и возвращает созданную запись с назначенным ID.
	Create(ctx context.Context, item model.NewItem) (*model.Item, error)
	// Update применяет частичное обновление и возвращает обновлённую запись.
	Update(ctx context.Context, id string, upd model.ItemUpdate) (*model.Item, error)
	// Delete удаляет элемент по UUID.
	Delete(ctx context.Context, id string) error
}

// itemRepo — реализация ItemRepository через pgx.
type itemRepo struct {
	db DBTX
}

// NewItemRepository создаёт репозиторий элементов.
func NewItemRepository(db DBTX) ItemRepository {
	return &itemRepo{db: db}
}

func (r *itemRepo) List(ctx context.Context) ([]*model.Item, error) {
	query := fmt.Sprintf(`SELECT %s FROM items ORDER BY seq`, itemColumns)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка элементов: %w", err)
	}
	defer rows.Close()

	result := make([]*model.Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования элемента: %w", err)
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка итерации результатов: %w", err)
	}
	return result, nil
}

func (r *itemRepo) GetByID(ctx context.Context, id string) (*model.Item, error) {
	query := fmt.Sprintf(`SELECT %s FROM items WHERE id = $1`, itemColumns)

	item, err := scanItem(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения элемента: %w", err)
	}
	return item, nil
}

func (r *itemRepo) GetFilepath(ctx context.Context, id string) (*string, error) {
	var filepath *string
	err := r.db.QueryRow(ctx, `SELECT filepath FROM items WHERE id = $1`, id).Scan(&filepath)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения пути файла: %w", err)
	}
	return filepath, nil
}

func (r *itemRepo) Create(ctx context.Context, in model.NewItem) (*model.Item, error) {
	query := fmt.Sprintf(`
		INSERT INTO items (name, description, filepath, original_name, url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING %s`, itemColumns)

	item, err := scanItem(r.db.QueryRow(ctx, query,
		in.Name, in.Description, in.Filepath, in.OriginalName, in.URL,
	))
	if err != nil {
		return nil, fmt.Errorf("ошибка создания элемента: %w", err)
	}
	return item, nil
}

func (r *itemRepo) Update(ctx context.Context, id string, upd model.ItemUpdate) (*model.Item, error) {
	set, args := buildItemUpdate(upd, 2)
	if set == "" {
		// Обновлять нечего — возвращаем текущее состояние
		return r.GetByID(ctx, id)
	}

	query := fmt.Sprintf(`UPDATE items SET %s WHERE id = $1 RETURNING %s`, set, itemColumns)
	args = append([]any{id}, args...)

	item, err := scanItem(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка обновления элемента: %w", err)
	}
	return item, nil
}

func (r *itemRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления элемента: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// buildItemUpdate строит SET-часть UPDATE и аргументы.
// startArg — номер первого $-параметра ($1 занят под id).
func buildItemUpdate(upd model.ItemUpdate, startArg int) (setClause string, args []any) {
	var sets []string
	argNum := startArg

	add := func(column string, val any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, argNum))
		args = append(args, val)
		argNum++
	}

	if upd.Name != nil {
		add("name", *upd.Name)
	}
	if upd.Description != nil {
		add("description", *upd.Description)
	}
	if upd.File != nil {
		add("filepath", upd.File.Filepath)
		add("original_name", upd.File.OriginalName)
		add("url", upd.File.URL)
	}

	return strings.Join(sets, ", "), args
}

// scanItem сканирует строку с набором столбцов itemColumns.
func scanItem(row pgx.Row) (*model.Item, error) {
	item := &model.Item{}
	if err := row.Scan(
		&item.ID, &item.Name, &item.Description, &item.Filepath,
		&item.OriginalName, &item.URL, &item.CreatedAt,
	); err != nil {
		return nil, err
	}
	return item, nil
}
