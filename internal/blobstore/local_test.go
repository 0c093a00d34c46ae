package blobstore

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func newTestLocalStore(t *testing.T) *LocalStore {
	t.Helper()
	s, err := NewLocalStore(t.TempDir(), "uploads", "http://localhost:3002/public", slog.Default())
	if err != nil {
		t.Fatalf("ошибка создания LocalStore: %v", err)
	}
	return s
}

func TestNewLocalStore_CreatesBucketDir(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStore(dir, "uploads", "", slog.Default())
	if err != nil {
		t.Fatalf("ошибка создания LocalStore: %v", err)
	}

	if s.Root() != filepath.Join(dir, "uploads") {
		t.Errorf("Root() = %s", s.Root())
	}
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping() вернул ошибку: %v", err)
	}
}

func TestLocalStore_UploadDownloadRemove(t *testing.T) {
	s := newTestLocalStore(t)
	ctx := context.Background()
	content := []byte("Тестовые данные")

	if err := s.Upload(ctx, "1700000000000-a.txt", content, "text/plain"); err != nil {
		t.Fatalf("Upload() вернул ошибку: %v", err)
	}

	got, err := s.Download(ctx, "1700000000000-a.txt")
	if err != nil {
		t.Fatalf("Download() вернул ошибку: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("содержимое не совпадает: %q", got)
	}

	// Временные файлы не остаются в директории
	entries, err := os.ReadDir(s.Root())
	if err != nil {
		t.Fatalf("ошибка чтения директории: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("ожидался 1 файл, найдено %d", len(entries))
	}

	if err := s.Remove(ctx, "1700000000000-a.txt", "missing.txt"); err != nil {
		t.Fatalf("Remove() вернул ошибку: %v", err)
	}
	if _, err := s.Download(ctx, "1700000000000-a.txt"); !errors.Is(err, ErrBlobNotFound) {
		t.Errorf("после удаления ожидалась ErrBlobNotFound, получено %v", err)
	}
}

func TestLocalStore_UploadExistingKey(t *testing.T) {
	s := newTestLocalStore(t)
	ctx := context.Background()

	if err := s.Upload(ctx, "k.txt", []byte("old"), ""); err != nil {
		t.Fatalf("Upload() вернул ошибку: %v", err)
	}
	if err := s.Upload(ctx, "k.txt", []byte("new"), ""); !errors.Is(err, ErrBlobExists) {
		t.Fatalf("повторный Upload() = %v, ожидалась ErrBlobExists", err)
	}

	got, err := s.Download(ctx, "k.txt")
	if err != nil {
		t.Fatalf("Download() вернул ошибку: %v", err)
	}
	if string(got) != "old" {
		t.Errorf("содержимое = %q, объект не должен перезаписываться", got)
	}

	// Временный файл после отказа удалён
	entries, _ := os.ReadDir(s.Root())
	if len(entries) != 1 {
		t.Errorf("ожидался 1 файл, найдено %d", len(entries))
	}
}

func TestLocalStore_InvalidKey(t *testing.T) {
	s := newTestLocalStore(t)
	ctx := context.Background()

	if err := s.Upload(ctx, "../escape.txt", []byte("x"), ""); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("Upload(../escape.txt) = %v, ожидалась ErrInvalidKey", err)
	}
	if _, err := s.Download(ctx, ""); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("Download(\"\") = %v, ожидалась ErrInvalidKey", err)
	}
	if err := s.Remove(ctx, "/abs"); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("Remove(/abs) = %v, ожидалась ErrInvalidKey", err)
	}
}

func TestLocalStore_PublicURL(t *testing.T) {
	s := newTestLocalStore(t)
	want := "http://localhost:3002/public/uploads/1700000000000-a.txt"
	if got := s.PublicURL("1700000000000-a.txt"); got != want {
		t.Errorf("PublicURL = %q, ожидается %q", got, want)
	}
}

func TestLocalStore_PingMissingDir(t *testing.T) {
	s := newTestLocalStore(t)
	if err := os.RemoveAll(s.Root()); err != nil {
		t.Fatal(err)
	}
	if err := s.Ping(context.Background()); err == nil {
		t.Error("ожидалась ошибка Ping при отсутствии директории")
	}
}

func TestReadinessChecker(t *testing.T) {
	s := newTestLocalStore(t)
	checker := NewReadinessChecker(s)

	if status, _ := checker.CheckReady(); status != "ok" {
		t.Errorf("status = %s, ожидается ok", status)
	}

	_ = os.RemoveAll(s.Root())
	if status, _ := checker.CheckReady(); status != "fail" {
		t.Errorf("status = %s, ожидается fail", status)
	}
}
