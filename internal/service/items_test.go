package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Rexchan06/fms-web-app/internal/blobstore"
	"github.com/Rexchan06/fms-web-app/internal/domain/model"
)

var keyPattern = regexp.MustCompile(`^\d+-a\.txt$`)

func textFile(name, body string) *Upload {
	return &Upload{Filename: name, ContentType: "text/plain", Data: []byte(body)}
}

// seedItem создаёт элемент через сервис и сбрасывает счётчики вызовов.
func seedItem(t *testing.T, svc *ItemService, repo *fakeRepo, blobs *fakeBlobs) *model.Item {
	t.Helper()
	item, err := svc.Create(context.Background(), CreateInput{
		Name:        "doc",
		Description: model.StringPtr("d"),
		File:        textFile("a.txt", "hello"),
	})
	if err != nil {
		t.Fatalf("Create() вернул ошибку: %v", err)
	}
	repo.calls = map[string]int{}
	blobs.calls = map[string]int{}
	blobs.removed = nil
	return item
}

// --- create ---

func TestCreate_Success(t *testing.T) {
	repo, blobs := newFakeRepo(), newFakeBlobs()
	svc := newTestService(repo, blobs, Options{}, nil)

	item, err := svc.Create(context.Background(), CreateInput{
		Name:        "doc",
		Description: model.StringPtr("d"),
		File:        textFile("a.txt", "hello"),
	})
	if err != nil {
		t.Fatalf("Create() вернул ошибку: %v", err)
	}

	if item.ID == "" {
		t.Error("ID не назначен")
	}
	if !keyPattern.MatchString(*item.Filepath) {
		t.Errorf("filepath = %q не соответствует <timestamp>-a.txt", *item.Filepath)
	}
	if *item.OriginalName != "a.txt" {
		t.Errorf("originalName = %q", *item.OriginalName)
	}
	if *item.URL != blobs.PublicURL(*item.Filepath) {
		t.Errorf("url = %q", *item.URL)
	}
	if !blobs.has(*item.Filepath) {
		t.Error("файл не загружен в Blob Store")
	}
	if blobs.types[*item.Filepath] != "text/plain" {
		t.Errorf("Content-Type = %q", blobs.types[*item.Filepath])
	}
}

func TestCreate_DefaultContentType(t *testing.T) {
	repo, blobs := newFakeRepo(), newFakeBlobs()
	svc := newTestService(repo, blobs, Options{}, nil)

	item, err := svc.Create(context.Background(), CreateInput{
		Name: "bin",
		File: &Upload{Filename: "blob.bin", Data: []byte{1, 2, 3}},
	})
	if err != nil {
		t.Fatalf("Create() вернул ошибку: %v", err)
	}
	if blobs.types[*item.Filepath] != "application/octet-stream" {
		t.Errorf("Content-Type = %q, ожидается application/octet-stream", blobs.types[*item.Filepath])
	}
}

func TestCreate_UniqueKeysForRapidCreates(t *testing.T) {
	repo, blobs := newFakeRepo(), newFakeBlobs()
	svc := newTestService(repo, blobs, Options{}, nil)

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		item, err := svc.Create(context.Background(), CreateInput{Name: "x", File: textFile("a.txt", "x")})
		if err != nil {
			t.Fatalf("Create() вернул ошибку: %v", err)
		}
		if !keyPattern.MatchString(*item.Filepath) {
			t.Errorf("filepath = %q", *item.Filepath)
		}
		if seen[*item.Filepath] {
			t.Fatalf("повторный filepath %q", *item.Filepath)
		}
		seen[*item.Filepath] = true
	}
}

func TestCreate_NoFile(t *testing.T) {
	repo, blobs := newFakeRepo(), newFakeBlobs()
	svc := newTestService(repo, blobs, Options{}, nil)

	_, err := svc.Create(context.Background(), CreateInput{Name: "doc"})
	if !errors.Is(err, ErrNoFile) {
		t.Fatalf("ожидалась ErrNoFile, получено %v", err)
	}
	if repo.total() != 0 || blobs.total() != 0 {
		t.Errorf("удалённые вызовы при отсутствии файла: repo=%d blobs=%d", repo.total(), blobs.total())
	}
}

func TestCreate_NoName(t *testing.T) {
	repo, blobs := newFakeRepo(), newFakeBlobs()
	svc := newTestService(repo, blobs, Options{}, nil)

	_, err := svc.Create(context.Background(), CreateInput{Name: "  ", File: textFile("a.txt", "x")})
	if !errors.Is(err, ErrNameRequired) {
		t.Fatalf("ожидалась ErrNameRequired, получено %v", err)
	}
	if repo.total() != 0 || blobs.total() != 0 {
		t.Error("удалённые вызовы при отсутствии имени")
	}
}

func TestCreate_StripsDirectories(t *testing.T) {
	repo, blobs := newFakeRepo(), newFakeBlobs()
	svc := newTestService(repo, blobs, Options{}, nil)

	item, err := svc.Create(context.Background(), CreateInput{Name: "x", File: textFile(`..\..\dir/a.txt`, "x")})
	if err != nil {
		t.Fatalf("Create() вернул ошибку: %v", err)
	}
	if !keyPattern.MatchString(*item.Filepath) || *item.OriginalName != "a.txt" {
		t.Errorf("filepath=%q originalName=%q", *item.Filepath, *item.OriginalName)
	}
}

func TestCreate_UploadFailure(t *testing.T) {
	repo, blobs := newFakeRepo(), newFakeBlobs()
	blobs.uploadErr = errRemote
	svc := newTestService(repo, blobs, Options{}, nil)

	_, err := svc.Create(context.Background(), CreateInput{Name: "doc", File: textFile("a.txt", "x")})

	var rse *RemoteStoreError
	if !errors.As(err, &rse) || rse.Store != StoreBlob {
		t.Fatalf("ожидалась RemoteStoreError(blob_store), получено %v", err)
	}
	if repo.count("create") != 0 {
		t.Error("запись не должна создаваться при ошибке загрузки")
	}
}

func TestCreate_InsertFailureLeavesOrphan(t *testing.T) {
	repo, blobs := newFakeRepo(), newFakeBlobs()
	repo.createErr = errRemote
	svc := newTestService(repo, blobs, Options{}, nil)

	_, err := svc.Create(context.Background(), CreateInput{Name: "doc", File: textFile("a.txt", "x")})

	var rse *RemoteStoreError
	if !errors.As(err, &rse) || rse.Store != StoreRecord || !errors.Is(err, errRemote) {
		t.Fatalf("ожидалась RemoteStoreError(record_store), получено %v", err)
	}
	if blobs.count("remove") != 0 || len(blobs.objects) != 1 {
		t.Error("без компенсации загруженный файл должен остаться")
	}
}

func TestCreate_InsertFailureCompensated(t *testing.T) {
	repo, blobs := newFakeRepo(), newFakeBlobs()
	repo.createErr = errRemote
	svc := newTestService(repo, blobs, Options{Compensation: true}, nil)

	if _, err := svc.Create(context.Background(), CreateInput{Name: "doc", File: textFile("a.txt", "x")}); err == nil {
		t.Fatal("ожидалась ошибка")
	}
	if len(blobs.objects) != 0 {
		t.Error("с компенсацией загруженный файл должен быть удалён")
	}
}

// orphanWarnings — текущее значение счётчика осиротевших файлов.
func orphanWarnings() float64 {
	return testutil.ToFloat64(integrityWarningsTotal.WithLabelValues(IntegrityOrphanedBlob))
}

func TestCreate_OrphanWarningOnlyWhenBlobRemains(t *testing.T) {
	tests := []struct {
		name      string
		comp      bool
		removeErr error
		want      float64
	}{
		{"без компенсации", false, nil, 1},
		{"компенсация удалила файл", true, nil, 0},
		{"компенсация не удалась", true, errRemote, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, blobs := newFakeRepo(), newFakeBlobs()
			repo.createErr = errRemote
			blobs.removeErr = tt.removeErr
			svc := newTestService(repo, blobs, Options{Compensation: tt.comp}, nil)

			before := orphanWarnings()
			if _, err := svc.Create(context.Background(), CreateInput{Name: "doc", File: textFile("a.txt", "x")}); err == nil {
				t.Fatal("ожидалась ошибка")
			}
			if got := orphanWarnings() - before; got != tt.want {
				t.Errorf("прирост orphaned_blob = %v, ожидается %v", got, tt.want)
			}
		})
	}
}

func TestCreate_ExistingKeyNotOverwritten(t *testing.T) {
	repo, blobs := newFakeRepo(), newFakeBlobs()
	blobs.uploadErr = fmt.Errorf("%w: 1-a.txt", blobstore.ErrBlobExists)
	svc := newTestService(repo, blobs, Options{}, nil)

	_, err := svc.Create(context.Background(), CreateInput{Name: "doc", File: textFile("a.txt", "x")})

	var rse *RemoteStoreError
	if !errors.As(err, &rse) || rse.Store != StoreBlob || !errors.Is(err, blobstore.ErrBlobExists) {
		t.Fatalf("ожидалась RemoteStoreError(blob_store) с ErrBlobExists, получено %v", err)
	}
	if repo.count("create") != 0 {
		t.Error("запись не должна создаваться, если ключ уже занят")
	}
}

// --- list ---

func TestList_InsertionOrder(t *testing.T) {
	repo, blobs := newFakeRepo(), newFakeBlobs()
	svc := newTestService(repo, blobs, Options{}, nil)

	for _, n := range []string{"first", "second", "third"} {
		if _, err := svc.Create(context.Background(), CreateInput{Name: n, File: textFile("a.txt", n)}); err != nil {
			t.Fatal(err)
		}
	}

	items, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List() вернул ошибку: %v", err)
	}
	if len(items) != 3 || items[0].Name != "first" || items[2].Name != "third" {
		t.Errorf("неверный порядок: %v", items)
	}
}

func TestList_Failure(t *testing.T) {
	repo := newFakeRepo()
	repo.listErr = errRemote
	svc := newTestService(repo, newFakeBlobs(), Options{}, nil)

	if _, err := svc.List(context.Background()); !errors.Is(err, errRemote) {
		t.Errorf("ожидалась ошибка Record Store, получено %v", err)
	}
}

// --- getFile ---

func TestGetFile_Success(t *testing.T) {
	repo, blobs := newFakeRepo(), newFakeBlobs()
	svc := newTestService(repo, blobs, Options{}, nil)
	item := seedItem(t, svc, repo, blobs)

	fc, err := svc.GetFile(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("GetFile() вернул ошибку: %v", err)
	}
	if string(fc.Data) != "hello" || fc.Filename != "a.txt" {
		t.Errorf("data=%q filename=%q", fc.Data, fc.Filename)
	}
}

func TestGetFile_UnknownID(t *testing.T) {
	repo, blobs := newFakeRepo(), newFakeBlobs()
	svc := newTestService(repo, blobs, Options{}, nil)

	if _, err := svc.GetFile(context.Background(), uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("ожидалась ErrNotFound, получено %v", err)
	}
	if blobs.total() != 0 {
		t.Error("Blob Store не должен вызываться для неизвестного id")
	}
}

func TestGetFile_NonUUID(t *testing.T) {
	repo, blobs := newFakeRepo(), newFakeBlobs()
	svc := newTestService(repo, blobs, Options{}, nil)

	if _, err := svc.GetFile(context.Background(), "42"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("ожидалась ErrNotFound, получено %v", err)
	}
	if repo.total() != 0 || blobs.total() != 0 {
		t.Error("удалённые вызовы для некорректного id")
	}
}

func TestGetFile_BlobMissing(t *testing.T) {
	repo, blobs := newFakeRepo(), newFakeBlobs()
	svc := newTestService(repo, blobs, Options{}, nil)
	item := seedItem(t, svc, repo, blobs)

	delete(blobs.objects, *item.Filepath)

	_, err := svc.GetFile(context.Background(), item.ID)
	if !errors.Is(err, ErrDownloadFailed) {
		t.Fatalf("ожидалась ErrDownloadFailed, получено %v", err)
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("отсутствие файла не должно выглядеть как отсутствие элемента")
	}
}

func TestGetFile_StoreError(t *testing.T) {
	repo, blobs := newFakeRepo(), newFakeBlobs()
	svc := newTestService(repo, blobs, Options{}, nil)
	item := seedItem(t, svc, repo, blobs)
	blobs.downloadErr = errRemote

	if _, err := svc.GetFile(context.Background(), item.ID); !errors.Is(err, ErrDownloadFailed) {
		t.Fatalf("ожидалась ErrDownloadFailed, получено %v", err)
	}
}

func TestGetFile_NoFilepath(t *testing.T) {
	repo, blobs := newFakeRepo(), newFakeBlobs()
	svc := newTestService(repo, blobs, Options{}, nil)
	id := uuid.NewString()
	repo.put(&model.Item{ID: id, Name: "bare"})

	if _, err := svc.GetFile(context.Background(), id); !errors.Is(err, ErrDownloadFailed) {
		t.Fatalf("ожидалась ErrDownloadFailed, получено %v", err)
	}
	if blobs.total() != 0 {
		t.Error("Blob Store не должен вызываться без filepath")
	}
}

func TestGetFile_UsesCache(t *testing.T) {
	repo, blobs := newFakeRepo(), newFakeBlobs()
	svc := newTestService(repo, blobs, Options{}, NewItemCache(10, time.Minute))
	item := seedItem(t, svc, repo, blobs)

	for i := 0; i < 3; i++ {
		if _, err := svc.GetFile(context.Background(), item.ID); err != nil {
			t.Fatal(err)
		}
	}
	if repo.count("get") != 0 {
		t.Errorf("запись должна браться из кэша, обращений к Record Store: %d", repo.count("get"))
	}
}

// --- update ---

func TestUpdate_MetadataOnly(t *testing.T) {
	repo, blobs := newFakeRepo(), newFakeBlobs()
	svc := newTestService(repo, blobs, Options{}, nil)
	item := seedItem(t, svc, repo, blobs)

	got, err := svc.Update(context.Background(), item.ID, UpdateInput{Description: model.StringPtr("d2")})
	if err != nil {
		t.Fatalf("Update() вернул ошибку: %v", err)
	}

	if got.Name != "doc" {
		t.Errorf("name = %q, ожидается doc", got.Name)
	}
	if *got.Description != "d2" {
		t.Errorf("description = %q, ожидается d2", *got.Description)
	}
	if *got.Filepath != *item.Filepath || *got.URL != *item.URL || *got.OriginalName != *item.OriginalName {
		t.Error("файловые поля не должны меняться без нового файла")
	}
	if blobs.total() != 0 {
		t.Error("Blob Store не должен вызываться без нового файла")
	}
}

func TestUpdate_NameReplaced(t *testing.T) {
	repo, blobs := newFakeRepo(), newFakeBlobs()
	svc := newTestService(repo, blobs, Options{}, nil)
	item := seedItem(t, svc, repo, blobs)

	got, err := svc.Update(context.Background(), item.ID, UpdateInput{Name: model.StringPtr("renamed")})
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "renamed" || *got.Description != "d" {
		t.Errorf("name=%q description=%q", got.Name, *got.Description)
	}
}

func TestUpdate_EmptyValuesKeepExisting(t *testing.T) {
	repo, blobs := newFakeRepo(), newFakeBlobs()
	svc := newTestService(repo, blobs, Options{}, nil)
	item := seedItem(t, svc, repo, blobs)

	got, err := svc.Update(context.Background(), item.ID, UpdateInput{
		Name:        model.StringPtr(""),
		Description: model.StringPtr(""),
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "doc" || *got.Description != "d" {
		t.Errorf("name=%q description=%q", got.Name, *got.Description)
	}
}

func TestUpdate_WithFile(t *testing.T) {
	repo, blobs := newFakeRepo(), newFakeBlobs()
	svc := newTestService(repo, blobs, Options{}, nil)
	item := seedItem(t, svc, repo, blobs)
	oldKey := *item.Filepath

	got, err := svc.Update(context.Background(), item.ID, UpdateInput{File: textFile("b.txt", "new")})
	if err != nil {
		t.Fatalf("Update() вернул ошибку: %v", err)
	}

	if *got.Filepath == oldKey {
		t.Error("filepath должен измениться при замене файла")
	}
	if *got.OriginalName != "b.txt" || *got.URL != blobs.PublicURL(*got.Filepath) {
		t.Errorf("originalName=%q url=%q", *got.OriginalName, *got.URL)
	}
	if got.Name != "doc" {
		t.Errorf("name = %q, ожидается doc", got.Name)
	}
	if blobs.has(oldKey) {
		t.Error("старый файл должен быть удалён")
	}
	if !blobs.has(*got.Filepath) {
		t.Error("новый файл не загружен")
	}
}

func TestUpdate_WithFileOldRemoveFailsProceeds(t *testing.T) {
	repo, blobs := newFakeRepo(), newFakeBlobs()
	svc := newTestService(repo, blobs, Options{}, nil)
	item := seedItem(t, svc, repo, blobs)
	blobs.removeErr = errRemote

	got, err := svc.Update(context.Background(), item.ID, UpdateInput{File: textFile("b.txt", "new")})
	if err != nil {
		t.Fatalf("Update() должен продолжиться после ошибки удаления старого файла: %v", err)
	}
	if *got.Filepath == *item.Filepath {
		t.Error("filepath должен измениться")
	}
}

func TestUpdate_BaselineOrderRemovesOldFirst(t *testing.T) {
	repo, blobs := newFakeRepo(), newFakeBlobs()
	svc := newTestService(repo, blobs, Options{}, nil)
	item := seedItem(t, svc, repo, blobs)
	blobs.uploadErr = errRemote

	if _, err := svc.Update(context.Background(), item.ID, UpdateInput{File: textFile("b.txt", "new")}); err == nil {
		t.Fatal("ожидалась ошибка загрузки")
	}
	if blobs.has(*item.Filepath) {
		t.Error("в исходном порядке старый файл удаляется до загрузки нового")
	}
	if repo.count("update") != 0 {
		t.Error("запись не должна обновляться при ошибке загрузки")
	}
}

func TestUpdate_CompensationKeepsOldOnUploadFailure(t *testing.T) {
	repo, blobs := newFakeRepo(), newFakeBlobs()
	svc := newTestService(repo, blobs, Options{Compensation: true}, nil)
	item := seedItem(t, svc, repo, blobs)
	blobs.uploadErr = errRemote

	if _, err := svc.Update(context.Background(), item.ID, UpdateInput{File: textFile("b.txt", "new")}); err == nil {
		t.Fatal("ожидалась ошибка загрузки")
	}
	if !blobs.has(*item.Filepath) {
		t.Error("с компенсацией старый файл не должен удаляться до обновления записи")
	}
}

func TestUpdate_CompensationRemovesNewOnRecordFailure(t *testing.T) {
	repo, blobs := newFakeRepo(), newFakeBlobs()
	svc := newTestService(repo, blobs, Options{Compensation: true}, nil)
	item := seedItem(t, svc, repo, blobs)
	repo.updateErr = errRemote

	if _, err := svc.Update(context.Background(), item.ID, UpdateInput{File: textFile("b.txt", "new")}); err == nil {
		t.Fatal("ожидалась ошибка обновления записи")
	}
	if !blobs.has(*item.Filepath) {
		t.Error("старый файл должен остаться")
	}
	if len(blobs.objects) != 1 {
		t.Errorf("новый файл должен быть удалён, объектов: %d", len(blobs.objects))
	}
}

func TestUpdate_CompensatedOrphanNotCounted(t *testing.T) {
	repo, blobs := newFakeRepo(), newFakeBlobs()
	svc := newTestService(repo, blobs, Options{Compensation: true}, nil)
	item := seedItem(t, svc, repo, blobs)
	repo.updateErr = errRemote

	before := orphanWarnings()
	if _, err := svc.Update(context.Background(), item.ID, UpdateInput{File: textFile("b.txt", "new")}); err == nil {
		t.Fatal("ожидалась ошибка обновления записи")
	}
	if got := orphanWarnings() - before; got != 0 {
		t.Errorf("прирост orphaned_blob = %v, ожидается 0: файл удалён компенсацией", got)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	repo, blobs := newFakeRepo(), newFakeBlobs()
	svc := newTestService(repo, blobs, Options{}, nil)

	_, err := svc.Update(context.Background(), uuid.NewString(), UpdateInput{File: textFile("b.txt", "x")})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("ожидалась ErrNotFound, получено %v", err)
	}
	if blobs.total() != 0 || repo.count("update") != 0 {
		t.Error("никаких действий для несуществующего элемента")
	}
}

func TestUpdate_FetchFailure(t *testing.T) {
	repo, blobs := newFakeRepo(), newFakeBlobs()
	repo.getErr = errRemote
	svc := newTestService(repo, blobs, Options{}, nil)

	_, err := svc.Update(context.Background(), uuid.NewString(), UpdateInput{})
	if errors.Is(err, ErrNotFound) || !errors.Is(err, errRemote) {
		t.Fatalf("ожидалась ошибка Record Store, получено %v", err)
	}
}

func TestUpdate_InvalidatesCache(t *testing.T) {
	repo, blobs := newFakeRepo(), newFakeBlobs()
	cache := NewItemCache(10, time.Minute)
	svc := newTestService(repo, blobs, Options{}, cache)
	item := seedItem(t, svc, repo, blobs)

	got, err := svc.Update(context.Background(), item.ID, UpdateInput{File: textFile("b.txt", "new")})
	if err != nil {
		t.Fatal(err)
	}
	fc, err := svc.GetFile(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("GetFile() после обновления: %v", err)
	}
	if string(fc.Data) != "new" || fc.Filename != *got.OriginalName {
		t.Errorf("из кэша получена устаревшая запись: data=%q filename=%q", fc.Data, fc.Filename)
	}
}

// --- delete ---

func TestDelete_RemovesBlobAndRecord(t *testing.T) {
	repo, blobs := newFakeRepo(), newFakeBlobs()
	svc := newTestService(repo, blobs, Options{}, nil)
	item := seedItem(t, svc, repo, blobs)

	if err := svc.Delete(context.Background(), item.ID); err != nil {
		t.Fatalf("Delete() вернул ошибку: %v", err)
	}
	if blobs.has(*item.Filepath) {
		t.Error("файл не удалён")
	}
	if _, err := svc.GetFile(context.Background(), item.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("после удаления ожидалась ErrNotFound, получено %v", err)
	}
}

func TestDelete_NoFilepathSkipsBlobStore(t *testing.T) {
	repo, blobs := newFakeRepo(), newFakeBlobs()
	svc := newTestService(repo, blobs, Options{}, nil)
	id := uuid.NewString()
	repo.put(&model.Item{ID: id, Name: "bare"})

	if err := svc.Delete(context.Background(), id); err != nil {
		t.Fatalf("Delete() вернул ошибку: %v", err)
	}
	if blobs.count("remove") != 0 {
		t.Error("Blob Store remove не должен вызываться без filepath")
	}
	if repo.count("delete") != 1 {
		t.Error("запись должна быть удалена")
	}
}

func TestDelete_BlobFailureKeepsRecord(t *testing.T) {
	repo, blobs := newFakeRepo(), newFakeBlobs()
	svc := newTestService(repo, blobs, Options{}, nil)
	item := seedItem(t, svc, repo, blobs)
	blobs.removeErr = errRemote

	err := svc.Delete(context.Background(), item.ID)
	var rse *RemoteStoreError
	if !errors.As(err, &rse) || rse.Store != StoreBlob {
		t.Fatalf("ожидалась RemoteStoreError(blob_store), получено %v", err)
	}
	if repo.count("delete") != 0 {
		t.Error("запись не должна удаляться при ошибке удаления файла")
	}
}

func TestDelete_NotFound(t *testing.T) {
	repo, blobs := newFakeRepo(), newFakeBlobs()
	svc := newTestService(repo, blobs, Options{}, nil)

	if err := svc.Delete(context.Background(), uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("ожидалась ErrNotFound, получено %v", err)
	}
	if blobs.total() != 0 {
		t.Error("Blob Store не должен вызываться")
	}
}

func TestDelete_InvalidatesCache(t *testing.T) {
	repo, blobs := newFakeRepo(), newFakeBlobs()
	cache := NewItemCache(10, time.Minute)
	svc := newTestService(repo, blobs, Options{}, cache)
	item := seedItem(t, svc, repo, blobs)

	if err := svc.Delete(context.Background(), item.ID); err != nil {
		t.Fatal(err)
	}
	if _, ok := cache.Get(item.ID); ok {
		t.Error("запись должна быть удалена из кэша")
	}
}

func TestCanonicalID(t *testing.T) {
	id := uuid.New()
	got, ok := canonicalID("{" + id.String() + "}")
	if !ok || got != id.String() {
		t.Errorf("canonicalID = %q, %v", got, ok)
	}
	if _, ok := canonicalID("abc"); ok {
		t.Error("abc не является UUID")
	}
}
