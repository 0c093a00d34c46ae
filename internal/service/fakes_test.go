package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Rexchan06/fms-web-app/internal/blobstore"
	"github.com/Rexchan06/fms-web-app/internal/domain/model"
	"github.com/Rexchan06/fms-web-app/internal/repository"
)

// fakeRepo — in-memory Record Store со счётчиками вызовов и внедрением ошибок.
type fakeRepo struct {
	mu    sync.Mutex
	items map[string]*model.Item
	order []string
	calls map[string]int

	listErr, getErr, createErr, updateErr, deleteErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{items: map[string]*model.Item{}, calls: map[string]int{}}
}

func (r *fakeRepo) total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		n += c
	}
	return n
}

func (r *fakeRepo) count(op string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[op]
}

func (r *fakeRepo) List(context.Context) ([]*model.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["list"]++
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]*model.Item, 0, len(r.order))
	for _, id := range r.order {
		cp := *r.items[id]
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeRepo) GetByID(_ context.Context, id string) (*model.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["get"]++
	if r.getErr != nil {
		return nil, r.getErr
	}
	it, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *it
	return &cp, nil
}

func (r *fakeRepo) GetFilepath(_ context.Context, id string) (*string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["get_filepath"]++
	if r.getErr != nil {
		return nil, r.getErr
	}
	it, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return it.Filepath, nil
}

func (r *fakeRepo) Create(_ context.Context, n model.NewItem) (*model.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["create"]++
	if r.createErr != nil {
		return nil, r.createErr
	}
	it := &model.Item{
		ID:           uuid.NewString(),
		Name:         n.Name,
		Description:  n.Description,
		Filepath:     model.StringPtr(n.Filepath),
		OriginalName: model.StringPtr(n.OriginalName),
		URL:          model.StringPtr(n.URL),
		CreatedAt:    time.Now(),
	}
	r.items[it.ID] = it
	r.order = append(r.order, it.ID)
	cp := *it
	return &cp, nil
}

func (r *fakeRepo) Update(_ context.Context, id string, upd model.ItemUpdate) (*model.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["update"]++
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	it, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if upd.Name != nil {
		it.Name = *upd.Name
	}
	if upd.Description != nil {
		it.Description = upd.Description
	}
	if upd.File != nil {
		it.Filepath = model.StringPtr(upd.File.Filepath)
		it.OriginalName = model.StringPtr(upd.File.OriginalName)
		it.URL = model.StringPtr(upd.File.URL)
	}
	cp := *it
	return &cp, nil
}

func (r *fakeRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["delete"]++
	if r.deleteErr != nil {
		return r.deleteErr
	}
	if _, ok := r.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.items, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// put добавляет запись напрямую, минуя счётчики.
func (r *fakeRepo) put(it *model.Item) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[it.ID] = it
	r.order = append(r.order, it.ID)
}

// fakeBlobs — in-memory Blob Store со счётчиками вызовов и внедрением ошибок.
type fakeBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	calls   map[string]int
	removed []string

	uploadErr, downloadErr, removeErr error
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{objects: map[string][]byte{}, types: map[string]string{}, calls: map[string]int{}}
}

func (b *fakeBlobs) total() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.calls {
		n += c
	}
	return n
}

func (b *fakeBlobs) count(op string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[op]
}

func (b *fakeBlobs) has(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.objects[key]
	return ok
}

func (b *fakeBlobs) Upload(_ context.Context, key string, data []byte, ct string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls["upload"]++
	if b.uploadErr != nil {
		return b.uploadErr
	}
	b.objects[key] = append([]byte(nil), data...)
	b.types[key] = ct
	return nil
}

func (b *fakeBlobs) Download(_ context.Context, key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls["download"]++
	if b.downloadErr != nil {
		return nil, b.downloadErr
	}
	data, ok := b.objects[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", blobstore.ErrBlobNotFound, key)
	}
	return data, nil
}

func (b *fakeBlobs) Remove(_ context.Context, keys ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls["remove"]++
	if b.removeErr != nil {
		return b.removeErr
	}
	for _, k := range keys {
		delete(b.objects, k)
		b.removed = append(b.removed, k)
	}
	return nil
}

func (b *fakeBlobs) PublicURL(key string) string {
	return "https://storage.test/uploads/" + key
}

func (b *fakeBlobs) Ping(context.Context) error { return nil }

var errRemote = errors.New("remote failure")

// newTestService создаёт ItemService с fake-хранилищами.
func newTestService(repo *fakeRepo, blobs *fakeBlobs, opts Options, cache *ItemCache) *ItemService {
	return NewItemService(repo, blobs, NewKeyGenerator(), cache, opts, slog.Default())
}
