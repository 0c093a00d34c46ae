package service

import (
	"testing"
	"time"

	"github.com/Rexchan06/fms-web-app/internal/domain/model"
)

func TestItemCache_SetGetDelete(t *testing.T) {
	c := NewItemCache(10, time.Minute)

	item := &model.Item{ID: "id-1", Name: "doc"}
	c.Set(item)

	got, ok := c.Get("id-1")
	if !ok || got.Name != "doc" {
		t.Fatalf("Get = %v, %v", got, ok)
	}

	// Кэш хранит копию: изменения снаружи не влияют на запись
	item.Name = "changed"
	got.Name = "changed too"
	again, _ := c.Get("id-1")
	if again.Name != "doc" {
		t.Errorf("Name = %q, ожидается doc", again.Name)
	}

	c.Delete("id-1")
	if _, ok := c.Get("id-1"); ok {
		t.Error("запись должна быть удалена")
	}
}

func TestItemCache_TTL(t *testing.T) {
	c := NewItemCache(10, 50*time.Millisecond)
	c.Set(&model.Item{ID: "id-1"})

	time.Sleep(120 * time.Millisecond)
	if _, ok := c.Get("id-1"); ok {
		t.Error("запись должна истечь по TTL")
	}
}

func TestItemCache_Eviction(t *testing.T) {
	c := NewItemCache(2, time.Minute)
	c.Set(&model.Item{ID: "a"})
	c.Set(&model.Item{ID: "b"})
	c.Set(&model.Item{ID: "c"})

	if c.Len() != 2 {
		t.Errorf("Len = %d, ожидается 2", c.Len())
	}
	if _, ok := c.Get("a"); ok {
		t.Error("самая старая запись должна быть вытеснена")
	}
}

func TestItemCache_Disabled(t *testing.T) {
	c := NewItemCache(0, time.Minute)
	if c != nil {
		t.Fatal("при размере 0 кэш должен быть отключён")
	}
	c.Set(&model.Item{ID: "a"})
	if _, ok := c.Get("a"); ok {
		t.Error("отключённый кэш не хранит записи")
	}
	c.Delete("a")
	if c.Len() != 0 {
		t.Error("Len отключённого кэша должен быть 0")
	}
}
