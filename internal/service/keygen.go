package service

import (
	"path"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// KeyGenerator формирует ключи Blob Store вида <unix-миллисекунды>-<имя файла>.
// Метка времени строго возрастает в пределах процесса: если часы не сдвинулись,
// используется предыдущее значение + 1.
type KeyGenerator struct {
	last atomic.Int64
	now  func() time.Time
}

// NewKeyGenerator создаёт генератор ключей на системных часах.
func NewKeyGenerator() *KeyGenerator {
	return &KeyGenerator{now: time.Now}
}

// Next возвращает новый уникальный ключ для файла originalName.
func (g *KeyGenerator) Next(originalName string) string {
	return strconv.FormatInt(g.nextStamp(), 10) + "-" + BaseName(originalName)
}

func (g *KeyGenerator) nextStamp() int64 {
	for {
		prev := g.last.Load()
		ts := g.now().UnixMilli()
		if ts <= prev {
			ts = prev + 1
		}
		if g.last.CompareAndSwap(prev, ts) {
			return ts
		}
	}
}

// BaseName отбрасывает директории из имени файла, присланного клиентом.
func BaseName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	switch name {
	case "", ".", "..", "/":
		return "file"
	}
	return name
}
