// Package locking сериализует read-modify-write над остатком одного товара.
package locking

import (
	"context"
	"fmt"
	"sync"
)

// Locker выдаёт эксклюзивную блокировку по ключу.
// Возвращаемая функция освобождает блокировку и безопасна для повторного вызова.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

// ProductKey формирует ключ блокировки для товара.
func ProductKey(productID int64) string {
	return fmt.Sprintf("storeops:lock:product:%d", productID)
}

// Local: блокировка в пределах процесса: по одному мьютексу на ключ.
type Local struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

// NewLocal создаёт процессную блокировку.
func NewLocal() *Local {
	return &Local{locks: make(map[string]*keyLock)}
}

// Lock ждёт освобождения ключа или отмены контекста.
func (l *Local) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	entry, ok := l.locks[key]
	if !ok {
		entry = &keyLock{ch: make(chan struct{}, 1)}
		l.locks[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	select {
	case entry.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, entry, false)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.release(key, entry, true) })
	}, nil
}

func (l *Local) release(key string, entry *keyLock, held bool) {
	if held {
		<-entry.ch
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, key)
	}
}

// Noop ничего не блокирует: поведение last-write-wins.
type Noop struct{}

// Lock сразу возвращает пустую функцию освобождения.
func (Noop) Lock(context.Context, string) (func(), error) {
	return func() {}, nil
}

var (
	_ Locker = (*Local)(nil)
	_ Locker = Noop{}
)
