package common

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/andrescamacho/microgreens-go/internal/domain/lifecycle"
)

// BatchLocks serializes transitions that touch the same batch.
// Each key is a one-slot channel so acquisition can give up on context expiry.
// Keys are always taken in sorted order, so overlapping calls cannot deadlock.
// An entry lives only while some caller holds or awaits its key.
type BatchLocks struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	slot chan struct{}
	refs int
}

// NewBatchLocks creates an empty lock table
func NewBatchLocks() *BatchLocks {
	return &BatchLocks{entries: make(map[string]*lockEntry)}
}

// BatchKey is the lock key of a batch
func BatchKey(batchID string) string {
	return "batch:" + batchID
}

// CropKey is the lock key of a crop without a batch
func CropKey(cropID string) string {
	return "crop:" + cropID
}

// Acquire takes every key or none. It waits at most timeout (or until ctx is done)
// and returns *lifecycle.ErrLockTimeout when it gives up.
func (l *BatchLocks) Acquire(ctx context.Context, timeout time.Duration, keys ...string) (release func(), err error) {
	keys = uniqueSorted(keys)

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	held := make([]*lockEntry, 0, len(keys))
	unlock := func() {
		for i := len(held) - 1; i >= 0; i-- {
			<-held[i].slot
			l.unref(keys[i], held[i])
		}
	}

	for _, key := range keys {
		e := l.ref(key)
		select {
		case e.slot <- struct{}{}:
			held = append(held, e)
		case <-ctx.Done():
			l.unref(key, e)
			unlock()
			return nil, &lifecycle.ErrLockTimeout{Keys: keys}
		}
	}

	var once sync.Once
	return func() { once.Do(unlock) }, nil
}

// Len reports how many keys are currently held or awaited
func (l *BatchLocks) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *BatchLocks) ref(key string) *lockEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[key]
	if !ok {
		e = &lockEntry{slot: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	return e
}

func (l *BatchLocks) unref(key string, e *lockEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}

func uniqueSorted(keys []string) []string {
	seen := make(map[string]bool, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
