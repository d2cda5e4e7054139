package application

import (
	"context"
	"sync"
)

// ListingLocks hands out one exclusivity token per listing. Work on
// different listings never contends. A nil registry does not serialize.
type ListingLocks struct {
	mu    sync.Mutex
	locks map[string]*listingLock
}

type listingLock struct {
	token chan struct{}
	refs  int
}

func NewListingLocks() *ListingLocks {
	return &ListingLocks{locks: make(map[string]*listingLock)}
}

// Acquire waits for the listing token until ctx is done.
func (l *ListingLocks) Acquire(ctx context.Context, listingID string) (func(), error) {
	if l == nil {
		return func() {}, nil
	}
	entry := l.ref(listingID)
	select {
	case entry.token <- struct{}{}:
		return l.releaser(listingID, entry), nil
	case <-ctx.Done():
		l.unref(listingID, entry)
		return nil, ctx.Err()
	}
}

// TryAcquire takes the listing token only if it is free right now.
func (l *ListingLocks) TryAcquire(listingID string) (func(), bool) {
	if l == nil {
		return func() {}, true
	}
	entry := l.ref(listingID)
	select {
	case entry.token <- struct{}{}:
		return l.releaser(listingID, entry), true
	default:
		l.unref(listingID, entry)
		return nil, false
	}
}

func (l *ListingLocks) ref(listingID string) *listingLock {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.locks == nil {
		l.locks = make(map[string]*listingLock)
	}
	entry, ok := l.locks[listingID]
	if !ok {
		entry = &listingLock{token: make(chan struct{}, 1)}
		l.locks[listingID] = entry
	}
	entry.refs++
	return entry
}

func (l *ListingLocks) unref(listingID string, entry *listingLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, listingID)
	}
}

func (l *ListingLocks) releaser(listingID string, entry *listingLock) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			<-entry.token
			l.unref(listingID, entry)
		})
	}
}
