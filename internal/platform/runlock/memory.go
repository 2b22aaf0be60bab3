package runlock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryLocker struct {
	mu   sync.Mutex
	now  func() time.Time
	held map[string]memoryClaim
}

type memoryClaim struct {
	token   uuid.UUID
	expires time.Time
}

func NewMemory() Locker {
	return &memoryLocker{now: time.Now, held: make(map[string]memoryClaim)}
}

func (l *memoryLocker) TryAcquire(_ context.Context, key string, ttl time.Duration) (Release, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if c, ok := l.held[key]; ok && now.Before(c.expires) {
		return nil, ErrHeld
	}
	token := uuid.New()
	l.held[key] = memoryClaim{token: token, expires: now.Add(ttl)}

	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if c, ok := l.held[key]; ok && c.token == token {
			delete(l.held, key)
		}
		return nil
	}, nil
}
