package lease

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultTTL = 10 * time.Second

// ErrNotHeld возвращается при освобождении аренды, которая уже истекла или занята другим владельцем
var ErrNotHeld = errors.New("lease: not held by this owner")

// releaseScript удаляет ключ, только если значение совпадает с токеном владельца
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Lease короткая аренда на Redis (SET NX PX).
// Позволяет одному экземпляру сервиса выполнять периодическую задачу за тик.
type Lease struct {
	client redis.Cmdable
	key    string
	ttl    time.Duration
}

// Token подтверждение владения арендой
type Token string

// New создает аренду с ключом key и временем жизни ttl
func New(client redis.Cmdable, key string, ttl time.Duration) *Lease {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Lease{client: client, key: key, ttl: ttl}
}

// TryAcquire пытается взять аренду. Возвращает false, если она занята.
func (l *Lease) TryAcquire(ctx context.Context) (Token, bool, error) {
	token := Token(uuid.NewString())
	ok, err := l.client.SetNX(ctx, l.key, string(token), l.ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("redis setnx %s: %w", l.key, err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Release освобождает аренду, если она всё ещё принадлежит token
func (l *Lease) Release(ctx context.Context, token Token) error {
	deleted, err := releaseScript.Run(ctx, l.client, []string{l.key}, string(token)).Int()
	if err != nil {
		return fmt.Errorf("redis release %s: %w", l.key, err)
	}
	if deleted == 0 {
		return ErrNotHeld
	}
	return nil
}
