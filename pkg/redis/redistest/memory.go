// Package redistest provides an in-memory stand-in for the go-redis commands
// used by the checkout service.
package redistest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Memory implements the subset of redis.Cmdable used by pkg/redis.
type Memory struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration

	// FailWith, when set, is returned by every command.
	FailWith error
}

func NewMemory() *Memory {
	return &Memory{
		data: make(map[string]string),
		ttls: make(map[string]time.Duration),
	}
}

// TTL returns the last expiration recorded for key.
func (m *Memory) TTL(key string) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ttls[key]
}

// Keys returns the number of stored keys.
func (m *Memory) Keys() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

func (m *Memory) Ping(context.Context) *redis.StatusCmd {
	if m.FailWith != nil {
		return redis.NewStatusResult("", m.FailWith)
	}
	return redis.NewStatusResult("PONG", nil)
}

func (m *Memory) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	if m.FailWith != nil {
		return redis.NewStatusResult("", m.FailWith)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = stringify(value)
	m.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (m *Memory) Get(ctx context.Context, key string) *redis.StringCmd {
	if m.FailWith != nil {
		return redis.NewStringResult("", m.FailWith)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *Memory) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if m.FailWith != nil {
		return redis.NewBoolResult(false, m.FailWith)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = stringify(value)
	m.ttls[key] = expiration
	return redis.NewBoolResult(true, nil)
}

func (m *Memory) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	if m.FailWith != nil {
		return redis.NewBoolResult(false, m.FailWith)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.data[key]; !exists {
		return redis.NewBoolResult(false, nil)
	}
	m.ttls[key] = expiration
	return redis.NewBoolResult(true, nil)
}

func (m *Memory) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	if m.FailWith != nil {
		return redis.NewIntResult(0, m.FailWith)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed int64
	for _, key := range keys {
		if _, ok := m.data[key]; ok {
			removed++
		}
		delete(m.data, key)
		delete(m.ttls, key)
	}
	return redis.NewIntResult(removed, nil)
}

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}
