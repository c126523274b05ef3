package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Nappiz/tcmudah-storefront/models"
)

// CartRepository persists visitor carts between requests and restarts.
// Load returns nil, nil when nothing is stored for the session.
type CartRepository interface {
	Load(ctx context.Context, sessionID string) (*models.StoredCart, error)
	Save(ctx context.Context, sessionID string, lines []models.CartLine) error
	Delete(ctx context.Context, sessionID string) error
}

type RedisCartRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCartRepository(client *redis.Client, ttl time.Duration) *RedisCartRepository {
	return &RedisCartRepository{client: client, ttl: ttl}
}

func cartKey(sessionID string) string {
	return fmt.Sprintf("storefront:cart:%s", sessionID)
}

func (r *RedisCartRepository) Load(ctx context.Context, sessionID string) (*models.StoredCart, error) {
	data, err := r.client.Get(ctx, cartKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get cart: %w", err)
	}

	var cart models.StoredCart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("decode cart %s: %w", sessionID, err)
	}
	return &cart, nil
}

// Save stores the lines and refreshes the TTL. An empty cart deletes the key.
func (r *RedisCartRepository) Save(ctx context.Context, sessionID string, lines []models.CartLine) error {
	if len(lines) == 0 {
		return r.Delete(ctx, sessionID)
	}
	data, err := json.Marshal(models.StoredCart{
		SessionID: sessionID,
		Lines:     lines,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, cartKey(sessionID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set cart: %w", err)
	}
	return nil
}

func (r *RedisCartRepository) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, cartKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis del cart: %w", err)
	}
	return nil
}

// MemoryCartRepository keeps carts in process memory. Used when REDIS_URL is unset.
type MemoryCartRepository struct {
	mu    sync.RWMutex
	carts map[string]models.StoredCart
}

func NewMemoryCartRepository() *MemoryCartRepository {
	return &MemoryCartRepository{carts: make(map[string]models.StoredCart)}
}

func (r *MemoryCartRepository) Load(_ context.Context, sessionID string) (*models.StoredCart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cart, ok := r.carts[sessionID]
	if !ok {
		return nil, nil
	}
	cart.Lines = append([]models.CartLine(nil), cart.Lines...)
	return &cart, nil
}

func (r *MemoryCartRepository) Save(_ context.Context, sessionID string, lines []models.CartLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(lines) == 0 {
		delete(r.carts, sessionID)
		return nil
	}
	r.carts[sessionID] = models.StoredCart{
		SessionID: sessionID,
		Lines:     append([]models.CartLine(nil), lines...),
		UpdatedAt: time.Now().UTC(),
	}
	return nil
}

func (r *MemoryCartRepository) Delete(_ context.Context, sessionID string) error {
	r.mu.Lock()
	delete(r.carts, sessionID)
	r.mu.Unlock()
	return nil
}
