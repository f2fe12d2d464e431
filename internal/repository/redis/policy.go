package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Cesar4422/proyecto-mau/internal/domain"
	"github.com/Cesar4422/proyecto-mau/internal/repository"
)

const activePolicyKey = "warehouse:policy:active"

// PolicyRepository caches the active policy in Redis in front of another
// repository.PolicyRepository. Cache failures fall through to the backing
// store; they never fail a read.
type PolicyRepository struct {
	next   repository.PolicyRepository
	client redis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

// NewPolicyRepository creates a Redis-cached policy repository.
func NewPolicyRepository(next repository.PolicyRepository, client redis.Cmdable, ttl time.Duration, logger *slog.Logger) *PolicyRepository {
	return &PolicyRepository{next: next, client: client, ttl: ttl, logger: logger}
}

// List is not cached.
func (r *PolicyRepository) List(ctx context.Context) ([]domain.AllocationPolicy, error) {
	return r.next.List(ctx)
}

// GetActive serves the active policy from Redis when present.
func (r *PolicyRepository) GetActive(ctx context.Context) (*domain.AllocationPolicy, error) {
	data, err := r.client.Get(ctx, activePolicyKey).Bytes()
	switch {
	case err == nil:
		var p domain.AllocationPolicy
		if jerr := json.Unmarshal(data, &p); jerr == nil {
			return &p, nil
		}
		r.logger.WarnContext(ctx, "discarding unreadable cached policy")
	case !errors.Is(err, redis.Nil):
		r.logger.WarnContext(ctx, "policy cache read failed",
			slog.String("error", err.Error()),
		)
	}

	p, err := r.next.GetActive(ctx)
	if err != nil {
		return nil, err
	}
	r.store(ctx, p)
	return p, nil
}

// SetActive writes through to the backing store and refreshes the cache.
func (r *PolicyRepository) SetActive(ctx context.Context, name, actorID string) (*domain.AllocationPolicy, error) {
	if err := r.client.Del(ctx, activePolicyKey).Err(); err != nil {
		r.logger.WarnContext(ctx, "policy cache invalidation failed",
			slog.String("error", err.Error()),
		)
	}

	p, err := r.next.SetActive(ctx, name, actorID)
	if err != nil {
		return nil, err
	}
	r.store(ctx, p)
	return p, nil
}

func (r *PolicyRepository) store(ctx context.Context, p *domain.AllocationPolicy) {
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, activePolicyKey, data, r.ttl).Err(); err != nil {
		r.logger.WarnContext(ctx, "policy cache write failed",
			slog.String("error", fmt.Sprintf("redis set: %v", err)),
		)
	}
}
