package cache

import (
	"context"
	"time"

	"bisnisflow/internal/domain"
)

type AdviceCache interface {
	Get(ctx context.Context, key string) (*domain.AdviceResponse, bool, error)
	Set(ctx context.Context, key string, value *domain.AdviceResponse, ttl time.Duration) error
}

type NoopAdviceCache struct{}

func (NoopAdviceCache) Get(_ context.Context, _ string) (*domain.AdviceResponse, bool, error) {
	return nil, false, nil
}

func (NoopAdviceCache) Set(_ context.Context, _ string, _ *domain.AdviceResponse, _ time.Duration) error {
	return nil
}
