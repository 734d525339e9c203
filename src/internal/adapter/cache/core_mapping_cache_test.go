package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/api-sage/payment-reversal-engine/src/internal/domain"
	"github.com/redis/go-redis/v9"
)

type mappingProviderStub struct {
	calls int
	byFn  func(entityID int64) (*domain.CoreMapping, error)
}

func (s *mappingProviderStub) ByEntityID(_ context.Context, entityID int64) (*domain.CoreMapping, error) {
	s.calls++
	return s.byFn(entityID)
}

func unreachableClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestCoreMappingCache_FallsBackWhenRedisIsDown(t *testing.T) {
	provider := &mappingProviderStub{byFn: func(entityID int64) (*domain.CoreMapping, error) {
		return &domain.CoreMapping{EntityID: entityID, CoreID: "SYMITAR"}, nil
	}}
	c := NewCoreMappingCache(unreachableClient(), provider, time.Minute)

	mapping, err := c.ByEntityID(context.Background(), 12)
	if err != nil {
		t.Fatalf("expected fallback to provider, got %v", err)
	}
	if !mapping.CoreEnabled() || mapping.EntityID != 12 {
		t.Fatalf("unexpected mapping %+v", mapping)
	}
	if provider.calls != 1 {
		t.Fatalf("expected one provider call, got %d", provider.calls)
	}
}

func TestCoreMappingCache_PropagatesProviderError(t *testing.T) {
	boom := errors.New("boom")
	provider := &mappingProviderStub{byFn: func(int64) (*domain.CoreMapping, error) { return nil, boom }}
	c := NewCoreMappingCache(unreachableClient(), provider, time.Minute)

	if _, err := c.ByEntityID(context.Background(), 3); !errors.Is(err, boom) {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestMappingKey(t *testing.T) {
	if got := mappingKey(42); got != "core-mapping:v1:42" {
		t.Fatalf("unexpected key %s", got)
	}
}
