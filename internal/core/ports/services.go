package ports

import (
	"context"

	"github.com/samirrijal/locallens/internal/core/domain"
)

// Assistant is the language model behind POI enrichment, search answers and area digests.
type Assistant interface {
	Enhance(ctx context.Context, poi domain.PointOfInterest) (string, error)
	Answer(ctx context.Context, query string, contexts []string) (string, error)
	Summarize(ctx context.Context, area domain.AreaRequest, pois []domain.PointOfInterest) (string, error)
}

// AreaPublisher hands forwarded areas to the message broker.
type AreaPublisher interface {
	PublishArea(ctx context.Context, area domain.AreaRequest) error
}

// DigestPublisher broadcasts finished area digests.
type DigestPublisher interface {
	PublishDigest(ctx context.Context, digest domain.AreaDigest) error
}

// AreaSubscriber delivers forwarded areas to a handler.
type AreaSubscriber interface {
	SubscribeAreas(ctx context.Context, handler func(ctx context.Context, area domain.AreaRequest) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
	// DeletePrefix drops every key starting with prefix.
	DeletePrefix(ctx context.Context, prefix string) error
}
