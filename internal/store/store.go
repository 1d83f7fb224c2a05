package store

import "context"

// Store is the keyed-document and sorted-set storage contract the topic
// engine runs against. Each method maps to one atomic primitive of the
// backing engine; composite mutations in the engine are sequences of these
// calls and are not transactional.
type Store interface {
	// Keyed objects (field maps)
	GetObject(ctx context.Context, key string) (map[string]string, error)
	GetObjectFields(ctx context.Context, key string, fields []string) (map[string]string, error)
	SetObject(ctx context.Context, key string, fields map[string]interface{}) error
	SetObjectField(ctx context.Context, key, field string, value interface{}) error
	DeleteObjectFields(ctx context.Context, key string, fields ...string) error
	IncrObjectField(ctx context.Context, key, field string, by int64) (int64, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, keys ...string) error

	// Sorted sets
	SortedSetAdd(ctx context.Context, key string, score float64, member string) error
	SortedSetAddMulti(ctx context.Context, keys []string, scores []float64, member string) error
	SortedSetRemove(ctx context.Context, keys []string, member string) error
	SortedSetScore(ctx context.Context, key, member string) (float64, bool, error)
	SortedSetIncrBy(ctx context.Context, key string, by float64, member string) (float64, error)
	SortedSetRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	SortedSetCard(ctx context.Context, key string) (int64, error)
	SortedSetCount(ctx context.Context, key, min, max string) (int64, error)

	// Plain sets
	SetAdd(ctx context.Context, key string, members ...string) error
	SetRemove(ctx context.Context, key string, members ...string) error
	SetMembers(ctx context.Context, key string) ([]string, error)
}
