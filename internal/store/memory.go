package store

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// MemoryStore is an in-process Store used by tests and local development.
// It mirrors the semantics of the Redis implementation closely enough for
// the engine's key access patterns.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string]map[string]string
	zsets   map[string]map[string]float64
	sets    map[string]map[string]struct{}
}

// NewMemory creates an empty in-memory store
func NewMemory() *MemoryStore {
	return &MemoryStore{
		objects: make(map[string]map[string]string),
		zsets:   make(map[string]map[string]float64),
		sets:    make(map[string]map[string]struct{}),
	}
}

func toString(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		if v {
			return "1"
		}
		return "0"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// GetObject retrieves all fields of a keyed object
func (s *MemoryStore) GetObject(ctx context.Context, key string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make(map[string]string, len(s.objects[key]))
	for field, value := range s.objects[key] {
		result[field] = value
	}
	return result, nil
}

// GetObjectFields retrieves the named fields of a keyed object
func (s *MemoryStore) GetObjectFields(ctx context.Context, key string, fields []string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make(map[string]string, len(fields))
	for _, field := range fields {
		if value, ok := s.objects[key][field]; ok {
			result[field] = value
		}
	}
	return result, nil
}

// SetObject sets multiple fields of a keyed object
func (s *MemoryStore) SetObject(ctx context.Context, key string, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj := s.objects[key]
	if obj == nil {
		obj = make(map[string]string)
		s.objects[key] = obj
	}
	for field, value := range fields {
		obj[field] = toString(value)
	}
	return nil
}

// SetObjectField sets a single field of a keyed object
func (s *MemoryStore) SetObjectField(ctx context.Context, key, field string, value interface{}) error {
	return s.SetObject(ctx, key, map[string]interface{}{field: value})
}

// DeleteObjectFields removes fields from a keyed object
func (s *MemoryStore) DeleteObjectFields(ctx context.Context, key string, fields ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, field := range fields {
		delete(s.objects[key], field)
	}
	return nil
}

// IncrObjectField atomically increments a numeric field
func (s *MemoryStore) IncrObjectField(ctx context.Context, key, field string, by int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj := s.objects[key]
	if obj == nil {
		obj = make(map[string]string)
		s.objects[key] = obj
	}
	current, _ := strconv.ParseInt(obj[field], 10, 64)
	current += by
	obj[field] = strconv.FormatInt(current, 10)
	return current, nil
}

// Exists checks whether a key exists
func (s *MemoryStore) Exists(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if obj, ok := s.objects[key]; ok && len(obj) > 0 {
		return true, nil
	}
	if zs, ok := s.zsets[key]; ok && len(zs) > 0 {
		return true, nil
	}
	if set, ok := s.sets[key]; ok && len(set) > 0 {
		return true, nil
	}
	return false, nil
}

// Delete removes keys
func (s *MemoryStore) Delete(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.objects, key)
		delete(s.zsets, key)
		delete(s.sets, key)
	}
	return nil
}

// SortedSetAdd adds a member with a score to a sorted set
func (s *MemoryStore) SortedSetAdd(ctx context.Context, key string, score float64, member string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	zs := s.zsets[key]
	if zs == nil {
		zs = make(map[string]float64)
		s.zsets[key] = zs
	}
	zs[member] = score
	return nil
}

// SortedSetAddMulti adds one member to several sorted sets
func (s *MemoryStore) SortedSetAddMulti(ctx context.Context, keys []string, scores []float64, member string) error {
	if len(keys) != len(scores) {
		return fmt.Errorf("keys/scores length mismatch: %d != %d", len(keys), len(scores))
	}
	for i, key := range keys {
		if err := s.SortedSetAdd(ctx, key, scores[i], member); err != nil {
			return err
		}
	}
	return nil
}

// SortedSetRemove removes one member from several sorted sets
func (s *MemoryStore) SortedSetRemove(ctx context.Context, keys []string, member string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.zsets[key], member)
	}
	return nil
}

// SortedSetScore returns a member's score and whether the member exists
func (s *MemoryStore) SortedSetScore(ctx context.Context, key, member string) (float64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	score, ok := s.zsets[key][member]
	return score, ok, nil
}

// SortedSetIncrBy atomically increments a member's score
func (s *MemoryStore) SortedSetIncrBy(ctx context.Context, key string, by float64, member string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	zs := s.zsets[key]
	if zs == nil {
		zs = make(map[string]float64)
		s.zsets[key] = zs
	}
	zs[member] += by
	return zs[member], nil
}

// SortedSetRange returns members in ascending score order
func (s *MemoryStore) SortedSetRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	type entry struct {
		member string
		score  float64
	}
	entries := make([]entry, 0, len(s.zsets[key]))
	for member, score := range s.zsets[key] {
		entries = append(entries, entry{member, score})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].score != entries[j].score {
			return entries[i].score < entries[j].score
		}
		return entries[i].member < entries[j].member
	})

	n := int64(len(entries))
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || start >= n {
		return nil, nil
	}

	members := make([]string, 0, stop-start+1)
	for _, e := range entries[start : stop+1] {
		members = append(members, e.member)
	}
	return members, nil
}

// SortedSetCard returns the member count of a sorted set
func (s *MemoryStore) SortedSetCard(ctx context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.zsets[key])), nil
}

// SortedSetCount counts members with scores in [min, max]. Bounds follow
// Redis syntax: numbers, "-inf" and "+inf".
func (s *MemoryStore) SortedSetCount(ctx context.Context, key, min, max string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	parse := func(bound string, def float64) float64 {
		switch strings.ToLower(bound) {
		case "-inf":
			return -1e308
		case "+inf", "inf":
			return 1e308
		case "":
			return def
		}
		f, err := strconv.ParseFloat(bound, 64)
		if err != nil {
			return def
		}
		return f
	}

	lo := parse(min, -1e308)
	hi := parse(max, 1e308)

	var count int64
	for _, score := range s.zsets[key] {
		if score >= lo && score <= hi {
			count++
		}
	}
	return count, nil
}

// SetAdd adds members to a plain set
func (s *MemoryStore) SetAdd(ctx context.Context, key string, members ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.sets[key]
	if set == nil {
		set = make(map[string]struct{})
		s.sets[key] = set
	}
	for _, m := range members {
		set[m] = struct{}{}
	}
	return nil
}

// SetRemove removes members from a plain set
func (s *MemoryStore) SetRemove(ctx context.Context, key string, members ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range members {
		delete(s.sets[key], m)
	}
	return nil
}

// SetMembers returns every member of a plain set
func (s *MemoryStore) SetMembers(ctx context.Context, key string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	members := make([]string, 0, len(s.sets[key]))
	for m := range s.sets[key] {
		members = append(members, m)
	}
	sort.Strings(members)
	return members, nil
}
