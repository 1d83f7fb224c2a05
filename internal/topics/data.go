package topics

import (
	"context"
	"strconv"
	"time"

	"github.com/coursehive/forumcore/internal/models"
	"github.com/coursehive/forumcore/internal/store"
)

// identityFields are always fetched alongside a partial field list so the
// projection can derive votes, scheduled state and timestamp mirrors.
var identityFields = []string{
	models.FieldTID,
	models.FieldTimestamp,
	models.FieldUpvotes,
	models.FieldDownvotes,
	models.FieldPinned,
}

// Data is the typed read/write adapter between topic records and the keyed
// store. Derived fields are computed by a pure projection after the raw
// fetch, never inside it.
type Data struct {
	store store.Store
}

// NewData creates a new field store adapter
func NewData(st store.Store) *Data {
	return &Data{store: st}
}

// Exists reports whether the topic record exists
func (d *Data) Exists(ctx context.Context, tid int64) (bool, error) {
	return d.store.Exists(ctx, topicKey(tid))
}

// TopicFields fetches the named fields of one topic and projects them onto
// a typed Topic. An empty field list fetches the whole record. Returns nil
// for a nonexistent topic.
func (d *Data) TopicFields(ctx context.Context, tid int64, fields []string) (*models.Topic, error) {
	var raw map[string]string
	var err error
	if len(fields) == 0 {
		raw, err = d.store.GetObject(ctx, topicKey(tid))
	} else {
		raw, err = d.store.GetObjectFields(ctx, topicKey(tid), withIdentity(fields))
	}
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	return models.ProjectTopic(raw, time.Now()), nil
}

// TopicsFields batch-fetches fields for several topics, preserving order.
// Nonexistent topics yield nil entries. Zero tids returns an empty list
// without a store round-trip.
func (d *Data) TopicsFields(ctx context.Context, tids []int64, fields []string) ([]*models.Topic, error) {
	if len(tids) == 0 {
		return nil, nil
	}
	topics := make([]*models.Topic, len(tids))
	for i, tid := range tids {
		topic, err := d.TopicFields(ctx, tid, fields)
		if err != nil {
			return nil, err
		}
		topics[i] = topic
	}
	return topics, nil
}

// SetTopicField writes one topic field
func (d *Data) SetTopicField(ctx context.Context, tid int64, field string, value interface{}) error {
	return d.store.SetObjectField(ctx, topicKey(tid), field, value)
}

// SetTopicFields writes several topic fields
func (d *Data) SetTopicFields(ctx context.Context, tid int64, fields map[string]interface{}) error {
	return d.store.SetObject(ctx, topicKey(tid), fields)
}

// DeleteTopicFields removes fields from the topic record
func (d *Data) DeleteTopicFields(ctx context.Context, tid int64, fields ...string) error {
	return d.store.DeleteObjectFields(ctx, topicKey(tid), fields...)
}

// IncrTopicField atomically increments a numeric topic field
func (d *Data) IncrTopicField(ctx context.Context, tid int64, field string, by int64) (int64, error) {
	return d.store.IncrObjectField(ctx, topicKey(tid), field, by)
}

func withIdentity(fields []string) []string {
	merged := make([]string, 0, len(fields)+len(identityFields))
	seen := make(map[string]bool, len(fields)+len(identityFields))
	for _, f := range fields {
		if !seen[f] {
			seen[f] = true
			merged = append(merged, f)
		}
	}
	for _, f := range identityFields {
		if !seen[f] {
			seen[f] = true
			merged = append(merged, f)
		}
	}
	return merged
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func parseID(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
