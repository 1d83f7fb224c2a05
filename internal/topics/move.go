package topics

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/coursehive/forumcore/internal/models"
	"github.com/coursehive/forumcore/pkg/telemetry"
)

// MoveOptions names the destination category and the acting user
type MoveOptions struct {
	CID int64 `json:"cid"`
	UID int64 `json:"uid"`
}

// Move transfers a topic to another category, keeping every per-category
// index and denormalized counter consistent. The previous category id is
// retained on the topic so the move can be audited and reversed.
func (m *Manager) Move(ctx context.Context, tid int64, opts MoveOptions) error {
	ctx, span := telemetry.StartSpan(ctx, "topics.move")
	defer span.End()

	topic, err := m.data.TopicFields(ctx, tid, []string{
		models.FieldTID, models.FieldCID, models.FieldUID, models.FieldTags,
		models.FieldPinned, models.FieldTimestamp, models.FieldLastPostTime,
		models.FieldPostCount, models.FieldUpvotes, models.FieldDownvotes,
		models.FieldViewCount,
	})
	if err != nil {
		return err
	}
	if topic == nil {
		return models.ErrNoTopic
	}
	oldCID := topic.CID
	if oldCID == opts.CID {
		return models.ErrCantMoveSameCategory
	}

	if err := m.removeFromCategoryIndices(ctx, topic, oldCID); err != nil {
		return err
	}
	if err := m.addToCategoryIndices(ctx, topic, opts.CID); err != nil {
		return err
	}

	if _, err := m.store.IncrObjectField(ctx, categoryKey(oldCID), "topic_count", -1); err != nil {
		return err
	}
	if _, err := m.store.IncrObjectField(ctx, categoryKey(opts.CID), "topic_count", 1); err != nil {
		return err
	}
	if err := m.updateRecentTid(ctx, oldCID); err != nil {
		return err
	}
	if err := m.updateRecentTid(ctx, opts.CID); err != nil {
		return err
	}

	err = m.data.SetTopicFields(ctx, tid, map[string]interface{}{
		models.FieldCID:    opts.CID,
		models.FieldOldCID: oldCID,
	})
	if err != nil {
		return err
	}

	if _, err := m.events.Append(ctx, tid, Event{Type: "move", UID: opts.UID, FromCID: oldCID}); err != nil {
		return err
	}

	m.logger.Info("Topic moved",
		zap.Int64("tid", tid),
		zap.Int64("fromCid", oldCID),
		zap.Int64("toCid", opts.CID),
		zap.Int64("uid", opts.UID))

	m.hooks.FireAction(ctx, "action:topic.move", map[string]interface{}{
		"tid": tid, "fromCid": oldCID, "toCid": opts.CID, "uid": opts.UID,
	})
	return nil
}

// removeFromCategoryIndices detaches a topic from every index kept under a
// category: the feed indices or the pinned index, the per-poster index and
// the per-tag indices.
func (m *Manager) removeFromCategoryIndices(ctx context.Context, topic *models.Topic, cid int64) error {
	member := formatID(topic.TID)
	err := m.store.SortedSetRemove(ctx, []string{
		cidTidsKey(cid),
		cidPinnedKey(cid),
		cidPostsKey(cid),
		cidVotesKey(cid),
		cidViewsKey(cid),
		cidLastPostKey(cid),
		cidUserTidsKey(cid, topic.UID),
	}, member)
	if err != nil {
		return err
	}
	for _, tag := range topic.TagObjects {
		if err := m.store.SortedSetRemove(ctx, []string{cidTagKey(cid, tag.Value)}, member); err != nil {
			return err
		}
	}
	return nil
}

// addToCategoryIndices attaches a topic to a category's indices. A pinned
// topic goes only into the pinned index; an unpinned one into the feed
// indices with its current denormalized values.
func (m *Manager) addToCategoryIndices(ctx context.Context, topic *models.Topic, cid int64) error {
	member := formatID(topic.TID)
	if topic.Pinned {
		if err := m.store.SortedSetAdd(ctx, cidPinnedKey(cid), float64(time.Now().UnixMilli()), member); err != nil {
			return err
		}
	} else {
		err := m.store.SortedSetAddMulti(ctx, []string{
			cidTidsKey(cid),
			cidLastPostKey(cid),
			cidPostsKey(cid),
			cidVotesKey(cid),
			cidViewsKey(cid),
		}, []float64{
			float64(topic.LastPostTime),
			float64(topic.LastPostTime),
			float64(topic.PostCount),
			float64(topic.Votes),
			float64(topic.ViewCount),
		}, member)
		if err != nil {
			return err
		}
	}
	if err := m.store.SortedSetAdd(ctx, cidUserTidsKey(cid, topic.UID), float64(topic.Timestamp), member); err != nil {
		return err
	}
	for _, tag := range topic.TagObjects {
		if err := m.store.SortedSetAdd(ctx, cidTagKey(cid, tag.Value), float64(topic.Timestamp), member); err != nil {
			return err
		}
	}
	return nil
}
