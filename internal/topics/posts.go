package topics

import (
	"context"

	"go.uber.org/zap"

	"github.com/coursehive/forumcore/internal/models"
	"github.com/coursehive/forumcore/pkg/telemetry"
)

// ReplyPreview summarizes the direct replies to one post
type ReplyPreview struct {
	Count     int64   `json:"count"`
	Timestamp int64   `json:"timestamp"`
	UIDs      []int64 `json:"uids"`
	HasMore   bool    `json:"hasMore"`
}

// OnNewPostMade is the entry point for a freshly created post: it advances
// the topic's last-post time and recency indices, then attaches the post.
func (m *Manager) OnNewPostMade(ctx context.Context, post *models.Post) error {
	ctx, span := telemetry.StartSpan(ctx, "topics.onNewPostMade")
	defer span.End()

	topic, err := m.data.TopicFields(ctx, post.TID, []string{
		models.FieldTID, models.FieldCID, models.FieldPinned, models.FieldLastPostTime,
	})
	if err != nil {
		return err
	}
	if topic == nil {
		return models.ErrNoTopic
	}

	if post.Timestamp > topic.LastPostTime {
		if err := m.data.SetTopicField(ctx, post.TID, models.FieldLastPostTime, post.Timestamp); err != nil {
			return err
		}
		// Pinned topics do not participate in the recency indices
		if !topic.Pinned {
			member := formatID(post.TID)
			err := m.store.SortedSetAddMulti(ctx, []string{
				cidTidsKey(topic.CID),
				cidLastPostKey(topic.CID),
			}, []float64{
				float64(post.Timestamp),
				float64(post.Timestamp),
			}, member)
			if err != nil {
				return err
			}
		}
	}

	return m.AddPostToTopic(ctx, post)
}

// AddPostToTopic registers a post under its topic, maintaining the post
// list, vote index, reply threading and every denormalized counter. The
// first post becomes the topic's main post and is not counted as a reply.
func (m *Manager) AddPostToTopic(ctx context.Context, post *models.Post) error {
	ctx, span := telemetry.StartSpan(ctx, "topics.addPostToTopic")
	defer span.End()

	topic, err := m.data.TopicFields(ctx, post.TID, []string{
		models.FieldTID, models.FieldCID, models.FieldMainPID, models.FieldPinned,
	})
	if err != nil {
		return err
	}
	if topic == nil {
		return models.ErrNoTopic
	}

	if topic.MainPID == 0 {
		if err := m.data.SetTopicField(ctx, post.TID, models.FieldMainPID, post.PID); err != nil {
			return err
		}
	} else {
		member := formatID(post.PID)
		if err := m.store.SortedSetAdd(ctx, tidPostsKey(post.TID), float64(post.Timestamp), member); err != nil {
			return err
		}
		if err := m.store.SortedSetAdd(ctx, tidPostVotesKey(post.TID), float64(post.Votes()), member); err != nil {
			return err
		}
		if post.ToPID > 0 {
			if err := m.store.SortedSetAdd(ctx, postRepliesKey(post.ToPID), float64(post.Timestamp), member); err != nil {
				return err
			}
		}
	}

	count, err := m.data.IncrTopicField(ctx, post.TID, models.FieldPostCount, 1)
	if err != nil {
		return err
	}
	if !topic.Pinned {
		if err := m.store.SortedSetAdd(ctx, cidPostsKey(topic.CID), float64(count), formatID(post.TID)); err != nil {
			return err
		}
	}

	isInstructor, err := m.roles.IsInstructor(ctx, post.UID)
	if err != nil {
		return err
	}
	if isInstructor {
		if _, err := m.data.IncrTopicField(ctx, post.TID, models.FieldInstructorCount, 1); err != nil {
			return err
		}
	}

	if err := m.updatePosterCount(ctx, post.TID, post.UID, 1); err != nil {
		return err
	}

	if err := m.teasers.UpdateTeaser(ctx, post.TID); err != nil {
		m.logger.Warn("Failed to update teaser", zap.Int64("tid", post.TID), zap.Error(err))
	}
	return nil
}

// RemovePostFromTopic detaches a post from its topic, reversing what
// AddPostToTopic recorded. Counters floor at zero.
func (m *Manager) RemovePostFromTopic(ctx context.Context, post *models.Post) error {
	ctx, span := telemetry.StartSpan(ctx, "topics.removePostFromTopic")
	defer span.End()

	topic, err := m.data.TopicFields(ctx, post.TID, []string{
		models.FieldTID, models.FieldCID, models.FieldPinned, models.FieldPostCount,
	})
	if err != nil {
		return err
	}
	if topic == nil {
		return models.ErrNoTopic
	}

	member := formatID(post.PID)
	err = m.store.SortedSetRemove(ctx, []string{
		tidPostsKey(post.TID), tidPostVotesKey(post.TID),
	}, member)
	if err != nil {
		return err
	}
	if post.ToPID > 0 {
		if err := m.store.SortedSetRemove(ctx, []string{postRepliesKey(post.ToPID)}, member); err != nil {
			return err
		}
	}

	count := topic.PostCount - 1
	if count < 0 {
		count = 0
	}
	if err := m.data.SetTopicField(ctx, post.TID, models.FieldPostCount, count); err != nil {
		return err
	}
	if !topic.Pinned {
		if err := m.store.SortedSetAdd(ctx, cidPostsKey(topic.CID), float64(count), formatID(post.TID)); err != nil {
			return err
		}
	}

	// The author's role is read at removal time. If the role changed since
	// the post was made, the instructor tally can drift; a reconciliation
	// sweep would need the role captured on the post itself.
	isInstructor, err := m.roles.IsInstructor(ctx, post.UID)
	if err != nil {
		return err
	}
	if isInstructor {
		if _, err := m.data.IncrTopicField(ctx, post.TID, models.FieldInstructorCount, -1); err != nil {
			return err
		}
	}

	if err := m.updatePosterCount(ctx, post.TID, post.UID, -1); err != nil {
		return err
	}

	if err := m.teasers.UpdateTeaser(ctx, post.TID); err != nil {
		m.logger.Warn("Failed to update teaser", zap.Int64("tid", post.TID), zap.Error(err))
	}
	return nil
}

// updatePosterCount adjusts a user's per-topic post tally and refreshes the
// distinct-poster count. A user whose tally drops to zero leaves the set.
func (m *Manager) updatePosterCount(ctx context.Context, tid, uid int64, by float64) error {
	member := formatID(uid)
	tally, err := m.store.SortedSetIncrBy(ctx, tidPostersKey(tid), by, member)
	if err != nil {
		return err
	}
	if tally <= 0 {
		if err := m.store.SortedSetRemove(ctx, []string{tidPostersKey(tid)}, member); err != nil {
			return err
		}
	}
	count, err := m.store.SortedSetCount(ctx, tidPostersKey(tid), "1", "+inf")
	if err != nil {
		return err
	}
	return m.data.SetTopicField(ctx, tid, models.FieldPosterCount, count)
}

// IncrementViewCount bumps a topic's view counter and its position in the
// category views index. Pinned topics keep their counter but stay out of
// the index.
func (m *Manager) IncrementViewCount(ctx context.Context, tid int64) error {
	topic, err := m.data.TopicFields(ctx, tid, []string{
		models.FieldTID, models.FieldCID, models.FieldPinned,
	})
	if err != nil {
		return err
	}
	if topic == nil {
		return models.ErrNoTopic
	}

	count, err := m.data.IncrTopicField(ctx, tid, models.FieldViewCount, 1)
	if err != nil {
		return err
	}
	if !topic.Pinned {
		return m.store.SortedSetAdd(ctx, cidViewsKey(topic.CID), float64(count), formatID(tid))
	}
	return nil
}

// GetPostReplies builds reply previews for a batch of posts: reply count,
// most recent reply time, and up to MaxReplyPreviewUsers distinct repliers.
func (m *Manager) GetPostReplies(ctx context.Context, pids []int64) (map[int64]*ReplyPreview, error) {
	ctx, span := telemetry.StartSpan(ctx, "topics.getPostReplies")
	defer span.End()

	previews := make(map[int64]*ReplyPreview, len(pids))
	maxUsers := m.cfg.MaxReplyPreviewUsers
	if maxUsers <= 0 {
		maxUsers = 6
	}

	for _, pid := range pids {
		replyPids, err := m.store.SortedSetRange(ctx, postRepliesKey(pid), 0, -1)
		if err != nil {
			return nil, err
		}
		if len(replyPids) == 0 {
			continue
		}

		preview := &ReplyPreview{Count: int64(len(replyPids))}
		seen := make(map[int64]bool)
		for _, rp := range replyPids {
			fields, err := m.store.GetObjectFields(ctx, postKey(parseID(rp)), []string{"uid", "timestamp"})
			if err != nil {
				return nil, err
			}
			uid := parseID(fields["uid"])
			ts := parseID(fields["timestamp"])
			if ts > preview.Timestamp {
				preview.Timestamp = ts
			}
			if uid > 0 && !seen[uid] {
				seen[uid] = true
				if len(preview.UIDs) < maxUsers {
					preview.UIDs = append(preview.UIDs, uid)
				} else {
					preview.HasMore = true
				}
			}
		}
		previews[pid] = preview
	}
	return previews, nil
}
