package topics

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/coursehive/forumcore/internal/models"
	"github.com/coursehive/forumcore/pkg/telemetry"
)

// DeleteResult is the snapshot returned by Delete and Restore
type DeleteResult struct {
	TID      int64   `json:"tid"`
	CID      int64   `json:"cid"`
	UID      int64   `json:"uid"`
	IsDelete bool    `json:"isDelete"`
	Events   []Event `json:"events"`
}

// LockResult is the snapshot returned by Lock and Unlock. IsLocked and
// Locked duplicate each other for backward compatibility and always agree.
type LockResult struct {
	TID      int64   `json:"tid"`
	CID      int64   `json:"cid"`
	UID      int64   `json:"uid"`
	IsLocked bool    `json:"isLocked"`
	Locked   bool    `json:"locked"`
	Events   []Event `json:"events"`
}

// PinResult is the snapshot returned by Pin and Unpin
type PinResult struct {
	TID      int64   `json:"tid"`
	CID      int64   `json:"cid"`
	UID      int64   `json:"uid"`
	IsPinned bool    `json:"isPinned"`
	Pinned   bool    `json:"pinned"`
	Events   []Event `json:"events"`
}

// PurgeResult is the snapshot returned by Purge
type PurgeResult struct {
	TID int64 `json:"tid"`
	CID int64 `json:"cid"`
	UID int64 `json:"uid"`
}

// DeleteCheck is the payload threaded through the filter:topic.delete hook.
// External policy may veto by clearing CanDelete or CanRestore.
type DeleteCheck struct {
	Topic      *models.Topic
	UID        int64
	IsDelete   bool
	CanDelete  bool
	CanRestore bool
}

// Delete soft-deletes a topic
func (m *Manager) Delete(ctx context.Context, tid int64, actor models.Actor) (*DeleteResult, error) {
	return m.toggleDelete(ctx, tid, actor, true)
}

// Restore reverses a soft delete
func (m *Manager) Restore(ctx context.Context, tid int64, actor models.Actor) (*DeleteResult, error) {
	return m.toggleDelete(ctx, tid, actor, false)
}

func (m *Manager) toggleDelete(ctx context.Context, tid int64, actor models.Actor, isDelete bool) (*DeleteResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "topics.toggleDelete")
	defer span.End()

	topic, err := m.data.TopicFields(ctx, tid, []string{
		models.FieldTID, models.FieldCID, models.FieldUID,
		models.FieldDeleted, models.FieldTimestamp,
	})
	if err != nil {
		return nil, err
	}
	if topic == nil {
		return nil, models.ErrNoTopic
	}
	// Scheduled topics can only be purged, never soft-deleted or restored
	if topic.Scheduled {
		return nil, models.ErrInvalidData
	}

	uid := actor.UID()
	canDelete, err := m.priv.CanDelete(ctx, tid, uid)
	if err != nil {
		return nil, err
	}
	canRestore, err := m.priv.IsOwnerOrAdminOrMod(ctx, tid, uid)
	if err != nil {
		return nil, err
	}

	check := &DeleteCheck{
		Topic:      topic,
		UID:        uid,
		IsDelete:   isDelete,
		CanDelete:  canDelete,
		CanRestore: canRestore,
	}
	filtered, err := m.hooks.FireFilter(ctx, "filter:topic.delete", check)
	if err != nil {
		return nil, err
	}
	if c, ok := filtered.(*DeleteCheck); ok {
		check = c
	}

	if (isDelete && !check.CanDelete) || (!isDelete && !check.CanRestore) {
		return nil, models.ErrNoPrivileges
	}
	if isDelete && topic.Deleted {
		return nil, models.ErrTopicAlreadyDeleted
	}
	if !isDelete && !topic.Deleted {
		return nil, models.ErrTopicAlreadyRestored
	}

	eventType := "restore"
	if isDelete {
		eventType = "delete"
		err = m.data.SetTopicFields(ctx, tid, map[string]interface{}{
			models.FieldDeleted:          1,
			models.FieldDeleterUID:       uid,
			models.FieldDeletedTimestamp: time.Now().UnixMilli(),
		})
	} else {
		if err = m.data.SetTopicField(ctx, tid, models.FieldDeleted, 0); err == nil {
			err = m.data.DeleteTopicFields(ctx, tid, models.FieldDeleterUID, models.FieldDeletedTimestamp)
		}
	}
	if err != nil {
		return nil, err
	}

	ev, err := m.events.Append(ctx, tid, Event{Type: eventType, UID: uid})
	if err != nil {
		return nil, err
	}

	result := &DeleteResult{
		TID:      tid,
		CID:      topic.CID,
		UID:      topic.UID,
		IsDelete: isDelete,
		Events:   []Event{ev},
	}
	m.hooks.FireAction(ctx, "action:topic."+eventType, result)
	return result, nil
}

// Purge permanently removes a topic: its posts, indices, counters and
// record. Terminal; the audit trail is retained.
func (m *Manager) Purge(ctx context.Context, tid int64, actor models.Actor) (*PurgeResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "topics.purge")
	defer span.End()

	topic, err := m.data.TopicFields(ctx, tid, nil)
	if err != nil {
		return nil, err
	}
	if topic == nil {
		return nil, models.ErrNoTopic
	}

	uid := actor.UID()
	canPurge, err := m.priv.CanPurge(ctx, tid, uid)
	if err != nil {
		return nil, err
	}
	if !canPurge {
		return nil, models.ErrNoPrivileges
	}

	// Remove every post owned by the topic
	pids, err := m.store.SortedSetRange(ctx, tidPostsKey(tid), 0, -1)
	if err != nil {
		return nil, err
	}
	if topic.MainPID > 0 {
		pids = append(pids, formatID(topic.MainPID))
	}
	for _, pid := range pids {
		id := parseID(pid)
		if err := m.store.Delete(ctx, postKey(id), postRepliesKey(id), postBacklinksKey(id)); err != nil {
			return nil, err
		}
	}

	if err := m.removeFromCategoryIndices(ctx, topic, topic.CID); err != nil {
		return nil, err
	}
	if _, err := m.store.IncrObjectField(ctx, categoryKey(topic.CID), "topic_count", -1); err != nil {
		return nil, err
	}
	if err := m.updateRecentTid(ctx, topic.CID); err != nil {
		return nil, err
	}

	if err := m.store.Delete(ctx, topicKey(tid), tidPostsKey(tid), tidPostVotesKey(tid), tidPostersKey(tid)); err != nil {
		return nil, err
	}

	if _, err := m.events.Append(ctx, tid, Event{Type: "purge", UID: uid}); err != nil {
		return nil, err
	}

	m.logger.Info("Topic purged", zap.Int64("tid", tid), zap.Int64("uid", uid))

	result := &PurgeResult{TID: tid, CID: topic.CID, UID: topic.UID}
	m.hooks.FireAction(ctx, "action:topic.purge", result)
	return result, nil
}

// Lock locks a topic against replies
func (m *Manager) Lock(ctx context.Context, tid int64, actor models.Actor) (*LockResult, error) {
	return m.toggleLock(ctx, tid, actor, true)
}

// Unlock reverses a lock
func (m *Manager) Unlock(ctx context.Context, tid int64, actor models.Actor) (*LockResult, error) {
	return m.toggleLock(ctx, tid, actor, false)
}

func (m *Manager) toggleLock(ctx context.Context, tid int64, actor models.Actor, lock bool) (*LockResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "topics.toggleLock")
	defer span.End()

	topic, err := m.data.TopicFields(ctx, tid, []string{
		models.FieldTID, models.FieldCID, models.FieldUID,
	})
	if err != nil {
		return nil, err
	}
	if topic == nil {
		return nil, models.ErrNoTopic
	}

	// Locking stays admin-or-mod only; the instructor extension does not
	// apply here
	uid := actor.UID()
	if !actor.IsSystem() {
		allowed, err := m.priv.IsAdminOrMod(ctx, tid, uid)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, models.ErrNoPrivileges
		}
	}

	if err := m.data.SetTopicField(ctx, tid, models.FieldLocked, boolField(lock)); err != nil {
		return nil, err
	}

	eventType := "unlock"
	if lock {
		eventType = "lock"
	}
	ev, err := m.events.Append(ctx, tid, Event{Type: eventType, UID: uid})
	if err != nil {
		return nil, err
	}

	result := &LockResult{
		TID:      tid,
		CID:      topic.CID,
		UID:      topic.UID,
		IsLocked: lock,
		Locked:   lock,
		Events:   []Event{ev},
	}
	m.hooks.FireAction(ctx, "action:topic."+eventType, result)
	return result, nil
}

// Pin pins a topic in its category
func (m *Manager) Pin(ctx context.Context, tid int64, actor models.Actor) (*PinResult, error) {
	return m.togglePin(ctx, tid, actor, true)
}

// Unpin reverses a pin and clears any pin expiry
func (m *Manager) Unpin(ctx context.Context, tid int64, actor models.Actor) (*PinResult, error) {
	return m.togglePin(ctx, tid, actor, false)
}

func (m *Manager) togglePin(ctx context.Context, tid int64, actor models.Actor, pin bool) (*PinResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "topics.togglePin")
	defer span.End()

	topic, err := m.data.TopicFields(ctx, tid, []string{
		models.FieldTID, models.FieldCID, models.FieldUID, models.FieldTimestamp,
	})
	if err != nil {
		return nil, err
	}
	if topic == nil {
		return nil, models.ErrNoTopic
	}
	if topic.Scheduled {
		return nil, models.ErrCantPinScheduled
	}

	// Pinning is the capability extended to instructors; the system actor
	// bypasses the guard entirely (pin-expiry sweep only)
	uid := actor.UID()
	if !actor.IsSystem() {
		allowed, err := m.priv.IsAdminOrMod(ctx, tid, uid)
		if err != nil {
			return nil, err
		}
		if !allowed {
			allowed, err = m.roles.IsInstructor(ctx, uid)
			if err != nil {
				return nil, err
			}
		}
		if !allowed {
			return nil, models.ErrNoPrivileges
		}
	}

	member := formatID(tid)
	if pin {
		if err := m.data.SetTopicField(ctx, tid, models.FieldPinned, 1); err != nil {
			return nil, err
		}
		// Pinned topics are ordered by pin time, not by the feed criteria
		if err := m.store.SortedSetAdd(ctx, cidPinnedKey(topic.CID), float64(time.Now().UnixMilli()), member); err != nil {
			return nil, err
		}
		err = m.store.SortedSetRemove(ctx, []string{
			cidTidsKey(topic.CID),
			cidPostsKey(topic.CID),
			cidVotesKey(topic.CID),
			cidViewsKey(topic.CID),
			cidLastPostKey(topic.CID),
		}, member)
		if err != nil {
			return nil, err
		}
	} else {
		if err := m.data.SetTopicField(ctx, tid, models.FieldPinned, 0); err != nil {
			return nil, err
		}
		if err := m.data.DeleteTopicFields(ctx, tid, models.FieldPinExpiry); err != nil {
			return nil, err
		}
		if err := m.store.SortedSetRemove(ctx, []string{cidPinnedKey(topic.CID)}, member); err != nil {
			return nil, err
		}
		// Re-read the current denormalized values so the topic resumes its
		// correct feed position, not a stale one
		fresh, err := m.data.TopicFields(ctx, tid, []string{
			models.FieldLastPostTime, models.FieldPostCount,
			models.FieldUpvotes, models.FieldDownvotes, models.FieldViewCount,
		})
		if err != nil {
			return nil, err
		}
		err = m.store.SortedSetAddMulti(ctx, []string{
			cidTidsKey(topic.CID),
			cidLastPostKey(topic.CID),
			cidPostsKey(topic.CID),
			cidVotesKey(topic.CID),
			cidViewsKey(topic.CID),
		}, []float64{
			float64(fresh.LastPostTime),
			float64(fresh.LastPostTime),
			float64(fresh.PostCount),
			float64(fresh.Votes),
			float64(fresh.ViewCount),
		}, member)
		if err != nil {
			return nil, err
		}
	}

	eventType := "unpin"
	if pin {
		eventType = "pin"
	}
	ev, err := m.events.Append(ctx, tid, Event{Type: eventType, UID: uid})
	if err != nil {
		return nil, err
	}

	result := &PinResult{
		TID:      tid,
		CID:      topic.CID,
		UID:      topic.UID,
		IsPinned: pin,
		Pinned:   pin,
		Events:   []Event{ev},
	}
	m.hooks.FireAction(ctx, "action:topic."+eventType, result)
	return result, nil
}

// SetPinExpiry schedules an automatic unpin at a future timestamp. It only
// sets the field; it does not pin the topic.
func (m *Manager) SetPinExpiry(ctx context.Context, tid, expiry int64, uid int64) error {
	topic, err := m.data.TopicFields(ctx, tid, []string{models.FieldTID, models.FieldCID})
	if err != nil {
		return err
	}
	if topic == nil {
		return models.ErrNoTopic
	}
	if expiry <= time.Now().UnixMilli() {
		return models.ErrInvalidData
	}

	allowed, err := m.priv.IsAdminOrMod(ctx, tid, uid)
	if err != nil {
		return err
	}
	if !allowed {
		return models.ErrNoPrivileges
	}

	if err := m.data.SetTopicField(ctx, tid, models.FieldPinExpiry, expiry); err != nil {
		return err
	}
	m.hooks.FireAction(ctx, "action:topic.setPinExpiry", map[string]interface{}{
		"tid": tid, "uid": uid, "pinExpiry": expiry,
	})
	return nil
}

// CheckPinExpiry unpins every topic in the batch whose expiry has passed,
// acting as the system, and returns the tids still validly pinned. This is
// the only path that bypasses the pin guard.
func (m *Manager) CheckPinExpiry(ctx context.Context, tids []int64) ([]int64, error) {
	topics, err := m.data.TopicsFields(ctx, tids, []string{models.FieldTID, models.FieldPinExpiry})
	if err != nil {
		return nil, err
	}

	now := time.Now().UnixMilli()
	var valid []int64
	for i, topic := range topics {
		if topic == nil {
			continue
		}
		if topic.PinExpiry > 0 && topic.PinExpiry <= now {
			if _, err := m.togglePin(ctx, tids[i], models.SystemActor(), false); err != nil {
				return nil, err
			}
			continue
		}
		valid = append(valid, tids[i])
	}
	return valid, nil
}

// OrderPinnedTopics moves one pinned topic to a new rank. The order value
// is a rank from the top of the pinned list; storage is ascending by score,
// so it is inverted before insertion. Scores are rewritten as positional
// indices for the whole list.
func (m *Manager) OrderPinnedTopics(ctx context.Context, uid, tid int64, order int) error {
	ctx, span := telemetry.StartSpan(ctx, "topics.orderPinned")
	defer span.End()

	if order < 0 {
		return models.ErrInvalidData
	}

	topic, err := m.data.TopicFields(ctx, tid, []string{models.FieldTID, models.FieldCID})
	if err != nil {
		return err
	}
	if topic == nil {
		return models.ErrNoTopic
	}

	allowed, err := m.priv.IsAdminOrMod(ctx, tid, uid)
	if err != nil {
		return err
	}
	if !allowed {
		return models.ErrNoPrivileges
	}

	pinned, err := m.store.SortedSetRange(ctx, cidPinnedKey(topic.CID), 0, -1)
	if err != nil {
		return err
	}

	member := formatID(tid)
	currentIndex := -1
	for i, p := range pinned {
		if p == member {
			currentIndex = i
			break
		}
	}
	if currentIndex == -1 {
		return models.ErrInvalidData
	}

	newIndex := len(pinned) - order - 1
	if newIndex < 0 {
		newIndex = 0
	}

	pinned = append(pinned[:currentIndex], pinned[currentIndex+1:]...)
	if newIndex > len(pinned) {
		newIndex = len(pinned)
	}
	pinned = append(pinned[:newIndex], append([]string{member}, pinned[newIndex:]...)...)

	for i, p := range pinned {
		if err := m.store.SortedSetAdd(ctx, cidPinnedKey(topic.CID), float64(i), p); err != nil {
			return err
		}
	}
	return nil
}

func boolField(b bool) int {
	if b {
		return 1
	}
	return 0
}
