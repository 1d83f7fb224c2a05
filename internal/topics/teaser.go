package topics

import (
	"context"

	"github.com/coursehive/forumcore/internal/store"
)

// StoreTeaser maintains each topic's teaser, the pointer to the reply shown
// in category listings. It tracks the most recent reply, falling back to the
// main post when a topic has none.
type StoreTeaser struct {
	store store.Store
}

// NewStoreTeaser creates a store-backed teaser updater
func NewStoreTeaser(st store.Store) *StoreTeaser {
	return &StoreTeaser{store: st}
}

// UpdateTeaser recomputes a topic's teaser fields from its reply list
func (t *StoreTeaser) UpdateTeaser(ctx context.Context, tid int64) error {
	replies, err := t.store.SortedSetRange(ctx, tidPostsKey(tid), -1, -1)
	if err != nil {
		return err
	}

	if len(replies) == 0 {
		raw, err := t.store.GetObjectFields(ctx, topicKey(tid), []string{"mainPid"})
		if err != nil {
			return err
		}
		mainPid := parseID(raw["mainPid"])
		if mainPid == 0 {
			return t.store.DeleteObjectFields(ctx, topicKey(tid), "teaserPid")
		}
		return t.store.SetObjectField(ctx, topicKey(tid), "teaserPid", mainPid)
	}

	return t.store.SetObjectField(ctx, topicKey(tid), "teaserPid", parseID(replies[0]))
}
