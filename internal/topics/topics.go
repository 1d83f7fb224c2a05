// Package topics implements the topic lifecycle engine: guarded state
// transitions, denormalized counter and index maintenance, audit events and
// hooks. All durable state lives in the keyed store; authorization is
// delegated to the privilege resolver.
package topics

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/coursehive/forumcore/internal/privileges"
	"github.com/coursehive/forumcore/internal/store"
	"github.com/coursehive/forumcore/pkg/config"
)

// Storage keys owned by the topic engine
func topicKey(tid int64) string       { return fmt.Sprintf("topic:%d", tid) }
func topicEventsKey(tid int64) string { return fmt.Sprintf("topic:%d:events", tid) }
func eventKey(id string) string       { return "topicEvent:" + id }
func categoryKey(cid int64) string    { return fmt.Sprintf("category:%d", cid) }
func cidTidsKey(cid int64) string     { return fmt.Sprintf("cid:%d:tids", cid) }
func cidPinnedKey(cid int64) string   { return fmt.Sprintf("cid:%d:tids:pinned", cid) }
func cidPostsKey(cid int64) string    { return fmt.Sprintf("cid:%d:tids:posts", cid) }
func cidVotesKey(cid int64) string    { return fmt.Sprintf("cid:%d:tids:votes", cid) }
func cidViewsKey(cid int64) string    { return fmt.Sprintf("cid:%d:tids:views", cid) }
func cidLastPostKey(cid int64) string { return fmt.Sprintf("cid:%d:tids:lastposttime", cid) }

func cidUserTidsKey(cid, uid int64) string   { return fmt.Sprintf("cid:%d:uid:%d:tids", cid, uid) }
func cidTagKey(cid int64, tag string) string { return fmt.Sprintf("cid:%d:tag:%s:topics", cid, tag) }

func tidPostsKey(tid int64) string     { return fmt.Sprintf("tid:%d:posts", tid) }
func tidPostVotesKey(tid int64) string { return fmt.Sprintf("tid:%d:posts:votes", tid) }
func tidPostersKey(tid int64) string   { return fmt.Sprintf("tid:%d:posters", tid) }

func postKey(pid int64) string          { return fmt.Sprintf("post:%d", pid) }
func postRepliesKey(pid int64) string   { return fmt.Sprintf("pid:%d:replies", pid) }
func postBacklinksKey(pid int64) string { return fmt.Sprintf("pid:%d:backlinks", pid) }

// TeaserUpdater recomputes a topic's preview post. Teaser selection is an
// external collaborator; the engine only signals when it must run.
type TeaserUpdater interface {
	UpdateTeaser(ctx context.Context, tid int64) error
}

type noopTeasers struct{}

func (noopTeasers) UpdateTeaser(ctx context.Context, tid int64) error { return nil }

// Manager executes topic lifecycle transitions and maintains the
// denormalized counters and ordering indices.
type Manager struct {
	store   store.Store
	data    *Data
	priv    *privileges.Resolver
	roles   privileges.Roles
	events  *EventLog
	hooks   *Hooks
	teasers TeaserUpdater
	cfg     *config.ForumConfig
	logger  *zap.Logger
}

// NewManager creates a new topic lifecycle manager
func NewManager(st store.Store, data *Data, resolver *privileges.Resolver, roles privileges.Roles, cfg *config.ForumConfig, logger *zap.Logger) *Manager {
	return &Manager{
		store:   st,
		data:    data,
		priv:    resolver,
		roles:   roles,
		events:  NewEventLog(st, logger),
		hooks:   NewHooks(logger),
		teasers: noopTeasers{},
		cfg:     cfg,
		logger:  logger.With(zap.String("component", "topic-engine")),
	}
}

// Hooks exposes the hook registry so the calling layer can attach policy
func (m *Manager) Hooks() *Hooks {
	return m.hooks
}

// Events exposes the audit event log
func (m *Manager) Events() *EventLog {
	return m.events
}

// SetTeaserUpdater wires the external teaser collaborator
func (m *Manager) SetTeaserUpdater(t TeaserUpdater) {
	if t != nil {
		m.teasers = t
	}
}

// updateRecentTid refreshes the category's most-recent-topic pointer from
// the recency index
func (m *Manager) updateRecentTid(ctx context.Context, cid int64) error {
	members, err := m.store.SortedSetRange(ctx, cidTidsKey(cid), -1, -1)
	if err != nil {
		return err
	}
	if len(members) == 0 {
		return m.store.DeleteObjectFields(ctx, categoryKey(cid), "recent_tid")
	}
	return m.store.SetObjectField(ctx, categoryKey(cid), "recent_tid", members[0])
}
