package privileges

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/coursehive/forumcore/internal/models"
	"github.com/coursehive/forumcore/pkg/config"
)

// Resolver computes topic privileges from the role and ACL oracles
type Resolver struct {
	topics TopicReader
	acl    CategoryACL
	roles  Roles
	cfg    *config.ForumConfig
	logger *zap.Logger
}

// NewResolver creates a new privilege resolver
func NewResolver(topics TopicReader, acl CategoryACL, roles Roles, cfg *config.ForumConfig, logger *zap.Logger) *Resolver {
	return &Resolver{
		topics: topics,
		acl:    acl,
		roles:  roles,
		cfg:    cfg,
		logger: logger,
	}
}

var privilegeTopicFields = []string{
	models.FieldCID,
	models.FieldUID,
	models.FieldLocked,
	models.FieldDeleted,
	models.FieldTimestamp,
	models.FieldPostCount,
	models.FieldDeleterUID,
}

// Get computes the full privilege bag for one user on one topic
func (r *Resolver) Get(ctx context.Context, tid, uid int64) (*TopicPrivileges, error) {
	topic, err := r.topics.TopicFields(ctx, tid, privilegeTopicFields)
	if err != nil {
		return nil, err
	}
	if topic == nil {
		return nil, models.ErrNoTopic
	}

	// Independent role and ACL checks run as one joined task group
	var (
		privs        map[string]bool
		isAdmin      bool
		isModerator  bool
		isInstructor bool
		disabled     bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		privs, err = r.acl.AllowsAll(gctx, uid, topic.CID, topicPrivileges)
		return err
	})
	g.Go(func() (err error) {
		isAdmin, err = r.roles.IsAdmin(gctx, uid)
		return err
	})
	g.Go(func() (err error) {
		isModerator, err = r.roles.IsModerator(gctx, uid, topic.CID)
		return err
	})
	g.Go(func() (err error) {
		isInstructor, err = r.roles.IsInstructor(gctx, uid)
		return err
	})
	g.Go(func() (err error) {
		disabled, err = r.acl.Disabled(gctx, topic.CID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to resolve privileges for tid %d: %w", tid, err)
	}

	isOwner := uid > 0 && uid == topic.UID
	isAdminOrMod := isAdmin || isModerator
	editable := isAdminOrMod || isInstructor
	deletable := (privs[PrivTopicsDelete] && (isOwner || isModerator)) || isAdmin
	viewDeleted := isAdminOrMod || isOwner || privs[PrivPostsViewDeleted]
	viewScheduled := privs[PrivTopicsSchedule]
	mayReply := CanViewDeletedScheduled(topic, nil, viewDeleted, viewScheduled)

	return &TopicPrivileges{
		TopicsReply:      privs[PrivTopicsReply] && (!topic.Locked || isAdminOrMod) && mayReply,
		TopicsRead:       privs[PrivTopicsRead],
		TopicsSchedule:   privs[PrivTopicsSchedule],
		TopicsTag:        privs[PrivTopicsTag],
		TopicsDelete:     privs[PrivTopicsDelete],
		PostsEdit:        privs[PrivPostsEdit] && (!topic.Locked || isAdminOrMod),
		PostsHistory:     privs[PrivPostsHistory],
		PostsDelete:      privs[PrivPostsDelete] && (!topic.Locked || isAdminOrMod),
		PostsViewDeleted: privs[PrivPostsViewDeleted],
		Read:             privs[PrivRead],
		Purge:            (privs[PrivPurge] && isOwner) || isAdmin,

		IsAdminOrMod:    isAdminOrMod,
		IsInstructor:    isInstructor,
		IsOwner:         isOwner,
		Editable:        editable,
		Deletable:       deletable,
		ViewThreadTools: editable || deletable,
		ViewDeleted:     viewDeleted,
		ViewScheduled:   viewScheduled,
		Disabled:        disabled,
	}, nil
}

// Can checks a single named privilege against the topic's owning category
func (r *Resolver) Can(ctx context.Context, privilege string, tid, uid int64) (bool, error) {
	topic, err := r.topics.TopicFields(ctx, tid, []string{models.FieldCID})
	if err != nil {
		return false, err
	}
	if topic == nil {
		return false, models.ErrNoTopic
	}
	return r.acl.Allows(ctx, uid, topic.CID, privilege)
}

type categoryPerms struct {
	allowed       bool
	disabled      bool
	viewDeleted   bool
	viewScheduled bool
}

// FilterTids returns the subset of tids the user may act on for the given
// privilege. ACL checks are batched per owning category, not per topic.
func (r *Resolver) FilterTids(ctx context.Context, privilege string, tids []int64, uid int64) ([]int64, error) {
	if len(tids) == 0 {
		return nil, nil
	}

	topics, err := r.topics.TopicsFields(ctx, tids, []string{
		models.FieldTID, models.FieldCID, models.FieldUID,
		models.FieldDeleted, models.FieldTimestamp,
	})
	if err != nil {
		return nil, err
	}

	// Group by owning category
	seen := make(map[int64]int)
	var cids []int64
	for _, t := range topics {
		if t == nil {
			continue
		}
		if _, ok := seen[t.CID]; !ok {
			seen[t.CID] = len(cids)
			cids = append(cids, t.CID)
		}
	}

	isAdmin, err := r.roles.IsAdmin(ctx, uid)
	if err != nil {
		return nil, err
	}

	// One joined task group per category, each writing its own slot
	perms := make([]categoryPerms, len(cids))
	g, gctx := errgroup.WithContext(ctx)
	for i, cid := range cids {
		i, cid := i, cid
		g.Go(func() error {
			privs, err := r.acl.AllowsAll(gctx, uid, cid, []string{
				privilege, PrivPostsViewDeleted, PrivTopicsSchedule,
			})
			if err != nil {
				return err
			}
			disabled, err := r.acl.Disabled(gctx, cid)
			if err != nil {
				return err
			}
			isModerator, err := r.roles.IsModerator(gctx, uid, cid)
			if err != nil {
				return err
			}
			perms[i] = categoryPerms{
				allowed:       privs[privilege],
				disabled:      disabled,
				viewDeleted:   isModerator || privs[PrivPostsViewDeleted],
				viewScheduled: privs[PrivTopicsSchedule],
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to resolve category permissions: %w", err)
	}

	var filtered []int64
	for _, t := range topics {
		if t == nil {
			continue
		}
		p := perms[seen[t.CID]]
		if p.disabled {
			continue
		}
		if !p.allowed && !isAdmin {
			continue
		}
		isOwner := uid > 0 && uid == t.UID
		if !isAdmin && !CanViewDeletedScheduled(t, nil, p.viewDeleted || isOwner, p.viewScheduled) {
			continue
		}
		filtered = append(filtered, t.TID)
	}
	return filtered, nil
}

// FilterUids returns the subset of candidate users permitted to act on the
// topic for the given privilege. Scheduled topics apply a stricter rule:
// only holders of topics:schedule survive. A disabled category excludes
// everyone.
func (r *Resolver) FilterUids(ctx context.Context, privilege string, tid int64, uids []int64) ([]int64, error) {
	if len(uids) == 0 {
		return nil, nil
	}

	topic, err := r.topics.TopicFields(ctx, tid, []string{models.FieldCID, models.FieldTimestamp})
	if err != nil {
		return nil, err
	}
	if topic == nil {
		return nil, models.ErrNoTopic
	}

	disabled, err := r.acl.Disabled(ctx, topic.CID)
	if err != nil {
		return nil, err
	}
	if disabled {
		return nil, nil
	}

	if topic.Scheduled {
		privilege = PrivTopicsSchedule
	}

	allowed := make([]bool, len(uids))
	g, gctx := errgroup.WithContext(ctx)
	for i, uid := range uids {
		i, uid := i, uid
		g.Go(func() error {
			ok, err := r.acl.Allows(gctx, uid, topic.CID, privilege)
			if err != nil {
				return err
			}
			if !ok {
				ok, err = r.roles.IsAdmin(gctx, uid)
				if err != nil {
					return err
				}
			}
			allowed[i] = ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to filter uids for tid %d: %w", tid, err)
	}

	var filtered []int64
	for i, uid := range uids {
		if allowed[i] {
			filtered = append(filtered, uid)
		}
	}
	return filtered, nil
}

// CanPurge reports whether the user may purge the topic
func (r *Resolver) CanPurge(ctx context.Context, tid, uid int64) (bool, error) {
	topic, err := r.topics.TopicFields(ctx, tid, []string{models.FieldCID, models.FieldUID})
	if err != nil {
		return false, err
	}
	if topic == nil {
		return false, models.ErrNoTopic
	}

	var (
		allowed     bool
		isAdmin     bool
		isModerator bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		allowed, err = r.acl.Allows(gctx, uid, topic.CID, PrivPurge)
		return err
	})
	g.Go(func() (err error) {
		isAdmin, err = r.roles.IsAdmin(gctx, uid)
		return err
	})
	g.Go(func() (err error) {
		isModerator, err = r.roles.IsModerator(gctx, uid, topic.CID)
		return err
	})
	if err := g.Wait(); err != nil {
		return false, err
	}

	isOwner := uid > 0 && uid == topic.UID
	return (allowed && (isOwner || isModerator)) || isAdmin, nil
}

// CanDelete reports whether the user may delete the topic. Unlike a plain
// denial, exceeding the configured reply-count threshold as a non-moderator
// is a hard stop and returns a domain error.
func (r *Resolver) CanDelete(ctx context.Context, tid, uid int64) (bool, error) {
	topic, err := r.topics.TopicFields(ctx, tid, []string{
		models.FieldCID, models.FieldUID, models.FieldPostCount, models.FieldDeleterUID,
	})
	if err != nil {
		return false, err
	}
	if topic == nil {
		return false, models.ErrNoTopic
	}

	var (
		allowed     bool
		isAdmin     bool
		isModerator bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		allowed, err = r.acl.Allows(gctx, uid, topic.CID, PrivTopicsDelete)
		return err
	})
	g.Go(func() (err error) {
		isAdmin, err = r.roles.IsAdmin(gctx, uid)
		return err
	})
	g.Go(func() (err error) {
		isModerator, err = r.roles.IsModerator(gctx, uid, topic.CID)
		return err
	})
	if err := g.Wait(); err != nil {
		return false, err
	}

	threshold := r.cfg.PreventTopicDeleteAfterReplies
	if threshold > 0 && !isAdmin && !isModerator {
		replies := topic.PostCount - 1
		if replies < 0 {
			replies = 0
		}
		if replies >= int64(threshold) {
			return false, models.NewDeleteThresholdError(threshold)
		}
	}

	isOwner := uid > 0 && uid == topic.UID
	ownDeletable := isOwner && (topic.DeleterUID == 0 || topic.DeleterUID == topic.UID)
	return allowed && (ownDeletable || isModerator || isAdmin), nil
}

// CanEdit reports whether the user may use the thread editing tools. This
// is where the pin/unpin capability is extended to instructors.
func (r *Resolver) CanEdit(ctx context.Context, tid, uid int64) (bool, error) {
	isAdminOrMod, err := r.IsAdminOrMod(ctx, tid, uid)
	if err != nil {
		return false, err
	}
	if isAdminOrMod {
		return true, nil
	}
	return r.roles.IsInstructor(ctx, uid)
}

// IsOwnerOrAdminOrMod reports whether the user owns or moderates the topic
func (r *Resolver) IsOwnerOrAdminOrMod(ctx context.Context, tid, uid int64) (bool, error) {
	topic, err := r.topics.TopicFields(ctx, tid, []string{models.FieldUID})
	if err != nil {
		return false, err
	}
	if topic == nil {
		return false, models.ErrNoTopic
	}
	if uid > 0 && uid == topic.UID {
		return true, nil
	}
	return r.IsAdminOrMod(ctx, tid, uid)
}

// IsAdminOrMod reports whether the user is a site administrator or a
// moderator of the topic's owning category
func (r *Resolver) IsAdminOrMod(ctx context.Context, tid, uid int64) (bool, error) {
	topic, err := r.topics.TopicFields(ctx, tid, []string{models.FieldCID})
	if err != nil {
		return false, err
	}
	if topic == nil {
		return false, models.ErrNoTopic
	}
	isAdmin, err := r.roles.IsAdmin(ctx, uid)
	if err != nil {
		return false, err
	}
	if isAdmin {
		return true, nil
	}
	return r.roles.IsModerator(ctx, uid, topic.CID)
}

// IsInstructor reports whether the user holds the instructor role
func (r *Resolver) IsInstructor(ctx context.Context, uid int64) (bool, error) {
	return r.roles.IsInstructor(ctx, uid)
}
