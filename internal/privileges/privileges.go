// Package privileges computes, per topic and user, the set of allowed
// actions by composing role checks, ownership, category ACL and topic state.
// It never mutates anything.
package privileges

import (
	"context"

	"github.com/coursehive/forumcore/internal/models"
)

// Category privilege names
const (
	PrivTopicsReply      = "topics:reply"
	PrivTopicsRead       = "topics:read"
	PrivTopicsSchedule   = "topics:schedule"
	PrivTopicsTag        = "topics:tag"
	PrivTopicsDelete     = "topics:delete"
	PrivPostsEdit        = "posts:edit"
	PrivPostsHistory     = "posts:history"
	PrivPostsDelete      = "posts:delete"
	PrivPostsViewDeleted = "posts:view_deleted"
	PrivRead             = "read"
	PrivPurge            = "purge"
)

// topicPrivileges is the full privilege list resolved for a privilege bag
var topicPrivileges = []string{
	PrivTopicsReply,
	PrivTopicsRead,
	PrivTopicsSchedule,
	PrivTopicsTag,
	PrivTopicsDelete,
	PrivPostsEdit,
	PrivPostsHistory,
	PrivPostsDelete,
	PrivPostsViewDeleted,
	PrivRead,
	PrivPurge,
}

// TopicPrivileges is the full action set available to one user on one topic
type TopicPrivileges struct {
	TopicsReply      bool `json:"topics:reply"`
	TopicsRead       bool `json:"topics:read"`
	TopicsSchedule   bool `json:"topics:schedule"`
	TopicsTag        bool `json:"topics:tag"`
	TopicsDelete     bool `json:"topics:delete"`
	PostsEdit        bool `json:"posts:edit"`
	PostsHistory     bool `json:"posts:history"`
	PostsDelete      bool `json:"posts:delete"`
	PostsViewDeleted bool `json:"posts:view_deleted"`
	Read             bool `json:"read"`
	Purge            bool `json:"purge"`

	IsAdminOrMod    bool `json:"isAdminOrMod"`
	IsInstructor    bool `json:"isInstructor"`
	IsOwner         bool `json:"isOwner"`
	Editable        bool `json:"editable"`
	Deletable       bool `json:"deletable"`
	ViewThreadTools bool `json:"view_thread_tools"`
	ViewDeleted     bool `json:"view_deleted"`
	ViewScheduled   bool `json:"view_scheduled"`
	Disabled        bool `json:"disabled"`
}

// TopicReader is the slice of the field store adapter the resolver reads
// topic state through.
type TopicReader interface {
	TopicFields(ctx context.Context, tid int64, fields []string) (*models.Topic, error)
	TopicsFields(ctx context.Context, tids []int64, fields []string) ([]*models.Topic, error)
	Exists(ctx context.Context, tid int64) (bool, error)
}

// Roles is the user-role oracle
type Roles interface {
	IsAdmin(ctx context.Context, uid int64) (bool, error)
	IsInstructor(ctx context.Context, uid int64) (bool, error)
	IsModerator(ctx context.Context, uid, cid int64) (bool, error)
}

// CategoryACL is the category ACL oracle
type CategoryACL interface {
	Allows(ctx context.Context, uid, cid int64, privilege string) (bool, error)
	AllowsAll(ctx context.Context, uid, cid int64, privileges []string) (map[string]bool, error)
	Disabled(ctx context.Context, cid int64) (bool, error)
}

// CanViewDeletedScheduled decides whether a topic in a deleted or scheduled
// state is visible. Scheduled state takes priority: a topic is never treated
// as deleted while it is still scheduled. Topics in neither state are always
// visible. The privilege map, when supplied, contributes the corresponding
// view privileges.
func CanViewDeletedScheduled(topic *models.Topic, privs map[string]bool, viewDeleted, viewScheduled bool) bool {
	if topic == nil || (!topic.Deleted && !topic.Scheduled) {
		return true
	}
	if privs != nil {
		viewDeleted = viewDeleted || privs[PrivPostsViewDeleted]
		viewScheduled = viewScheduled || privs[PrivTopicsSchedule]
	}
	if topic.Scheduled {
		return viewScheduled
	}
	return viewDeleted
}
