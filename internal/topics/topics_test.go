package topics

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/coursehive/forumcore/internal/models"
	"github.com/coursehive/forumcore/internal/privileges"
	"github.com/coursehive/forumcore/internal/store"
	"github.com/coursehive/forumcore/pkg/config"
)

type fakeRoles struct {
	admins      map[int64]bool
	instructors map[int64]bool
	moderators  map[int64]int64 // uid -> moderated cid
}

func (f *fakeRoles) IsAdmin(ctx context.Context, uid int64) (bool, error) {
	return f.admins[uid], nil
}

func (f *fakeRoles) IsInstructor(ctx context.Context, uid int64) (bool, error) {
	return f.instructors[uid], nil
}

func (f *fakeRoles) IsModerator(ctx context.Context, uid, cid int64) (bool, error) {
	return f.moderators[uid] == cid, nil
}

type grant struct {
	uid       int64 // 0 grants to everyone
	cid       int64
	privilege string
}

type fakeACL struct {
	grants   []grant
	disabled map[int64]bool
}

func (f *fakeACL) Allows(ctx context.Context, uid, cid int64, privilege string) (bool, error) {
	for _, g := range f.grants {
		if g.cid == cid && g.privilege == privilege && (g.uid == 0 || g.uid == uid) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeACL) AllowsAll(ctx context.Context, uid, cid int64, privs []string) (map[string]bool, error) {
	result := make(map[string]bool, len(privs))
	for _, p := range privs {
		ok, _ := f.Allows(ctx, uid, cid, p)
		result[p] = ok
	}
	return result, nil
}

func (f *fakeACL) Disabled(ctx context.Context, cid int64) (bool, error) {
	return f.disabled[cid], nil
}

// Test cast: 100 owns topic 1, 200 moderates category 1, 300 is an admin,
// 400 is an instructor, 500 is a plain user.
const (
	ownerUID      = 100
	moderatorUID  = 200
	adminUID      = 300
	instructorUID = 400
	plainUID      = 500
)

type env struct {
	st    *store.MemoryStore
	mgr   *Manager
	roles *fakeRoles
	acl   *fakeACL
	cfg   *config.ForumConfig
}

func newEnv(t *testing.T) *env {
	t.Helper()
	st := store.NewMemory()
	roles := &fakeRoles{
		admins:      map[int64]bool{adminUID: true},
		instructors: map[int64]bool{instructorUID: true},
		moderators:  map[int64]int64{moderatorUID: 1},
	}
	acl := &fakeACL{
		grants: []grant{
			{0, 1, privileges.PrivRead},
			{0, 1, privileges.PrivTopicsRead},
			{0, 1, privileges.PrivTopicsReply},
			{0, 1, privileges.PrivTopicsDelete},
			{0, 2, privileges.PrivRead},
			{0, 2, privileges.PrivTopicsRead},
		},
		disabled: map[int64]bool{},
	}
	cfg := &config.ForumConfig{MaxReplyPreviewUsers: 6}
	data := NewData(st)
	resolver := privileges.NewResolver(data, acl, roles, cfg, zap.NewNop())
	mgr := NewManager(st, data, resolver, roles, cfg, zap.NewNop())
	return &env{st: st, mgr: mgr, roles: roles, acl: acl, cfg: cfg}
}

const (
	pastTimestamp   = 1000000000000 // 2001
	futureTimestamp = 9999999999999 // far enough to stay scheduled
)

// seedTopic writes the topic record and registers it in its category's feed
// indices, mirroring what topic creation would have done.
func seedTopic(t *testing.T, e *env, tid, cid, uid int64, extra map[string]interface{}) {
	t.Helper()
	ctx := context.Background()
	fields := map[string]interface{}{
		models.FieldTID:          tid,
		models.FieldCID:          cid,
		models.FieldUID:          uid,
		models.FieldMainPID:      tid * 10,
		models.FieldTimestamp:    pastTimestamp,
		models.FieldLastPostTime: pastTimestamp,
		models.FieldPostCount:    1,
	}
	for k, v := range extra {
		fields[k] = v
	}
	if err := e.st.SetObject(ctx, topicKey(tid), fields); err != nil {
		t.Fatalf("seed topic %d: %v", tid, err)
	}
	topic, err := e.mgr.data.TopicFields(ctx, tid, nil)
	if err != nil {
		t.Fatalf("read seeded topic %d: %v", tid, err)
	}
	if err := e.mgr.addToCategoryIndices(ctx, topic, cid); err != nil {
		t.Fatalf("index seeded topic %d: %v", tid, err)
	}
	if _, err := e.st.IncrObjectField(ctx, categoryKey(cid), "topic_count", 1); err != nil {
		t.Fatalf("seed topic_count: %v", err)
	}
}

func wantCode(t *testing.T, err error, code string) {
	t.Helper()
	if got := models.ErrCode(err); got != code {
		t.Fatalf("error code = %q (err=%v), want %q", got, err, code)
	}
}

func scoreOf(t *testing.T, e *env, key, member string) (float64, bool) {
	t.Helper()
	score, ok, err := e.st.SortedSetScore(context.Background(), key, member)
	if err != nil {
		t.Fatalf("SortedSetScore(%s, %s): %v", key, member, err)
	}
	return score, ok
}
