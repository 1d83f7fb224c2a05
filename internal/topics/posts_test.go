package topics

import (
	"context"
	"testing"

	"github.com/coursehive/forumcore/internal/models"
)

func TestAddPostToTopicSetsMainPidOnce(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	seedTopic(t, e, 1, 1, ownerUID, map[string]interface{}{
		models.FieldMainPID:   0,
		models.FieldPostCount: 0,
	})

	first := &models.Post{PID: 10, TID: 1, UID: ownerUID, Timestamp: pastTimestamp}
	if err := e.mgr.AddPostToTopic(ctx, first); err != nil {
		t.Fatalf("AddPostToTopic: %v", err)
	}
	topic, _ := e.mgr.data.TopicFields(ctx, 1, nil)
	if topic.MainPID != 10 {
		t.Fatalf("mainPid = %d, want 10", topic.MainPID)
	}
	// The main post is not listed as a reply
	if _, ok := scoreOf(t, e, tidPostsKey(1), "10"); ok {
		t.Fatal("main post entered the reply list")
	}

	second := &models.Post{PID: 11, TID: 1, UID: plainUID, Timestamp: pastTimestamp + 1000, Upvotes: 3, Downvotes: 1}
	if err := e.mgr.AddPostToTopic(ctx, second); err != nil {
		t.Fatalf("AddPostToTopic: %v", err)
	}
	topic, _ = e.mgr.data.TopicFields(ctx, 1, nil)
	if topic.MainPID != 10 {
		t.Fatalf("mainPid overwritten to %d", topic.MainPID)
	}
	if score, ok := scoreOf(t, e, tidPostVotesKey(1), "11"); !ok || score != 2 {
		t.Fatalf("post votes score = %v (present=%v), want 2", score, ok)
	}
	if topic.PostCount != 2 {
		t.Fatalf("postcount = %d, want 2", topic.PostCount)
	}
}

func TestPosterCountTracksDistinctUsers(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	seedTopic(t, e, 1, 1, ownerUID, map[string]interface{}{
		models.FieldPostCount: 1,
	})

	posts := []*models.Post{
		{PID: 11, TID: 1, UID: plainUID, Timestamp: pastTimestamp + 1},
		{PID: 12, TID: 1, UID: plainUID, Timestamp: pastTimestamp + 2},
		{PID: 13, TID: 1, UID: instructorUID, Timestamp: pastTimestamp + 3},
	}
	for _, p := range posts {
		if err := e.mgr.AddPostToTopic(ctx, p); err != nil {
			t.Fatalf("AddPostToTopic %d: %v", p.PID, err)
		}
	}

	topic, _ := e.mgr.data.TopicFields(ctx, 1, nil)
	if topic.PosterCount != 2 {
		t.Fatalf("postercount = %d, want 2 distinct posters", topic.PosterCount)
	}
	if topic.InstructorCount != 1 {
		t.Fatalf("instructorcount = %d, want 1", topic.InstructorCount)
	}
	if topic.PostCount != 4 {
		t.Fatalf("postcount = %d, want 4", topic.PostCount)
	}

	// Removing one of two posts by the same user keeps them counted
	if err := e.mgr.RemovePostFromTopic(ctx, posts[0]); err != nil {
		t.Fatalf("RemovePostFromTopic: %v", err)
	}
	topic, _ = e.mgr.data.TopicFields(ctx, 1, nil)
	if topic.PosterCount != 2 {
		t.Fatalf("postercount after partial removal = %d, want 2", topic.PosterCount)
	}

	// Removing their last post drops them
	if err := e.mgr.RemovePostFromTopic(ctx, posts[1]); err != nil {
		t.Fatalf("RemovePostFromTopic: %v", err)
	}
	topic, _ = e.mgr.data.TopicFields(ctx, 1, nil)
	if topic.PosterCount != 1 {
		t.Fatalf("postercount after full removal = %d, want 1", topic.PosterCount)
	}

	if err := e.mgr.RemovePostFromTopic(ctx, posts[2]); err != nil {
		t.Fatalf("RemovePostFromTopic: %v", err)
	}
	topic, _ = e.mgr.data.TopicFields(ctx, 1, nil)
	if topic.InstructorCount != 0 {
		t.Fatalf("instructorcount = %d, want 0", topic.InstructorCount)
	}
	if topic.PostCount != 1 {
		t.Fatalf("postcount = %d, want 1", topic.PostCount)
	}
}

func TestOnNewPostMadeAdvancesRecency(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	seedTopic(t, e, 1, 1, ownerUID, nil)

	newer := &models.Post{PID: 11, TID: 1, UID: plainUID, Timestamp: pastTimestamp + 5000}
	if err := e.mgr.OnNewPostMade(ctx, newer); err != nil {
		t.Fatalf("OnNewPostMade: %v", err)
	}
	topic, _ := e.mgr.data.TopicFields(ctx, 1, nil)
	if topic.LastPostTime != pastTimestamp+5000 {
		t.Fatalf("lastposttime = %d, want %d", topic.LastPostTime, pastTimestamp+5000)
	}
	if score, ok := scoreOf(t, e, cidLastPostKey(1), "1"); !ok || score != pastTimestamp+5000 {
		t.Fatalf("recency index score = %v (present=%v)", score, ok)
	}

	// An older post (edited in, or imported) does not move the topic back
	older := &models.Post{PID: 12, TID: 1, UID: plainUID, Timestamp: pastTimestamp - 5000}
	if err := e.mgr.OnNewPostMade(ctx, older); err != nil {
		t.Fatalf("OnNewPostMade: %v", err)
	}
	topic, _ = e.mgr.data.TopicFields(ctx, 1, nil)
	if topic.LastPostTime != pastTimestamp+5000 {
		t.Fatalf("lastposttime regressed to %d", topic.LastPostTime)
	}
}

func TestIncrementViewCount(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	seedTopic(t, e, 1, 1, ownerUID, nil)

	for i := 0; i < 3; i++ {
		if err := e.mgr.IncrementViewCount(ctx, 1); err != nil {
			t.Fatalf("IncrementViewCount: %v", err)
		}
	}
	topic, _ := e.mgr.data.TopicFields(ctx, 1, nil)
	if topic.ViewCount != 3 {
		t.Fatalf("viewcount = %d, want 3", topic.ViewCount)
	}
	if score, ok := scoreOf(t, e, cidViewsKey(1), "1"); !ok || score != 3 {
		t.Fatalf("views index score = %v (present=%v), want 3", score, ok)
	}

	err := e.mgr.IncrementViewCount(ctx, 7)
	wantCode(t, err, "no-topic")
}

func TestGetPostReplies(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	seedTopic(t, e, 1, 1, ownerUID, nil)

	// Eight replies to post 10 from seven distinct users
	latest := int64(0)
	for i := int64(0); i < 8; i++ {
		pid := 100 + i
		uid := 1000 + i
		if i == 7 {
			uid = 1000 // repeat poster
		}
		ts := pastTimestamp + i*1000
		if ts > latest {
			latest = ts
		}
		reply := &models.Post{PID: pid, TID: 1, UID: uid, ToPID: 10, Timestamp: ts}
		if err := e.mgr.AddPostToTopic(ctx, reply); err != nil {
			t.Fatalf("AddPostToTopic %d: %v", pid, err)
		}
		err := e.st.SetObject(ctx, postKey(pid), map[string]interface{}{
			"pid": pid, "uid": uid, "timestamp": ts,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	previews, err := e.mgr.GetPostReplies(ctx, []int64{10, 99})
	if err != nil {
		t.Fatalf("GetPostReplies: %v", err)
	}
	if _, ok := previews[99]; ok {
		t.Fatal("preview produced for a post with no replies")
	}

	preview := previews[10]
	if preview == nil {
		t.Fatal("missing preview for post 10")
	}
	if preview.Count != 8 {
		t.Fatalf("reply count = %d, want 8", preview.Count)
	}
	if preview.Timestamp != latest {
		t.Fatalf("latest reply timestamp = %d, want %d", preview.Timestamp, latest)
	}
	if len(preview.UIDs) != 6 || !preview.HasMore {
		t.Fatalf("uids = %v hasMore = %v, want 6 uids and hasMore", preview.UIDs, preview.HasMore)
	}
}
