package topics

import (
	"context"
	"testing"

	"github.com/coursehive/forumcore/internal/models"
)

func TestMoveRelocatesIndices(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	seedTopic(t, e, 1, 1, ownerUID, map[string]interface{}{
		models.FieldTags: "go,databases",
	})

	if err := e.mgr.Move(ctx, 1, MoveOptions{CID: 1, UID: adminUID}); models.ErrCode(err) != "cant-move-topic-to-same-category" {
		t.Fatalf("same-category move: %v", err)
	}

	if err := e.mgr.Move(ctx, 1, MoveOptions{CID: 2, UID: adminUID}); err != nil {
		t.Fatalf("Move: %v", err)
	}

	topic, err := e.mgr.data.TopicFields(ctx, 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	if topic.CID != 2 || topic.OldCID != 1 {
		t.Fatalf("cid/oldCid = %d/%d, want 2/1", topic.CID, topic.OldCID)
	}

	oldKeys := []string{
		cidTidsKey(1), cidPostsKey(1), cidVotesKey(1), cidViewsKey(1),
		cidLastPostKey(1), cidUserTidsKey(1, ownerUID),
		cidTagKey(1, "go"), cidTagKey(1, "databases"),
	}
	for _, key := range oldKeys {
		if _, ok := scoreOf(t, e, key, "1"); ok {
			t.Fatalf("moved topic still indexed under old category: %s", key)
		}
	}
	for _, key := range []string{cidTidsKey(2), cidUserTidsKey(2, ownerUID), cidTagKey(2, "go")} {
		if _, ok := scoreOf(t, e, key, "1"); !ok {
			t.Fatalf("moved topic missing from new category index: %s", key)
		}
	}

	oldCount, _ := e.st.GetObjectFields(ctx, categoryKey(1), []string{"topic_count"})
	newCount, _ := e.st.GetObjectFields(ctx, categoryKey(2), []string{"topic_count"})
	if oldCount["topic_count"] != "0" || newCount["topic_count"] != "1" {
		t.Fatalf("topic counts = %q/%q, want 0/1", oldCount["topic_count"], newCount["topic_count"])
	}

	events, err := e.mgr.Events().List(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Type != "move" || events[0].FromCID != 1 {
		t.Fatalf("move event = %+v", events)
	}
}

func TestMovePinnedTopicStaysPinned(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	seedTopic(t, e, 1, 1, ownerUID, nil)

	if _, err := e.mgr.Pin(ctx, 1, models.UserActor(adminUID)); err != nil {
		t.Fatalf("Pin: %v", err)
	}
	if err := e.mgr.Move(ctx, 1, MoveOptions{CID: 2, UID: adminUID}); err != nil {
		t.Fatalf("Move: %v", err)
	}

	if _, ok := scoreOf(t, e, cidPinnedKey(2), "1"); !ok {
		t.Fatal("pinned topic missing from new category's pinned index")
	}
	if _, ok := scoreOf(t, e, cidPinnedKey(1), "1"); ok {
		t.Fatal("pinned topic left behind in old category's pinned index")
	}
	// A pinned topic never enters the feed indices on arrival
	for _, key := range []string{cidTidsKey(2), cidPostsKey(2), cidLastPostKey(2)} {
		if _, ok := scoreOf(t, e, key, "1"); ok {
			t.Fatalf("pinned topic leaked into feed index %s", key)
		}
	}
}

func TestMoveUnknownTopic(t *testing.T) {
	e := newEnv(t)
	err := e.mgr.Move(context.Background(), 9, MoveOptions{CID: 2, UID: adminUID})
	wantCode(t, err, "no-topic")
}
