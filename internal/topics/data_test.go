package topics

import (
	"context"
	"testing"

	"github.com/coursehive/forumcore/internal/models"
	"github.com/coursehive/forumcore/internal/store"
)

func TestTopicFieldsProjection(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	seedTopic(t, e, 1, 1, ownerUID, map[string]interface{}{
		models.FieldUpvotes:   7,
		models.FieldDownvotes: 2,
		models.FieldTags:      "c++,Go",
	})

	topic, err := e.mgr.data.TopicFields(ctx, 1, nil)
	if err != nil {
		t.Fatalf("TopicFields: %v", err)
	}
	if topic.Votes != 5 {
		t.Fatalf("votes = %d, want 5", topic.Votes)
	}
	if topic.Scheduled {
		t.Fatal("past-timestamp topic reported as scheduled")
	}
	if topic.TimestampISO == "" || topic.LastPostTimeISO == "" {
		t.Fatal("ISO timestamp mirrors not populated")
	}
	if len(topic.TagObjects) != 2 {
		t.Fatalf("tags = %+v, want 2", topic.TagObjects)
	}
	if topic.TagObjects[1].CSSClass != "tag-go" {
		t.Fatalf("tag class = %q, want tag-go", topic.TagObjects[1].CSSClass)
	}
}

func TestTopicFieldsScheduled(t *testing.T) {
	e := newEnv(t)
	seedTopic(t, e, 1, 1, ownerUID, map[string]interface{}{
		models.FieldTimestamp: futureTimestamp,
	})
	topic, err := e.mgr.data.TopicFields(context.Background(), 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !topic.Scheduled {
		t.Fatal("future-timestamp topic not reported as scheduled")
	}
}

func TestTopicFieldsMissingTopic(t *testing.T) {
	e := newEnv(t)
	topic, err := e.mgr.data.TopicFields(context.Background(), 99, nil)
	if err != nil {
		t.Fatal(err)
	}
	if topic != nil {
		t.Fatalf("expected nil for missing topic, got %+v", topic)
	}
}

func TestTopicFieldsSubsetCarriesIdentity(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	seedTopic(t, e, 1, 1, ownerUID, map[string]interface{}{
		models.FieldUpvotes: 4,
	})

	// Asking for one field still yields the identity and state fields the
	// engine's guards depend on
	topic, err := e.mgr.data.TopicFields(ctx, 1, []string{models.FieldCID})
	if err != nil {
		t.Fatal(err)
	}
	if topic.TID != 1 || topic.CID != 1 {
		t.Fatalf("identity fields missing: %+v", topic)
	}
	if topic.Votes != 4 {
		t.Fatalf("votes = %d, want 4 from identity upvotes", topic.Votes)
	}
}

func TestTopicsFieldsEmptyInput(t *testing.T) {
	st := store.NewMemory()
	data := NewData(st)
	topics, err := data.TopicsFields(context.Background(), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(topics) != 0 {
		t.Fatalf("expected no topics, got %d", len(topics))
	}
}
