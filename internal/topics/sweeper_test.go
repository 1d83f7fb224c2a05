package topics

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/coursehive/forumcore/internal/models"
)

type fixedCategories struct {
	ids []int64
}

func (f *fixedCategories) ListIDs(ctx context.Context) ([]int64, error) {
	return f.ids, nil
}

func TestSweepUnpinsExpiredTopics(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	seedTopic(t, e, 1, 1, ownerUID, nil)
	seedTopic(t, e, 2, 1, ownerUID, nil)
	seedTopic(t, e, 3, 2, ownerUID, nil)

	for _, tid := range []int64{1, 2, 3} {
		if _, err := e.mgr.Pin(ctx, tid, models.UserActor(adminUID)); err != nil {
			t.Fatalf("Pin %d: %v", tid, err)
		}
	}
	// 1 and 3 expired, 2 has no expiry at all
	expired := time.Now().Add(-time.Minute).UnixMilli()
	for _, tid := range []int64{1, 3} {
		if err := e.mgr.data.SetTopicField(ctx, tid, models.FieldPinExpiry, expired); err != nil {
			t.Fatal(err)
		}
	}

	sweeper := NewSweeper(e.mgr, &fixedCategories{ids: []int64{1, 2}}, e.st, time.Minute, zap.NewNop())
	if err := sweeper.Sweep(ctx); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	for _, tc := range []struct {
		tid    int64
		pinned bool
	}{{1, false}, {2, true}, {3, false}} {
		topic, err := e.mgr.data.TopicFields(ctx, tc.tid, nil)
		if err != nil {
			t.Fatal(err)
		}
		if topic.Pinned != tc.pinned {
			t.Fatalf("topic %d pinned = %v, want %v", tc.tid, topic.Pinned, tc.pinned)
		}
	}
}

func TestSweepEmptyCategories(t *testing.T) {
	e := newEnv(t)
	sweeper := NewSweeper(e.mgr, &fixedCategories{ids: []int64{1, 2, 3}}, e.st, 0, zap.NewNop())
	if sweeper.interval != time.Minute {
		t.Fatalf("interval = %v, want the one-minute default", sweeper.interval)
	}
	if err := sweeper.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep on empty categories: %v", err)
	}
}
