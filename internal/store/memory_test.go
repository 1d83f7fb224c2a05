package store

import (
	"context"
	"testing"
)

func TestMemoryStore_Objects(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	if err := s.SetObject(ctx, "topic:1", map[string]interface{}{"tid": 1, "locked": true}); err != nil {
		t.Fatalf("SetObject failed: %v", err)
	}

	fields, err := s.GetObjectFields(ctx, "topic:1", []string{"tid", "locked", "missing"})
	if err != nil {
		t.Fatalf("GetObjectFields failed: %v", err)
	}
	if fields["tid"] != "1" {
		t.Errorf("Expected tid=1, got %q", fields["tid"])
	}
	if fields["locked"] != "1" {
		t.Errorf("Expected locked=1, got %q", fields["locked"])
	}
	if _, ok := fields["missing"]; ok {
		t.Error("Missing field should be omitted")
	}

	n, err := s.IncrObjectField(ctx, "topic:1", "postcount", 3)
	if err != nil || n != 3 {
		t.Errorf("IncrObjectField = %d, %v; want 3, nil", n, err)
	}
	n, _ = s.IncrObjectField(ctx, "topic:1", "postcount", -1)
	if n != 2 {
		t.Errorf("IncrObjectField = %d; want 2", n)
	}

	if err := s.DeleteObjectFields(ctx, "topic:1", "locked"); err != nil {
		t.Fatalf("DeleteObjectFields failed: %v", err)
	}
	obj, _ := s.GetObject(ctx, "topic:1")
	if _, ok := obj["locked"]; ok {
		t.Error("Deleted field still present")
	}
}

func TestMemoryStore_SortedSets(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	s.SortedSetAdd(ctx, "z", 3, "c")
	s.SortedSetAdd(ctx, "z", 1, "a")
	s.SortedSetAdd(ctx, "z", 2, "b")

	members, err := s.SortedSetRange(ctx, "z", 0, -1)
	if err != nil {
		t.Fatalf("SortedSetRange failed: %v", err)
	}
	want := []string{"a", "b", "c"}
	if len(members) != len(want) {
		t.Fatalf("Expected %d members, got %d", len(want), len(members))
	}
	for i := range want {
		if members[i] != want[i] {
			t.Errorf("members[%d] = %q, want %q", i, members[i], want[i])
		}
	}

	count, _ := s.SortedSetCount(ctx, "z", "2", "+inf")
	if count != 2 {
		t.Errorf("SortedSetCount = %d, want 2", count)
	}

	score, ok, _ := s.SortedSetScore(ctx, "z", "b")
	if !ok || score != 2 {
		t.Errorf("SortedSetScore = %v, %v; want 2, true", score, ok)
	}

	s.SortedSetRemove(ctx, []string{"z"}, "b")
	if _, ok, _ := s.SortedSetScore(ctx, "z", "b"); ok {
		t.Error("Removed member still present")
	}
}
