package topics

import (
	"context"
	"regexp"

	"github.com/coursehive/forumcore/internal/models"
)

var topicLinkPattern = regexp.MustCompile(`/topic/(\d+)`)

// SyncBacklinks reconciles the set of topics a post links to against the
// post's content. New targets get a backlink event on the target topic;
// links removed from the content are dropped from the set. Returns the
// number of newly added backlinks.
func (m *Manager) SyncBacklinks(ctx context.Context, post *models.Post) (int, error) {
	if post == nil {
		return 0, models.ErrInvalidData
	}

	seen := make(map[int64]bool)
	var targets []int64
	for _, match := range topicLinkPattern.FindAllStringSubmatch(post.Content, -1) {
		tid := parseID(match[1])
		// A topic linking to itself is not a backlink
		if tid == 0 || tid == post.TID || seen[tid] {
			continue
		}
		seen[tid] = true
		targets = append(targets, tid)
	}

	key := postBacklinksKey(post.PID)
	existing, err := m.store.SetMembers(ctx, key)
	if err != nil {
		return 0, err
	}
	current := make(map[int64]bool, len(existing))
	for _, member := range existing {
		current[parseID(member)] = true
	}

	added := 0
	for _, tid := range targets {
		if current[tid] {
			continue
		}
		if err := m.store.SetAdd(ctx, key, formatID(tid)); err != nil {
			return added, err
		}
		if _, err := m.events.Append(ctx, tid, Event{Type: "backlink", UID: post.UID}); err != nil {
			return added, err
		}
		added++
	}

	for tid := range current {
		if !seen[tid] {
			if err := m.store.SetRemove(ctx, key, formatID(tid)); err != nil {
				return added, err
			}
		}
	}
	return added, nil
}
