package topics

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/coursehive/forumcore/internal/store"
)

// CategoryLister enumerates the categories the sweeper scans
type CategoryLister interface {
	ListIDs(ctx context.Context) ([]int64, error)
}

// Sweeper periodically scans every category's pinned list and unpins the
// topics whose pin expiry has passed.
type Sweeper struct {
	manager    *Manager
	categories CategoryLister
	store      store.Store
	interval   time.Duration
	logger     *zap.Logger
}

// NewSweeper creates a pin-expiry sweeper
func NewSweeper(manager *Manager, categories CategoryLister, st store.Store, interval time.Duration, logger *zap.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{
		manager:    manager,
		categories: categories,
		store:      st,
		interval:   interval,
		logger:     logger.With(zap.String("component", "pin-sweeper")),
	}
}

// Run sweeps on the configured interval until the context is cancelled
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("Sweeper running", zap.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				s.logger.Error("Sweep failed", zap.Error(err))
			}
		}
	}
}

// Sweep performs one pass over all categories
func (s *Sweeper) Sweep(ctx context.Context) error {
	cids, err := s.categories.ListIDs(ctx)
	if err != nil {
		return err
	}
	for _, cid := range cids {
		members, err := s.store.SortedSetRange(ctx, cidPinnedKey(cid), 0, -1)
		if err != nil {
			return err
		}
		if len(members) == 0 {
			continue
		}
		tids := make([]int64, 0, len(members))
		for _, member := range members {
			if tid := parseID(member); tid > 0 {
				tids = append(tids, tid)
			}
		}
		valid, err := s.manager.CheckPinExpiry(ctx, tids)
		if err != nil {
			return err
		}
		if expired := len(tids) - len(valid); expired > 0 {
			s.logger.Info("Unpinned expired topics",
				zap.Int64("cid", cid),
				zap.Int("expired", expired))
		}
	}
	return nil
}
