package topics

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/coursehive/forumcore/internal/store"
)

// Event is one audit record attached to a topic
type Event struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	UID       int64  `json:"uid"`
	Timestamp int64  `json:"timestamp"`
	FromCID   int64  `json:"fromCid,omitempty"`
}

// EventLog appends and reads per-topic audit events. Delivery to external
// sinks is out of scope; the log is the durable record.
type EventLog struct {
	store  store.Store
	logger *zap.Logger
}

// NewEventLog creates a new event log
func NewEventLog(st store.Store, logger *zap.Logger) *EventLog {
	return &EventLog{
		store:  st,
		logger: logger.With(zap.String("component", "topic-events")),
	}
}

// Append writes one audit event for a topic and returns it with its
// assigned id and timestamp
func (l *EventLog) Append(ctx context.Context, tid int64, ev Event) (Event, error) {
	ev.ID = uuid.NewString()
	if ev.Timestamp == 0 {
		ev.Timestamp = time.Now().UnixMilli()
	}

	fields := map[string]interface{}{
		"type":      ev.Type,
		"uid":       ev.UID,
		"timestamp": ev.Timestamp,
		"tid":       tid,
	}
	if ev.FromCID != 0 {
		fields["fromCid"] = ev.FromCID
	}

	if err := l.store.SetObject(ctx, eventKey(ev.ID), fields); err != nil {
		return ev, err
	}
	if err := l.store.SortedSetAdd(ctx, topicEventsKey(tid), float64(ev.Timestamp), ev.ID); err != nil {
		return ev, err
	}

	l.logger.Info("[EVENT]",
		zap.String("type", ev.Type),
		zap.Int64("tid", tid),
		zap.Int64("uid", ev.UID))

	return ev, nil
}

// List returns a topic's events in chronological order
func (l *EventLog) List(ctx context.Context, tid int64) ([]Event, error) {
	ids, err := l.store.SortedSetRange(ctx, topicEventsKey(tid), 0, -1)
	if err != nil {
		return nil, err
	}

	events := make([]Event, 0, len(ids))
	for _, id := range ids {
		raw, err := l.store.GetObject(ctx, eventKey(id))
		if err != nil {
			return nil, err
		}
		if len(raw) == 0 {
			continue
		}
		events = append(events, Event{
			ID:        id,
			Type:      raw["type"],
			UID:       parseID(raw["uid"]),
			Timestamp: parseID(raw["timestamp"]),
			FromCID:   parseID(raw["fromCid"]),
		})
	}
	return events, nil
}
