package notify

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"taskhub/internal/model"
	"taskhub/pkg/logger"
	"taskhub/pkg/metrics"
)

// Notifier delivers user-visible outcome messages
type Notifier interface {
	Notify(ctx context.Context, n model.Notification)
}

// Feed lists past notifications of a user
type Feed interface {
	ListByUser(ctx context.Context, userID string, limit int) ([]model.Notification, error)
}

// LogNotifier writes notifications to the structured log
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Notify(ctx context.Context, n model.Notification) {
	metrics.IncrementNotification(n.Level)
	log := logger.WithTrace(ctx, l.logger).With(
		zap.String("user_id", n.UserID),
		zap.String("level", n.Level),
		zap.String("message", n.Message),
	)
	if n.Level == model.LevelError {
		log.Warn(n.Title)
		return
	}
	log.Info(n.Title)
}

// Marker marks one of a user's notifications as read
type Marker interface {
	MarkAsRead(ctx context.Context, userID string, id int64) error
}

// Inserter stores a notification
type Inserter interface {
	Insert(ctx context.Context, n *model.Notification) error
}

// StoreNotifier persists notifications to the feed and logs them
type StoreNotifier struct {
	store Inserter
	log   *LogNotifier
}

func NewStoreNotifier(store Inserter, logger *zap.Logger) *StoreNotifier {
	return &StoreNotifier{store: store, log: NewLogNotifier(logger)}
}

// Notify never fails the caller; storage errors are logged by the store
func (s *StoreNotifier) Notify(ctx context.Context, n model.Notification) {
	s.log.Notify(ctx, n)
	if n.UserID == "" {
		return
	}
	_ = s.store.Insert(ctx, &n)
}

// Recorder keeps notifications in memory, newest last
type Recorder struct {
	mu    sync.Mutex
	items []model.Notification
}

// Notify numbers notifications from 1 when they carry no id
func (r *Recorder) Notify(_ context.Context, n model.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n.ID == 0 {
		n.ID = int64(len(r.items) + 1)
	}
	r.items = append(r.items, n)
}

func (r *Recorder) MarkAsRead(_ context.Context, userID string, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID == id && r.items[i].UserID == userID {
			r.items[i].IsRead = true
		}
	}
	return nil
}

func (r *Recorder) All() []model.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Notification, len(r.items))
	copy(out, r.items)
	return out
}

// ListByUser makes Recorder usable as a Feed, newest first
func (r *Recorder) ListByUser(_ context.Context, userID string, limit int) ([]model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Notification{}
	for i := len(r.items) - 1; i >= 0; i-- {
		if r.items[i].UserID != userID {
			continue
		}
		out = append(out, r.items[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
