package service

import (
	"sync"

	"github.com/sortify/conveyor-dashboard/internal/core/domain"
)

const maxQueuedNotifications = 20

// NotificationQueue buffers a visitor's notifications until the next page
// response drains them. The oldest entries are dropped past the limit.
type NotificationQueue struct {
	mu    sync.Mutex
	items []domain.Notification
}

func NewNotificationQueue() *NotificationQueue {
	return &NotificationQueue{}
}

// Notify satisfies ports.Notifier.
func (q *NotificationQueue) Notify(n domain.Notification) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, n)
	if over := len(q.items) - maxQueuedNotifications; over > 0 {
		q.items = append([]domain.Notification(nil), q.items[over:]...)
	}
}

// Drain returns and clears all queued notifications.
func (q *NotificationQueue) Drain() []domain.Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items
	q.items = nil
	return out
}
