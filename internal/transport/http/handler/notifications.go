package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-rider-session/internal/domain"
)

// NotificationQueue is the notice list as seen by the transport.
type NotificationQueue interface {
	List() []domain.Notice
	UnreadCount() int
	MarkRead(id string)
	MarkAllRead()
	Remove(id string)
	Clear()
}

// NotificationHandler handles notification endpoints.
type NotificationHandler struct {
	queue NotificationQueue
}

func NewNotificationHandler(queue NotificationQueue) *NotificationHandler {
	return &NotificationHandler{queue: queue}
}

func (h *NotificationHandler) List(w http.ResponseWriter, _ *http.Request) {
	h.write(w)
}

func (h *NotificationHandler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	h.queue.MarkRead(chi.URLParam(r, "id"))
	h.write(w)
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, _ *http.Request) {
	h.queue.MarkAllRead()
	h.write(w)
}

func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.queue.Remove(chi.URLParam(r, "id"))
	h.write(w)
}

func (h *NotificationHandler) Clear(w http.ResponseWriter, _ *http.Request) {
	h.queue.Clear()
	h.write(w)
}

func (h *NotificationHandler) write(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, NotificationsEnvelope{
		Notifications: h.queue.List(),
		UnreadCount:   h.queue.UnreadCount(),
	})
}
