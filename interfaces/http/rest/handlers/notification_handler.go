package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"schemstory-backend/application/ports"
	"schemstory-backend/pkg/auth"
	"schemstory-backend/pkg/common"
	appErrors "schemstory-backend/pkg/errors"
)

// NotificationHandler serves the caller's notification inbox.
type NotificationHandler struct {
	notifications ports.NotificationRepository
	logger        *zap.Logger
}

// NewNotificationHandler creates a new notification handler.
func NewNotificationHandler(notifications ports.NotificationRepository, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, logger: logger}
}

// ListNotifications pages the caller's notifications newest-first.
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondAppError(w, appErrors.NewUnauthorizedError("authentication required"))
		return
	}

	page := pageFromRequest(r)
	notifications, next, err := h.notifications.GetUserNotifications(r.Context(), caller.UserID, page)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, common.ListResponse{Items: notifications, NextToken: next})
}

// MarkRead flips one of the caller's notifications to read.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondAppError(w, appErrors.NewUnauthorizedError("authentication required"))
		return
	}

	marked, err := h.notifications.MarkNotificationAsRead(r.Context(), caller.UserID, chi.URLParam(r, "notificationID"))
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	if !marked {
		common.RespondAppError(w, appErrors.NewNotFoundError("notification"))
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]bool{"read": true})
}

// MarkAllRead sweeps the caller's unread notifications.
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondAppError(w, appErrors.NewUnauthorizedError("authentication required"))
		return
	}

	marked, err := h.notifications.MarkAllNotificationsAsRead(r.Context(), caller.UserID)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]int{"marked": marked})
}
