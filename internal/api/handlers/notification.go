package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"signoff.io/signoff/internal/notification"
	apperrors "signoff.io/signoff/internal/pkg/errors"
	"signoff.io/signoff/internal/usecase"
)

// NotificationPageResponse is a paginated inbox listing.
type NotificationPageResponse struct {
	Items []notification.Notification `json:"items"`
	Total int                         `json:"total"`
	Page  int                         `json:"page"`
	Size  int                         `json:"size"`
}

// ListNotifications handles GET /notifications with optional
// ?unread=true filter.
func (s *Server) ListNotifications(c *gin.Context) {
	page := usecase.NormalizePage(intQuery(c, "page", 1), intQuery(c, "size", usecase.DefaultPageSize))
	unreadOnly := c.Query("unread") == "true"

	items, total, err := s.inbox.ListForUser(c.Request.Context(), actorFromCtx(c), unreadOnly, page.Number, page.Size)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if items == nil {
		items = []notification.Notification{}
	}
	c.JSON(http.StatusOK, NotificationPageResponse{
		Items: items,
		Total: total,
		Page:  page.Number,
		Size:  page.Size,
	})
}

// MarkNotificationRead handles POST /notifications/:id/read.
func (s *Server) MarkNotificationRead(c *gin.Context) {
	found, err := s.inbox.MarkRead(c.Request.Context(), actorFromCtx(c), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	if !found {
		_ = c.Error(apperrors.NotFound(apperrors.CodeNotificationNotFound, "notification not found or already read"))
		return
	}
	c.Status(http.StatusNoContent)
}

// MarkAllNotificationsRead handles POST /notifications/read-all.
func (s *Server) MarkAllNotificationsRead(c *gin.Context) {
	updated, err := s.inbox.MarkAllRead(c.Request.Context(), actorFromCtx(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}
