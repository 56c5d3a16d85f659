package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"harvestly/internal/notifications"
)

func ListNotifications(feed *notifications.Feed) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /seller/notifications"
		defer handlePanic(c, route)

		ws, ok := workspace(c, route)
		if !ok {
			return
		}
		list, unread := feed.List(ws.User().ID)
		respondWithData(c, http.StatusOK, gin.H{"notifications": list, "unread": unread})
	}
}

func MarkNotificationRead(feed *notifications.Feed) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /seller/notifications/:id/read"
		defer handlePanic(c, route)

		ws, ok := workspace(c, route)
		if !ok {
			return
		}
		n, err := feed.MarkRead(ws.User().ID, c.Param("id"))
		if err != nil {
			respondWithDomainError(c, route, err)
			return
		}
		respondWithData(c, http.StatusOK, gin.H{"notification": n})
	}
}

func MarkAllNotificationsRead(feed *notifications.Feed) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /seller/notifications/read-all"
		defer handlePanic(c, route)

		ws, ok := workspace(c, route)
		if !ok {
			return
		}
		respondWithData(c, http.StatusOK, gin.H{"updated": feed.MarkAllRead(ws.User().ID)})
	}
}
