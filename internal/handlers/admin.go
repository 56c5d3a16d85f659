package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type rejectRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type userStatusRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

/* =========================
   PRODUCT REVIEW
========================= */

func ListReviewQueue() gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/products/:queue"
		defer handlePanic(c, route)

		ws, ok := workspace(c, route)
		if !ok {
			return
		}
		filter, err := filterFromQuery(c)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}
		if _, err := ws.Catalog.ReviewQueue(c.Request.Context(), c.Param("queue"), filter); err != nil {
			respondWithDomainError(c, route, err)
			return
		}
		respondWithData(c, http.StatusOK, listingResponse(ws.Catalog))
	}
}

func ApproveProduct() gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/products/:id/approve"
		defer handlePanic(c, route)

		ws, ok := workspace(c, route)
		if !ok {
			return
		}
		product, err := ws.Catalog.ApproveProduct(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondWithDomainError(c, route, err)
			return
		}
		respondWithData(c, http.StatusOK, gin.H{"product": product})
	}
}

func RejectProduct() gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/products/:id/reject"
		defer handlePanic(c, route)

		ws, ok := workspace(c, route)
		if !ok {
			return
		}
		var req rejectRequest
		if !bindJSON(c, route, &req) {
			return
		}
		product, err := ws.Catalog.RejectProduct(c.Request.Context(), c.Param("id"), req.Reason)
		if err != nil {
			respondWithDomainError(c, route, err)
			return
		}
		respondWithData(c, http.StatusOK, gin.H{"product": product})
	}
}

/* =========================
   USERS
========================= */

func ListUsers() gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/users"
		defer handlePanic(c, route)

		ws, ok := workspace(c, route)
		if !ok {
			return
		}
		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}
		users, pagination, err := ws.Session.ListUsers(c.Request.Context(), page, limit)
		if err != nil {
			respondWithDomainError(c, route, err)
			return
		}
		respondWithData(c, http.StatusOK, gin.H{"users": users, "pagination": pagination})
	}
}

func UpdateUserStatus() gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/users/:id/status"
		defer handlePanic(c, route)

		ws, ok := workspace(c, route)
		if !ok {
			return
		}
		var req userStatusRequest
		if !bindJSON(c, route, &req) {
			return
		}
		user, err := ws.Session.SetUserActive(c.Request.Context(), c.Param("id"), *req.IsActive)
		if err != nil {
			respondWithDomainError(c, route, err)
			return
		}
		respondWithData(c, http.StatusOK, gin.H{"user": user})
	}
}
