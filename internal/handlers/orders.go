package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"harvestly/internal/models"
	"harvestly/internal/orders"
)

/* =========================
   REQUEST DTOs
========================= */

type checkoutRequest struct {
	DeliveryAddress *models.DeliveryAddress `json:"deliveryAddress"`
	BuyerName       string                  `json:"buyerName"`
	BuyerEmail      string                  `json:"buyerEmail"`
	BuyerPhone      string                  `json:"buyerPhone"`
	PaymentMethod   string                  `json:"paymentMethod"`
	PaymentID       string                  `json:"paymentId"`
}

type reasonRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type statusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

/* =========================
   BUYER
========================= */

// Checkout places an order for the caller's cart. Without an explicit
// address the profile's delivery address is used.
func Checkout() gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders"
		defer handlePanic(c, route)

		ws, ok := workspace(c, route)
		if !ok {
			return
		}
		var req checkoutRequest
		if c.Request.ContentLength != 0 && !bindJSON(c, route, &req) {
			return
		}

		address := ws.User().DeliveryAddress
		if req.DeliveryAddress != nil {
			address = *req.DeliveryAddress
		}

		order, err := ws.Orders.CreateOrder(c.Request.Context(), orders.CheckoutRequest{
			Cart:            ws.Cart,
			DeliveryAddress: address,
			BuyerName:       req.BuyerName,
			BuyerEmail:      req.BuyerEmail,
			BuyerPhone:      req.BuyerPhone,
			PaymentMethod:   strings.TrimSpace(req.PaymentMethod),
			PaymentID:       req.PaymentID,
		})
		if err != nil {
			respondWithDomainError(c, route, err)
			return
		}
		respondWithData(c, http.StatusCreated, gin.H{"order": order})
	}
}

func ListMyOrders() gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders"
		defer handlePanic(c, route)

		ws, ok := workspace(c, route)
		if !ok {
			return
		}
		list, err := ws.Orders.GetOrdersForUser(c.Request.Context(), ws.User().ID)
		if err != nil {
			respondWithDomainError(c, route, err)
			return
		}
		respondWithData(c, http.StatusOK, gin.H{"orders": list})
	}
}

func GetOrder() gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders/:id"
		defer handlePanic(c, route)

		ws, ok := workspace(c, route)
		if !ok {
			return
		}
		order, err := ws.Orders.GetOrderByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondWithDomainError(c, route, err)
			return
		}
		respondWithData(c, http.StatusOK, gin.H{
			"order":  order,
			"recent": order.Logistics.Recent(3),
		})
	}
}

func OrderStats() gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders/stats"
		defer handlePanic(c, route)

		ws, ok := workspace(c, route)
		if !ok {
			return
		}
		stats, err := ws.Orders.Stats(c.Request.Context())
		if err != nil {
			respondWithDomainError(c, route, err)
			return
		}
		respondWithData(c, http.StatusOK, gin.H{"stats": stats})
	}
}

func CancelOrder() gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders/:id/cancel"
		defer handlePanic(c, route)

		ws, ok := workspace(c, route)
		if !ok {
			return
		}
		var req reasonRequest
		if !bindJSON(c, route, &req) {
			return
		}
		order, err := ws.Orders.CancelOrder(c.Request.Context(), c.Param("id"), req.Reason)
		if err != nil {
			respondWithDomainError(c, route, err)
			return
		}
		respondWithData(c, http.StatusOK, gin.H{"order": order})
	}
}

func ReturnOrder() gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders/:id/return"
		defer handlePanic(c, route)

		ws, ok := workspace(c, route)
		if !ok {
			return
		}
		var req reasonRequest
		if !bindJSON(c, route, &req) {
			return
		}
		order, err := ws.Orders.ReturnOrder(c.Request.Context(), c.Param("id"), req.Reason)
		if err != nil {
			respondWithDomainError(c, route, err)
			return
		}
		respondWithData(c, http.StatusOK, gin.H{"order": order})
	}
}

/* =========================
   SELLER / ADMIN
========================= */

func ListSellerOrders() gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /seller/orders"
		defer handlePanic(c, route)

		ws, ok := workspace(c, route)
		if !ok {
			return
		}
		list, err := ws.Orders.GetOrdersForSeller(c.Request.Context(), ws.User().ID)
		if err != nil {
			respondWithDomainError(c, route, err)
			return
		}
		respondWithData(c, http.StatusOK, gin.H{"orders": list})
	}
}

func ListAllOrders() gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/orders"
		defer handlePanic(c, route)

		ws, ok := workspace(c, route)
		if !ok {
			return
		}
		list, err := ws.Orders.AllOrders(c.Request.Context())
		if err != nil {
			respondWithDomainError(c, route, err)
			return
		}
		if raw := c.Query("limit"); raw != "" {
			_, limit, err := parsePaginationParams("", raw)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, err.Error())
				return
			}
			if limit < len(list) {
				list = list[:limit]
			}
		}
		respondWithData(c, http.StatusOK, gin.H{"orders": list})
	}
}

// UpdateOrderStatus serves both the seller and the admin route.
func UpdateOrderStatus() gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /orders/:id/status"
		defer handlePanic(c, route)

		ws, ok := workspace(c, route)
		if !ok {
			return
		}
		var req statusRequest
		if !bindJSON(c, route, &req) {
			return
		}
		if !req.Status.Valid() {
			respondWithError(c, http.StatusBadRequest, route, "invalid status")
			return
		}
		order, err := ws.Orders.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
		if err != nil {
			respondWithDomainError(c, route, err)
			return
		}
		respondWithData(c, http.StatusOK, gin.H{"order": order})
	}
}
