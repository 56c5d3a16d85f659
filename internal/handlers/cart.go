package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"harvestly/internal/cart"
	"harvestly/internal/storefront"
)

type addToCartRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity"`
}

type updateCartItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

func cartResponse(ws *storefront.Workspace) cart.Snapshot {
	return ws.Cart.Snapshot()
}

func GetCart() gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /cart"
		defer handlePanic(c, route)

		ws, ok := workspace(c, route)
		if !ok {
			return
		}
		respondWithData(c, http.StatusOK, cartResponse(ws))
	}
}

// AddToCart fetches the current product so the line snapshots live data.
func AddToCart() gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /cart/items"
		defer handlePanic(c, route)

		ws, ok := workspace(c, route)
		if !ok {
			return
		}
		var req addToCartRequest
		if !bindJSON(c, route, &req) {
			return
		}

		product, err := ws.Catalog.GetProduct(c.Request.Context(), req.ProductID)
		if err != nil {
			respondWithDomainError(c, route, err)
			return
		}
		if err := ws.Cart.AddItem(product, req.Quantity); err != nil {
			respondWithDomainError(c, route, err)
			return
		}
		respondWithData(c, http.StatusOK, cartResponse(ws))
	}
}

func UpdateCartItem() gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /cart/items/:productId"
		defer handlePanic(c, route)

		ws, ok := workspace(c, route)
		if !ok {
			return
		}
		var req updateCartItemRequest
		if !bindJSON(c, route, &req) {
			return
		}

		ws.Cart.UpdateQuantity(c.Param("productId"), *req.Quantity)
		respondWithData(c, http.StatusOK, cartResponse(ws))
	}
}

func RemoveCartItem() gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /cart/items/:productId"
		defer handlePanic(c, route)

		ws, ok := workspace(c, route)
		if !ok {
			return
		}
		ws.Cart.RemoveItem(c.Param("productId"))
		respondWithData(c, http.StatusOK, cartResponse(ws))
	}
}

func ClearCart() gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /cart"
		defer handlePanic(c, route)

		ws, ok := workspace(c, route)
		if !ok {
			return
		}
		ws.Cart.Clear()
		respondWithData(c, http.StatusOK, cartResponse(ws))
	}
}
