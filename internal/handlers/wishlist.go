package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func GetWishlist() gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /wishlist"
		defer handlePanic(c, route)

		ws, ok := workspace(c, route)
		if !ok {
			return
		}
		respondWithData(c, http.StatusOK, gin.H{"productIds": ws.Wishlist.Items()})
	}
}

func AddToWishlist() gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /wishlist/:productId"
		defer handlePanic(c, route)

		ws, ok := workspace(c, route)
		if !ok {
			return
		}
		added := ws.Wishlist.Add(c.Param("productId"))
		respondWithData(c, http.StatusOK, gin.H{"added": added, "productIds": ws.Wishlist.Items()})
	}
}

func RemoveFromWishlist() gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /wishlist/:productId"
		defer handlePanic(c, route)

		ws, ok := workspace(c, route)
		if !ok {
			return
		}
		removed := ws.Wishlist.Remove(c.Param("productId"))
		respondWithData(c, http.StatusOK, gin.H{"removed": removed, "productIds": ws.Wishlist.Items()})
	}
}
