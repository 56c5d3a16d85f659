package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"harvestly/internal/catalog"
)

func ListMyProducts() gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /seller/products"
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
		if _, err := ws.Catalog.MyProducts(c.Request.Context(), filter); err != nil {
			respondWithDomainError(c, route, err)
			return
		}
		respondWithData(c, http.StatusOK, listingResponse(ws.Catalog))
	}
}

func CreateProduct() gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /seller/products"
		defer handlePanic(c, route)

		ws, ok := workspace(c, route)
		if !ok {
			return
		}
		var req catalog.ProductInput
		if !bindJSON(c, route, &req) {
			return
		}
		product, err := ws.Catalog.CreateProduct(c.Request.Context(), req)
		if err != nil {
			respondWithDomainError(c, route, err)
			return
		}
		respondWithData(c, http.StatusCreated, gin.H{"product": product})
	}
}

func UpdateProduct() gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /seller/products/:id"
		defer handlePanic(c, route)

		ws, ok := workspace(c, route)
		if !ok {
			return
		}
		var req catalog.ProductUpdate
		if !bindJSON(c, route, &req) {
			return
		}
		product, err := ws.Catalog.UpdateProduct(c.Request.Context(), c.Param("id"), req)
		if err != nil {
			respondWithDomainError(c, route, err)
			return
		}
		respondWithData(c, http.StatusOK, gin.H{"product": product})
	}
}

// DeleteProduct serves both the seller and the admin route.
func DeleteProduct() gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /products/:id"
		defer handlePanic(c, route)

		ws, ok := workspace(c, route)
		if !ok {
			return
		}
		if err := ws.Catalog.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
			respondWithDomainError(c, route, err)
			return
		}
		respondWithMessage(c, "product deleted")
	}
}
