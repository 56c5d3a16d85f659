package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"harvestly/internal/catalog"
	"harvestly/internal/middleware"
	"harvestly/internal/storefront"
)

// catalogStore picks the caller's own catalog when signed in so superseding
// loads stay per user.
func catalogStore(c *gin.Context, reg *storefront.Registry) *catalog.Store {
	if ws, ok := middleware.Workspace(c); ok {
		return ws.Catalog
	}
	return reg.Catalog()
}

func listingResponse(s *catalog.Store) gin.H {
	return gin.H{
		"products":   s.Products(),
		"approved":   s.Approved(),
		"pagination": s.Pagination(),
	}
}

func ListProducts(reg *storefront.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /catalog/products"
		defer handlePanic(c, route)

		filter, err := filterFromQuery(c)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		store := catalogStore(c, reg)
		if _, err := store.LoadProducts(c.Request.Context(), filter); err != nil {
			respondWithDomainError(c, route, err)
			return
		}
		respondWithData(c, http.StatusOK, listingResponse(store))
	}
}

func SearchProducts(reg *storefront.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /catalog/search"
		defer handlePanic(c, route)

		filter, err := filterFromQuery(c)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}
		sortKey := catalog.SortKey(strings.TrimSpace(c.Query("sortBy")))
		if sortKey != "" && !sortKey.Valid() {
			respondWithError(c, http.StatusBadRequest, route, "invalid sortBy")
			return
		}

		store := catalogStore(c, reg)
		q := catalog.Query{Term: strings.TrimSpace(c.Query("query")), Sort: sortKey, Filter: filter}
		if _, err := store.Search(c.Request.Context(), q); err != nil {
			respondWithDomainError(c, route, err)
			return
		}
		respondWithData(c, http.StatusOK, listingResponse(store))
	}
}

func GetProduct(reg *storefront.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /catalog/products/:id"
		defer handlePanic(c, route)

		product, err := catalogStore(c, reg).GetProduct(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondWithDomainError(c, route, err)
			return
		}

		data := gin.H{"product": product}
		if ws, ok := middleware.Workspace(c); ok {
			data["inWishlist"] = ws.Wishlist.Contains(product.ID)
		}
		respondWithData(c, http.StatusOK, data)
	}
}
