package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"harvestly/internal/catalog"
	"harvestly/internal/models"
)

var errInvalidPagination = errors.New("invalid pagination params")

const maxLimit = 100

func parsePaginationParams(pageStr, limitStr string) (int, int, error) {
	page := 1
	limit := 12

	if pageStr != "" {
		p, err := strconv.Atoi(pageStr)
		if err != nil || p < 1 {
			return 0, 0, errInvalidPagination
		}
		page = p
	}

	if limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l < 1 {
			return 0, 0, errInvalidPagination
		}
		limit = min(l, maxLimit)
	}

	return page, limit, nil
}

// filterFromQuery reads page, limit and category.
func filterFromQuery(c *gin.Context) (catalog.Filter, error) {
	page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
	if err != nil {
		return catalog.Filter{}, err
	}
	f := catalog.Filter{Page: page, Limit: limit}
	if category := models.Category(c.Query("category")); category != "" {
		if !category.Valid() {
			return catalog.Filter{}, errors.New("invalid category")
		}
		f.Category = category
	}
	return f, nil
}
