package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"harvestly/internal/apiclient"
	"harvestly/internal/cart"
	"harvestly/internal/catalog"
	"harvestly/internal/middleware"
	"harvestly/internal/models"
	"harvestly/internal/navigation"
	"harvestly/internal/orders"
	"harvestly/internal/session"
	"harvestly/internal/storefront"
)

func handlePanic(c *gin.Context, route string) {
	if r := recover(); r != nil {
		log.Printf("[%s] panic recovered: %v", route, r)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal server error"})
	}
}

func respondWithData(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func respondWithMessage(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{"success": true, "message": message})
}

func respondWithError(c *gin.Context, status int, route string, message string) {
	log.Printf("[%s] returning error %d: %s", route, status, message)
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": message})
}

func respondWithValidation(c *gin.Context, route string, verr *models.ValidationError) {
	log.Printf("[%s] returning error %d: %s", route, http.StatusBadRequest, verr.Error())
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error":   verr.Error(),
		"errors":  verr.Errors,
	})
}

// respondWithDomainError maps store errors to HTTP answers.
func respondWithDomainError(c *gin.Context, route string, err error) {
	var (
		verr       *models.ValidationError
		stockErr   *orders.StockViolationError
		transition *orders.InvalidTransitionError
		apiErr     *apiclient.APIError
		netErr     *apiclient.NetworkError
	)

	switch {
	case errors.As(err, &verr):
		respondWithValidation(c, route, verr)
	case errors.Is(err, session.ErrInvalidCredentials):
		respondWithError(c, http.StatusUnauthorized, route, err.Error())
	case errors.Is(err, apiclient.ErrUnauthorized), errors.Is(err, models.ErrNotAuthenticated), errors.Is(err, storefront.ErrNoSession):
		log.Printf("[%s] returning error %d: %v", route, http.StatusUnauthorized, err)
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"success":  false,
			"error":    err.Error(),
			"redirect": navigation.SignInPath,
		})
	case errors.Is(err, models.ErrForbidden):
		respondWithError(c, http.StatusForbidden, route, "forbidden")
	case errors.Is(err, models.ErrNotFound):
		respondWithError(c, http.StatusNotFound, route, "not found")
	case errors.As(err, &stockErr):
		log.Printf("[%s] returning error %d: %s", route, http.StatusConflict, stockErr.Error())
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{
			"success":    false,
			"error":      stockErr.Error(),
			"violations": stockErr.Violations,
		})
	case errors.Is(err, orders.ErrEmptyCart), errors.Is(err, cart.ErrNotPurchasable):
		respondWithError(c, http.StatusBadRequest, route, err.Error())
	case errors.As(err, &transition), errors.Is(err, orders.ErrAlreadyTerminal), errors.Is(err, orders.ErrConflict), errors.Is(err, catalog.ErrSuperseded):
		respondWithError(c, http.StatusConflict, route, err.Error())
	case errors.As(err, &apiErr):
		status := apiErr.Status
		if status < 400 || status >= 500 {
			status = http.StatusBadGateway
		}
		respondWithError(c, status, route, apiErr.Message)
	case errors.As(err, &netErr):
		respondWithError(c, http.StatusBadGateway, route, "upstream unavailable")
	case errors.Is(err, context.DeadlineExceeded):
		respondWithError(c, http.StatusGatewayTimeout, route, "upstream timeout")
	case errors.Is(err, context.Canceled):
		respondWithError(c, 499, route, "request cancelled")
	default:
		log.Printf("[%s] unexpected error: %v", route, err)
		respondWithError(c, http.StatusInternalServerError, route, "internal server error")
	}
}

// bindJSON decodes the body into req and answers 400 itself on failure.
func bindJSON(c *gin.Context, route string, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondValidationError(c, route, err)
		return false
	}
	return true
}

func respondValidationError(c *gin.Context, route string, err error) {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		respondWithError(c, http.StatusBadRequest, route, "invalid body")
		return
	}
	verr := &models.ValidationError{}
	for _, fieldError := range validationErrors {
		field := lowerCamel(fieldError.Field())
		switch fieldError.Tag() {
		case "required":
			verr.Add(field, fmt.Sprintf("%s is required", field))
		default:
			verr.Add(field, fmt.Sprintf("%s is invalid", field))
		}
	}
	respondWithValidation(c, route, verr)
}

func lowerCamel(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

// workspace returns the caller's workspace or answers 401.
func workspace(c *gin.Context, route string) (*storefront.Workspace, bool) {
	ws, ok := middleware.Workspace(c)
	if !ok {
		respondWithDomainError(c, route, storefront.ErrNoSession)
		return nil, false
	}
	return ws, true
}
