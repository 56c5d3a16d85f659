package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"harvestly/internal/middleware"
	"harvestly/internal/models"
	"harvestly/internal/navigation"
	"harvestly/internal/session"
	"harvestly/internal/storefront"
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type authResponse struct {
	Token             string      `json:"token"`
	User              models.User `json:"user"`
	Redirect          string      `json:"redirect"`
	ProfileIncomplete bool        `json:"profileIncomplete"`
}

func newAuthResponse(ws *storefront.Workspace) authResponse {
	user := ws.User()
	return authResponse{
		Token:             ws.Token(),
		User:              user,
		Redirect:          navigation.Home(user.Role),
		ProfileIncomplete: ws.Session.ProfileIncomplete(),
	}
}

/* =========================
   SIGN IN / SIGN UP
========================= */

func Login(reg *storefront.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /auth/login"
		defer handlePanic(c, route)

		var req LoginRequest
		if !bindJSON(c, route, &req) {
			return
		}

		ws, err := reg.Login(c.Request.Context(), session.Credentials{Email: req.Email, Password: req.Password})
		if err != nil {
			respondWithDomainError(c, route, err)
			return
		}
		respondWithData(c, http.StatusOK, newAuthResponse(ws))
	}
}

func Register(reg *storefront.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /auth/register"
		defer handlePanic(c, route)

		var req session.Registration
		if !bindJSON(c, route, &req) {
			return
		}

		ws, user, err := reg.Register(c.Request.Context(), req)
		if err != nil {
			respondWithDomainError(c, route, err)
			return
		}
		if ws == nil {
			respondWithData(c, http.StatusCreated, gin.H{"user": user, "redirect": navigation.SignInPath})
			return
		}
		respondWithData(c, http.StatusCreated, newAuthResponse(ws))
	}
}

func Logout(reg *storefront.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /auth/logout"
		defer handlePanic(c, route)

		if token, ok := middleware.BearerToken(c); ok {
			reg.Logout(c.Request.Context(), token)
		}
		respondWithMessage(c, "logged out")
	}
}

/* =========================
   PROFILE
========================= */

func GetProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /auth/profile"
		defer handlePanic(c, route)

		ws, ok := workspace(c, route)
		if !ok {
			return
		}
		user := ws.User()
		respondWithData(c, http.StatusOK, gin.H{
			"user":              user,
			"profileIncomplete": ws.Session.ProfileIncomplete(),
			"missingFields":     user.MissingDeliveryFields(),
		})
	}
}

func UpdateProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /auth/profile"
		defer handlePanic(c, route)

		ws, ok := workspace(c, route)
		if !ok {
			return
		}
		var req session.ProfileUpdate
		if !bindJSON(c, route, &req) {
			return
		}

		user, err := ws.Session.UpdateProfile(c.Request.Context(), req)
		if err != nil {
			respondWithDomainError(c, route, err)
			return
		}
		respondWithData(c, http.StatusOK, gin.H{"user": user})
	}
}

func ChangePassword() gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /auth/change-password"
		defer handlePanic(c, route)

		ws, ok := workspace(c, route)
		if !ok {
			return
		}
		var req session.PasswordChange
		if !bindJSON(c, route, &req) {
			return
		}

		if err := ws.Session.ChangePassword(c.Request.Context(), req); err != nil {
			respondWithDomainError(c, route, err)
			return
		}
		respondWithMessage(c, "password updated")
	}
}

func DismissProfilePrompt() gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /auth/profile/dismiss-prompt"
		defer handlePanic(c, route)

		ws, ok := workspace(c, route)
		if !ok {
			return
		}
		ws.Session.DismissProfilePrompt()
		respondWithData(c, http.StatusOK, gin.H{"profileIncomplete": ws.Session.ProfileIncomplete()})
	}
}
