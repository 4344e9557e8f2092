package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/streambay/internal/config"
	"github.com/joshua-takyi/streambay/internal/middleware"
	"github.com/joshua-takyi/streambay/internal/models"
	"github.com/joshua-takyi/streambay/internal/services"
)

func Login(u *services.UserService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Username string `json:"username"`
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, models.NewValidationError("invalid request payload", err.Error()))
			return
		}

		identifier := req.Username
		if identifier == "" {
			identifier = req.Email
		}

		user, pair, err := u.Login(c.Request.Context(), identifier, req.Password)
		if err != nil {
			respondError(c, err)
			return
		}

		setAuthCookies(c, pair, cfg)
		c.JSON(http.StatusOK, models.SuccessResponse(http.StatusOK, gin.H{
			"user":         user,
			"accessToken":  pair.AccessToken,
			"refreshToken": pair.RefreshToken,
		}, "user logged in successfully"))
	}
}

func Logout(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			respondError(c, models.NewUnauthorizedError("unauthorized request"))
			return
		}

		if err := u.Logout(c.Request.Context(), user.ID); err != nil {
			respondError(c, err)
			return
		}

		clearAuthCookies(c)
		c.JSON(http.StatusOK, models.SuccessResponse(http.StatusOK, nil, "user logged out successfully"))
	}
}

func RefreshToken(u *services.UserService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		incoming, err := c.Cookie("refreshToken")
		if err != nil || incoming == "" {
			respondError(c, models.NewUnauthorizedError("no refresh token provided"))
			return
		}

		pair, err := u.RefreshTokens(c.Request.Context(), incoming)
		if err != nil {
			respondError(c, err)
			return
		}

		setAuthCookies(c, pair, cfg)
		c.JSON(http.StatusOK, models.SuccessResponse(http.StatusOK, gin.H{
			"accessToken":  pair.AccessToken,
			"refreshToken": pair.RefreshToken,
		}, "access token refreshed"))
	}
}

// both cookies are httpOnly and secure so the frontend cannot touch them
func setAuthCookies(c *gin.Context, pair *services.TokenPair, cfg *config.Config) {
	c.SetCookie("accessToken", pair.AccessToken, int(cfg.AccessTokenExpiry.Seconds()), "/", "", true, true)
	c.SetCookie("refreshToken", pair.RefreshToken, int(cfg.RefreshTokenExpiry.Seconds()), "/", "", true, true)
}

func clearAuthCookies(c *gin.Context) {
	c.SetCookie("accessToken", "", -1, "/", "", true, true)
	c.SetCookie("refreshToken", "", -1, "/", "", true, true)
}
