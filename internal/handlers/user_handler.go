package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joshua-takyi/streambay/internal/middleware"
	"github.com/joshua-takyi/streambay/internal/models"
	"github.com/joshua-takyi/streambay/internal/services"
)

func Register(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		input := services.RegisterInput{
			Email:    c.PostForm("email"),
			FullName: c.PostForm("fullName"),
			Username: c.PostForm("username"),
			Password: c.PostForm("password"),
		}

		// avatar is required but its absence is reported by the
		// service, together with the other field validations
		avatarPath, avatarCleanup, err := stageFormFile(c, "avatar")
		switch {
		case err == nil:
			defer avatarCleanup()
			input.AvatarPath = avatarPath
		case !errors.Is(err, http.ErrMissingFile):
			respondError(c, models.NewInternalError(fmt.Sprintf("failed to stage avatar: %v", err)))
			return
		}

		coverPath, coverCleanup, err := stageFormFile(c, "coverImage")
		switch {
		case err == nil:
			defer coverCleanup()
			input.CoverImagePath = coverPath
		case !errors.Is(err, http.ErrMissingFile):
			respondError(c, models.NewInternalError(fmt.Sprintf("failed to stage cover image: %v", err)))
			return
		}

		user, err := u.Register(c.Request.Context(), input)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusCreated, models.SuccessResponse(http.StatusCreated, user, "user registered successfully"))
	}
}

func GetCurrentUser(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			respondError(c, models.NewUnauthorizedError("unauthorized request"))
			return
		}

		current, err := u.GetUser(c.Request.Context(), user.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(http.StatusOK, current, "current user found"))
	}
}

func ChangePassword(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			respondError(c, models.NewUnauthorizedError("unauthorized request"))
			return
		}

		var req struct {
			OldPassword string `json:"oldPassword"`
			NewPassword string `json:"newPassword"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, models.NewValidationError("invalid request payload", err.Error()))
			return
		}

		if err := u.ChangePassword(c.Request.Context(), user.ID, req.OldPassword, req.NewPassword); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(http.StatusOK, nil, "password changed successfully"))
	}
}

func ChangeUsername(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			respondError(c, models.NewUnauthorizedError("unauthorized request"))
			return
		}

		var req struct {
			NewUsername string `json:"newUsername"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, models.NewValidationError("invalid request payload", err.Error()))
			return
		}

		updated, err := u.ChangeUsername(c.Request.Context(), user.ID, req.NewUsername)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(http.StatusOK, updated, "username changed successfully"))
	}
}

func UpdateAccountDetails(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			respondError(c, models.NewUnauthorizedError("unauthorized request"))
			return
		}

		var req struct {
			Email    string `json:"email"`
			FullName string `json:"fullName"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, models.NewValidationError("invalid request payload", err.Error()))
			return
		}

		updated, err := u.UpdateAccountDetails(c.Request.Context(), user.ID, req.Email, req.FullName)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(http.StatusOK, updated, "account details updated"))
	}
}

func UpdateAvatar(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			respondError(c, models.NewUnauthorizedError("unauthorized request"))
			return
		}

		path, cleanup, err := stageFormFile(c, "avatar")
		if err != nil {
			if errors.Is(err, http.ErrMissingFile) {
				respondError(c, models.NewValidationError("avatar file is required"))
				return
			}
			respondError(c, models.NewInternalError(fmt.Sprintf("failed to stage avatar: %v", err)))
			return
		}
		defer cleanup()

		updated, err := u.UpdateAvatar(c.Request.Context(), user.ID, path)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(http.StatusOK, updated, "avatar updated successfully"))
	}
}

func UpdateCoverImage(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			respondError(c, models.NewUnauthorizedError("unauthorized request"))
			return
		}

		path, cleanup, err := stageFormFile(c, "coverImage")
		if err != nil {
			if errors.Is(err, http.ErrMissingFile) {
				respondError(c, models.NewValidationError("coverImage file is required"))
				return
			}
			respondError(c, models.NewInternalError(fmt.Sprintf("failed to stage cover image: %v", err)))
			return
		}
		defer cleanup()

		updated, err := u.UpdateCoverImage(c.Request.Context(), user.ID, path)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(http.StatusOK, updated, "cover image updated successfully"))
	}
}

// stageFormFile writes a multipart file field to a temp file and
// returns its path plus a cleanup func. The cleanup runs regardless of
// upload outcome so no staged file is left behind.
func stageFormFile(c *gin.Context, field string) (string, func(), error) {
	file, err := c.FormFile(field)
	if err != nil {
		return "", nil, err
	}

	dst := filepath.Join(os.TempDir(), uuid.New().String()+filepath.Ext(file.Filename))
	if err := c.SaveUploadedFile(file, dst); err != nil {
		return "", nil, err
	}

	cleanup := func() { _ = os.Remove(dst) }
	return dst, cleanup, nil
}

func respondError(c *gin.Context, err error) {
	apiErr := models.AsApiError(err)
	c.JSON(apiErr.Status, models.ErrorResponse(apiErr.Status, apiErr.Message, apiErr.Details...))
}
