package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/joshua-takyi/streambay/internal/helpers"
	"github.com/joshua-takyi/streambay/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// RegisterInput carries the registration form fields plus the locally
// staged media files. AvatarPath is required, CoverImagePath optional.
type RegisterInput struct {
	Email          string `validate:"required,email"`
	FullName       string `validate:"required"`
	Username       string `validate:"required"`
	Password       string `validate:"required"`
	AvatarPath     string
	CoverImagePath string
}

// UserService orchestrates the session lifecycle: registration, login,
// logout, refresh rotation and profile mutations.
type UserService struct {
	userRepo models.UserRepo
	uploader helpers.MediaUploader
	tokens   *helpers.TokenIssuer
}

func NewUserService(userRepo models.UserRepo, uploader helpers.MediaUploader, tokens *helpers.TokenIssuer) *UserService {
	return &UserService{
		userRepo: userRepo,
		uploader: uploader,
		tokens:   tokens,
	}
}

func (us *UserService) Register(ctx context.Context, input RegisterInput) (*models.PublicUser, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Username = strings.ToLower(strings.TrimSpace(input.Username))
	input.FullName = strings.TrimSpace(input.FullName)

	if err := models.Validate.Struct(input); err != nil {
		return nil, models.NewValidationError("all fields are required", err.Error())
	}
	// the password is stored verbatim; trimming is only for the blank check
	if strings.TrimSpace(input.Password) == "" {
		return nil, models.NewValidationError("all fields are required")
	}
	if input.AvatarPath == "" {
		return nil, models.NewValidationError("avatar is required")
	}

	existing, err := us.userRepo.GetUserByUsernameOrEmail(ctx, input.Username, input.Email)
	if err != nil && !models.IsNotFound(err) {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("user with same email or username already exists")
	}

	avatarURL, err := us.uploader.Upload(ctx, input.AvatarPath, helpers.AvatarFolder)
	if err != nil {
		return nil, models.NewUploadError("failed to upload avatar", err.Error())
	}

	var coverURL string
	if input.CoverImagePath != "" {
		coverURL, err = us.uploader.Upload(ctx, input.CoverImagePath, helpers.CoverFolder)
		if err != nil {
			return nil, models.NewUploadError("failed to upload cover image", err.Error())
		}
	}

	passwordHash, err := helpers.HashPassword(input.Password)
	if err != nil {
		return nil, models.NewInternalError(fmt.Sprintf("failed to hash password: %v", err))
	}

	now := time.Now()
	user := &models.User{
		Username:      input.Username,
		Email:         input.Email,
		FullName:      input.FullName,
		PasswordHash:  passwordHash,
		AvatarURL:     avatarURL,
		CoverImageURL: coverURL,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	created, err := us.userRepo.CreateUser(ctx, user)
	if err != nil {
		return nil, err
	}
	return created.Sanitized(), nil
}

// Login authenticates by username or email. On success the newly
// issued refresh token overwrites any previously stored one, so at
// most one session per user stays live.
func (us *UserService) Login(ctx context.Context, identifier, password string) (*models.PublicUser, *TokenPair, error) {
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	if identifier == "" {
		return nil, nil, models.NewValidationError("email or username is required")
	}

	user, err := us.userRepo.GetUserByUsernameOrEmail(ctx, identifier, identifier)
	if err != nil {
		return nil, nil, err
	}

	if !helpers.CheckPassword(password, user.PasswordHash) {
		return nil, nil, models.NewUnauthorizedError("password is invalid")
	}

	pair, err := us.issueTokenPair(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user.Sanitized(), pair, nil
}

func (us *UserService) Logout(ctx context.Context, userID primitive.ObjectID) error {
	return us.userRepo.ClearRefreshToken(ctx, userID)
}

// RefreshTokens rotates the session: the incoming token must exactly
// match the stored one, and a fresh pair replaces it. Presenting a
// stale rotated token fails.
func (us *UserService) RefreshTokens(ctx context.Context, incoming string) (*TokenPair, error) {
	incoming = strings.TrimSpace(incoming)
	if incoming == "" {
		return nil, models.NewUnauthorizedError("no refresh token provided")
	}

	claims, err := us.tokens.VerifyRefreshToken(incoming)
	if err != nil {
		return nil, err
	}

	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, models.NewUnauthorizedError("invalid refresh token")
	}

	user, err := us.userRepo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if user.RefreshToken == "" || user.RefreshToken != incoming {
		return nil, models.NewUnauthorizedError("refresh token is expired or used")
	}

	return us.issueTokenPair(ctx, user)
}

func (us *UserService) ChangePassword(ctx context.Context, userID primitive.ObjectID, oldPassword, newPassword string) error {
	// as with registration, the new password is hashed verbatim
	if strings.TrimSpace(newPassword) == "" {
		return models.NewValidationError("new password is required")
	}

	user, err := us.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if !helpers.CheckPassword(oldPassword, user.PasswordHash) {
		return models.NewUnauthorizedError("old password is not correct")
	}

	passwordHash, err := helpers.HashPassword(newPassword)
	if err != nil {
		return models.NewInternalError(fmt.Sprintf("failed to hash password: %v", err))
	}
	return us.userRepo.UpdatePassword(ctx, userID, passwordHash)
}

func (us *UserService) ChangeUsername(ctx context.Context, userID primitive.ObjectID, newUsername string) (*models.PublicUser, error) {
	newUsername = strings.ToLower(strings.TrimSpace(newUsername))
	if newUsername == "" {
		return nil, models.NewValidationError("new username is required")
	}

	updated, err := us.userRepo.UpdateFields(ctx, userID, map[string]interface{}{
		"username": newUsername,
	})
	if err != nil {
		return nil, err
	}
	return updated.Sanitized(), nil
}

func (us *UserService) UpdateAccountDetails(ctx context.Context, userID primitive.ObjectID, email, fullName string) (*models.PublicUser, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	fullName = strings.TrimSpace(fullName)
	if email == "" && fullName == "" {
		return nil, models.NewValidationError("email or fullName is required")
	}

	fields := map[string]interface{}{}
	if email != "" {
		if err := models.Validate.Var(email, "email"); err != nil {
			return nil, models.NewValidationError("invalid email format")
		}
		fields["email"] = email
	}
	if fullName != "" {
		fields["fullName"] = fullName
	}

	updated, err := us.userRepo.UpdateFields(ctx, userID, fields)
	if err != nil {
		return nil, err
	}
	return updated.Sanitized(), nil
}

// UpdateAvatar re-uploads and overwrites the stored reference. The
// previously referenced remote asset is left in place.
func (us *UserService) UpdateAvatar(ctx context.Context, userID primitive.ObjectID, localPath string) (*models.PublicUser, error) {
	return us.updateImage(ctx, userID, localPath, helpers.AvatarFolder, "avatar")
}

func (us *UserService) UpdateCoverImage(ctx context.Context, userID primitive.ObjectID, localPath string) (*models.PublicUser, error) {
	return us.updateImage(ctx, userID, localPath, helpers.CoverFolder, "coverImage")
}

func (us *UserService) GetUser(ctx context.Context, userID primitive.ObjectID) (*models.PublicUser, error) {
	user, err := us.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.Sanitized(), nil
}

func (us *UserService) updateImage(ctx context.Context, userID primitive.ObjectID, localPath, folder, field string) (*models.PublicUser, error) {
	if strings.TrimSpace(localPath) == "" {
		return nil, models.NewValidationError(fmt.Sprintf("%s file is required", field))
	}

	url, err := us.uploader.Upload(ctx, localPath, folder)
	if err != nil {
		return nil, models.NewUploadError(fmt.Sprintf("failed to upload %s", field), err.Error())
	}

	updated, err := us.userRepo.UpdateFields(ctx, userID, map[string]interface{}{
		field: url,
	})
	if err != nil {
		return nil, err
	}
	return updated.Sanitized(), nil
}

func (us *UserService) issueTokenPair(ctx context.Context, user *models.User) (*TokenPair, error) {
	accessToken, err := us.tokens.IssueAccessToken(user)
	if err != nil {
		return nil, models.NewInternalError(fmt.Sprintf("could not generate access token: %v", err))
	}
	refreshToken, err := us.tokens.IssueRefreshToken(user)
	if err != nil {
		return nil, models.NewInternalError(fmt.Sprintf("could not generate refresh token: %v", err))
	}

	if err := us.userRepo.SetRefreshToken(ctx, user.ID, refreshToken); err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
