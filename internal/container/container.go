package container

import (
	"log/slog"

	"github.com/joshua-takyi/streambay/internal/config"
	"github.com/joshua-takyi/streambay/internal/helpers"
	"github.com/joshua-takyi/streambay/internal/models"
	"github.com/joshua-takyi/streambay/internal/services"
)

// Container holds all application dependencies
type Container struct {
	Logger      *slog.Logger
	Config      *config.Config
	UserRepo    models.UserRepo
	Tokens      *helpers.TokenIssuer
	UserService *services.UserService
}

// NewContainer wires the service graph from the externally constructed
// store and uploader.
func NewContainer(
	logger *slog.Logger,
	cfg *config.Config,
	userRepo models.UserRepo,
	uploader helpers.MediaUploader,
) *Container {
	tokens := helpers.NewTokenIssuer(
		cfg.AccessTokenSecret,
		cfg.RefreshTokenSecret,
		cfg.AccessTokenExpiry,
		cfg.RefreshTokenExpiry,
	)
	userService := services.NewUserService(userRepo, uploader, tokens)

	return &Container{
		Logger:      logger,
		Config:      cfg,
		UserRepo:    userRepo,
		Tokens:      tokens,
		UserService: userService,
	}
}
