package routes

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/streambay/internal/container"
	"github.com/joshua-takyi/streambay/internal/handlers"
	"github.com/joshua-takyi/streambay/internal/middleware"
)

// SetupRoutes configures all routes with the dependency container
func SetupRoutes(container *container.Container) *gin.Engine {
	if container.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{container.Config.CORSOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(container.Logger))
	r.Use(gin.Recovery())

	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status":  "OK",
				"service": "streambay-api",
			})
		})
	}

	users := v1.Group("/users")
	{
		users.POST("/register", handlers.Register(container.UserService))
		users.POST("/login", handlers.Login(container.UserService, container.Config))
		users.POST("/refresh-token", handlers.RefreshToken(container.UserService, container.Config))
	}

	protected := users.Group("/")
	protected.Use(middleware.Auth(container.Tokens, container.UserRepo, container.Logger))
	{
		protected.POST("/logout", handlers.Logout(container.UserService))
		protected.GET("/current", handlers.GetCurrentUser(container.UserService))
		protected.POST("/change-password", handlers.ChangePassword(container.UserService))
		protected.PATCH("/change-username", handlers.ChangeUsername(container.UserService))
		protected.PATCH("/update-account", handlers.UpdateAccountDetails(container.UserService))
		protected.PATCH("/avatar", handlers.UpdateAvatar(container.UserService))
		protected.PATCH("/cover-image", handlers.UpdateCoverImage(container.UserService))
	}

	return r
}
