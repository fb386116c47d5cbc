package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/yata-app/yata-api/internal/auth"
	"github.com/yata-app/yata-api/internal/cache"
	"github.com/yata-app/yata-api/internal/config"
	"github.com/yata-app/yata-api/internal/controllers"
	"github.com/yata-app/yata-api/internal/database"
	"github.com/yata-app/yata-api/internal/middleware"
	"github.com/yata-app/yata-api/internal/models"
	"github.com/yata-app/yata-api/internal/services"
)

var (
	db            *gorm.DB
	rdb           *redis.Client
	configuration *config.Config

	sessionService       services.SessionService
	oauthService         services.OAuthService
	personalTokenService services.PersonalTokenService
	userService          services.UserService
	todoService          services.TodoService
	googleAuthService    services.GoogleAuthService

	resolver *auth.Resolver

	authController          *controllers.AuthController
	oauthController         *controllers.OAuthController
	personalTokenController *controllers.PersonalTokenController
	todoController          *controllers.TodoController
)

func main() {
	// Load environment variables
	loadDotenvFile()

	// Initialize logger
	setUpLogger()

	// Load configuration
	configuration = loadConfig()

	// Initialize the durable record store and the session cache
	setupDatabase(configuration)
	setupSessionCache(configuration)

	// Initialize services, the resolver and controllers
	setupServices(configuration)

	// Deactivate expired personal tokens on a schedule
	go runTokenCleanup(1 * time.Hour)

	// Initialize Gin router
	router := setupRouter()

	// Start the server
	log.Infof("Starting server on %s:%d", configuration.Host, configuration.Port)
	if err := router.Run(fmt.Sprintf("%v:%d", configuration.Host, configuration.Port)); err != nil {
		log.WithError(err).Fatal("Server terminated")
	}
}

// checkPanicErr checks if an error occurred and panics if it did
func checkPanicErr(err error) {
	if err != nil {
		panic(err)
	}
}

// loadDotenvFile loads environment variables from a .env file
// If the file is not found, it will log a warning and use system environment variables
func loadDotenvFile() {
	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found, using system environment variables")
	}
}

// setUpLogger initializes the logger with a JSON formatter and sets the log level based on the environment
func setUpLogger() {
	log.SetFormatter(&log.JSONFormatter{})
	environment := config.GetEnvWithDefault("APP_ENV", "development")
	switch environment {
	case "development":
		log.SetLevel(log.DebugLevel)
	case "production":
		log.SetLevel(log.ErrorLevel)
	default:
		log.SetLevel(log.InfoLevel)
	}
}

// loadConfig loads the application configuration from environment variables
// It returns a Config struct or panics if there is an error
func loadConfig() *config.Config {
	conf, err := config.LoadConfig()
	checkPanicErr(err)
	return conf
}

// setupDatabase initializes the durable record store and migrates the schema
func setupDatabase(conf *config.Config) {
	var err error
	db, err = database.InitDatabase(database.DatabaseConfig{
		Driver:   conf.DBDriver,
		Host:     conf.DBHost,
		Port:     conf.DBPort,
		User:     conf.DBUser,
		Password: conf.DBPassword,
		Name:     conf.DBName,
		SSLMode:  conf.DBSSLMode,
		Path:     conf.DBPath,
	})
	checkPanicErr(err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Todo{},
		&models.OAuthClient{},
		&models.OAuthToken{},
		&models.PersonalToken{},
	)
	checkPanicErr(err)
}

// setupSessionCache connects to Redis, which holds browser sessions
func setupSessionCache(conf *config.Config) {
	var err error
	rdb, err = cache.InitRedis(conf.RedisURL)
	checkPanicErr(err)
}

// setupServices constructs the services, the principal resolver and the controllers
func setupServices(conf *config.Config) {
	sessionService = services.NewSessionService(rdb, conf.SessionTTL())
	oauthService = services.NewOAuthService(db, conf.OAuthTokenTTL())
	personalTokenService = services.NewPersonalTokenService(db, conf.MaxPersonalTokensPerUser)
	userService = services.NewUserService(db)
	todoService = services.NewTodoService(db)
	googleAuthService = services.NewGoogleAuthService(conf.GoogleClientID, conf.GoogleClientSecret, conf.FrontendURL)

	resolver = auth.NewResolver(sessionService, oauthService, personalTokenService, userService)

	authController = controllers.NewAuthController(googleAuthService, userService, sessionService, conf.SessionTTL())
	oauthController = controllers.NewOAuthController(oauthService, conf.OAuthTokenTTLSeconds)
	personalTokenController = controllers.NewPersonalTokenController(personalTokenService, userService)
	todoController = controllers.NewTodoController(todoService)
}

// runTokenCleanup periodically deactivates expired personal tokens
func runTokenCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		count, err := personalTokenService.CleanupExpired()
		if err != nil {
			log.WithError(err).Error("Personal token cleanup failed")
			continue
		}
		if count > 0 {
			log.WithField("deactivated", count).Info("Cleaned up expired personal tokens")
		}
	}
}

// setupRouter initializes the Gin router and sets up the routes
// It returns the configured router
func setupRouter() *gin.Engine {
	router := gin.Default()
	setupRoutes(router)
	return router
}

// setupRoutes defines the routes for the Gin router
func setupRoutes(router *gin.Engine) {
	// Health check endpoint
	router.GET("/health", healthCheckHandler)

	v1 := router.Group("/api/v1")
	{
		// Federated login and session lifecycle
		authGroup := v1.Group("/auth")
		{
			authGroup.GET("/google/login", authController.GoogleLogin)
			authGroup.GET("/google/callback", authController.GoogleCallback)
			authGroup.POST("/logout", authController.Logout)
			authGroup.GET("/me", middleware.SessionAuth(resolver), authController.Me)
		}

		// OAuth2 client-credentials token endpoint
		oauthGroup := v1.Group("/oauth")
		{
			oauthGroup.POST("/token", oauthController.Token)
			oauthGroup.POST("/clients", oauthController.CreateClient)
		}

		// Personal access token management (session-authenticated)
		tokenGroup := v1.Group("/personal-tokens")
		tokenGroup.Use(middleware.SessionAuth(resolver))
		{
			tokenGroup.POST("", personalTokenController.Create)
			tokenGroup.GET("", personalTokenController.List)
			tokenGroup.GET("/stats", personalTokenController.Stats)
			tokenGroup.DELETE("/:id", personalTokenController.Revoke)
		}

		// Todos behind each credential scheme. The scheme is declared by
		// the route group, never inferred from the credential.
		sessionTodos := v1.Group("/todos")
		sessionTodos.Use(middleware.SessionAuth(resolver))
		registerTodoRoutes(sessionTodos, nil)

		oauthTodos := v1.Group("/oauth-todos")
		oauthTodos.Use(middleware.OAuthTokenAuth(resolver))
		registerTodoRoutes(oauthTodos, map[string]gin.HandlerFunc{
			"read":  middleware.RequireScope("todos:read"),
			"write": middleware.RequireScope("todos:write"),
		})

		personalTodos := v1.Group("/personal-todos")
		personalTodos.Use(middleware.PersonalTokenAuth(resolver))
		registerTodoRoutes(personalTodos, nil)
	}
}

// registerTodoRoutes attaches the todo handlers to a route group, optionally
// guarded per-operation by scope middlewares ("read"/"write" keys)
func registerTodoRoutes(group *gin.RouterGroup, scopes map[string]gin.HandlerFunc) {
	read := func(h gin.HandlerFunc) []gin.HandlerFunc { return guarded(scopes["read"], h) }
	write := func(h gin.HandlerFunc) []gin.HandlerFunc { return guarded(scopes["write"], h) }

	group.GET("", read(todoController.GetAllTodos)...)
	group.GET("/:id", read(todoController.GetTodoByID)...)
	group.POST("", write(todoController.CreateTodo)...)
	group.PUT("/:id", write(todoController.UpdateTodo)...)
	group.DELETE("/:id", write(todoController.DeleteTodo)...)
}

func guarded(scope gin.HandlerFunc, handler gin.HandlerFunc) []gin.HandlerFunc {
	if scope == nil {
		return []gin.HandlerFunc{handler}
	}
	return []gin.HandlerFunc{scope, handler}
}

// healthCheckHandler handles the health check endpoint
func healthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "yata-api",
	})
}
