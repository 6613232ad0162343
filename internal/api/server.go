package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/martijn/userbase/internal/api/dto"
	"github.com/martijn/userbase/internal/api/handler"
	"github.com/martijn/userbase/internal/api/middleware"
	"github.com/martijn/userbase/internal/api/view"
	"github.com/martijn/userbase/internal/core/service"
	"github.com/martijn/userbase/internal/flash"
	"github.com/martijn/userbase/internal/logging"
	"github.com/martijn/userbase/pkg/config"
)

type Server struct {
	router  *gin.Engine
	handler http.Handler
	srv     *http.Server
	config  *config.Config
	logger  logging.Logger
}

// NewServer creates a new HTTP server
func NewServer(
	cfg *config.Config,
	userService *service.UserService,
	flasher *flash.Flasher,
	logger logging.Logger,
) (*Server, error) {
	// Set Gin mode
	if !cfg.IsDevMode() {
		gin.SetMode(gin.ReleaseMode)
	}

	renderer, err := view.NewRenderer()
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.HTMLRender = renderer

	// Global middleware
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.ErrorHandlerMiddleware(logger))

	// Initialize handlers
	userHandler := handler.NewUserHandler(userService, flasher, logger)
	userAPIHandler := handler.NewUserAPIHandler(userService, logger)

	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/users")
	})

	// HTML pages
	users := router.Group("/users")
	{
		users.GET("", userHandler.Index)
		users.GET("/new", userHandler.New)
		users.POST("", userHandler.Create)
		users.GET("/:id", userHandler.Show)
		users.GET("/:id/edit", userHandler.Edit)
		users.PATCH("/:id", userHandler.Update)
		users.PUT("/:id", userHandler.Update)
		users.DELETE("/:id", userHandler.Destroy)
	}

	// JSON API
	apiUsers := router.Group("/api/users")
	{
		apiUsers.GET("", userAPIHandler.ListUsers)
		apiUsers.POST("", userAPIHandler.CreateUser)
		apiUsers.GET("/:id", userAPIHandler.GetUser)
		apiUsers.PUT("/:id", userAPIHandler.ReplaceUser)
		apiUsers.PATCH("/:id", userAPIHandler.PatchUser)
		apiUsers.DELETE("/:id", userAPIHandler.DeleteUser)
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	router.NoRoute(func(c *gin.Context) {
		if middleware.IsAPIRequest(c) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{
				Error:   "Not Found",
				Message: fmt.Sprintf("No route for %s %s", c.Request.Method, c.Request.URL.Path),
				Code:    http.StatusNotFound,
			})
			return
		}
		userHandler.NotFound(c)
	})

	server := &Server{
		router:  router,
		handler: middleware.MethodOverride(router),
		config:  cfg,
		logger:  logger,
	}

	return server, nil
}

// Handler returns the root handler, including method override.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.APIHost, s.config.APIPort)

	s.srv = &http.Server{
		Addr:           addr,
		Handler:        s.handler,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	ctx := context.Background()

	// Start with or without SSL
	if s.config.SSLCert != "" && s.config.SSLKey != "" {
		s.logger.Info(ctx, "starting HTTPS server", "addr", addr)
		return s.srv.ListenAndServeTLS(s.config.SSLCert, s.config.SSLKey)
	}

	s.logger.Info(ctx, "starting HTTP server", "addr", addr)
	return s.srv.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv != nil {
		return s.srv.Shutdown(ctx)
	}
	return nil
}
