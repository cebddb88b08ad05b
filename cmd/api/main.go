package main

import (
	"os"

	_ "invoicing/api/swagger" // swagger docs
	"invoicing/internal/config"
	"invoicing/internal/database"
	"invoicing/internal/handler"
	"invoicing/internal/logger"
	"invoicing/internal/middleware"
	"invoicing/internal/repository"
	"invoicing/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Invoicing API
// @version         1.0
// @description     REST API for managing clients, invoices, and payments.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.New()
	if err != nil {
		l := logger.WithComponent("main")
		l.Fatal().Err(err).Msg("failed to load configuration")
	}

	if err := logger.Setup(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format}); err != nil {
		l := logger.WithComponent("main")
		l.Fatal().Err(err).Msg("failed to set up logging")
	}
	log := logger.WithComponent("main")

	db, err := database.NewConnection(cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	log.Info().Msg("connected to PostgreSQL")

	// Set up dependencies (Repository -> Service -> Handler)
	userRepo := repository.NewUserRepository(db)
	clientRepo := repository.NewClientRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	txManager := repository.NewTransactionManager(db)

	userService := service.NewUserService(userRepo, cfg.JWT)
	clientService := service.NewClientService(clientRepo)
	invoiceService := service.NewInvoiceService(invoiceRepo, clientRepo, txManager)
	paymentService := service.NewPaymentService(paymentRepo, invoiceRepo)

	userHandler := handler.NewUserHandler(userService, cfg.JWT)
	clientHandler := handler.NewClientHandler(clientService)
	invoiceHandler := handler.NewInvoiceHandler(invoiceService)
	paymentHandler := handler.NewPaymentHandler(paymentService)

	// Set up Gin Router
	router := gin.New()
	router.Use(middleware.RequestLogger(logger.WithComponent("http")))
	router.Use(gin.Recovery())

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORS.Origins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// Register API Routes
	auth := middleware.RequireAuth([]byte(cfg.JWT.Secret))
	userHandler.RegisterRoutes(router.Group(""), auth)
	clientHandler.RegisterRoutes(router.Group(""), auth)
	invoiceHandler.RegisterRoutes(router.Group(""), auth)
	paymentHandler.RegisterRoutes(router.Group(""), auth)

	port := cfg.Server.Port
	if envPort := os.Getenv("PORT"); envPort != "" {
		port = envPort
	}

	log.Info().Str("port", port).Msg("server listening")
	if err := router.Run(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}
