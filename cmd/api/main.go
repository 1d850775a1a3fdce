package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"github.com/yourusername/safespace-api/internal/config"
	"github.com/yourusername/safespace-api/internal/handler"
	"github.com/yourusername/safespace-api/internal/middleware"
	pgRepo "github.com/yourusername/safespace-api/internal/repository/postgres"
	"github.com/yourusername/safespace-api/internal/service"
	"github.com/yourusername/safespace-api/pkg/auth"
	"github.com/yourusername/safespace-api/pkg/database"
)

func main() {
	// Загружаем конфигурацию
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Загрузка конфигурации из %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к PostgreSQL
	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	// Применяем миграции
	if err := database.MigrateDB(db); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	// Redis нужен только для rate limiting; без него приложение работает,
	// но лимиты на маршрутах аутентификации не действуют
	var redisClient redis.UniversalClient
	if cfg.Redis.Addr != "" {
		redisClient, err = database.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Printf("Failed to connect to Redis: %v. Rate limiting отключен.", err)
			redisClient = nil
		} else {
			log.Println("Successfully connected to Redis")
		}
	} else {
		log.Println("REDIS_ADDR не задан, rate limiting отключен")
	}

	// Инициализируем репозитории
	accountRepo := pgRepo.NewAccountRepo(db)
	reportRepo := pgRepo.NewReportRepo(db)
	categoryRepo := pgRepo.NewCategoryRepo(db)
	schoolRepo := pgRepo.NewSchoolRepo(db)

	// Инициализируем сервис JWT
	jwtService, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.TokenExpiry())
	if err != nil {
		log.Printf("Failed to initialize JWTService: %v", err)
		os.Exit(1)
	}

	// Сервис отправки писем: Resend либо noop-заглушка для локальной разработки
	var emailService service.EmailService
	if cfg.Email.ResendAPIKey != "" {
		emailService, err = service.NewResendEmailService(cfg.Email.ResendAPIKey, cfg.Email.From)
		if err != nil {
			log.Printf("Failed to initialize EmailService: %v", err)
			os.Exit(1)
		}
	} else {
		log.Println("RESEND_API_KEY не задан, письма выводятся в лог")
		emailService = &service.NoopEmailService{}
	}

	// Инициализируем сервисы
	authService, err := service.NewAuthService(accountRepo, emailService, jwtService, cfg.Verification.CodeTTL())
	if err != nil {
		log.Printf("Failed to initialize AuthService: %v", err)
		os.Exit(1)
	}
	accountService, err := service.NewAccountService(accountRepo)
	if err != nil {
		log.Printf("Failed to initialize AccountService: %v", err)
		os.Exit(1)
	}
	reportService, err := service.NewReportService(reportRepo, categoryRepo, emailService)
	if err != nil {
		log.Printf("Failed to initialize ReportService: %v", err)
		os.Exit(1)
	}
	schoolService, err := service.NewSchoolService(schoolRepo)
	if err != nil {
		log.Printf("Failed to initialize SchoolService: %v", err)
		os.Exit(1)
	}

	// Инициализируем обработчики
	authHandler := handler.NewAuthHandler(authService)
	reportHandler := handler.NewReportHandler(reportService)
	schoolHandler := handler.NewSchoolHandler(schoolService)
	profileHandler := handler.NewProfileHandler(accountService)

	// Инициализируем middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService, accountRepo)

	var rateLimiter *middleware.RateLimiter
	if redisClient != nil {
		rateLimiter = middleware.NewRateLimiter(redisClient)
	}
	// При отсутствии Redis лимитер вырождается в no-op
	limit := func(cfg middleware.RateLimitConfig) gin.HandlerFunc {
		if rateLimiter == nil {
			return func(c *gin.Context) { c.Next() }
		}
		return rateLimiter.Limit(cfg)
	}

	// Инициализируем роутер Gin
	router := gin.Default()

	isProduction := gin.Mode() == gin.ReleaseMode

	// Настройка доверенных прокси для корректной работы c.ClientIP()
	if isProduction {
		if err := router.SetTrustedProxies(nil); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	} else {
		if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	}

	// Настройка CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.Use(middleware.RequestID())

	// Санитизация всего пользовательского ввода до каких-либо обработчиков
	router.Use(middleware.Sanitize())

	// Настраиваем маршруты API
	api := router.Group("/api")
	{
		// Аутентификация
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/login", limit(middleware.LoginRateLimitConfig()), authHandler.Login)
			authGroup.POST("/resend-code", limit(middleware.ResendRateLimitConfig()), authHandler.ResendCode)
			authGroup.POST("/verify", limit(middleware.VerifyRateLimitConfig()), authHandler.Verify)

			authedAuth := authGroup.Group("/")
			authedAuth.Use(authMiddleware.RequireAuth())
			{
				authedAuth.POST("/logout", authHandler.Logout)
			}
		}

		// Публичные маршруты обращений
		api.POST("/reports", reportHandler.Create)
		api.GET("/case-number/:case_number", reportHandler.CheckCaseNumber)
		api.GET("/reports/case/:case_number", reportHandler.GetByCaseNumber)
		api.GET("/reports/subtypes/:category_id", reportHandler.ListSubtypes)
		api.GET("/abuse-types", reportHandler.ListAbuseTypes)
		api.GET("/schools/search", schoolHandler.Search)

		// Административные маршруты
		admin := api.Group("/")
		admin.Use(authMiddleware.RequireAuth(), authMiddleware.RequireVerifiedAdmin())
		{
			admin.GET("/reports", reportHandler.List)
			admin.GET("/reports/export", reportHandler.Export)
			admin.PUT("/reports/:case_number", reportHandler.Update)
			admin.PATCH("/reports/status/:id", reportHandler.UpdateStatus)

			admin.GET("/admin/profile", profileHandler.Get)
			admin.PUT("/admin/profile", profileHandler.Update)
			admin.POST("/admin/change-password", profileHandler.ChangePassword)
		}
	}

	// Настраиваем HTTP сервер с тайм-аутами для защиты от slow client attacks
	readTimeout := cfg.Server.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 15
	}
	writeTimeout := cfg.Server.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 30
	}
	port := cfg.Server.Port
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  time.Duration(readTimeout) * time.Second,
		WriteTimeout: time.Duration(writeTimeout) * time.Second,
	}

	// Запускаем сервер в горутине
	go func() {
		log.Printf("Starting server on port %s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Printf("Error closing Redis client: %v", err)
		}
	}

	log.Println("Server exited properly")
}
