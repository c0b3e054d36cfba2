package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/travel-agency-booking/internal/chat"
	"github.com/iliyamo/travel-agency-booking/internal/config"
	"github.com/iliyamo/travel-agency-booking/internal/database"
	"github.com/iliyamo/travel-agency-booking/internal/handler"
	"github.com/iliyamo/travel-agency-booking/internal/logger"
	"github.com/iliyamo/travel-agency-booking/internal/mailer"
	"github.com/iliyamo/travel-agency-booking/internal/media"
	"github.com/iliyamo/travel-agency-booking/internal/metrics"
	"github.com/iliyamo/travel-agency-booking/internal/middleware"
	"github.com/iliyamo/travel-agency-booking/internal/notify"
	"github.com/iliyamo/travel-agency-booking/internal/payment"
	"github.com/iliyamo/travel-agency-booking/internal/queue"
	"github.com/iliyamo/travel-agency-booking/internal/recaptcha"
	"github.com/iliyamo/travel-agency-booking/internal/repository"
	"github.com/iliyamo/travel-agency-booking/internal/response"
	"github.com/iliyamo/travel-agency-booking/internal/router"
	"github.com/iliyamo/travel-agency-booking/internal/service"
	"github.com/iliyamo/travel-agency-booking/internal/settings"
)

func main() {
	_ = godotenv.Load() // a missing .env is fine outside development

	cfg := config.Load()
	logger.Setup(cfg.LogLevel, cfg.IsDev())

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()
	if cfg.AutoMigrate {
		// migration files hold several statements each
		mdb, err := database.OpenDSN(database.DSN(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName, "multiStatements=true"))
		if err != nil {
			log.Fatal().Err(err).Msg("migration connection failed")
		}
		err = database.MigrateUp(mdb)
		_ = mdb.Close()
		if err != nil {
			log.Fatal().Err(err).Msg("migration failed")
		}
	}

	rdb := config.NewRedisClient() // nil when Redis is unreachable
	if rdb != nil {
		defer rdb.Close()
	}
	metrics.InitMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// repositories
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	tours := repository.NewTourRepo(db)
	bookings := repository.NewBookingRepo(db)
	payments := repository.NewPaymentRepo(db)
	reviews := repository.NewReviewRepo(db)
	contacts := repository.NewContactRepo(db)
	content := repository.NewContentRepo(db)

	// integrations, all resolved per call from settings
	resolver := settings.NewResolver(repository.NewSettingRepo(db), rdb, cfg.SettingsCacheTTL)
	gateways := payment.NewFactory(resolver)
	images := media.NewCloudinary(resolver)
	sender := mailer.NewSMTPSender(resolver)

	var pub notify.Publisher
	if cfg.NotifyMode == "queue" {
		pub = queue.NewPublisher(config.AMQPURL())
		consumer := queue.NewConsumer(config.AMQPURL(), sender)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("email consumer stopped")
			}
		}()
	}
	notifier := notify.New(mailer.MustRenderer(), sender, pub, resolver, cfg.BaseURL)

	// services
	bookingSvc := service.NewBookingService(db, bookings, payments, tours, gateways, notifier, resolver)
	reviewSvc := service.NewReviewService(reviews, tours, bookings)
	accountSvc := service.NewAccountService(users, tokens, notifier, cfg.BaseURL, cfg.BcryptCost)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = response.HTTPErrorHandler
	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.AccessLog())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{cfg.BaseURL},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization, "X-Request-ID"},
	}))

	cacheCfg := config.LoadCacheConfig()
	cache := middleware.NewRedisCache(cacheCfg, rdb)
	limit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	paymentH := handler.NewPaymentHandler(bookingSvc)
	contactH := handler.NewContactHandler(contacts, recaptcha.NewVerifier(resolver), notifier)
	contentH := handler.NewContentHandler(content)
	reviewH := handler.NewReviewHandler(reviewSvc, reviews, rdb, cacheCfg.Prefix)

	router.RegisterRoutes(e, handler.NewHealthHandler(db, rdb))
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens, accountSvc, notifier), cfg.JWTSecret, limit)
	router.RegisterPublic(e, router.PublicHandlers{
		Tours:   handler.NewPublicTourHandler(tours, reviews),
		Contact: contactH,
		Content: contentH,
		Chat:    handler.NewChatHandler(tours, chat.NewClient(), resolver),
		Payment: paymentH,
	}, cache, limit)
	router.RegisterCustomer(e, router.CustomerHandlers{
		Profile:  handler.NewProfileHandler(users, bookings),
		Bookings: handler.NewBookingHandler(bookingSvc),
		Payment:  paymentH,
		Reviews:  reviewH,
	}, cfg.JWTSecret)
	router.RegisterAdmin(e, router.AdminHandlers{
		Dashboard: handler.NewAdminHandler(users, bookings, tours),
		Tours:     handler.NewAdminTourHandler(tours, images, rdb, cacheCfg.Prefix),
		Bookings:  handler.NewAdminBookingHandler(bookings, bookingSvc),
		Reviews:   reviewH,
		Contact:   contactH,
		Content:   contentH,
		Settings:  handler.NewSettingsHandler(resolver),
		Uploads:   handler.NewUploadHandler(images),
	}, cfg.JWTSecret)

	addr := ":" + cfg.Port
	go func() {
		log.Info().Str("addr", addr).Str("env", cfg.Env).Str("notify_mode", cfg.NotifyMode).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("server stopped")
}
