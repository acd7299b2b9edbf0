package main

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/vaishali515/switchboard-auth/cmd"
	"github.com/vaishali515/switchboard-auth/internal/account"
	"github.com/vaishali515/switchboard-auth/internal/auth"
	"github.com/vaishali515/switchboard-auth/internal/config"
	"github.com/vaishali515/switchboard-auth/internal/database"
	"github.com/vaishali515/switchboard-auth/internal/httpapi"
	"github.com/vaishali515/switchboard-auth/internal/keys"
	"github.com/vaishali515/switchboard-auth/internal/logging"
	"github.com/vaishali515/switchboard-auth/internal/notify"
	"github.com/vaishali515/switchboard-auth/internal/otp"
	"github.com/vaishali515/switchboard-auth/internal/refresh"
	"github.com/vaishali515/switchboard-auth/internal/token"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.New(cfg.App.LogPath, cfg.App.Debug)
	if err != nil {
		log.Printf("init logger: %v, falling back to production defaults", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("starting",
		zap.String("app", cfg.App.Name),
		zap.String("port", cfg.App.Port),
		zap.Bool("debug", cfg.App.Debug),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("connect postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		pingCancel()
		logger.Fatal("connect redis", zap.Error(err))
	}
	pingCancel()

	keyManager, err := keys.Load(cfg.JWT.PrivateKeyPath, cfg.JWT.PublicKeyPath, cfg.JWT.KeyID)
	if err != nil {
		logger.Fatal("load signing keys", zap.Error(err))
	}

	issuer := token.NewIssuer(keyManager, cfg.JWT.AccessTTL, cfg.App.Name)

	otpStore := otp.NewStore(redisClient, cfg.Redis.OTPPrefix, cfg.Redis.CooldownPrefix)
	otpEngine := otp.NewEngine(otpStore, otp.Config{
		TTL:         cfg.OTP.TTL,
		Cooldown:    cfg.OTP.Cooldown,
		MaxAttempts: cfg.OTP.MaxAttempts,
	}, logger)

	refreshManager := refresh.NewManager(db, cfg.JWT.RefreshTTL, logger)

	sweeper := refresh.NewSweeper(refreshManager, cfg.Sweep.Interval, logger)
	go sweeper.Run(ctx)

	accounts := account.NewPostgresStore(db)
	notifier := notify.NewLogNotifier(logger)

	service := auth.NewService(accounts, otpEngine, issuer, refreshManager, notifier, logger)

	authHandler := httpapi.NewAuthHandler(service, logger)
	jwksHandler := httpapi.NewJWKSHandler(issuer)
	router := httpapi.NewRouter(authHandler, jwksHandler, logger)

	if err := cmd.APIServer(router, cfg.App.Port, logger); err != nil {
		logger.Fatal("server", zap.Error(err))
	}
}
