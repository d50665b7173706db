package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/tictactoe-promo/internal/config"
	"github.com/rocketscienceinc/tictactoe-promo/internal/repository"
	"github.com/rocketscienceinc/tictactoe-promo/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-promo/internal/service"
	"github.com/rocketscienceinc/tictactoe-promo/internal/session"
	"github.com/rocketscienceinc/tictactoe-promo/internal/transport/telegram"
	"github.com/rocketscienceinc/tictactoe-promo/transport/rest"
	"github.com/rocketscienceinc/tictactoe-promo/transport/websocket"
)

const shutdownTimeout = 10 * time.Second

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	logger = logger.With("instance_id", uuid.NewString())
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return ErrAddrNotFound
	}

	redisStorage, err := storage.New(ctx, redisAddrString)
	if err != nil {
		return fmt.Errorf("could not connect to redis storage: %w", err)
	}

	defer func() {
		if err = redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}()

	userRepo := repository.NewUserRepository(redisStorage)
	userService := service.NewUserService(userRepo)

	if conf.Telegram.BotToken == "" {
		log.Warn("TELEGRAM_BOT_TOKEN is not set, outcome messages will not be delivered")
	}

	telegramClient := telegram.NewClient(logger, conf.Telegram, &http.Client{Timeout: conf.Telegram.DeliveryTimeout})
	notifier := service.NewOutcomeNotifier(
		logger,
		telegramClient,
		service.NewRewardGenerator(nil),
		conf.Messages,
		conf.Telegram.DeliveryTimeout,
	)

	wsServer := websocket.New(logger, session.Deps{
		Opponent: service.NewOpponentService(nil),
		Notifier: notifier,
		Users:    userService,
	}, session.Options{
		OpponentDelay: conf.Game.OpponentDelay,
		AutoStart:     conf.Game.AutoStart,
	})

	router := rest.NewRouter(logger, telegramClient, userService, wsServer)
	srv := rest.NewServer(ctx, conf.HTTPPort, router)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := srv.ListenAndServe(); httpErr != nil && !errors.Is(httpErr, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err = srv.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shut down HTTP server", "error", err)
	}

	notifier.Wait()

	return nil
}
