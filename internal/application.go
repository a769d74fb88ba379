package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/HyPolar/tic-tac-toe-backend/internal/config"
	"github.com/HyPolar/tic-tac-toe-backend/internal/repository"
	"github.com/HyPolar/tic-tac-toe-backend/internal/repository/storage"
	"github.com/HyPolar/tic-tac-toe-backend/internal/service"
	"github.com/HyPolar/tic-tac-toe-backend/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
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

	redisStorage, err := storage.NewRedisStorage(ctx, redisAddrString)
	if err != nil {
		return fmt.Errorf("could not connect to redis storage: %w", err)
	}

	defer func() {
		if err = redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}()

	rng := rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // game randomness, not crypto

	outcomeRepo := repository.NewOutcomeRepository(redisStorage.Connection, conf.Wagers.HistoryTTL)
	outcomeService := service.NewOutcomeService(logger, outcomeRepo, conf.Wagers, rng)
	botService := service.NewBotService(logger, conf.Bot, rng)
	matchmaker := service.NewMatchmaker(logger, conf.Game, conf.Wagers, outcomeService, botService, rng)

	// The payment rail is an external collaborator; without one configured,
	// payouts run dry.
	gateway := service.NewDryRunGateway(logger)
	matchmaker.AddObserver(service.NewSettlementBridge(logger, gateway, conf.Wagers))

	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		wsServer := websocket.New(logger, matchmaker)
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err = <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}
