package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	grpc_logging "github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	grpc_recovery "github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"

	"github.com/KirkDiggler/rpg-toolkit/dice"

	"github.com/aequall/aequall-api/internal/errors"
	"github.com/aequall/aequall-api/internal/events"
	"github.com/aequall/aequall-api/internal/handlers/relay"
	"github.com/aequall/aequall-api/internal/messaging"
	"github.com/aequall/aequall-api/internal/orchestrators/combat"
	"github.com/aequall/aequall-api/internal/orchestrators/merchant"
	"github.com/aequall/aequall-api/internal/pkg/clock"
	"github.com/aequall/aequall-api/internal/pkg/idgen"
	redisclient "github.com/aequall/aequall-api/internal/redis"
	"github.com/aequall/aequall-api/internal/repositories/actors"
	"github.com/aequall/aequall-api/internal/repositories/turnstate"
)

// serverConfig is read from the environment, with an optional .env overlay
// in development
type serverConfig struct {
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	GRPCPort  int    `env:"GRPC_PORT" envDefault:"50051"`

	// SessionUserID identifies this session on the shared topic
	SessionUserID string `env:"SESSION_USER_ID,required"`

	// AuthoritativeUserID is the GM session allowed to apply mutations
	AuthoritativeUserID string `env:"GM_USER_ID,required"`

	Topic string `env:"MESSAGE_TOPIC"`

	MetersPerGridUnit float64 `env:"METERS_PER_GRID_UNIT" envDefault:"1"`
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the session server",
	Long:  `Start the session server: the message relay plus an operational gRPC endpoint for health checks.`,
	RunE:  runServer,
}

func runServer(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Missing .env is fine outside development
	if err := godotenv.Load(); err == nil {
		slog.Info("Loaded .env file")
	}

	var cfg serverConfig
	if err := env.Parse(&cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("Received shutdown signal, gracefully stopping...")
		cancel()
	}()

	client, err := redisclient.NewClient(cfg.RedisAddr, nil)
	if err != nil {
		return fmt.Errorf("failed to create redis client: %w", err)
	}

	actorRepo, err := actors.NewRedisRepository(&actors.Config{Client: client})
	if err != nil {
		return fmt.Errorf("failed to create actor repository: %w", err)
	}

	turnStateRepo, err := turnstate.NewRedisRepository(&turnstate.Config{
		Client: client,
		Clock:  clock.New(),
	})
	if err != nil {
		return fmt.Errorf("failed to create turn state repository: %w", err)
	}

	bus := events.NewBus()

	channel, err := messaging.NewChannel(&messaging.Config{
		Client: client,
		Topic:  cfg.Topic,
	})
	if err != nil {
		return fmt.Errorf("failed to create messaging channel: %w", err)
	}
	defer func() {
		if closeErr := channel.Close(); closeErr != nil {
			slog.Warn("Failed to close messaging channel", "error", closeErr)
		}
	}()

	combatService, err := combat.NewOrchestrator(&combat.Config{
		TurnStateRepo: turnStateRepo,
		ActorRepo:     actorRepo,
		IDGenerator:   idgen.NewUUID("combat"),
		EventBus:      bus,
		DiceRoller:    dice.DefaultRoller,
		Measurer:      combat.EuclideanGrid{MetersPerUnit: cfg.MetersPerGridUnit},
	})
	if err != nil {
		return fmt.Errorf("failed to create combat orchestrator: %w", err)
	}

	merchantService, err := merchant.NewOrchestrator(&merchant.Config{
		ActorRepo:           actorRepo,
		IDGenerator:         idgen.NewUUID("req"),
		EventBus:            bus,
		Publisher:           channel,
		AuthoritativeUserID: cfg.AuthoritativeUserID,
	})
	if err != nil {
		return fmt.Errorf("failed to create merchant orchestrator: %w", err)
	}

	messageRelay, err := relay.New(&relay.Config{
		Merchant:            merchantService,
		Combat:              combatService,
		Subscriber:          channel,
		LocalUserID:         cfg.SessionUserID,
		AuthoritativeUserID: cfg.AuthoritativeUserID,
	})
	if err != nil {
		return fmt.Errorf("failed to create relay: %w", err)
	}

	errChan := make(chan error, 2)
	go func() {
		if runErr := messageRelay.Run(ctx); runErr != nil && runErr != context.Canceled {
			errChan <- fmt.Errorf("relay stopped: %w", runErr)
		}
	}()

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			grpc_logging.UnaryServerInterceptor(grpc_logging.LoggerFunc(logFunc)),
			grpc_recovery.UnaryServerInterceptor(),
			errorTranslationInterceptor,
		),
		grpc.ChainStreamInterceptor(
			grpc_logging.StreamServerInterceptor(grpc_logging.LoggerFunc(logFunc)),
			grpc_recovery.StreamServerInterceptor(),
		),
	)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(srv, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)

	reflection.Register(srv)

	go func() {
		log.Printf("gRPC server starting on port %d...", cfg.GRPCPort)
		if serveErr := srv.Serve(lis); serveErr != nil {
			errChan <- fmt.Errorf("failed to serve: %w", serveErr)
		}
	}()

	select {
	case <-ctx.Done():
		log.Println("Shutting down gRPC server...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		stopped := make(chan struct{})
		go func() {
			srv.GracefulStop()
			close(stopped)
		}()

		select {
		case <-shutdownCtx.Done():
			log.Println("Graceful shutdown timeout exceeded, forcing stop")
			srv.Stop()
		case <-stopped:
			log.Println("Server stopped gracefully")
		}

		return nil
	case err := <-errChan:
		return err
	}
}

func logFunc(ctx context.Context, level grpc_logging.Level, msg string, fields ...any) {
	log.Printf("[%v] %s %v", level, msg, fields)
}

// errorTranslationInterceptor maps coded errors to gRPC status errors on the
// way out
func errorTranslationInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	resp, err := handler(ctx, req)
	if err != nil {
		return resp, errors.ToGRPCError(err)
	}
	return resp, nil
}
