// Command league-server starts the league command gRPC server.
package main

import (
	"context"
	"errors"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/and161185/league-keeper/internal/command"
	"github.com/and161185/league-keeper/internal/config"
	"github.com/and161185/league-keeper/internal/migrate"
	"github.com/and161185/league-keeper/internal/model"
	"github.com/and161185/league-keeper/internal/repository/postgres"
	grpcserver "github.com/and161185/league-keeper/internal/server/grpc"
	"github.com/and161185/league-keeper/internal/service"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main loads configuration, runs migrations, and starts a TLS-enabled gRPC server.
func main() {
	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(os.Args[1:], ".env")
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Addr),
	)

	creds, err := credentials.NewServerTLSFromFile(cfg.TLSCert, cfg.TLSKey)
	if err != nil {
		logger.Fatal("failed to load TLS cert/key", zap.Error(err))
	}

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrate.Up(ctx, cfg.DSN, logger); err != nil {
		logger.Fatal("migrate up", zap.Error(err))
	}

	db, err := postgres.New(ctx, cfg.DSN)
	if err != nil {
		logger.Fatal("postgres", zap.Error(err))
	}
	defer db.Close()

	// Repositories
	teams := postgres.NewDocumentRepo[*model.Team](db, postgres.KindTeam)
	seasons := postgres.NewDocumentRepo[*model.Season](db, postgres.KindSeason)
	games := postgres.NewDocumentRepo[*model.Game](db, postgres.KindGame)
	tournaments := postgres.NewDocumentRepo[*model.TournamentGame](db, postgres.KindTournamentGame)

	// Services
	deps := command.Deps{Users: grpcserver.ContextUsers{}}
	registry := command.NewDefaultRegistry(deps, teams, service.NewSeasonLookup(seasons), command.Options{MaxRoundDepth: cfg.MaxRoundDepth})
	commands := service.NewCommands(registry, map[command.Kind]service.Collection{
		command.KindTeam:           service.Erase[*model.Team](teams),
		command.KindTeamSeason:     service.Erase[*model.Team](teams),
		command.KindSeason:         service.Erase[*model.Season](seasons),
		command.KindGame:           service.Erase[*model.Game](games),
		command.KindTournamentGame: service.Erase[*model.TournamentGame](tournaments),
	}, logger.Named("commands"))
	auth := service.NewAuthenticator([]byte(cfg.JWTKey), cfg.AccessTTL)

	// gRPC server with interceptors
	s := grpc.NewServer(
		grpc.Creds(creds),
		grpc.ChainUnaryInterceptor(
			grpcserver.RecoverUnary(logger),
			grpcserver.AuthUnary(auth),
			grpcserver.LoggingUnary(logger),
		),
	)
	grpcserver.Register(s, grpcserver.New(commands))

	// Health & reflection (dev)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	if cfg.Dev {
		reflection.Register(s)
	}

	lis, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		logger.Fatal("listen", zap.Error(err))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening (TLS)", zap.String("addr", cfg.Addr))
		if err := s.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		hs.Shutdown()
		// graceful shutdown
		done := make(chan struct{})
		go func() {
			s.GracefulStop()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			s.Stop()
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}
