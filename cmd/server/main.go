// Package main starts the Genome Collaboration Portal API server: it reads
// configuration, sets up logging, picks the postgres or in-memory store and
// the token revocation list, and serves HTTP or HTTPS until interrupted.
package main

import (
	"cmp"
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/atinyakov/GenomePortal/internal/config"
	"github.com/atinyakov/GenomePortal/internal/db"
	"github.com/atinyakov/GenomePortal/internal/logger"
	"github.com/atinyakov/GenomePortal/internal/repository"
	"github.com/atinyakov/GenomePortal/internal/server/handler/http"
	"github.com/atinyakov/GenomePortal/internal/service"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

const (
	cleanupInterval = time.Hour
	shutdownTimeout = 5 * time.Second
)

// stores are the persistence backends the services run on.
type stores struct {
	users       service.UserRepository
	collabs     service.CollaborationRepository
	analyses    service.AnalysisRecorder
	revocations service.RevocationStore
	// pg is set when running on postgres.
	pg *sql.DB
}

func main() {
	// Parse command-line and environment configuration.
	options, err := config.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		fmt.Fprintln(os.Stderr, "failed to init logger:", err)
		os.Exit(1)
	}
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, options, zapLogger); err != nil {
		zapLogger.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, options *config.Options, zapLogger *zap.Logger) error {
	st, err := openStores(ctx, options, zapLogger)
	if err != nil {
		return err
	}
	if st.pg != nil {
		defer st.pg.Close()
	}

	secret := options.SecretKey
	if secret == "" {
		secret, err = randomSecret()
		if err != nil {
			return err
		}
		zapLogger.Warn("no secret key configured, using a random one; tokens will not survive a restart")
	}

	// Initialize business-logic services.
	authService := service.NewAuthService(st.users, st.revocations, []byte(secret), options.TokenTTL.Duration)
	collabService := service.NewCollaborationService(st.collabs)
	analysisService := service.NewAnalysisService(st.analyses, zapLogger)

	// Build the router with middleware and routes.
	router := http.NewRouter(http.Handlers{
		Auth:           &http.AuthHandler{AuthService: authService, Log: zapLogger},
		Collaborations: &http.CollaborationHandler{CollaborationService: collabService, Log: zapLogger},
		Analysis:       &http.AnalysisHandler{AnalysisService: analysisService, Log: zapLogger},
		Authenticator:  authService,
	}, zapLogger)

	server := &nethttp.Server{
		Addr:              options.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if options.TLSCert != "" && options.TLSKey != "" {
			zapLogger.Info("starting HTTPS server", zap.String("addr", options.Port))
			err = server.ListenAndServeTLS(options.TLSCert, options.TLSKey)
		} else {
			zapLogger.Info("starting HTTP server", zap.String("addr", options.Port))
			err = server.ListenAndServe()
		}
		if errors.Is(err, nethttp.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		zapLogger.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(sctx)
	})
	if st.pg != nil && options.RedisAddr == "" {
		g.Go(func() error {
			db.StartRevocationCleaner(gctx, st.pg, cleanupInterval, zapLogger)
			return nil
		})
	}
	return g.Wait()
}

func openStores(ctx context.Context, options *config.Options, zapLogger *zap.Logger) (*stores, error) {
	st := &stores{}
	if options.DatabaseDSN != "" {
		pg, err := db.InitPostgres(ctx, options.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("cannot init database: %w", err)
		}
		st.pg = pg
		st.users = repository.NewPostgresUserRepository(pg)
		st.collabs = repository.NewPostgresCollaborationRepository(pg)
		st.analyses = repository.NewPostgresAnalysisRepository(pg)
		st.revocations = repository.NewPostgresRevocationRepository(pg)
		zapLogger.Info("using postgres store")
	} else {
		mem, err := repository.NewMemoryStore(repository.DemoSeed(), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("seed demo data: %w", err)
		}
		st.users, st.collabs, st.analyses, st.revocations = mem, mem, mem, mem
		zapLogger.Info("using in-memory store with demo accounts")
	}

	if options.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: options.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			if st.pg != nil {
				st.pg.Close()
			}
			return nil, fmt.Errorf("cannot reach redis at %s: %w", options.RedisAddr, err)
		}
		st.revocations = repository.NewRedisRevocationStore(rdb)
		zapLogger.Info("using redis revocation list", zap.String("addr", options.RedisAddr))
	}
	return st, nil
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
