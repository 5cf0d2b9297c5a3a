package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/guildscript/webapi/auth"
	"github.com/guildscript/webapi/auth/csrf"
	"github.com/guildscript/webapi/configstore"
	"github.com/guildscript/webapi/identity"
	"github.com/guildscript/webapi/internal/config"
	"github.com/guildscript/webapi/server"
	"github.com/guildscript/webapi/sessions"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("error running server")
	}
	log.Info().Msg("server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	_ = godotenv.Load()

	c := config.New()
	setupLogging(c)
	displayAppname(c.GetAppName())

	handler, err := buildServer(c)
	if err != nil {
		return err
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: handler}
	go listenAndServe(httpServer)
	waitForStopSignal()
	return shutdown(httpServer)
}

func buildServer(c config.Config) (*server.Server, error) {
	csrfRepo, sessionRepo, err := buildWebStores(c)
	if err != nil {
		return nil, err
	}

	configRepo, err := buildConfigStore(c)
	if err != nil {
		return nil, err
	}

	provider, err := buildProvider(c)
	if err != nil {
		return nil, err
	}

	authService, err := auth.NewService(auth.Repos{
		CSRFTokens: csrfRepo,
		Sessions:   sessionRepo,
	}, provider)
	if err != nil {
		return nil, err
	}

	return server.New(c, authService, sessionRepo, configRepo, provider)
}

// buildWebStores wires the CSRF and session stores: Redis when REDIS_ADDR is
// set, in-memory otherwise.
func buildWebStores(c config.Config) (csrf.Repo, sessions.Repo, error) {
	if c.GetRedisAddr() == "" {
		log.Info().Msg("REDIS_ADDR not set, using in-memory session/csrf stores")
		return csrf.NewInMemory(c.GetCSRFTokenTTL()), sessions.NewInMemory(c.GetSessionTTL()), nil
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     c.GetRedisAddr(),
		Password: c.GetRedisPassword(),
		DB:       0,
	})

	csrfRepo, err := csrf.NewRedis(&csrf.RedisConfig{
		RedisClient: redisClient,
		TokenTTL:    c.GetCSRFTokenTTL(),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create csrf repository: %w", err)
	}

	sessionRepo, err := sessions.NewRedis(&sessions.RedisConfig{
		RedisClient: redisClient,
		SessionTTL:  c.GetSessionTTL(),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create session repository: %w", err)
	}

	return csrfRepo, sessionRepo, nil
}

// buildConfigStore wires the config store: Postgres when POSTGRES_DSN is set,
// in-memory otherwise.
func buildConfigStore(c config.Config) (configstore.Repo, error) {
	if c.GetPostgresDSN() == "" {
		log.Info().Msg("POSTGRES_DSN not set, using in-memory config store")
		return configstore.NewInMemory(), nil
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(c.GetPostgresDSN()),
		pgdriver.WithApplicationName(c.GetAppName()),
	))
	db := bun.NewDB(sqldb, pgdialect.New())

	repo := configstore.NewPostgres(db, log.Logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := repo.CreateSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to create config store schema: %w", err)
	}

	return repo, nil
}

func buildProvider(c config.Config) (identity.Provider, error) {
	redirectURL := c.GetBaseURL() + server.RouteLoginConfirm

	switch c.GetIdentityProvider() {
	case "discord":
		return identity.NewDiscord(&identity.DiscordConfig{
			ClientID:     c.GetClientID(),
			ClientSecret: c.GetClientSecret(),
			RedirectURL:  redirectURL,
		})
	case "oidc":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return identity.NewOIDC(ctx, &identity.OIDCConfig{
			Issuer:       c.GetOIDCIssuer(),
			ClientID:     c.GetClientID(),
			ClientSecret: c.GetClientSecret(),
			RedirectURL:  redirectURL,
		})
	default:
		return nil, fmt.Errorf("unknown identity provider %q", c.GetIdentityProvider())
	}
}

func setupLogging(c config.Config) {
	if c.GetEnv() == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func listenAndServe(httpServer *http.Server) {
	log.Info().Str("addr", httpServer.Addr).Msg("server listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("server.ListenAndServe")
	}
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(httpServer *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
