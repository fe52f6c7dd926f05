package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jarvisapp/jarvis-idm/pkg/account"
	accountapi "github.com/jarvisapp/jarvis-idm/pkg/account/api"
	"github.com/jarvisapp/jarvis-idm/pkg/auth"
	"github.com/jarvisapp/jarvis-idm/pkg/config"
	"github.com/jarvisapp/jarvis-idm/pkg/device"
	"github.com/jarvisapp/jarvis-idm/pkg/devicetrust"
	devicetrustapi "github.com/jarvisapp/jarvis-idm/pkg/devicetrust/api"
	"github.com/jarvisapp/jarvis-idm/pkg/notice"
	"github.com/jarvisapp/jarvis-idm/pkg/password"
	"github.com/jarvisapp/jarvis-idm/pkg/router"
	"github.com/jarvisapp/jarvis-idm/pkg/singleusetoken"
	"github.com/jarvisapp/jarvis-idm/pkg/store"
	"github.com/jarvisapp/jarvis-idm/pkg/user"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/tendant/chi-demo/app"
)

type Config struct {
	AppConfig app.AppConfig
	Database  config.DatabaseConfig
	Email     config.EmailConfig
	Security  config.SecurityConfig

	LogLevel     string `env:"LOG_LEVEL" env-default:"info"`
	APIPrefix    string `env:"API_PREFIX" env-default:"/api"`
	CookieSecure bool   `env:"COOKIE_SECURE" env-default:"true"`
}

// database is the pool as seen by repositories and the transactor.
type database interface {
	store.DBTX
	store.TxBeginner
}

func main() {
	loadEnvFile()

	cfg := Config{}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		slog.Error("Failed to read configuration", "error", err)
		os.Exit(1)
	}
	setupLogger(cfg.LogLevel)

	if err := config.Validate(cfg.Database.Validate, cfg.Email.Validate, cfg.Security.Validate); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	var db database
	if cfg.Database.Persistence == config.PersistencePostgres {
		pool, err := store.NewPool(ctx, cfg.Database.ToDatabaseURL())
		if err != nil {
			slog.Error("Failed creating dbpool", "db", cfg.Database.Database, "host", cfg.Database.Host, "port", cfg.Database.Port, "user", cfg.Database.User, "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		if err := store.Migrate(ctx, pool); err != nil {
			slog.Error("Failed to run migrations", "error", err)
			os.Exit(1)
		}
		db = pool
	}

	users, err := user.NewRepository(cfg.Database.Persistence, db)
	exitOnError("user repository", err)
	devices, err := device.NewRepository(cfg.Database.Persistence, db)
	exitOnError("device repository", err)
	tokenRepo, err := singleusetoken.NewRepository(cfg.Database.Persistence, db)
	exitOnError("single use token repository", err)
	tx, err := store.NewTransactor(cfg.Database.Persistence, db)
	exitOnError("transactor", err)

	hasher, err := password.NewHasher(cfg.Security.PasswordHasher, cfg.Security.BcryptCost)
	exitOnError("password hasher", err)
	codec := password.NewCodec(hasher, cfg.Security.PasswordSalt)

	nm, err := notice.NewNotificationManager(cfg.Email.ToSMTPConfig())
	exitOnError("notification manager", err)
	mailer := notice.NewMailer(nm, cfg.Email.FrontendURL)

	tokens := singleusetoken.NewService(tokenRepo, singleusetoken.WithTokenExpiry(cfg.Security.SingleUseTokenTTL))
	trust := devicetrust.NewService(devices, users, tokens, mailer, tx)
	accounts := account.NewService(users, tokens, mailer, codec, trust, tx)

	jwtService := auth.NewJwtServiceOptions(
		cfg.Security.JWTSecret,
		auth.WithIssuer(cfg.Security.JWTIssuer),
		auth.WithAccessTokenLifetime(cfg.Security.AccessTokenLifetime),
	)
	authenticator := auth.NewAuthenticator(accounts, trust, codec, jwtService)

	server := app.DefaultApp()

	app.RoutesHealthz(server.R)
	app.RoutesHealthzReady(server.R)

	accountHandle := accountapi.NewHandle(accounts, authenticator,
		accountapi.WithCookieSecure(cfg.CookieSecure),
		accountapi.WithTrustProxyHeaders(cfg.Security.TrustProxyHeaders),
	)
	deviceHandle := devicetrustapi.NewHandle(trust, accounts,
		devicetrustapi.WithTrustProxyHeaders(cfg.Security.TrustProxyHeaders),
	)

	router.SetupRoutes(server.R, router.Config{
		Prefix:        cfg.APIPrefix,
		AccountHandle: accountHandle,
		DeviceHandle:  deviceHandle,
		TokenAuth:     auth.NewTokenAuth(cfg.Security.JWTSecret),
	})

	slog.Info("Starting jarvis-idm", "persistence", cfg.Database.Persistence, "environment", config.GetEnvironment())
	server.Run()
}

func exitOnError(component string, err error) {
	if err != nil {
		slog.Error("Failed to set up "+component, "error", err)
		os.Exit(1)
	}
}

func setupLogger(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		lvl = slog.LevelInfo
	}

	var handler slog.Handler
	if config.IsDevelopment() {
		handler = tint.NewHandler(os.Stderr, &tint.Options{Level: lvl, TimeFormat: time.Kitchen})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))
}

// loadEnvFile loads .env from the executable directory, falling back to the
// working directory. A missing file is not an error.
func loadEnvFile() {
	envFile := ".env"
	if execPath, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(execPath), ".env")
		if _, err := os.Stat(candidate); err == nil {
			envFile = candidate
		}
	}

	if _, err := os.Stat(envFile); errors.Is(err, os.ErrNotExist) {
		slog.Debug("No .env file found (using environment variables or defaults)")
		return
	}

	slog.Info("Loading configuration from .env file", "path", envFile)
	if err := godotenv.Load(envFile); err != nil {
		slog.Warn("Failed to load .env file", "error", err)
	}
}
