package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/hubcrafter/tenant-idm/pkg/api"
	"github.com/hubcrafter/tenant-idm/pkg/login"
	"github.com/hubcrafter/tenant-idm/pkg/notification"
	"github.com/hubcrafter/tenant-idm/pkg/password"
	"github.com/hubcrafter/tenant-idm/pkg/principal"
	"github.com/hubcrafter/tenant-idm/pkg/provision"
	"github.com/hubcrafter/tenant-idm/pkg/rbac"
	"github.com/hubcrafter/tenant-idm/pkg/resolver"
	"github.com/hubcrafter/tenant-idm/pkg/tenant"
	"github.com/hubcrafter/tenant-idm/pkg/token"
)

type DbConfig struct {
	Host     string `env:"IDM_PG_HOST" env-default:"localhost"`
	Port     uint16 `env:"IDM_PG_PORT" env-default:"5432"`
	Database string `env:"IDM_PG_DATABASE" env-default:"idm_db"`
	User     string `env:"IDM_PG_USER" env-default:"idm"`
	Password string `env:"IDM_PG_PASSWORD" env-default:"pwd"`
}

func (d DbConfig) toDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Database)
}

type JwtConfig struct {
	// Secret has no default: a missing signing secret is a fatal
	// startup error.
	Secret        string `env:"JWT_SECRET"`
	Issuer        string `env:"JWT_ISSUER" env-default:"tenant-idm"`
	SessionExpiry string `env:"SESSION_TOKEN_EXPIRY" env-default:"1h"`
}

type EmailConfig struct {
	Host     string `env:"EMAIL_HOST" env-default:"localhost"`
	Port     int    `env:"EMAIL_PORT" env-default:"1025"`
	TLS      bool   `env:"EMAIL_TLS" env-default:"false"`
	Username string `env:"EMAIL_USERNAME" env-default:""`
	Password string `env:"EMAIL_PASSWORD" env-default:""`
	From     string `env:"EMAIL_FROM" env-default:"noreply@hubcrafter.com"`
}

type AppConfig struct {
	Addr           string `env:"IDM_ADDR" env-default:":4000"`
	InternalDomain string `env:"IDM_INTERNAL_DOMAIN" env-default:"hubcrafter.com"`
	StrictDomain   bool   `env:"IDM_STRICT_DOMAIN_MATCH" env-default:"false"`

	// Optional bootstrap of the first internal admin on an empty store.
	BootstrapAdminEmail    string `env:"IDM_BOOTSTRAP_ADMIN_EMAIL" env-default:""`
	BootstrapAdminPassword string `env:"IDM_BOOTSTRAP_ADMIN_PASSWORD" env-default:""`
}

type Config struct {
	Db    DbConfig
	Jwt   JwtConfig
	Email EmailConfig
	App   AppConfig
}

func main() {
	// Load .env for local development; absence is fine.
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		slog.Error("failed to read configuration", "err", err)
		os.Exit(1)
	}
	if cfg.Jwt.Secret == "" {
		slog.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	sessionExpiry, err := time.ParseDuration(cfg.Jwt.SessionExpiry)
	if err != nil {
		slog.Error("invalid SESSION_TOKEN_EXPIRY", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.Db.toDatabaseURL())
	if err != nil {
		slog.Error("failed to create connection pool", "err", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		slog.Error("failed to reach database", "err", err)
		os.Exit(1)
	}

	issuer, err := token.NewJwtIssuer(cfg.Jwt.Secret,
		token.WithIssuerName(cfg.Jwt.Issuer),
		token.WithExpiry(sessionExpiry))
	if err != nil {
		slog.Error("failed to create token issuer", "err", err)
		os.Exit(1)
	}

	var notifier notification.Notifier
	emailNotifier, err := notification.NewEmailNotifier(notification.SMTPConfig{
		Host:     cfg.Email.Host,
		Port:     cfg.Email.Port,
		TLS:      cfg.Email.TLS,
		Username: cfg.Email.Username,
		Password: cfg.Email.Password,
		From:     cfg.Email.From,
	})
	if err != nil {
		slog.Warn("email notifier unavailable, notifications disabled", "err", err)
	} else {
		notifier = emailNotifier
	}

	principalRepo := principal.NewPostgresRepository(pool)
	tenantRepo := tenant.NewPostgresRepository(pool)

	res := resolver.New(resolver.Config{
		InternalDomain:    cfg.App.InternalDomain,
		StrictDomainMatch: cfg.App.StrictDomain,
	}, tenantRepo)

	hasher := &password.BcryptHasher{}
	tenantService := tenant.NewService(tenantRepo)
	loginService := login.NewService(principalRepo, hasher, res, issuer)
	coordinator := provision.NewCoordinator(tenantService, principalRepo, res, hasher, notifier)

	if err := bootstrapAdmin(ctx, cfg.App, principalRepo, hasher); err != nil {
		slog.Error("failed to bootstrap internal admin", "err", err)
		os.Exit(1)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	api.Routes(r, api.NewHandle(loginService, tenantService, coordinator), issuer)

	slog.Info("starting tenant-idm", "addr", cfg.App.Addr, "internal_domain", cfg.App.InternalDomain)
	if err := http.ListenAndServe(cfg.App.Addr, r); err != nil {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

// bootstrapAdmin seeds the first internal administrator when configured
// and not already present.
func bootstrapAdmin(ctx context.Context, cfg AppConfig, repo principal.Repository, hasher *password.BcryptHasher) error {
	if cfg.BootstrapAdminEmail == "" {
		return nil
	}
	if cfg.BootstrapAdminPassword == "" {
		return errors.New("IDM_BOOTSTRAP_ADMIN_PASSWORD is required when IDM_BOOTSTRAP_ADMIN_EMAIL is set")
	}
	if principal.EmailDomain(cfg.BootstrapAdminEmail) != cfg.InternalDomain {
		return fmt.Errorf("bootstrap admin email must be on the internal domain %s", cfg.InternalDomain)
	}

	if _, err := repo.FindByEmail(ctx, cfg.BootstrapAdminEmail); err == nil {
		return nil
	} else if !errors.Is(err, principal.ErrNotFound) {
		return err
	}

	hash, err := hasher.Hash(cfg.BootstrapAdminPassword)
	if err != nil {
		return err
	}
	p, err := repo.Create(ctx, principal.CreateParams{
		Email:        cfg.BootstrapAdminEmail,
		PasswordHash: hash,
		Roles:        rbac.NewRoleSet(rbac.RoleAdmin),
	})
	if err != nil {
		if errors.Is(err, principal.ErrDuplicate) {
			return nil
		}
		return err
	}
	slog.Info("bootstrapped internal admin", "principal_id", p.ID)
	return nil
}
