package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mkrupp/isupipe-usersvc/internal/infra/config"
	"github.com/mkrupp/isupipe-usersvc/internal/infra/dns"
	"github.com/mkrupp/isupipe-usersvc/internal/infra/logging"
	"github.com/mkrupp/isupipe-usersvc/internal/infra/session"
	"github.com/mkrupp/isupipe-usersvc/internal/infra/transport/http"
	"github.com/mkrupp/isupipe-usersvc/internal/repo/hashcache"
	"github.com/mkrupp/isupipe-usersvc/internal/repo/icon"
	"github.com/mkrupp/isupipe-usersvc/internal/repo/user"
	"github.com/mkrupp/isupipe-usersvc/internal/svc/iconsvc"
	"github.com/mkrupp/isupipe-usersvc/internal/svc/usersvc"
)

const (
	appName = "isupipe"
	svcName = "usersvc"
)

type Config struct {
	config.EnvConfig

	Log       logging.LoggerConfig                `envPrefix:"LOG_"`
	HTTP      http.HTTPTransportConfig            `envPrefix:"HTTP_"`
	Icon      iconsvc.IconConfig                  `envPrefix:"ICON_"`
	IconStore icon.FileSystemIconRepositoryConfig `envPrefix:"ICON_"`
	IconHTTP  iconsvc.HTTPTransportConfig         `envPrefix:"ICON_HTTP_"`
	HashCache hashcache.HashCacheConfig           `envPrefix:"HASHCACHE_"`
	User      usersvc.UserConfig                  `envPrefix:"USER_"`
	UserDB    user.SQLiteUserRepositoryConfig     `envPrefix:"USER_"`
	UserHTTP  usersvc.HTTPTransportConfig         `envPrefix:"USER_HTTP_"`
	Session   session.SessionConfig               `envPrefix:"SESSION_"`
	DNS       dns.DNSConfig                       `envPrefix:"DNS_"`
}

func main() {
	var (
		cfg Config

		configPrefix = strings.ToUpper(strings.Join([]string{appName, svcName}, "_"))
		loggerName   = strings.ToLower(strings.Join([]string{appName, svcName}, "."))
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.Parse(ctx, &cfg, configPrefix); err != nil {
		panic(err)
	}

	logging.Configure(ctx, cfg.Log, loggerName)

	if err := run(ctx, cfg); err != nil {
		panic(err)
	}
}

//nolint:funlen
func run(ctx context.Context, cfg Config) (err error) {
	log := logging.GetLogger("cmd.usersvc")

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "error", "err", err)

			return
		}

		log.InfoContext(ctx, "shutdown")
	}()

	cache, closeCache, err := hashcache.NewHashCache(ctx, cfg.HashCache)
	if err != nil {
		return fmt.Errorf("new hash cache: %w", err)
	}
	defer closeCache()

	fallback, err := iconsvc.LoadFallbackIcon(cfg.Icon.FallbackFile)
	if err != nil {
		return fmt.Errorf("load fallback icon: %w", err)
	}

	iconSvc, err := iconsvc.NewCacheAsideIconService(
		ctx,
		icon.FileSystemIconRepositoryFactory(cfg.IconStore),
		cache,
		fallback,
		cfg.Icon,
	)
	if err != nil {
		return fmt.Errorf("new icon service: %w", err)
	}

	userSvc, err := usersvc.NewUserService(
		user.SQLiteUserRepositoryFactory(cfg.UserDB),
		usersvc.NewBcryptPasswordHasher(cfg.User.BcryptCost),
		dns.NewRegistrar(cfg.DNS),
		usersvc.NewProfileAssembler(iconSvc),
	)
	if err != nil {
		return fmt.Errorf("new user service: %w", err)
	}
	defer userSvc.Close()

	sessions := session.NewCookieSessionManager(cfg.Session)

	handler := http.NewHandler(
		usersvc.NewHTTPTransport(userSvc, sessions, cfg.UserHTTP),
		iconsvc.NewHTTPTransport(iconSvc, userSvc, sessions, cfg.IconHTTP),
	)

	log.InfoContext(ctx, "starting",
		logging.Group("icon",
			"hash_ttl", cfg.Icon.HashTTL,
			"upload_consistency", cfg.Icon.UploadConsistency,
			"single_flight", cfg.Icon.SingleFlight,
		),
		logging.Group("hashcache", "backend", cfg.HashCache.Backend),
	)

	if err := http.ListenAndServe(ctx, handler, cfg.HTTP); err != nil {
		return fmt.Errorf("listen and serve: %w", err)
	}

	return nil
}
