package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"

	"inkpost/internal/cache"
	"inkpost/internal/config"
	"inkpost/internal/database"
	"inkpost/internal/firebase"
	"inkpost/internal/handler"
	"inkpost/internal/logger"
	"inkpost/internal/redis"
	"inkpost/internal/repository"
	"inkpost/internal/service"
)

// Run loads configuration, wires every dependency and serves until SIGINT/SIGTERM.
func Run() error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger.Init(cfg.IsProduction())
	log := logger.Component("server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to Database
	db, err := database.Connect(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	// 3. Optional backends
	blocklist, closeRedis, err := newBlocklist(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRedis()

	remote, err := newRemote(ctx, cfg)
	if err != nil {
		return err
	}

	// 4. Wire services and handlers
	router, err := buildRouter(ctx, cfg, db, blocklist, remote)
	if err != nil {
		return err
	}

	// 5. Serve
	srv := &stdhttp.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", "addr", srv.Addr, "posts_guard", cfg.PostsAuthGuard)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down", "timeout", cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

// remoteDeps are the Firebase-backed collaborators. Identity is nil when
// Firebase is not configured.
type remoteDeps struct {
	mirror    repository.PostMirror
	messenger service.Messenger
	identity  service.IdentityProvider
}

func newRemote(ctx context.Context, cfg *config.Config) (*remoteDeps, error) {
	if !cfg.FirebaseEnabled() {
		slog.Warn("firebase not configured: mirror, push and the firebase guard are disabled", "component", "server")
		return &remoteDeps{mirror: firebase.DisabledMirror{}, messenger: firebase.DisabledMessenger{}}, nil
	}

	app, err := firebase.NewApp(ctx, cfg)
	if err != nil {
		return nil, err
	}

	deps := &remoteDeps{mirror: firebase.DisabledMirror{}}
	if cfg.FirebaseDatabaseURL != "" {
		dbClient, err := app.Database(ctx)
		if err != nil {
			return nil, fmt.Errorf("firebase database: %w", err)
		}
		deps.mirror = firebase.NewMirror(dbClient, cfg.MirrorRoot, cfg.RemoteMaxAttempts)
	} else {
		slog.Warn("FIREBASE_DATABASE_URL not set: post mirror disabled", "component", "server")
	}

	msgClient, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase messaging: %w", err)
	}
	deps.messenger = firebase.NewMessenger(msgClient, cfg.RemoteMaxAttempts)

	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth: %w", err)
	}
	deps.identity = firebase.NewIdentity(authClient, firebase.NewPasswordSignIn(cfg.FirebaseAPIKey))
	return deps, nil
}

func newBlocklist(ctx context.Context, cfg *config.Config) (cache.TokenBlocklist, func(), error) {
	if cfg.RedisURL == "" {
		slog.Warn("REDIS_URL not set: jwt logout is client-side only", "component", "server")
		return cache.NoopBlocklist{}, func() {}, nil
	}
	rc, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	return cache.NewRedisBlocklist(rc.Client), func() { _ = rc.Close() }, nil
}

func buildRouter(ctx context.Context, cfg *config.Config, db *sqlx.DB, blocklist cache.TokenBlocklist, remote *remoteDeps) (stdhttp.Handler, error) {
	// Repositories
	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewAccessTokenRepository(db)
	postRepo := repository.NewPostRepository(db)

	// Services
	userService := service.NewUserService(userRepo).WithDefaultAvatar(cfg.DefaultAvatarURL)
	postService := service.NewPostService(postRepo, remote.mirror)
	notificationService := service.NewNotificationService(remote.messenger)

	jwtIssuer := service.NewJWTIssuer(userService, userRepo, blocklist, cfg)
	personalIssuer := service.NewPersonalTokenIssuer(userService, userRepo, tokenRepo, cfg)

	guards := []Guard{
		{Issuer: jwtIssuer, Handler: handler.NewAuthHandler(jwtIssuer, userService, userService)},
		{Issuer: personalIssuer, Handler: handler.NewAuthHandler(personalIssuer, userService, userService)},
	}
	if remote.identity != nil {
		firebaseIssuer := service.NewFirebaseIssuer(remote.identity, userService)
		guards = append(guards, Guard{
			Issuer:  firebaseIssuer,
			Handler: handler.NewAuthHandler(firebaseIssuer, firebaseIssuer, userService),
		})
	}

	var postsIssuer service.TokenIssuer
	for _, g := range guards {
		if g.Issuer.Name() == cfg.PostsAuthGuard {
			postsIssuer = g.Issuer
		}
	}
	if postsIssuer == nil {
		return nil, fmt.Errorf("POSTS_AUTH_GUARD %q is not available (is firebase configured?)", cfg.PostsAuthGuard)
	}

	var avatars handler.AvatarService
	if cfg.AvatarStorageEnabled() {
		mediaService, err := service.NewMediaService(ctx, cfg, userService)
		if err != nil {
			return nil, err
		}
		avatars = mediaService
	} else {
		slog.Warn("R2 not configured: avatar upload disabled", "component", "server")
	}

	return NewRouter(RouterConfig{
		Guards:              guards,
		PostsIssuer:         postsIssuer,
		PostHandler:         handler.NewPostHandler(postService),
		MediaHandler:        handler.NewMediaHandler(avatars),
		NotificationHandler: handler.NewNotificationHandler(notificationService),
		HealthCheck:         db.PingContext,
	}), nil
}
