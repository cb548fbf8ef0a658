package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"connectify/internal/auth"
	"connectify/internal/config"
	"connectify/internal/httpapi"
	"connectify/internal/notifications"
	"connectify/internal/realtime"
	"connectify/internal/service"
	"connectify/internal/store/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	logger := newLogger(cfg)

	hub := realtime.NewHub(logger)
	go hub.Run()

	var (
		authSvc          *service.AuthService
		friendsSvc       *service.FriendsService
		chatSvc          *service.ChatService
		postsSvc         *service.PostsService
		usersSvc         *service.UsersService
		notificationsSvc *service.NotificationService
		dbPing           func(context.Context) error
	)

	if cfg.DBDSN != "" {
		pgPool, err := postgres.Open(context.Background(), cfg.DBDSN)
		if err != nil {
			logger.Error("db open failed", "err", err)
			os.Exit(1)
		}
		defer pgPool.Close()

		users := postgres.NewUsersStore(pgPool)
		sessions := postgres.NewSessionsStore(pgPool)
		friendships := postgres.NewFriendshipsStore(pgPool)
		conversations := postgres.NewConversationsStore(pgPool)
		messages := postgres.NewMessagesStore(pgPool)
		posts := postgres.NewPostsStore(pgPool)
		tokens := postgres.NewNotificationTokensStore(pgPool)

		var pushSender service.PushSender
		if cfg.FCMProjectID != "" && cfg.FCMCredentials != "" {
			fcm, err := notifications.NewFCMSender(context.Background(), cfg.FCMProjectID, cfg.FCMCredentials)
			if err != nil {
				logger.Error("fcm init failed", "err", err)
				os.Exit(1)
			}
			pushSender = fcm
			logger.Info("fcm push enabled", "project_id", cfg.FCMProjectID)
		} else {
			logger.Info("fcm push disabled")
		}

		notificationsSvc = &service.NotificationService{
			Realtime:  hub,
			Tokens:    tokens,
			Sender:    pushSender,
			LikeScope: service.LikeEventScope(cfg.LikeScope),
			Logger:    logger,
		}

		authSvc = &service.AuthService{
			Users:      users,
			Sessions:   sessions,
			SessionTTL: cfg.SessionTTL,
		}
		friendsSvc = &service.FriendsService{
			Users:       users,
			Friendships: friendships,
			Notifier:    notificationsSvc,
		}
		chatSvc = &service.ChatService{
			Users:         users,
			Conversations: conversations,
			Messages:      messages,
			Notifier:      notificationsSvc,
			MessageMaxLen: cfg.MessageMaxLen,
		}
		postsSvc = &service.PostsService{
			Posts:    posts,
			Notifier: notificationsSvc,
		}
		usersSvc = &service.UsersService{Store: users}
		dbPing = pgPool.Ping
	}

	router := httpapi.NewRouter(httpapi.RouterOpts{
		Logger:        logger,
		IsProd:        cfg.IsProd(),
		DBPing:        dbPing,
		Auth:          authSvc,
		Friends:       friendsSvc,
		Chat:          chatSvc,
		Posts:         postsSvc,
		Users:         usersSvc,
		Notifications: notificationsSvc,
		Hub:           hub,
		CookieCodec:   auth.NewCookieCodec([]byte(cfg.CookieSecret)),
		CookieSecure:  cfg.CookieSecure(),
		SessionTTL:    cfg.SessionTTL,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "env", cfg.Env, "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info", "":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.IsProd() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
