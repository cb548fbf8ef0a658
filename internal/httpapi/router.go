package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"connectify/internal/auth"
	"connectify/internal/realtime"
	"connectify/internal/service"
)

type RouterOpts struct {
	Logger *slog.Logger
	IsProd bool

	DBPing func(context.Context) error

	Auth          *service.AuthService
	Friends       *service.FriendsService
	Chat          *service.ChatService
	Posts         *service.PostsService
	Users         *service.UsersService
	Notifications *service.NotificationService
	Hub           *realtime.Hub
	CookieCodec   auth.CookieCodec
	CookieSecure  bool
	SessionTTL    time.Duration
}

func NewRouter(opts RouterOpts) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	api := &api{
		logger:           logger,
		isProd:           opts.IsProd,
		dbPing:           opts.DBPing,
		authSvc:          opts.Auth,
		friendsSvc:       opts.Friends,
		chatSvc:          opts.Chat,
		postsSvc:         opts.Posts,
		usersSvc:         opts.Users,
		notificationsSvc: opts.Notifications,
		hub:              opts.Hub,
		cookieCodec:      opts.CookieCodec,
		cookieSecure:     opts.CookieSecure,
		sessionTTL:       opts.SessionTTL,
		loginLimiter:     newLoginLimiter(),
	}

	publicMux := http.NewServeMux()
	apiMux := http.NewServeMux()

	publicMux.HandleFunc("GET /", api.handleHome)
	publicMux.HandleFunc("GET /privacy", api.handlePrivacy)
	publicMux.HandleFunc("GET /healthz", api.handleHealthz)

	if api.authSvc == nil {
		apiMux.HandleFunc("POST /v1/auth/register", handleNotImplemented)
		apiMux.HandleFunc("POST /v1/auth/login", handleNotImplemented)
		apiMux.HandleFunc("POST /v1/auth/logout", handleNotImplemented)
		apiMux.HandleFunc("GET /v1/users/me", handleNotImplemented)
	} else {
		apiMux.HandleFunc("POST /v1/auth/register", api.handleAuthRegister)
		apiMux.HandleFunc("POST /v1/auth/login", api.handleAuthLogin)
		apiMux.HandleFunc("POST /v1/auth/logout", api.requireAuth(api.handleAuthLogout))
		apiMux.HandleFunc("GET /v1/users/me", api.requireAuth(api.handleUsersMe))
		if api.usersSvc != nil {
			apiMux.HandleFunc("GET /v1/users/search", api.requireAuth(api.handleUsersSearch))
		}

		if api.friendsSvc != nil {
			apiMux.HandleFunc("GET /v1/friends", api.requireAuth(api.handleFriendsOverview))
			apiMux.HandleFunc("GET /v1/friends/connections", api.requireAuth(api.handleFriendsConnections))
			apiMux.HandleFunc("GET /v1/friends/status/{userID}", api.requireAuth(api.handleFriendsStatus))
			apiMux.HandleFunc("POST /v1/friends/requests", api.requireAuth(api.handleFriendsCreateRequest))
			apiMux.HandleFunc("POST /v1/friends/requests/{id}/accept", api.requireAuth(api.handleFriendsAccept))
			apiMux.HandleFunc("POST /v1/friends/requests/{id}/decline", api.requireAuth(api.handleFriendsDecline))
			apiMux.HandleFunc("POST /v1/friends/requests/{id}/cancel", api.requireAuth(api.handleFriendsCancel))
			apiMux.HandleFunc("DELETE /v1/friends/{userID}", api.requireAuth(api.handleFriendsUnfriend))
		}

		if api.chatSvc != nil {
			apiMux.HandleFunc("GET /v1/conversations", api.requireAuth(api.handleConversationsList))
			apiMux.HandleFunc("POST /v1/conversations", api.requireAuth(api.handleConversationsOpen))
			apiMux.HandleFunc("GET /v1/conversations/{id}/messages", api.requireAuth(api.handleMessagesList))
			apiMux.HandleFunc("POST /v1/conversations/{id}/read", api.requireAuth(api.handleConversationsMarkRead))
			apiMux.HandleFunc("POST /v1/messages", api.requireAuth(api.handleMessagesSend))
		}

		if api.postsSvc != nil {
			apiMux.HandleFunc("POST /v1/posts", api.requireAuth(api.handlePostsCreate))
			apiMux.HandleFunc("GET /v1/posts/{id}", api.requireAuth(api.handlePostsGet))
			apiMux.HandleFunc("PUT /v1/posts/{id}/like", api.requireAuth(api.handlePostsLike))
			apiMux.HandleFunc("DELETE /v1/posts/{id}/like", api.requireAuth(api.handlePostsUnlike))
		}

		if api.notificationsSvc != nil {
			apiMux.HandleFunc("POST /v1/notifications/tokens", api.requireAuth(api.handleNotificationsTokenUpsert))
			apiMux.HandleFunc("DELETE /v1/notifications/tokens", api.requireAuth(api.handleNotificationsTokenDelete))
		}

		if api.hub != nil {
			apiMux.HandleFunc("GET /v1/ws", api.requireAuth(api.handleWS))
		}
	}

	apiHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, pattern := apiMux.Handler(r)
		if pattern == "" {
			handleV1NotFound(w, r)
			return
		}
		h.ServeHTTP(w, r)
	})

	root := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/v1/") || r.URL.Path == "/v1" {
			apiHandler.ServeHTTP(w, r)
			return
		}
		publicMux.ServeHTTP(w, r)
	})

	var h http.Handler = root
	h = RequestLogger(logger)(h)
	h = RequestID()(h)
	h = Recoverer(logger, opts.IsProd)(h)
	return h
}

func handleNotImplemented(w http.ResponseWriter, _ *http.Request) {
	WriteError(w, http.StatusNotImplemented, "not_implemented", "not implemented")
}

func handleV1NotFound(w http.ResponseWriter, _ *http.Request) {
	WriteError(w, http.StatusNotFound, "not_found", "not found")
}

type api struct {
	logger *slog.Logger
	isProd bool

	dbPing func(context.Context) error

	authSvc          *service.AuthService
	friendsSvc       *service.FriendsService
	chatSvc          *service.ChatService
	postsSvc         *service.PostsService
	usersSvc         *service.UsersService
	notificationsSvc *service.NotificationService
	hub              *realtime.Hub
	cookieCodec      auth.CookieCodec
	cookieSecure     bool
	sessionTTL       time.Duration

	loginLimiter *loginLimiter
}

func (a *api) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	if a.dbPing != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
		defer cancel()
		if err := a.dbPing(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("db down"))
			return
		}
	}

	_, _ = w.Write([]byte("ok"))
}
