package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/fx"

	"github.com/jdholdren/chatter/internal/chatter"
	"github.com/jdholdren/chatter/internal/events"
	"github.com/jdholdren/chatter/internal/serverutil"
)

type (
	// Server serves the whole public API: users, posts, the follow graph,
	// the feed and activity timelines.
	Server struct {
		*http.Server

		repo     chatter.Repository
		timeline chatter.Service
		events   events.Publisher

		sanitizer *bluemonday.Policy
		jwtSecret []byte // Write routes require a bearer token when set
	}

	ServerConfig struct {
		Port       int
		CorsOrigin string
		JWTSecret  []byte
	}

	Params struct {
		fx.In

		Config ServerConfig
		Repo   chatter.Repository
		Events events.Publisher
	}
)

func NewServer(lc fx.Lifecycle, p Params) *Server {
	srvr := newServer(p.Config, p.Repo, p.Events)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srvr.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					slog.Error("error serving", "err", err)
				}
			}()

			slog.Info("started api server", "port", p.Config.Port)

			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := srvr.Shutdown(ctx); err != nil {
				return err
			}
			return srvr.events.Close()
		},
	})

	return srvr
}

func newServer(config ServerConfig, repo chatter.Repository, pub events.Publisher) *Server {
	r := serverutil.ErrRouter{Router: mux.NewRouter()}
	if config.CorsOrigin == "" {
		config.CorsOrigin = "*"
	}

	srvr := &Server{
		repo:      repo,
		timeline:  chatter.NewService(repo),
		events:    pub,
		sanitizer: bluemonday.StrictPolicy(),
		jwtSecret: config.JWTSecret,
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%d", config.Port),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			Handler: handlers.CORS(
				handlers.AllowedOrigins([]string{config.CorsOrigin}),
				handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
				handlers.AllowedHeaders([]string{"content-type", "authorization"}),
			)(r),
		},
	}

	r.Use(serverutil.AccessLogMiddleware) // Log everything

	// Users
	r.HandleFuncE("/api/users", srvr.getUsers).Methods(http.MethodGet)
	r.HandleFuncE("/api/users", srvr.authed(srvr.postUser)).Methods(http.MethodPost)
	r.HandleFuncE("/api/users/{id}", srvr.getUser).Methods(http.MethodGet)
	r.HandleFuncE("/api/users/{id}", srvr.authed(srvr.putUser)).Methods(http.MethodPut)
	r.HandleFuncE("/api/users/{id}", srvr.authed(srvr.deleteUser)).Methods(http.MethodDelete)

	// Follow graph
	r.HandleFuncE("/api/users/{id}/follow", srvr.authed(srvr.postFollow)).Methods(http.MethodPost)
	r.HandleFuncE("/api/users/{id}/unfollow", srvr.authed(srvr.postUnfollow)).Methods(http.MethodPost)
	r.HandleFuncE("/api/users/{id}/followers", srvr.getFollowers).Methods(http.MethodGet)
	r.HandleFuncE("/api/users/{id}/following", srvr.getFollowing).Methods(http.MethodGet)

	// Timelines
	r.HandleFuncE("/api/users/{id}/activity", srvr.getUserActivity).Methods(http.MethodGet)
	r.HandleFuncE("/api/posts/feed/{id}", srvr.getFeed).Methods(http.MethodGet)
	r.HandleFuncE("/api/feed/{id}", srvr.getFeed).Methods(http.MethodGet)

	// Posts. These need to come after the feed so that "feed" isn't taken for an id.
	r.HandleFuncE("/api/posts/hashtags/{tags}", srvr.getPostsByHashtags).Methods(http.MethodGet)
	r.HandleFuncE("/api/posts", srvr.getPosts).Methods(http.MethodGet)
	r.HandleFuncE("/api/posts", srvr.authed(srvr.postPost)).Methods(http.MethodPost)
	r.HandleFuncE("/api/posts/{id}", srvr.getPost).Methods(http.MethodGet)
	r.HandleFuncE("/api/posts/{id}", srvr.authed(srvr.putPost)).Methods(http.MethodPut)
	r.HandleFuncE("/api/posts/{id}", srvr.authed(srvr.deletePost)).Methods(http.MethodDelete)
	r.HandleFuncE("/api/posts/{id}/like", srvr.authed(srvr.postLike)).Methods(http.MethodPost)
	r.HandleFuncE("/api/posts/{id}/unlike", srvr.authed(srvr.postUnlike)).Methods(http.MethodPost)
	r.HandleFuncE("/api/posts/{id}/likes", srvr.getPostLikes).Methods(http.MethodGet)

	slog.Debug("configured api server", "port", config.Port, "auth", len(config.JWTSecret) > 0)

	return srvr
}

type messageResp struct {
	Message string `json:"message"`
}
