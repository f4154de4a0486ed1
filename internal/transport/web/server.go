package web

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/pdffeed/pdffeed/internal/config"
	"github.com/pdffeed/pdffeed/internal/domain"
	authv1 "github.com/pdffeed/pdffeed/internal/transport/web/v1/auth"
	"github.com/pdffeed/pdffeed/internal/transport/web/v1/comment"
	"github.com/pdffeed/pdffeed/internal/transport/web/v1/feed"
	"github.com/pdffeed/pdffeed/internal/transport/web/v1/health"
	"github.com/pdffeed/pdffeed/internal/transport/web/v1/share"
)

type Server struct {
	log    *log.Logger
	server *http.Server
	cfg    *config.Config
}

func New(
	logger *log.Logger,
	cfg *config.Config,
	repos Repos,
	auth AuthDeps,
	storage domain.BlobStorage,
	cache domain.Cache,
) *Server {
	sub := func(name string) *log.Logger {
		return log.New(logger.Writer(), logger.Prefix()+"["+name+"] ", logger.Flags())
	}

	healthHandler := &health.Handler{
		Log: sub("health"), DB: repos.Users, Cache: cache, Storage: storage,
	}
	loginHandler := &authv1.HandlerLogin{
		Log: sub("auth"), Users: repos.Users, Hasher: auth.Hasher, Tokens: auth.Tokens,
	}
	registerHandler := &authv1.HandlerRegister{
		Log: sub("auth"), Users: repos.Users, Hasher: auth.Hasher, Tokens: auth.Tokens,
	}
	logoutHandler := &authv1.HandlerLogout{
		Log: sub("auth"), Tokens: auth.Tokens, Blacklist: auth.Blacklist,
	}
	meHandler := &authv1.HandlerMe{Log: sub("auth"), Users: repos.Users}
	feedHandler := &feed.Handler{
		Log: sub("feed"), Feeds: repos.Feeds, Shares: repos.Shares,
		Storage: storage, Cache: cache,
		ListTTL: cfg.FeedListTTLSec, MaxUpload: cfg.MaxUploadBytes,
	}
	shareHandler := &share.Handler{
		Log: sub("share"), Users: repos.Users, Feeds: repos.Feeds,
		Shares: repos.Shares, Comments: repos.Comments,
		Storage: storage, Cache: cache, BaseURL: cfg.BaseURL,
	}
	commentHandler := &comment.Handler{
		Log: sub("comment"), Feeds: repos.Feeds, Shares: repos.Shares,
		Comments: repos.Comments, Cache: cache,
	}

	srv := &http.Server{
		Addr: cfg.AppPort,
		Handler: newRouter(routerDeps{
			log:      logger,
			auth:     auth,
			health:   healthHandler,
			login:    loginHandler,
			register: registerHandler,
			logout:   logoutHandler,
			me:       meHandler,
			feeds:    feedHandler,
			shares:   shareHandler,
			comments: commentHandler,
			maxBody:  cfg.MaxUploadBytes,
		}),
		ReadTimeout:       5 * time.Minute, // длинные загрузки PDF
		WriteTimeout:      5 * time.Minute,
		MaxHeaderBytes:    1 << 20,
		ReadHeaderTimeout: 2 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return &Server{server: srv, cfg: cfg, log: logger}
}

func (ws *Server) Run() {
	ws.log.Printf("started on %s", ws.server.Addr)
	if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		ws.log.Fatalf("error: %v", err)
	}
}

func (ws *Server) Close(ctx context.Context) {
	if err := ws.server.Shutdown(ctx); err != nil {
		ws.log.Printf("forced to shutdown: %v", err)
	}
	ws.log.Println("exited gracefully")
}
