package web

import (
	"log"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/pdffeed/pdffeed/internal/docs"
	"github.com/pdffeed/pdffeed/internal/transport/web/mw"
	authv1 "github.com/pdffeed/pdffeed/internal/transport/web/v1/auth"
	"github.com/pdffeed/pdffeed/internal/transport/web/v1/comment"
	"github.com/pdffeed/pdffeed/internal/transport/web/v1/feed"
	"github.com/pdffeed/pdffeed/internal/transport/web/v1/health"
	"github.com/pdffeed/pdffeed/internal/transport/web/v1/share"
)

type routerDeps struct {
	log      *log.Logger
	auth     AuthDeps
	health   *health.Handler
	login    *authv1.HandlerLogin
	register *authv1.HandlerRegister
	logout   *authv1.HandlerLogout
	me       *authv1.HandlerMe
	feeds    *feed.Handler
	shares   *share.Handler
	comments *comment.Handler
	maxBody  int64
}

func newRouter(d routerDeps) http.Handler {
	mux := http.NewServeMux()

	authMW := mw.AuthDeps{Tokens: d.auth.Tokens, Blacklist: d.auth.Blacklist}
	require := func(h http.HandlerFunc) http.Handler { return mw.RequireAuth(authMW, h) }
	optional := func(h http.HandlerFunc) http.Handler { return mw.OptionalAuth(authMW, h) }

	// health
	mux.HandleFunc("GET /api/healthz", d.health.Liveness)
	mux.HandleFunc("GET /api/readyz", d.health.Readiness)

	// auth
	mux.HandleFunc("POST /api/auth/login", d.login.Login)
	mux.HandleFunc("POST /api/auth/register", d.register.Register)
	mux.HandleFunc("DELETE /api/auth/logout", d.logout.Logout)
	mux.Handle("GET /api/auth/user/me", require(d.me.Me))

	// feeds
	mux.Handle("GET /api/feeds", require(d.feeds.List))
	mux.Handle("POST /api/feeds", require(limitBody(d.maxBody, d.feeds.Upload)))
	mux.Handle("GET /api/feeds/search", require(d.feeds.Search))
	mux.Handle("GET /api/feeds/{id}", require(d.feeds.GetOne))
	mux.Handle("HEAD /api/feeds/{id}/download", require(d.feeds.Download))
	mux.Handle("GET /api/feeds/{id}/download", require(d.feeds.Download))
	mux.Handle("DELETE /api/feeds/{id}", require(d.feeds.Delete))

	// публичные ссылки: токен сам по себе право доступа
	mux.Handle("POST /api/share/public", require(d.shares.CreatePublic))
	mux.HandleFunc("GET /api/share/public/{token}", d.shares.ResolvePublic)
	mux.HandleFunc("GET /api/share/public/{token}/download", d.shares.DownloadPublic)
	mux.HandleFunc("GET /api/share/public/{token}/comments", d.shares.PublicComments)
	mux.Handle("POST /api/share/public/{token}/comments", optional(d.shares.CreatePublicComment))

	// персональные гранты
	mux.Handle("POST /api/share/user", require(d.shares.CreateUserShare))
	mux.Handle("GET /api/share/user", require(d.shares.SharedWithMe))
	mux.Handle("DELETE /api/share/user/{id}", require(d.shares.RevokeUserShare))
	mux.Handle("GET /api/share/user/feed/{id}", require(d.shares.FeedGrantees))

	// comments
	mux.Handle("GET /api/comments", require(d.comments.List))
	mux.Handle("POST /api/comments", require(d.comments.Create))

	// swagger
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	// 🔗 middleware
	return mw.WithRequestID(mw.Logging(d.log)(mux))
}

func limitBody(n int64, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, n)
		h(w, r)
	}
}
