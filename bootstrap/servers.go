package bootstrap

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"doc-retriever/config"
	"doc-retriever/internal/auth"
	authmw "doc-retriever/internal/auth/middleware"
	"doc-retriever/middleware"
	"doc-retriever/rest"
)

// newHTTPServer serves the REST API over HTTP/1.1 and cleartext HTTP/2.
// Write endpoints require a service token when authClient is non-nil.
func newHTTPServer(cfg config.HTTPConfig, p *Pipeline, health Pinger, authClient *auth.Client, tracing bool) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           h2c.NewHandler(newRouter(p, health, authClient, tracing), &http2.Server{}),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func newRouter(p *Pipeline, health Pinger, authClient *auth.Client, tracing bool) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())
	if tracing {
		e.Use(middleware.EchoTracing())
	}

	var write []echo.MiddlewareFunc
	if authClient != nil {
		write = append(write, authmw.NewAuthMiddleware(authClient).RequireServiceAuth(auth.PermissionWrite))
	}

	rest.NewHandler(p.Search, p.Index, p.Ingest, health).RegisterRoutes(e, write...)
	return e
}
