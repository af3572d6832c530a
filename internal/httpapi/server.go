// Package httpapi exposes rendering, validation and diagram composition
// over HTTP. Response bodies are the engine's result types unchanged.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/qforge/qforge/internal/diagram"
	"github.com/qforge/qforge/internal/service"
)

// Options configures the server.
type Options struct {
	Address        string
	DisableReqLogs bool
	Service        *service.Service
	Log            *slog.Logger

	// KeepRevisions bounds stored revisions per template; 0 keeps all.
	KeepRevisions int
}

// Server is the HTTP adapter.
type Server struct {
	opts     Options
	app      *echo.Echo
	validate *validator.Validate
	diagrams *diagram.Registry
	log      *slog.Logger
}

var _ http.Handler = (*Server)(nil)

// NewServer builds the router. Call Start to listen.
func NewServer(opts Options) *Server {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		opts:     opts,
		app:      echo.New(),
		validate: validator.New(),
		diagrams: diagram.Builtin(),
		log:      log,
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	s.app.HideBanner = true
	s.app.HidePort = true
	s.app.HTTPErrorHandler = s.errorHandler

	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(middleware.Recover())
	if !s.opts.DisableReqLogs {
		s.app.Use(s.requestLogger())
	}

	s.app.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})

	v1 := s.app.Group("/v1")
	v1.POST("/render", s.render)
	v1.POST("/validate", s.validateTemplate)
	v1.POST("/diagram", s.composeDiagram)
	v1.GET("/templates", s.listTemplates)
	v1.GET("/templates/:id", s.getTemplate)
	v1.PUT("/templates/:id", s.putTemplate)
	v1.DELETE("/templates/:id", s.deleteTemplate)
	v1.GET("/templates/:id/revisions", s.templateRevisions)
	v1.GET("/templates/:id/render", s.renderTemplate)
	v1.GET("/renders", s.history)
	v1.GET("/preview", s.preview)
}

func (s *Server) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency}
			if v.Error != nil {
				s.log.Warn("http request", append(attrs, "err", v.Error)...)
			} else {
				s.log.Info("http request", attrs...)
			}
			return nil
		},
	})
}

// Start listens on Options.Address until Stop is called.
func (s *Server) Start() error {
	err := s.app.Start(s.opts.Address)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.app.ServeHTTP(w, r)
}
