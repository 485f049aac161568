package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Handler registra rotas na instância echo.
type Handler interface {
	Register(e *echo.Echo)
}

// Server encapsula o echo com recover, log de requisições e a rota de liveness.
type Server struct {
	echo   *echo.Echo
	addr   string
	logger *slog.Logger
}

// New monta o servidor e registra os handlers informados.
func New(log *slog.Logger, port int, handlers ...Handler) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("remote_ip", c.RealIP()),
			)
			return nil
		},
	}))

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	for _, h := range handlers {
		if h != nil {
			h.Register(e)
		}
	}

	return &Server{
		echo:   e,
		addr:   fmt.Sprintf(":%d", port),
		logger: log.With(slog.String("component", "server")),
	}
}

// Start bloqueia até o servidor encerrar.
func (s *Server) Start() error {
	s.logger.Info("servidor escutando", slog.String("addr", s.addr))
	return s.echo.Start(s.addr)
}

// Stop encerra o servidor respeitando o contexto.
func (s *Server) Stop(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
