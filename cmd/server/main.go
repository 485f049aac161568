package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"squarespace-chatwoot-integrator/internal/chatwoot"
	"squarespace-chatwoot-integrator/internal/config"
	"squarespace-chatwoot-integrator/internal/server"
	"squarespace-chatwoot-integrator/internal/squarespace"
)

func main() {
	// .env é opcional; em produção as variáveis vêm do ambiente.
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("configuração do Chatwoot incompleta", slog.Any("erro", err))
		os.Exit(1)
	}

	chatwootClient := chatwoot.NewClient(cfg.Chatwoot)
	handler := squarespace.NewHandler(logger, chatwootClient)

	srv := server.New(logger, cfg.Port, handler)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("erro no servidor", slog.Any("erro", err))
			os.Exit(1)
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("encerrando servidor")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("erro encerrando servidor", slog.Any("erro", err))
	}
}
