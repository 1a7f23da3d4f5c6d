
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"newsinlevels-crawler/internal/config"
	"newsinlevels-crawler/internal/pipeline"
	"newsinlevels-crawler/pkg/logger"
)

func main() {
	configFile := flag.String("config", "", "config file (default: ./config.yaml)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("server: load config", "err", err)
		os.Exit(1)
	}
	l := logger.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	slog.SetDefault(l)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	p, closeStores, err := pipeline.FromConfig(ctx, cfg, l)
	cancel()
	if err != nil {
		l.Error("server: build pipeline", "err", err)
		os.Exit(1)
	}
	defer closeStores()

	s := newServer(p, cfg.SourceURL, l)
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      logRequest(l, s.routes()),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 5 * time.Minute, // a full run fetches every new article
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		l.Info("server: listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			l.Error("server: listen", "err", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	l.Info("server: shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	_ = srv.Shutdown(shutdownCtx)
	l.Info("server: bye")
}

func logRequest(l *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		l.Info("server: request", "method", r.Method, "path", r.URL.Path, "took", time.Since(start))
	})
}
