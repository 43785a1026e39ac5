package main

import (
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/andy6609/chat-relay/internal/chat"
)

func main() {
	defaults := chat.DefaultConfig()
	addr := flag.String("addr", defaults.Addr, "chat listen address")
	wsAddr := flag.String("ws-addr", "", "websocket gateway listen address (disabled when empty)")
	metricsAddr := flag.String("metrics-addr", ":9090", "metrics listen address (disabled when empty)")
	maxClients := flag.Int("max-clients", defaults.MaxClients, "maximum concurrent connections")
	maxMessage := flag.Int("max-message-bytes", defaults.MaxMessageBytes, "maximum MESSAGE payload in UTF-8 bytes")
	framing := flag.String("framing", defaults.Framing, "wire framing: line or length")
	writeTimeout := flag.Duration("write-timeout", defaults.WriteTimeout, "per-frame write deadline")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))

	cfg := defaults
	cfg.Addr = *addr
	cfg.WebSocketAddr = *wsAddr
	cfg.MaxClients = *maxClients
	cfg.MaxMessageBytes = *maxMessage
	cfg.Framing = *framing
	cfg.WriteTimeout = *writeTimeout

	srv, err := chat.NewServer(cfg, logger, chat.NewMetrics(prometheus.DefaultRegisterer))
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if err := srv.Start(); err != nil {
		logger.Error("failed to start server", "error", err)
		os.Exit(1)
	}

	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsSrv := &http.Server{Addr: *metricsAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics endpoint stopped", "error", err)
			}
		}()
		defer metricsSrv.Close()
		logger.Info("metrics endpoint started", "addr", *metricsAddr)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	srv.Stop()
}
