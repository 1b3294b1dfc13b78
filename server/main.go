package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"
)

func getenv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	addr := getenv("ADDR", ":8080")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	kv, err := OpenKV(ctx, getenv("KORTEX_DB_DRIVER", "sqlite"), getenv("KORTEX_DB_DSN", "kortex.db"))
	if err != nil {
		log.Error("open kv", "err", err)
		os.Exit(1)
	}
	defer kv.Close()

	blobs, err := OpenBlobStore(ctx)
	if err != nil {
		log.Error("open blob store", "err", err)
		os.Exit(1)
	}
	log.Info("blob store ready", "driver", blobs.Driver())

	store := NewStore(kv, blobs, log)
	store.Load(context.Background())

	ai := NewAIClient(
		getenv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		getenv("GEMINI_API_KEY", ""),
		getenv("GEMINI_MODEL", "gemini-2.5-flash"),
	)
	if ai == nil {
		log.Warn("no GEMINI_API_KEY set, generation endpoints disabled")
	}

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", metricsHandler())

	a := newAPI(store, log, ai)
	a.routes(mux)

	srv := &http.Server{Addr: addr, Handler: withLogging(log, withMetrics(mux)),
		ReadTimeout: 15 * time.Second, ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout: 30 * time.Second, IdleTimeout: 120 * time.Second}

	go func() {
		log.Info("listening", "addr", addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) && err != nil {
			log.Error("listen", "err", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	<-sig
	log.Info("shutting down")
	ctxSh, cancelSh := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelSh()
	if err := srv.Shutdown(ctxSh); err != nil {
		log.Error("shutdown", "err", err)
	}
}
