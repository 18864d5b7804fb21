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

	"github.com/gorilla/handlers"
	"golang.org/x/sync/errgroup"

	"github.com/hailam/chessmind/internal/engine"
	"github.com/hailam/chessmind/internal/server"
	"github.com/hailam/chessmind/internal/storage"
)

var (
	addr     = flag.String("addr", ":8080", "listen address")
	dbDir    = flag.String("db", "", "database directory (default: platform data dir)")
	hashMB   = flag.Int("hash", 64, "transposition table size in MB")
	threads  = flag.Int("threads", 1, "number of search threads")
	bookPath = flag.String("book", "", "Polyglot opening book file")
)

func main() {
	flag.Parse()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	dir := *dbDir
	if dir == "" {
		var err error
		dir, err = storage.DatabaseDir()
		if err != nil {
			logger.Error("resolving database directory", "err", err)
			os.Exit(1)
		}
	}
	store, err := storage.Open(dir)
	if err != nil {
		logger.Error("opening database", "dir", dir, "err", err)
		os.Exit(1)
	}
	defer store.Close()

	eng := engine.NewEngine(engine.Options{
		HashMB:   *hashMB,
		Threads:  *threads,
		BookPath: *bookPath,
		OwnBook:  *bookPath != "",
	})

	srv := server.New(store, eng, logger)
	h := handlers.CORS(
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodDelete}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)(srv.Router())
	h = handlers.LoggingHandler(os.Stdout, h)

	httpSrv := &http.Server{
		Addr:        *addr,
		Handler:     h,
		ReadTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", "addr", *addr, "db", dir)
		if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutCtx)
	})
	if err := g.Wait(); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
