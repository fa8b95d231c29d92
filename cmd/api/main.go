package main

import (
	"context"
	"errors"
	"fmt"
	"github.com/txsociety/w5signer/internal/config"
	"github.com/txsociety/w5signer/pkg/api"
	"github.com/txsociety/w5signer/pkg/blockchain"
	"github.com/txsociety/w5signer/pkg/db"
	"github.com/txsociety/w5signer/pkg/dispatcher"
	"github.com/txsociety/w5signer/pkg/signer"
	"github.com/txsociety/w5signer/pkg/webhook"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

var Version = "dev"

func main() {
	cfg := config.Load()
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	})))
	slog.Info("running wallet signer", "version", Version, "log level", cfg.LogLevel.String())

	w, key, err := cfg.Wallet()
	if err != nil {
		slog.Error("wallet creation", "error", err)
		os.Exit(1)
	}
	address, err := w.Address()
	if err != nil {
		slog.Error("wallet address", "error", err)
		os.Exit(1)
	}
	slog.Info("wallet loaded", "address", address.ToHuman(false, cfg.Testnet()), "identity", w.Identity().String())

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	wg := new(sync.WaitGroup)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	dbClient, err := db.New(ctx, cfg.PostgresURI)
	if err != nil {
		slog.Error("db connection", "error", err)
		os.Exit(1)
	}
	cancel()
	defer dbClient.Close()

	ctx, cancel = context.WithCancel(context.Background())

	var wh *webhook.Client
	if len(cfg.WebhookEndpoint) > 0 {
		wh, err = webhook.NewClient(cfg.WebhookEndpoint)
		if err != nil {
			slog.Error("webhook connection", "error", err)
			os.Exit(1)
		}
	}

	bcClient, err := blockchain.New(blockchain.Options{
		LiteServers: cfg.LiteServers,
		Testnet:     cfg.Testnet(),
		RPS:         cfg.LiteRPS,
		Emulate:     cfg.EmulateMethods,
	})
	if err != nil {
		slog.Error("blockchain connection", "error", err)
		os.Exit(1)
	}
	bcClient.RunBlockWatcher(ctx, dbClient, wg)

	s, err := signer.New(w, key, bcClient, dbClient, cfg.MessageTTL)
	if err != nil {
		slog.Error("signer creation", "error", err)
		os.Exit(1)
	}

	opts := dispatcher.Options{
		Interval: cfg.DispatchInterval,
		Testnet:  cfg.Testnet(),
	}
	var d *dispatcher.Dispatcher
	if wh != nil {
		d = dispatcher.New(bcClient, dbClient, wh, opts)
	} else {
		d = dispatcher.New(bcClient, dbClient, nil, opts)
	}
	d.Run(ctx, wg)

	mux := http.NewServeMux()
	handler := api.NewHandler(dbClient, s, cfg.Testnet())
	api.RegisterHandlers(mux, handler, cfg.Token)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%v", cfg.Port),
		Handler: mux,
	}
	go func() {
		slog.Info("running api server", "port", cfg.Port)
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("listen and serve", "error", err)
			os.Exit(1)
		}
	}()

	sig := <-ch
	slog.Info("shut down", "signal", sig.String())
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server shutdown", "error", err)
	}
	slog.Info("api stopped")
	cancel()
	wg.Wait()
}
