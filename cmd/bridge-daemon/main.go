// Package main runs the wallet bridge daemon: the relay session engine, the
// request dispatcher and a prometheus metrics endpoint.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/lunarfield/walletbridge-backend/internal/dispatch"
	"github.com/lunarfield/walletbridge-backend/internal/history"
	"github.com/lunarfield/walletbridge-backend/internal/metrics"
	"github.com/lunarfield/walletbridge-backend/internal/relay"
	"github.com/lunarfield/walletbridge-backend/internal/session"
	"github.com/lunarfield/walletbridge-backend/internal/storage"
)

type config struct {
	RelayURL    string        `long:"relay-url" env:"BRIDGE_RELAY_URL" description:"relay websocket URL" required:"true"`
	Network     string        `long:"network" env:"BRIDGE_NETWORK" description:"chain network the wallet operates on" default:"mainnet"`
	DataDir     string        `long:"data-dir" env:"BRIDGE_DATA_DIR" description:"directory for persisted protocol state" default:"./bridge-data"`
	MetricsAddr string        `long:"metrics-addr" env:"BRIDGE_METRICS_ADDR" description:"prometheus listen address" default:":9090"`
	NodeAPIURL  string        `long:"node-api-url" env:"BRIDGE_NODE_API_URL" description:"full-node REST API base URL" default:"http://127.0.0.1:12973"`
	ExplorerURL string        `long:"explorer-api-url" env:"BRIDGE_EXPLORER_API_URL" description:"explorer backend API base URL" default:"http://127.0.0.1:9090"`
	SignerURL   string        `long:"signer-url" env:"BRIDGE_SIGNER_URL" description:"in-process signer endpoint receiving approved intents"`
	Addresses   []string      `long:"address" env:"BRIDGE_ADDRESSES" env-delim:"," description:"wallet addresses allowed as dApp signers"`
	AutoApprove bool          `long:"auto-approve" env:"BRIDGE_AUTO_APPROVE" description:"approve every signing request without a UI (development only)"`
	HTTPTimeout time.Duration `long:"http-timeout" env:"BRIDGE_HTTP_TIMEOUT" description:"timeout for node/explorer/signer calls" default:"30s"`
}

func main() {
	cfg := config{}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic("can't initialize zap logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync()
	}()

	if _, err := flags.ParseArgs(&cfg, os.Args); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			return
		}
		logger.Fatal("failed to parse flags", zap.Error(err))
	}

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("bridge daemon failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config, logger *zap.Logger) error {
	kv, err := storage.NewFileStore(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	pruner, err := history.NewPruner(relay.NewStore(kv), metrics.NewPruner(cfg.Network), logger)
	if err != nil {
		return fmt.Errorf("init pruner: %w", err)
	}

	relayMetrics := metrics.NewRelayClient(cfg.Network)
	factory := func(ctx context.Context) (session.SignClient, error) {
		client, err := relay.Dial(ctx, relay.Options{
			URL: cfg.RelayURL,
			Metadata: relay.PeerMetadata{
				Name:        "walletbridge",
				Description: "wallet bridge daemon",
			},
		}, kv, relayMetrics, logger)
		if err != nil {
			return nil, err
		}
		return client, nil
	}

	engine, err := session.New(session.Deps{
		Factory: factory,
		Pruner:  pruner,
		Storage: kv,
		Metrics: metrics.NewEngine(cfg.Network),
		Logger:  logger,
		Network: cfg.Network,
	})
	if err != nil {
		return fmt.Errorf("init session engine: %w", err)
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	dispatcher, err := dispatch.New(dispatch.Deps{
		Responder:   engine,
		AddressBook: newStaticAddressBook(cfg.Addresses),
		ApprovalUI:  newPolicyApprover(cfg.AutoApprove, logger),
		Node:        newAPIForwarder(cfg.NodeAPIURL, httpClient),
		Explorer:    newAPIForwarder(cfg.ExplorerURL, httpClient),
		Broadcaster: newSignerForwarder(cfg.SignerURL, httpClient),
		Metrics:     metrics.NewDispatcher(cfg.Network),
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("init dispatcher: %w", err)
	}

	go serveMetrics(ctx, cfg.MetricsAddr, logger)
	go drainRequests(ctx, engine, dispatcher, logger)
	// Requests parked before the wallet had an address replay from here.
	go func() { _ = dispatcher.Run(ctx) }()

	logger.Info("bridge daemon starting",
		zap.String("relay", cfg.RelayURL),
		zap.String("network", cfg.Network),
		zap.Int("addresses", len(cfg.Addresses)))
	return engine.Run(ctx)
}

// drainRequests feeds inbound dApp requests to the dispatcher. Each request
// runs on its own goroutine because signing requests block on approval while
// passthrough calls should keep flowing.
func drainRequests(ctx context.Context, engine *session.Engine, dispatcher *dispatch.Dispatcher, logger *zap.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case inbound, ok := <-engine.Requests():
			if !ok {
				return
			}
			go func() {
				if err := dispatcher.Dispatch(ctx, inbound.Request); err != nil {
					logger.Error("dispatch failed",
						zap.Int64("id", inbound.Request.ID),
						zap.String("method", inbound.Request.Method),
						zap.Error(err))
				}
			}()
		}
	}
}

func serveMetrics(ctx context.Context, addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics server failed", zap.Error(err))
	}
}
