/*
main.go - Loyalty HTTP server entry point

STARTUP SEQUENCE:
  1. Parse configuration (flags + environment)
  2. Open the card store (XML file, or SQLite when -d is set)
  3. Build the registry and API handler
  4. Start the server with graceful shutdown

CONFIGURATION:
  -a / RUN_ADDRESS     listen address (default localhost:8080)
  -f / CARDS_FILE      XML card file (default bonus_cards.xml)
  -d / DATABASE_PATH   SQLite path; selects the SQLite backing

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM: stop accepting connections, wait up to 30s for
  active requests, close the store, exit.

SEE ALSO:
  - api/server.go: Router configuration
  - cmd/loyalty: Interactive console front end
*/
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/loyalty-engine/api"
	"github.com/warp/loyalty-engine/config"
	"github.com/warp/loyalty-engine/loyalty"
	"github.com/warp/loyalty-engine/store/sqlite"
	"github.com/warp/loyalty-engine/store/xmlfile"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		logger.Fatal("failed to parse configuration", zap.Error(err))
	}

	var cardStore loyalty.CardStore
	if cfg.DatabasePath != "" {
		cardStore, err = sqlite.New(cfg.DatabasePath, logger)
	} else {
		cardStore, err = xmlfile.New(cfg.CardsFile, logger)
	}
	if err != nil {
		logger.Fatal("failed to open card store", zap.Error(err))
	}
	defer cardStore.Close()

	registry := loyalty.NewRegistry(cardStore, loyalty.NewOperationHistory(), logger)
	registry.OnCardRegistered(func(card *loyalty.Card) {
		logger.Info("card registered",
			zap.String("card", card.Number),
			zap.String("client", card.ClientName))
	})
	registry.OnOperation(func(kind loyalty.OperationKind, cardNumber string, amount decimal.Decimal) {
		logger.Info("bonus operation",
			zap.String("kind", string(kind)),
			zap.String("card", cardNumber),
			zap.String("amount", amount.StringFixed(2)))
	})

	handler := api.NewHandler(registry)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         cfg.RunAddress,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("address", cfg.RunAddress))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
