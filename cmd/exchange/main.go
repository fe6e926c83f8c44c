// Command exchange runs the matching engine behind the binary TCP gateway
// and a Prometheus metrics endpoint.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"hftcore/internal/engine"
	"hftcore/internal/gateway"
	"hftcore/internal/metrics"
)

func main() {
	address := flag.String("address", "0.0.0.0", "gateway listen address")
	port := flag.Int("port", 9001, "gateway listen port")
	metricsAddr := flag.String("metrics-address", ":2112", "Prometheus metrics listen address")
	symbolsFlag := flag.String("symbols", "AAPL,MSFT,GOOG", "comma-separated tradable symbols")
	seed := flag.Int64("seed", 1, "matching engine RNG seed")
	simSpeed := flag.Float64("sim-speed", 1.0, "simulation speed multiplier")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()

	symbols := strings.Split(*symbolsFlag, ",")

	recorder := metrics.NewRecorder()
	eng := engine.New(engine.Config{
		Symbols:         symbols,
		Seed:            *seed,
		SimulationSpeed: *simSpeed,
		Logger:          &logger,
		Metrics:         recorder,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	eng.Start(ctx)
	defer eng.Stop()

	metricsServer := &http.Server{Addr: *metricsAddr, Handler: recorder.Handler()}
	go func() {
		logger.Info().Str("address", *metricsAddr).Msg("metrics server listening")
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("metrics server failed")
		}
	}()

	srv := gateway.New(*address, *port, eng, symbols, logger)
	go func() {
		if err := srv.Run(ctx); err != nil {
			logger.Error().Err(err).Msg("gateway server exited")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	metricsServer.Shutdown(shutdownCtx)
}
