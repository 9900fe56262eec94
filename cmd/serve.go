package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spigell/careercraft/internal/flow"
	"github.com/spigell/careercraft/internal/flows"
	"github.com/spigell/careercraft/internal/logger"
	"github.com/spigell/careercraft/internal/metrics"
	"github.com/spigell/careercraft/internal/web"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the career coaching pages and the JSON API",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "address to listen on (default :8080)")

	viper.BindPFlag("listen", serveCmd.Flags().Lookup("listen"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the careercraft server", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(redacted(config), "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	completer, err := newCompleter(ctx, config.AI, logger)
	if err != nil {
		logger.Fatal("creating the ai completer", zap.Error(err))
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(promRegistry)

	registry := flow.NewRegistry()
	if err := flows.Register(registry, completer, flow.WithObserver(m), flow.WithLogger(logger)); err != nil {
		logger.Fatal("registering flows", zap.Error(err))
	}

	srv, err := web.New(web.Options{
		Registry:       registry,
		Metrics:        m,
		Logger:         logger,
		RequestTimeout: config.RequestTimeout,
		RatePerMinute:  config.RateLimit.PerMinute,
		RateBurst:      config.RateLimit.Burst,
	})
	if err != nil {
		logger.Fatal("creating the http server", zap.Error(err))
	}

	logger.Info("serving flows",
		zap.Strings("flows", registry.Names()),
		zap.String("model", completer.Model()),
	)

	if err := srv.Run(ctx, config.Listen); err != nil {
		logger.Fatal("http server stopped with error", zap.Error(err))
	}

	logger.Info("exiting", zap.String("reason", "shutdown requested"))
}
