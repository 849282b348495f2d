package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Leegeev/ebus/internal/log"
	"github.com/Leegeev/ebus/pkg/config"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := config.New()
	var cfgPath string

	cmd := &cobra.Command{
		Use:   "ebus-soak",
		Short: "Нагрузочный прогон издателей и подписчиков на внутрипроцессной шине",
		Long: `Запускает soak-сценарий на одной шине и печатает JSON-отчёт:
- N издателей публикуют пронумерованные сообщения
- M подписчиков читают в своём темпе и проверяют порядок по каждому издателю
- закрытые подписчики периодически собираются GarbageCollect
- опционально churn: поздние входы и ранние выходы
`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cfgPath == "" {
				if err := config.InitConfig(v); err != nil {
					return err
				}
			}
			cfg, err := config.Load(v, cfgPath)
			if err != nil {
				return err
			}
			log.Configure(log.Config{Level: cfg.Log.Level})
			logger := log.WithComponent("soak")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var srv *http.Server
			if cfg.Metrics.Enabled {
				srv = &http.Server{
					Addr:              cfg.Metrics.ListenAddr,
					Handler:           newRouter(),
					ReadHeaderTimeout: 5 * time.Second,
				}
				go func() {
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						logger.Error().Err(err).Str("addr", srv.Addr).Msg("metrics server failed")
					}
				}()
				logger.Info().Str("addr", srv.Addr).Msg("metrics server started")
			}

			report, runErr := Run(ctx, cfg, logger)

			if srv != nil {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					logger.Warn().Err(err).Msg("metrics server shutdown incomplete")
				}
			}

			if report != nil {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return fmt.Errorf("write report: %w", err)
				}
			}
			return runErr
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfgPath, "config", "", "путь к YAML-конфигу (по умолчанию configs/config.yaml, если есть)")
	flags.String("bus-name", "ebus", "отладочное имя шины")
	flags.Int("queue-size", 1024, "ёмкость ящика подписчика")
	flags.Int("publishers", 4, "число издателей")
	flags.Int("subscribers", 4, "число подписчиков")
	flags.Duration("duration", 10*time.Second, "длительность прогона")
	flags.Duration("gc-interval", time.Second, "интервал сборки закрытых подписчиков (0 отключает)")
	flags.Bool("churn", false, "издатели и подписчики входят позже и уходят раньше")
	flags.Uint64("seed", 0, "seed генератора (0 выбирает случайный)")
	flags.Bool("metrics", false, "поднять /metrics и /healthz")
	flags.String("metrics-addr", "127.0.0.1:9464", "адрес сервера метрик")
	flags.String("log-level", "info", "уровень логирования")

	bindFlags(v, flags, map[string]string{
		"bus.name":                  "bus-name",
		"bus.subscriber_queue_size": "queue-size",
		"soak.publishers":           "publishers",
		"soak.subscribers":          "subscribers",
		"soak.duration":             "duration",
		"soak.gc_interval":          "gc-interval",
		"soak.churn":                "churn",
		"soak.seed":                 "seed",
		"metrics.enabled":           "metrics",
		"metrics.listen_addr":       "metrics-addr",
		"log.level":                 "log-level",
	})
	return cmd
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", name, err))
		}
	}
}

func newRouter() http.Handler {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	return r
}
