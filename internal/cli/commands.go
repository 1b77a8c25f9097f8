package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/phuslu/log"
	"github.com/spf13/cobra"

	"IndexForecaster/internal/collector"
	"IndexForecaster/internal/config"
	"IndexForecaster/internal/forecast"
	"IndexForecaster/internal/forecaster"
	"IndexForecaster/internal/logging"
	"IndexForecaster/internal/notifier"
	"IndexForecaster/internal/pipeline"
	"IndexForecaster/internal/recorder"
	"IndexForecaster/internal/report"
	"IndexForecaster/internal/scheduler"
)

// Version is overridden at build time with -ldflags.
var Version = "dev"

type options struct {
	configPath string
	offline    bool
}

// NewRootCmd creates the root command. Without a subcommand it runs the
// pipeline once.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "forecaster",
		Short:         "Index price forecasting pipeline",
		Long:          `Downloads index price history, fits short and long horizon forecasts, renders charts and writes a summary report.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd.Context(), opts)
		},
	}

	defaultConfig := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultConfig = v
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", defaultConfig, "Configuration file path")
	rootCmd.PersistentFlags().BoolVar(&opts.offline, "offline", false, "Reuse persisted data files instead of fetching")

	rootCmd.AddCommand(newScheduleCmd(opts))
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

func newScheduleCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Re-run the pipeline on the configured cron schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			runNow, _ := cmd.Flags().GetBool("run-now")
			return runScheduled(cmd.Context(), opts, runNow)
		},
	}
	cmd.Flags().Bool("run-now", os.Getenv("RUN_ON_START") == "true", "Run once immediately before waiting for the schedule")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("forecaster %s\n", Version)
			fmt.Printf("model: %s\n", forecast.ModelName)
		},
	}
}

func runOnce(ctx context.Context, opts *options) error {
	p, _, closeFn, err := build(opts)
	if err != nil {
		return err
	}
	defer closeFn()
	_, _, err = p.Run(ctx)
	return err
}

func runScheduled(ctx context.Context, opts *options, runNow bool) error {
	p, cfg, closeFn, err := build(opts)
	if err != nil {
		return err
	}
	defer closeFn()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sched := scheduler.NewScheduler(ctx, p)
	if err := sched.Register(cfg.Schedule.Cron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if runNow {
		log.Info().Msg("running forecast now")
		sched.RunAsync()
	}
	log.Info().Str("cron", cfg.Schedule.Cron).Msg("forecaster is running, press Ctrl+C to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		log.Info().Msg("shutdown signal received, stopping...")
	case <-ctx.Done():
	}
	cancel()
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// build loads the configuration and wires a Pipeline from it. The returned
// func releases the recorder.
func build(opts *options) (*pipeline.Pipeline, *config.Config, func(), error) {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	logging.Setup(cfg.Logging.Level)

	short, err := cfg.ShortTerm()
	if err != nil {
		return nil, nil, nil, err
	}
	long, err := cfg.LongTerm()
	if err != nil {
		return nil, nil, nil, err
	}

	fetcher := newFetcher(cfg)
	log.Info().Str("source", fetcher.Name()).Bool("offline", opts.offline).Msg("data source")

	fopts := forecast.DefaultOptions()
	fopts.IntervalWidth = cfg.Forecast.IntervalWidth
	fopts.DailySeasonality = *cfg.Forecast.DailySeasonality

	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		} else {
			rec = sr
		}
	}

	p := &pipeline.Pipeline{
		Specs:      cfg.Series,
		Collector:  collector.NewCollector(fetcher, cfg.Paths.DataDir, cfg.DataSource.Lookback),
		Offline:    opts.offline,
		Forecaster: forecaster.New(cfg.Paths.OutputDir, fopts),
		Builder: &report.Builder{
			Title:     cfg.Report.Title,
			Currency:  cfg.Report.Currency,
			ModelName: forecast.ModelName,
			ShortTerm: short,
			LongTerm:  long,
		},
		ShortTerm: short,
		LongTerm:  long,
		OutputDir: cfg.Paths.OutputDir,
		Recorder:  rec,
	}
	if cfg.Telegram.BotToken != "" {
		p.Notifier = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
	}

	closeFn := func() {
		if err := rec.Close(); err != nil {
			log.Error().Err(err).Msg("close recorder")
		}
	}
	return p, cfg, closeFn, nil
}

func newFetcher(cfg *config.Config) collector.Fetcher {
	switch cfg.DataSource.Provider {
	case "financego":
		return collector.NewFinanceGoFetcher()
	case "mock":
		return &collector.MockFetcher{}
	default:
		return collector.NewYahooFetcher(cfg.Proxy)
	}
}
