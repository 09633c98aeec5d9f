// Command neoetl fetches NASA NeoWs close-approach feeds, normalizes them
// into analytic tables, and serves or publishes the result.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/neo-approach-etl/internal/adapter/httpserve"
	kafkaadapter "github.com/couchcryptid/neo-approach-etl/internal/adapter/kafka"
	"github.com/couchcryptid/neo-approach-etl/internal/adapter/neows"
	"github.com/couchcryptid/neo-approach-etl/internal/build"
	"github.com/couchcryptid/neo-approach-etl/internal/cache"
	"github.com/couchcryptid/neo-approach-etl/internal/config"
	"github.com/couchcryptid/neo-approach-etl/internal/domain"
	"github.com/couchcryptid/neo-approach-etl/internal/ingest"
	"github.com/couchcryptid/neo-approach-etl/internal/observability"
	"github.com/couchcryptid/neo-approach-etl/internal/orbits"
	"github.com/couchcryptid/neo-approach-etl/internal/reports"
	"github.com/couchcryptid/neo-approach-etl/internal/store"
)

var version = "dev"

// app carries the wiring every subcommand shares.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "neoetl",
		Short:         "Near-Earth object close-approach ETL",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// A .env file is a development convenience; absence is fine.
			_ = godotenv.Load()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			a.cfg = cfg
			a.logger = observability.NewLogger(cfg)
			a.metrics = observability.NewMetrics()
			return nil
		},
	}

	root.AddCommand(
		newFetchCmd(a),
		newBuildCmd(a),
		newOrbitsCmd(a),
		newReportsCmd(a),
		newPublishCmd(a),
		newServeCmd(a),
		newAllCmd(a),
	)
	return root
}

// dateRangeFlags holds the shared --start/--end/--refresh flags. Defaults
// cover today through the configured horizon.
type dateRangeFlags struct {
	start   string
	end     string
	refresh bool
}

func (f *dateRangeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.start, "start", "", "start date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&f.end, "end", "", "end date (YYYY-MM-DD, default start plus the configured horizon)")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "refetch windows even when cached")
}

func (f *dateRangeFlags) resolve(cfg *config.Config) (start, end time.Time, err error) {
	start = domain.Now().UTC().Truncate(24 * time.Hour)
	if f.start != "" {
		if start, err = domain.ParseDate(f.start); err != nil {
			return start, end, fmt.Errorf("invalid --start: %w", err)
		}
	}
	end = start.AddDate(cfg.HorizonYears, 0, 0)
	if f.end != "" {
		if end, err = domain.ParseDate(f.end); err != nil {
			return start, end, fmt.Errorf("invalid --end: %w", err)
		}
	}
	if end.Before(start) {
		return start, end, fmt.Errorf("end date %s is before start date %s",
			end.Format(domain.DateFormat), start.Format(domain.DateFormat))
	}
	return start, end, nil
}

func (a *app) cacheStore() (*cache.Store, error) {
	if err := a.cfg.RequireAPIKey(); err != nil {
		return nil, err
	}
	client := neows.NewClient(a.cfg, a.logger)
	return cache.NewStore(a.cfg.CacheDir, client, a.logger, a.metrics), nil
}

func (a *app) processedStore() *store.Store {
	return store.NewStore(a.cfg.ProcessedDir, a.logger)
}

func newFetchCmd(a *app) *cobra.Command {
	var flags dateRangeFlags
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch feed windows and write the flattened dataset",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFetch(cmd.Context(), a, flags)
		},
	}
	flags.register(cmd)
	return cmd
}

func runFetch(ctx context.Context, a *app, flags dateRangeFlags) error {
	start, end, err := flags.resolve(a.cfg)
	if err != nil {
		return err
	}
	cacheStore, err := a.cacheStore()
	if err != nil {
		return err
	}

	orch := ingest.NewOrchestrator(cacheStore, a.cfg.WindowDays, a.logger, a.metrics)
	results, err := orch.Run(ctx, start, end, flags.refresh)
	if err != nil {
		return err
	}

	rows := ingest.Flatten(results, a.cfg.OrbitingBody)
	a.metrics.RowsFlattened.Add(float64(len(rows)))

	path, err := a.processedStore().WriteFlattened(rows)
	if err != nil {
		return err
	}
	a.logger.Info("fetch complete",
		"start", start.Format(domain.DateFormat),
		"end", end.Format(domain.DateFormat),
		"rows", len(rows), "output", path)
	return nil
}

func newBuildCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Build objects, approaches, and aggregates tables from the flattened dataset",
		RunE: func(*cobra.Command, []string) error {
			return runBuild(a)
		},
	}
}

func runBuild(a *app) error {
	started := domain.Now()
	s := a.processedStore()

	rows, err := s.ReadFlattened()
	if err != nil {
		return fmt.Errorf("reading flattened dataset: %w", err)
	}

	res, err := build.Build(rows, a.logger)
	if err != nil {
		return err
	}
	a.metrics.DuplicateApproachIDs.Set(float64(res.DuplicateApproachIDCount))

	if err := s.WriteObjects(res.Objects); err != nil {
		return err
	}
	if err := s.WriteApproaches(res.Approaches); err != nil {
		return err
	}
	if err := s.WriteAggregates(build.ComputeAggregates(res.Approaches, res.Objects)); err != nil {
		return err
	}

	inputSHA, err := store.HashFile(s.FlattenedPath())
	if err != nil {
		return fmt.Errorf("hashing flattened input: %w", err)
	}
	md := build.BuildMetadata(res, build.MetadataInput{
		InputPath:          s.FlattenedPath(),
		InputSHA256:        inputSHA,
		OrbitingBodyFilter: a.cfg.OrbitingBody,
	})
	if err := s.WriteMetadata(md); err != nil {
		return err
	}

	a.metrics.BuildDuration.Observe(domain.Now().Sub(started).Seconds())
	a.logger.Info("build complete",
		"approaches", md.TotalApproaches,
		"objects", md.UniqueObjects,
		"duplicate_approach_ids", md.DuplicateApproachIDCount)
	return nil
}

func newOrbitsCmd(a *app) *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "orbits",
		Short: "Enrich built objects with orbital elements",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOrbits(cmd.Context(), a, refresh)
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "refetch orbit lookups even when cached")
	return cmd
}

func runOrbits(ctx context.Context, a *app, refresh bool) error {
	s := a.processedStore()
	objects, err := s.ReadObjects()
	if err != nil {
		return fmt.Errorf("reading objects table: %w", err)
	}
	cacheStore, err := a.cacheStore()
	if err != nil {
		return err
	}

	rows, err := orbits.NewEnricher(cacheStore, a.logger, a.metrics).Enrich(ctx, objects, refresh)
	if err != nil {
		return err
	}
	return s.WriteOrbits(rows)
}

func newReportsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reports",
		Short: "Generate quantile, ECDF, and calendar reports",
		RunE: func(*cobra.Command, []string) error {
			return runReports(a)
		},
	}
}

func runReports(a *app) error {
	s := a.processedStore()
	approaches, err := s.ReadApproaches()
	if err != nil {
		return fmt.Errorf("reading approaches table: %w", err)
	}
	objects, err := s.ReadObjects()
	if err != nil {
		return fmt.Errorf("reading objects table: %w", err)
	}
	return reports.NewReporter(a.cfg.ReportsDir, a.logger).Generate(approaches, objects)
}

func newPublishCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "publish",
		Short: "Publish built approaches to Kafka",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPublish(cmd.Context(), a)
		},
	}
}

func runPublish(ctx context.Context, a *app) error {
	if !a.cfg.KafkaEnabled {
		return errors.New("kafka publishing is disabled; set KAFKA_ENABLED=true and KAFKA_BROKERS")
	}
	s := a.processedStore()
	approaches, err := s.ReadApproaches()
	if err != nil {
		return fmt.Errorf("reading approaches table: %w", err)
	}
	md, err := s.ReadMetadata()
	if err != nil {
		return fmt.Errorf("reading run metadata: %w", err)
	}

	writer := kafkaadapter.NewWriter(a.cfg, a.logger)
	defer writer.Close()
	return writer.PublishApproaches(ctx, approaches, md)
}

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the processed dataset over HTTP",
		RunE: func(*cobra.Command, []string) error {
			return runServe(a)
		},
	}
}

func runServe(a *app) error {
	srv := httpserve.NewServer(a.cfg.HTTPAddr, a.processedStore(), a.logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	a.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	a.logger.Info("shutdown complete")
	return nil
}

func newAllCmd(a *app) *cobra.Command {
	var flags dateRangeFlags
	var skipOrbits bool
	cmd := &cobra.Command{
		Use:   "all",
		Short: "Run fetch, build, orbit enrichment, and reports in sequence",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := runFetch(cmd.Context(), a, flags); err != nil {
				return err
			}
			if err := runBuild(a); err != nil {
				return err
			}
			if !skipOrbits {
				if err := runOrbits(cmd.Context(), a, flags.refresh); err != nil {
					return err
				}
			}
			return runReports(a)
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&skipOrbits, "skip-orbits", false, "skip per-object orbit lookups")
	return cmd
}
