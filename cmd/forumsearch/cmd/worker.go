package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/forumsearch/core/internal/build"
	"github.com/forumsearch/core/internal/config"
	"github.com/forumsearch/core/internal/jobhandlers"
	"github.com/forumsearch/core/internal/jobs"
	"github.com/forumsearch/core/internal/shard"
	"github.com/forumsearch/core/internal/staticembed"
	"github.com/forumsearch/core/internal/store"
)

func newWorkerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run the durable job worker pool (build_index, rebuild)",
		Long: `worker starts a long-running pool that claims build_index and
rebuild jobs from the queue and runs them against the bm25, tfidf,
vector, and autocomplete builders. crawl and preprocess jobs are left
for an external crawler/preprocessing pipeline; a worker that claims
one simply fails it with "no handler registered" and moves on.

Stop with Ctrl+C or SIGTERM for a graceful drain.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWorker(ctx, cmd)
		},
	}
	return cmd
}

func runWorker(ctx context.Context, cmd *cobra.Command) error {
	settings, st, err := openStoreAndSettings()
	if err != nil {
		return err
	}
	defer st.Close()

	planner := shard.NewPlanner(settings.Shard.DedicatedThreshold, settings.Shard.GroupedShardName)
	progress := build.NewProgress()
	encoder := staticembed.New(settings.Vector.EmbeddingDim)

	builders := jobhandlers.NewBuilders(st, planner, settings, progress, encoder)

	pool := jobs.NewPool(st, settings.Jobs.WorkerCount, settings.Jobs.PollIntervalDuration(), settings.Jobs.MaxRetries)
	jobhandlers.Register(pool, builders)

	if _, err := pool.RecoverStale(settings.Jobs.StaleRunningMaxAgeDuration()); err != nil {
		slog.Warn("failed to recover stale running jobs", slog.String("error", err.Error()))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "forumsearch worker started: %d workers, poll interval %s\n",
		settings.Jobs.WorkerCount, settings.Jobs.PollIntervalDuration())

	pool.Start(ctx)
	<-ctx.Done()

	fmt.Fprintln(cmd.OutOrStdout(), "shutting down, draining in-flight jobs...")
	pool.Stop(settings.Jobs.PollIntervalDuration() * 5)
	return nil
}

// openStoreAndSettings loads configuration for the current directory
// and opens the SQLite store it points to, a pairing every subcommand
// below that touches the index needs.
func openStoreAndSettings() (*config.Settings, *store.DB, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, nil, fmt.Errorf("resolve working directory: %w", err)
	}

	settings, err := config.Load(cwd)
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}

	st, err := store.Open(settings.DBPath(), settings.Storage.JournalMode, settings.Storage.BusyTimeoutMs, settings.Storage.CacheSizeMB)
	if err != nil {
		return nil, nil, fmt.Errorf("open store at %s: %w", settings.DBPath(), err)
	}
	return settings, st, nil
}
