// Package cmd provides the sync command implementation for playlist2git.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/toozej/playlist2git/internal/github"
	"github.com/toozej/playlist2git/internal/reporting"
	"github.com/toozej/playlist2git/internal/snapshot"
	"github.com/toozej/playlist2git/internal/spotify"
	"github.com/toozej/playlist2git/internal/vcs"
	"github.com/toozej/playlist2git/pkg/config"
)

// newSyncCmd creates the sync command that snapshots the library into the repository.
func newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Snapshot playlists and publish them to the playlist repository",
		Long: `Fetch every playlist of the authenticated Spotify account plus Liked Songs,
render one log per collection into the playlist repository, and when anything
changed commit it on the batch branch, push, open and merge a pull request into
the base branch and delete the batch branch.

The first run prints an authorization URL; later runs refresh the cached token.`,
		Args: cobra.NoArgs,
		Run:  runSync,
	}

	cmd.Flags().StringP("granularity", "g", "", "Batch branch granularity: daily or run (overrides PLAYLIST_REPO_BATCH_GRANULARITY)")
	cmd.Flags().Bool("skip-invalid", false, "Skip malformed track items instead of aborting (overrides SPOTIFY_SKIP_INVALID_ITEMS)")

	return cmd
}

// runSync executes the sync command. Any failure exits with status 1.
func runSync(cmd *cobra.Command, args []string) {
	applySyncFlags(cmd, &conf)

	reporter, err := reporting.New(conf.Sentry)
	if err != nil {
		log.WithError(err).Warn("Error reporting disabled")
		reporter = &reporting.Reporter{}
	}
	if reporter.Enabled() {
		log.AddHook(reporter.Hook())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := executeSync(ctx, conf, log.StandardLogger())
	if err != nil {
		reporter.SetTag("batch", res.Batch)
		reporter.CaptureError(err)
		reporter.Flush(5 * time.Second)
		stop()
		log.WithError(err).Fatal("Sync failed")
	}

	log.WithFields(log.Fields{
		"batch":   res.Batch,
		"outcome": res.Outcome.String(),
		"files":   len(res.Files),
	}).Info("Sync completed")
}

// applySyncFlags copies explicitly set flags over the environment configuration.
func applySyncFlags(cmd *cobra.Command, c *config.Config) {
	if cmd.Flags().Changed("granularity") {
		c.Repo.BatchGranularity, _ = cmd.Flags().GetString("granularity")
	}
	if cmd.Flags().Changed("skip-invalid") {
		c.Spotify.SkipInvalidItems, _ = cmd.Flags().GetBool("skip-invalid")
	}
}

// executeSync validates the configuration, wires the collaborators and runs
// one snapshot.
func executeSync(ctx context.Context, c config.Config, logger *log.Logger) (snapshot.Result, error) {
	runner, err := newRunner(ctx, c, logger)
	if err != nil {
		return snapshot.Result{}, err
	}
	return runner.Run(ctx)
}

func newRunner(ctx context.Context, c config.Config, logger *log.Logger) (*snapshot.Runner, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	repo, err := vcs.Open(c.Repo, logger,
		vcs.WithBaseBranch(c.GitHub.BaseBranch),
		vcs.WithToken(c.GitHub.AccessToken),
	)
	if err != nil {
		return nil, err
	}

	library, err := spotify.NewClient(c.Spotify, logger,
		spotify.WithCallbackAddress(c.Server.Address()),
	)
	if err != nil {
		return nil, err
	}

	requests, err := github.New(ctx, c.GitHub, logger)
	if err != nil {
		return nil, err
	}

	return &snapshot.Runner{
		Repo:        repo,
		Library:     library,
		Requests:    requests,
		Logger:      logger,
		Now:         time.Now,
		Granularity: c.Repo.BatchGranularity,
		BaseBranch:  c.GitHub.BaseBranch,
	}, nil
}
