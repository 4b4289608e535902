// Package cmd provides command-line interface functionality for the playlist2git application.
//
// This package implements the root command and manages the command-line interface
// using the cobra library. It handles configuration, logging setup, and command
// execution for the playlist2git application.
//
// The package integrates with several components:
//   - Configuration management through pkg/config
//   - Logging setup through pkg/logger
//   - The sync orchestrator through internal/snapshot
//   - Manual pages through pkg/man
//   - Version information through pkg/version
//
// Example usage:
//
//	import "github.com/toozej/playlist2git/cmd/playlist2git"
//
//	func main() {
//		cmd.Execute()
//	}
package cmd

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/toozej/playlist2git/pkg/config"
	"github.com/toozej/playlist2git/pkg/logger"
	"github.com/toozej/playlist2git/pkg/man"
	"github.com/toozej/playlist2git/pkg/version"
)

// conf holds the application configuration loaded from environment variables.
// It is populated before every command runs and can be modified by command-line flags.
var (
	conf config.Config
	// debug controls the logging level for the application.
	// When true, debug-level logging is enabled through logrus.
	debug bool
)

// rootCmd defines the base command for the playlist2git CLI application.
// It serves as the entry point for all command-line operations and establishes
// the application's structure, flags, and subcommands.
var rootCmd = &cobra.Command{
	Use:              "playlist2git",
	Short:            "Snapshot Spotify playlists into a git repository",
	Long:             `playlist2git writes every playlist of a Spotify account, plus Liked Songs, to diff-friendly text logs, commits them on a batch branch, and publishes the batch to the playlist repository through an automatically merged pull request.`,
	Args:             cobra.ExactArgs(0),
	PersistentPreRun: rootCmdPreRun,
	Run:              rootCmdRun,
}

// rootCmdRun is the main execution function for the root command.
func rootCmdRun(cmd *cobra.Command, args []string) {
	log.Info("Use 'playlist2git sync' to snapshot your playlists")
	log.Info("Use 'playlist2git search <query>' to search the playlist logs")
}

// rootCmdPreRun loads the configuration and configures logging before any
// command runs. The --debug flag forces debug-level logging.
func rootCmdPreRun(cmd *cobra.Command, args []string) {
	conf = config.GetEnvVars()
	logger.Configure(log.StandardLogger(), logger.Config{
		Level:  conf.Log.Level,
		Format: conf.Log.Format,
		Debug:  debug,
	})
}

// Execute starts the command-line interface execution.
// If command execution fails, it prints the error message and exits with status 1.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}
}

func init() {
	// create rootCmd-level flags
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug-level logging")

	// add sub-commands
	rootCmd.AddCommand(
		newSyncCmd(),
		newSearchCmd(),
		man.NewManCmd(),
		version.Command(),
	)
}
