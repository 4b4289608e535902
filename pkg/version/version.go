// Package version exposes build metadata injected through -ldflags.
package version

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Build metadata, overridden at link time:
//
//	go build -ldflags "-X github.com/toozej/playlist2git/pkg/version.Version=v1.2.3"
var (
	Version = "local"
	Commit  = "none"
	Branch  = "none"
	BuiltAt = "unknown"
	Builder = "unknown"
)

// Info is the printable form of the build metadata.
type Info struct {
	Version string
	Commit  string
	Branch  string
	BuiltAt string
	Builder string
}

// Get returns the current build metadata.
func Get() Info {
	return Info{
		Version: Version,
		Commit:  Commit,
		Branch:  Branch,
		BuiltAt: BuiltAt,
		Builder: Builder,
	}
}

func (i Info) String() string {
	return fmt.Sprintf("Version: %s\nCommit: %s\nBranch: %s\nBuiltAt: %s\nBuilder: %s", i.Version, i.Commit, i.Branch, i.BuiltAt, i.Builder)
}

// Command returns the "version" command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of playlist2git",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), Get().String())
		},
	}
}
