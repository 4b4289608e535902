// Package man provides a hidden command that renders the CLI as a roff man page.
package man

import (
	"fmt"
	"os"

	mcobra "github.com/muesli/mango-cobra"
	"github.com/muesli/roff"
	"github.com/spf13/cobra"
)

// NewManCmd returns the "man" command, which writes the man page for the root
// command tree to stdout.
func NewManCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "man",
		Short:                 "Generates playlist2git's command line manpages",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Hidden:                true,
		Args:                  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := Render(cmd.Root())
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(os.Stdout, page)
			return err
		},
	}
}

// Render builds the man page for root.
func Render(root *cobra.Command) (string, error) {
	manPage, err := mcobra.NewManPage(1, root)
	if err != nil {
		return "", err
	}
	return manPage.Build(roff.NewDocument()), nil
}
