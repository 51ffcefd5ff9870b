package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "reservoir v%s\n", Version)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "built %s from %s\n", BuildDate, GitCommit)
		},
	}
}
