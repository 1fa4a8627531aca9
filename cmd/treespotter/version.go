package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/treespotter"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of treespotter",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "treespotter version %s\n", strings.TrimSpace(treespotter.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
