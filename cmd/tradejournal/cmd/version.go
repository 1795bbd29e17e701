package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is overridden at link time with -ldflags "-X .../cmd.version=...".
var version = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the current version of the tradejournal CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "tradejournal version %s\n", version)
		fmt.Fprintln(out, "A stock trade journal that rates every execution")
		fmt.Fprintln(out, "https://github.com/rustyeddy/tradejournal")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
