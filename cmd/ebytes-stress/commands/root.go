package commands

import (
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ebytes-stress",
	Short: "Concurrency stress test for ebytes handles",
	Long: `ebytes-stress shares one pooled buffer across many goroutines that
clone, slice, mutate and release it concurrently.

Every allocation goes through a counting allocator; the run fails if any
backing array is freed twice, leaked, or if a writer is ever observed
through another handle.`,
	SilenceUsage: true,
}

// Command returns the root cobra command for mounting into a parent CLI.
func Command() *cobra.Command {
	return rootCmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(runCmd)
}
