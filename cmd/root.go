package cmd

import (
	"fmt"
	"os"

	"github.com/linkvet/linkvet/internal/logging"
	"github.com/linkvet/linkvet/pkg/config"
	"github.com/spf13/cobra"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "linkvet",
		Short: "Verifies that every link in a markdown document is reachable.",
		Long: `linkvet checks every hyperlink and image reference in a markdown
document, retrying flaky URLs and caching known-good results across runs
so repeated invocations only re-verify what previously failed.`,
		// A run with failing URLs already printed its diagnostics; keep
		// cobra from restating the error or dumping usage on top of them.
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	// Initialize Viper configuration.
	cobra.OnInitialize(config.InitConfig)

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.linkvet/config.yaml)")

	cmd.AddCommand(newCheckCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	// Initialize the logger once at the very start.
	logging.InitLogger()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
