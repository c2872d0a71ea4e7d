package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"graft/internal/config"
	"graft/internal/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	config     string
	reportsDir string
}

// cfg is loaded by the persistent pre-run and shared by every subcommand.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "graft",
	Short: "Self-healing locators for browser test suites",
	Long: "Graft repairs broken UI locators at test runtime using an LLM and keeps\n" +
		"the evidence: per-run event files, a merged summary and an HTML report.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		c, err := config.Load(rootFlags.config)
		if err != nil {
			return err
		}
		if rootFlags.reportsDir != "" {
			c.ReportsDir = rootFlags.reportsDir
		}
		level, err := logging.ParseLevel(c.LogLevel)
		if err != nil {
			return err
		}
		// Stderr keeps stdout clean for table output and the MCP transport.
		logging.Init(level, c.LogFormat, os.Stderr)
		cfg = c
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.config, "config", "graft.yaml", "Config file (YAML or JSON); a missing file means defaults")
	pf.StringVar(&rootFlags.reportsDir, "reports-dir", "", "Override the reports directory from the config")
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
