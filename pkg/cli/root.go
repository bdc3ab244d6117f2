package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Persistent flags available to all subcommands
	configPath string
	logLevel   string
	logFormat  string

	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fixturegen",
	Short: "fixturegen generates deterministic synthetic data from model definitions",
	Long: `fixturegen generates synthetic JSON samples, JSON Schemas, and Go test
fixtures from declarative model definitions or imported OpenAPI components.

Equal seeds and configurations always produce identical output. Configuration
can be provided via flags or a fixturegen.yaml file at the project root.`,
	SilenceUsage:  true,
	SilenceErrors: true, // Errors are handled in Execute()
}

// Execute runs the root command. Called once by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to fixturegen.yaml (default: ./fixturegen.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text, json)")
}
