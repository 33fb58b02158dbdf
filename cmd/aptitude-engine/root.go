package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// version is set via -ldflags at build time.
var version = "(devel)"

var rootCmd = &cobra.Command{
	Use:           "aptitude-engine",
	Short:         "Aptitude test practice backend",
	Long:          "aptitude-engine serves the topic catalog, timed assessments, score history and profiles for the aptitude practice app.",
	SilenceUsage:  true,
	SilenceErrors: false,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "aptitude-engine", version)
	},
}

func init() {
	rootCmd.PersistentFlags().String("catalog", "", "Catalog directory (overrides CATALOG_DIR)")
	rootCmd.PersistentFlags().String("migrations", "", "Migrations directory (overrides MIGRATIONS_DIR, default: embedded)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(versionCmd)
}

// setupLogging installs the JSON slog handler as the default logger
func setupLogging(level slog.Level) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}

// flagOr returns the named string flag when set, otherwise fallback
func flagOr(cmd *cobra.Command, name, fallback string) string {
	if v, _ := cmd.Flags().GetString(name); v != "" {
		return v
	}
	return fallback
}
