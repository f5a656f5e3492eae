package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath  string
	addr        string
	logLevel    string
	storageKind string
)

var rootCmd = &cobra.Command{
	Use:          "lumen-server",
	Short:        "Run a lumen channel server",
	SilenceUsage: true,
	RunE:         runServer,
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "TOML config file (default $LUMEN_CONFIG)")
	rootCmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides the config")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error, overrides the config")
	rootCmd.Flags().StringVar(&storageKind, "storage", "", "file, postgres or s3, overrides the config")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
