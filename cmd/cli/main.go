package main

import (
	"fmt"
	"os"
	_ "time/tzdata"

	"github.com/spf13/cobra"

	"battery-arbitrage/internal/config"
	"battery-arbitrage/internal/logger"
)

var (
	cfgPath   string
	logLevel  string
	dataPaths string
)

var rootCmd = &cobra.Command{
	Use:   "cli",
	Short: "Battery arbitrage backtesting",
	Long: `Backtest battery arbitrage strategies against historical spot prices.

Price files are CSV (datetime,spot_price[,region]) or JSON
([{"start":...,"price":...}]). Results are written as a per-period ledger.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logger.SetLevel(logLevel)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "YAML config (defaults apply when empty)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "debug, info, warn or error")
	rootCmd.PersistentFlags().StringVarP(&dataPaths, "data", "d", "examples/sample_data.csv", "price file(s) or directories, comma-separated")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads --config, or returns the defaults when it is unset.
func loadConfig() (*config.Config, error) {
	if cfgPath == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
