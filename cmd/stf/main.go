// stf is offline tooling for the trusted operation engine: keys, signed
// calls, storage keys, storage proofs and an in-memory demo.
package main

import (
	"fmt"
	"os"

	"github.com/colorfulnotion/sidechain/common"
	"github.com/colorfulnotion/sidechain/engine"
	log "github.com/colorfulnotion/sidechain/log"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	var (
		logLevel     string
		debugModules string
		configPath   string
		cfg          = engine.DefaultConfig()
	)

	var rootCmd = &cobra.Command{
		Use:   "stf",
		Short: "Trusted operation tooling for the sidechain enclave",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			log.InitLogger(logLevel)
			log.EnableModules(debugModules)
			if configPath == "" {
				return nil
			}
			loaded, err := engine.LoadConfig(configPath)
			if err != nil {
				return err
			}
			cfg = loaded
			if !cmd.Flags().Changed("log-level") && cfg.LogLevel != "" {
				log.InitLogger(cfg.LogLevel)
			}
			if cfg.Debug != "" {
				log.EnableModules(cfg.Debug)
			}
			return nil
		},
		SilenceUsage: true,
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (trace, debug, info, warn, error, crit)")
	rootCmd.PersistentFlags().StringVar(&debugModules, "debug", "", "Debug modules to enable, e.g. stf_mod,getter_mod")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a JSON engine config")

	var versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("stf %s (commit %s, built %s)\n", Version, common.GetCommitHash(), BuildTime)
		},
	}

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(keygenCmd())
	rootCmd.AddCommand(signCallCmd(&cfg))
	rootCmd.AddCommand(verifyCallCmd(&cfg))
	rootCmd.AddCommand(storageKeyCmd())
	rootCmd.AddCommand(verifyProofCmd())
	rootCmd.AddCommand(demoCmd(&cfg))

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
