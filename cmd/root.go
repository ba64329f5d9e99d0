// Package cmd implements the puzzlewatch command-line interface.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jonesrussell/north-cloud/puzzlewatch/cmd/common"
	"github.com/jonesrussell/north-cloud/puzzlewatch/cmd/puzzles"
	cmdstate "github.com/jonesrussell/north-cloud/puzzlewatch/cmd/state"
	"github.com/jonesrussell/north-cloud/puzzlewatch/cmd/video"
	"github.com/jonesrussell/north-cloud/puzzlewatch/cmd/watch"
	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/config"
)

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "puzzlewatch",
		Short: "Email alerts for new puzzle videos and portal puzzles",
		Long: `puzzlewatch polls a YouTube channel and puzzle-portal searches and
sends an email when something new appears.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	// Load .env early so the legacy variable names are visible to viper.
	_ = godotenv.Load()

	_ = rootCmd.ParseFlags(os.Args[1:])

	if err := initConfig(); err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}

	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"config file (default is ./config.yaml or ./config/config.yaml)",
	)
	rootCmd.PersistentFlags().BoolVar(&common.Debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "puzzlewatch version %s\n", common.Version)
		},
	})

	rootCmd.AddCommand(watch.Command())
	rootCmd.AddCommand(cmdstate.Command())
	rootCmd.AddCommand(video.Command())
	rootCmd.AddCommand(puzzles.Command())
}

// initConfig reads the config file and environment.
func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
	}

	config.SetDefaults(viper.GetViper())

	// The config file is optional; environment variables are enough.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	if err := viper.BindPFlag("logging.development", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		return fmt.Errorf("failed to bind debug flag: %w", err)
	}
	return nil
}
