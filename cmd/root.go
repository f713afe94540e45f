// -- cmd/root.go --
package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/gallodest/tweetframe/internal/config"
	"github.com/gallodest/tweetframe/internal/observability"
)

var (
	cfgFile string
	// appCfg is the fully resolved configuration, populated before any
	// subcommand runs.
	appCfg *config.Config
	// loggerReady flips once InitializeLogger has run, so failure reporting
	// knows whether the global logger exists yet.
	loggerReady bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tweetframe",
	Short: "Tweetframe captures clean screenshots and media from tweets.",
	// Version is dynamically set at build time. See cmd/version.go.
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// This function runs before any command, setting up config and logging.
		if err := initializeConfig(); err != nil {
			return err
		}

		cfg, err := config.NewConfigFromViper(viper.GetViper())
		if err != nil {
			// Initialize a fallback logger so the failure is still reported
			// through the normal channel.
			observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "tweetframe"})
			loggerReady = true
			return fmt.Errorf("failed to load config: %w", err)
		}
		appCfg = cfg

		observability.InitializeLogger(cfg.Logger)
		loggerReady = true

		observability.GetLogger().Info("Starting tweetframe", zap.String("version", Version))
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := execute(); err != nil {
		os.Exit(1)
	}
}

// execute runs the root command and flushes buffered log entries before the
// process can exit. Kept separate from Execute so tests reach the error path
// without os.Exit.
func execute() error {
	err := rootCmd.Execute()
	if err != nil {
		reportFailure(os.Stderr, err)
	}
	observability.Sync()
	return err
}

// reportFailure routes a fatal command error through the global logger once
// it exists, and to w before that.
func reportFailure(w io.Writer, err error) {
	if loggerReady {
		observability.GetLogger().Error("Command execution failed", zap.Error(err))
		return
	}
	fmt.Fprintln(w, err)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// initializeConfig reads in config file and ENV variables if set.
func initializeConfig() error {
	config.SetDefaults(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("TWEETFRAME")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; proceed with defaults/env vars
	}
	return nil
}
