package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hugo-lorenzo-mato/taskflow/internal/config"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string
	defsFile  string

	// Version info - set via SetVersion()
	appVersion string
	appCommit  string
	appDate    string

	// appConfig is loaded before every command runs.
	appConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "taskflow",
	Short: "Run dependency-aware workflows",
	Long: `taskflow executes workflows of named tasks in dependency order.

Workflows are defined in a YAML file. Each task runs a built-in action and
may depend on other tasks; a task runs once all of its dependencies have
finished, whether they succeeded or failed.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		appConfig = cfg
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func SetVersion(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

// GetVersion returns the application version string.
func GetVersion() string {
	return appVersion
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ./.taskflow.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "auto",
		"log format (auto, text, json)")
	rootCmd.PersistentFlags().StringVarP(&defsFile, "file", "f", "workflows.yaml",
		"workflow definitions file")
}

// flagKeys maps command-line flags to config keys. Only flags present on
// the running command are bound.
var flagKeys = map[string]string{
	"log-level":   "log.level",
	"log-format":  "log.format",
	"file":        "definitions.path",
	"output":      "report.format",
	"report-dir":  "report.dir",
	"timeout":     "engine.task_timeout",
	"skip-failed": "engine.skip_on_failed_dependency",
	"host":        "server.host",
	"port":        "server.port",
	"watch":       "definitions.watch",
}

// loadConfig reads configuration with a fresh viper instance so repeated
// executions do not share state.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v := viper.New()
	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("binding --%s: %w", name, err)
			}
		}
	}

	loader := config.NewLoaderWithViper(v)
	if cfgFile != "" {
		loader.WithConfigFile(cfgFile)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
