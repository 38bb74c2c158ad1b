// Package cli implements the dingwecker command-line interface using Cobra.
package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"dingwecker/config"
	"dingwecker/log"
)

var (
	configPath string
	verbose    bool
	jsonOut    bool
)

var rootCmd = &cobra.Command{
	Use:   "dingwecker",
	Short: "Alarm clock that opens DingTalk after a random delay",
	Long: `dingwecker is a terminal alarm clock. When an alarm fires it counts down a
random delay, opens the target application, counts down again and brings
itself back to the foreground.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		interactive := false
		if f := cmd.Flags().Lookup("headless"); f != nil {
			headless, _ := cmd.Flags().GetBool("headless")
			interactive = !headless
		}

		if err := log.Init(log.Options{
			Verbose:       verbose,
			JSONFormat:    jsonOut,
			Interactive:   interactive,
			Dir:           filepath.Join(filepath.Dir(resolvedConfigPath()), "logs"),
			RetentionDays: 14,
			Stderr:        cmd.ErrOrStderr(),
		}); err != nil {
			cmd.PrintErrf("Warning: failed to initialize file logging: %v\n", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		log.Close()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "configuration file (default ~/.dingwecker/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "output in JSON format")
}

func resolvedConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultPath()
}

func loadConfig() (*config.Config, error) {
	return config.LoadFrom(resolvedConfigPath())
}
