package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/furlinter/furlint/lint"
)

// initCmd: furlint init
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new linter configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := initConfigurationFile(cfgFile)
		if err != nil {
			return fmt.Errorf("error initializing config file: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Configuration file created/updated: %s\n", path)
		return nil
	},
}

func initConfigurationFile(configurationPath string) (string, error) {
	if configurationPath == "" {
		configurationPath = lint.DefaultConfigFile
	}
	if err := lint.WriteConfig(configurationPath, lint.DefaultConfig()); err != nil {
		return "", err
	}
	return configurationPath, nil
}
