package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/daviddao/permmatch/internal/config"
	"github.com/daviddao/permmatch/internal/db"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Write or print the matching heuristics config",
}

var configInitCmd = &cobra.Command{
	Use:   "init [PATH]",
	Short: "Write the default config (default: .permmatch/config.yaml)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var path string
		if len(args) == 1 {
			path = args[0]
		} else {
			root := db.FindProjectRoot()
			if root == "" {
				root = "."
			}
			path = filepath.Join(root, db.Dir, config.FileName)
		}
		if err := config.WriteDefault(path, configForce); err != nil {
			return err
		}
		if !quietFlag {
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		}
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective config (defaults, file and PM_ environment)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), settings)
		}
		out, err := settings.YAML()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
