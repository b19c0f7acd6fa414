package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var (
	initDriver string
	initForce  bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a yada.yaml with the current settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := filepath.Join(rootDir, "yada.yaml")
		if _, err := os.Stat(path); err == nil && !initForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}

		if initDriver != "" {
			cfg.Storage.Driver = initDriver
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := cfg.Save(path); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}

func init() {
	initCmd.Flags().StringVar(&initDriver, "driver", "", "storage driver: bolt, sqlite or memory")
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing yada.yaml")
	rootCmd.AddCommand(initCmd)
}
