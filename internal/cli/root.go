package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"yada/config"
	"yada/pkg/logging"
)

var (
	cfgFile  string
	cfg      *config.Config
	rootDir  string
	userName string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "yada",
	Short: "Yet Another Diet Assistant - track foods, daily calories and targets",
	Long: `yada keeps a catalog of basic and composite foods, a per-day food log with
undo, and a profile used to compute a daily calorie target.

Example usage:
  yada food search fruit              # Find foods by keyword
  yada log add pb_sandwich -n 2       # Log two servings for today
  yada log show                       # Today's entries against the target
  yada log undo                       # Revert the last log change`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			if err := config.LoadDotEnv(rootDir); err != nil {
				return err
			}
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if userName != "" {
			cfg.User = userName
		}
		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}
		logging.Setup(cfg.Logging.Level, cmd.ErrOrStderr())
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./yada.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "project directory (default is current directory)")
	rootCmd.PersistentFlags().StringVarP(&userName, "user", "u", "", "user whose log and profile to use")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
}

func GetConfig() *config.Config {
	return cfg
}

func GetRootDir() string {
	return rootDir
}
