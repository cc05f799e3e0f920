// Command cleanarchguard checks that module packages respect the
// domain -> services -> presentation/infrastructure layering.
package main

import (
	"os"

	"github.com/roblaszczak/go-cleanarch/cleanarch"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/koinonia-app/koinonia/pkg/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		debug      bool
	)
	cmd := &cobra.Command{
		Use:          "cleanarchguard",
		Short:        "Validate module layering with go-cleanarch",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			level := logrus.InfoLevel
			if debug {
				level = logrus.DebugLevel
				cleanarch.Log.SetOutput(os.Stderr)
			}
			logger := logging.ConsoleLogger(level)

			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			violations, err := check(cfg)
			if err != nil {
				return err
			}
			if len(violations) > 0 {
				for _, v := range violations {
					logger.WithField("config", configPath).Error(v)
				}
				return errLayering(len(violations))
			}
			logger.Info("layering check passed")
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", ".gocleanarch.yml", "Path to the guard configuration")
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable go-cleanarch debug output")
	return cmd
}

// check runs the validator and returns the violations not excused by cfg.
func check(cfg *config) ([]string, error) {
	root, err := resolveRoot(cfg.Root)
	if err != nil {
		return nil, err
	}
	validator := cleanarch.NewValidator(cfg.layers())
	ok, errs, err := validator.Validate(root, cfg.IgnoreTests, cfg.IgnorePackages)
	if err != nil {
		return nil, err
	}
	if ok {
		return nil, nil
	}
	messages := make([]string, 0, len(errs))
	for _, e := range errs {
		messages = append(messages, e.Error())
	}
	return cfg.filter(messages), nil
}
