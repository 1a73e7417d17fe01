// Package cli implements the layoutctl command-line interface.
//
// Commands load the service configuration (--config, YAML, JSON or TOML),
// wire the layout manager and either render layouts locally or serve them
// over HTTP:
//   - render: build and print one layout for a user
//   - list: show registered layouts
//   - validate: check configuration and definition files
//   - device: classify a User-Agent or viewport width
//   - openapi: lay out the request body of an OpenAPI operation
//   - fill: prompt for the fields of a layout in the terminal
//   - serve: run the HTTP service
package cli

import (
	"context"
	"fmt"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-layouts/internal/app"
	"github.com/goliatone/go-layouts/pkg/config"
)

var version = "dev"

// SetVersion sets the version reported by --version.
func SetVersion(v string) {
	version = v
}

type rootOptions struct {
	configPath string
	verbose    bool
	cfg        *config.Config
}

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().ExecuteContext(context.Background())
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:          "layoutctl",
		Short:        "Build, inspect and serve permission-aware UI layouts",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := charmlog.InfoLevel
			if opts.verbose {
				level = charmlog.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(cmd.ErrOrStderr(), level)))

			cfg := config.Default()
			if opts.configPath != "" {
				loaded, err := config.Load(opts.configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			if opts.verbose {
				cfg.Logging.Level = "debug"
			}
			opts.cfg = cfg
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", os.Getenv("LAYOUTS_CONFIG"), "configuration file (yaml, json or toml)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newRenderCmd(opts))
	root.AddCommand(newListCmd(opts))
	root.AddCommand(newValidateCmd(opts))
	root.AddCommand(newDeviceCmd(opts))
	root.AddCommand(newOpenAPICmd(opts))
	root.AddCommand(newFillCmd(opts))
	root.AddCommand(newServeCmd(opts))

	return root
}

// newApp wires the service. Library logs go through zerolog on stderr.
func (o *rootOptions) newApp(cmd *cobra.Command) (*app.App, error) {
	logger := app.NewLogger(o.cfg.Logging, cmd.ErrOrStderr())
	if !o.verbose && o.cfg.Logging.Level == "info" {
		logger = logger.Level(zerolog.WarnLevel)
	}
	a, err := app.New(cmd.Context(), o.cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("layoutctl: %w", err)
	}
	return a, nil
}
