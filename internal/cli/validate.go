package cli

import (
	"github.com/spf13/cobra"

	"github.com/goliatone/go-layouts/pkg/definition"
)

func newValidateCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [dir]",
		Short: "Check the configuration and layout definition files",
		Long: `Validate the configuration and load every definition file, building
each layout once. The definitions directory defaults to definitions.dir.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if err := root.cfg.Validate(); err != nil {
				printError(out, "configuration: %v", err)
				return err
			}
			printSuccess(out, "configuration is valid")

			dir := root.cfg.Definitions.Dir
			if len(args) == 1 {
				dir = args[0]
			}
			if dir == "" {
				return nil
			}
			defs, err := definition.LoadDir(dir)
			if err != nil {
				printError(out, "%v", err)
				return err
			}
			for _, key := range defs.Keys() {
				def, _ := defs.Get(key)
				printKeyValue(out, key, def.Source)
			}
			printSuccess(out, "%d layout definitions are valid", defs.Len())
			return nil
		},
	}
}
