package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-layouts/pkg/prompt"
	"github.com/goliatone/go-layouts/pkg/registry"
)

func newFillCmd(root *rootOptions) *cobra.Command {
	var user userFlags

	cmd := &cobra.Command{
		Use:   "fill <module.context>",
		Short: "Prompt for the visible fields of a layout and print the answers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			module, context, err := registry.SplitKey(args[0])
			if err != nil {
				return err
			}
			a, err := root.newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			l, ok, err := a.Manager.Get(ctx, module, context, user.user())
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("layout %q is not registered", args[0])
			}

			filler := prompt.New(
				prompt.WithDriver(prompt.SurveyDriver{Out: os.Stderr}),
				prompt.WithWidgets(a.Widgets),
			)
			values, err := filler.Fill(ctx, a.Manager.Render(ctx, l))
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(values)
		},
	}
	user.bind(cmd)
	return cmd
}
