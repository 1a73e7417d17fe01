package cli

import (
	"github.com/spf13/cobra"
)

func newListCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered layouts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := root.newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			keys := a.Manager.Registry().Keys()
			if len(keys) == 0 {
				printError(out, "no layouts registered")
				return nil
			}
			printTitle(out, "Layouts")
			for _, key := range keys {
				source := "code"
				if a.IsDefinition(key) {
					source = "file"
				}
				printKeyValue(out, source, key)
			}
			return nil
		},
	}
}
