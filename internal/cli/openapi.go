package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-layouts/pkg/authz"
	"github.com/goliatone/go-layouts/pkg/builder"
	"github.com/goliatone/go-layouts/pkg/openapi"
	"github.com/goliatone/go-layouts/pkg/render"
)

func newOpenAPICmd(_ *rootOptions) *cobra.Command {
	var (
		operation string
		module    string
		format    string
	)

	cmd := &cobra.Command{
		Use:   "openapi <file|url>",
		Short: "Lay out the request body of an OpenAPI operation",
		Long: `Derive a layout from the request body schema of an OpenAPI 3 operation.
Property order, visibility and requirements come from x-layout extensions.
Without --operation the available operation ids are listed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			source := args[0]

			var (
				doc *openapi.Document
				err error
			)
			if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
				doc, err = openapi.LoadURL(ctx, source)
			} else {
				doc, err = openapi.LoadFile(ctx, source)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if operation == "" {
				printTitle(out, doc.Title())
				for _, id := range doc.OperationIDs() {
					op, _ := doc.Operation(id)
					printKeyValue(out, op.Method, id+"  "+op.Path)
				}
				return nil
			}

			cb, err := doc.Callback(operation)
			if err != nil {
				return err
			}
			renderer, err := render.Default().Get(format)
			if err != nil {
				return err
			}
			l, err := builder.Run(module, operation, cb)
			if err != nil {
				return fmt.Errorf("openapi: %s: %w", operation, err)
			}
			l.ResolveAuthorization(ctx, authz.AllowAll, nil)
			data, err := renderer.Render(ctx, l.ToView())
			if err != nil {
				return err
			}
			_, err = out.Write(data)
			return err
		},
	}
	cmd.Flags().StringVarP(&operation, "operation", "o", "", "operation id to lay out")
	cmd.Flags().StringVarP(&module, "module", "m", "api", "module name of the generated layout")
	cmd.Flags().StringVarP(&format, "format", "f", "tree", "output format (json, yaml or tree)")
	return cmd
}
