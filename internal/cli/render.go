package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-layouts/internal/app"
	"github.com/goliatone/go-layouts/pkg/authz"
	"github.com/goliatone/go-layouts/pkg/prompt"
	"github.com/goliatone/go-layouts/pkg/registry"
)

type userFlags struct {
	id          string
	roles       []string
	permissions []string
}

func (f *userFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.id, "user", "", "user id (anonymous when empty)")
	cmd.Flags().StringSliceVar(&f.roles, "roles", nil, "comma separated user roles")
	cmd.Flags().StringSliceVar(&f.permissions, "permissions", nil, "comma separated user permissions")
}

func (f *userFlags) user() *authz.User {
	if strings.TrimSpace(f.id) == "" {
		return nil
	}
	return &authz.User{
		ID:          f.id,
		Roles:       authz.Normalize(f.roles),
		Permissions: authz.Normalize(f.permissions),
	}
}

func newRenderCmd(root *rootOptions) *cobra.Command {
	var (
		user   userFlags
		format string
		fresh  bool
	)

	cmd := &cobra.Command{
		Use:   "render [module.context]",
		Short: "Build a layout and print it for a user",
		Long: `Build a registered layout, resolve authorization for the given user
and print the visible components. Without a key an interactive picker
lists the registered layouts.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := root.newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			key := ""
			if len(args) == 1 {
				key = args[0]
			} else if key, err = pickLayout(cmd, a); err != nil {
				return err
			}
			return renderLayout(cmd, a, key, user.user(), format, fresh)
		},
	}
	user.bind(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "tree", "output format (json, yaml or tree)")
	cmd.Flags().BoolVar(&fresh, "fresh", false, "bypass the layout cache")
	return cmd
}

func renderLayout(cmd *cobra.Command, a *app.App, key string, user *authz.User, format string, fresh bool) error {
	module, context, err := registry.SplitKey(key)
	if err != nil {
		return err
	}
	renderer, err := a.Renderers.Get(format)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	get := a.Manager.Get
	if fresh {
		get = a.Manager.Fresh
	}
	l, ok, err := get(ctx, module, context, user)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("layout %q is not registered", key)
	}
	loggerFromContext(ctx).Debug("layout built", "key", key, "user", user.CacheID())

	data, err := renderer.Render(ctx, a.Manager.Render(ctx, l))
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func pickLayout(cmd *cobra.Command, a *app.App) (string, error) {
	keys := a.Manager.Registry().Keys()
	if len(keys) == 0 {
		return "", fmt.Errorf("no layouts registered")
	}
	driver := prompt.SurveyDriver{Out: os.Stderr}
	idx, err := driver.Select(cmd.Context(), prompt.SelectConfig{
		Message:  "Layout",
		Options:  keys,
		PageSize: 15,
	})
	if err != nil {
		return "", err
	}
	return keys[idx], nil
}
