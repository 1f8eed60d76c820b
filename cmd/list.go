package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mensylisir/xmstack/menu"
	"github.com/mensylisir/xmstack/runtime"
)

func newListCommand(args *runtime.CliArgs) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List sections, steps and components",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(args)
			if err != nil {
				return err
			}
			menu.RenderList(cmd.OutOrStdout(), cfg)
			return nil
		},
	}
}
