package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mensylisir/xmstack/component"
	"github.com/mensylisir/xmstack/menu"
	"github.com/mensylisir/xmstack/runtime"
)

func newComponentCommand(args *runtime.CliArgs) *cobra.Command {
	return &cobra.Command{
		Use:   "component <name> [deploy|cleanup]",
		Short: "Deploy or clean up one catalog component",
		Long: `Deploy or clean up one catalog component.

deploy (the default) checks prerequisites, imports the image into containerd,
applies the manifests, waits for readiness and prints the access URLs.
cleanup deletes the manifests in reverse order and drops the cached image.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, argv []string) error {
			var word string
			if len(argv) == 2 {
				word = argv[1]
			}
			action, err := component.ParseAction(word)
			if err != nil {
				_ = cmd.Usage()
				return err
			}

			s, err := newSession(cmd, args)
			if err != nil {
				return err
			}
			defer s.close()

			c, err := component.Lookup(s.rt.Config(), argv[0])
			if err != nil {
				return err
			}
			res, err := c.Run(cmd.Context(), s.rt, s.log, action)
			if err != nil {
				return err
			}
			menu.RenderSummary(cmd.OutOrStdout(), res)
			if !res.Succeeded() {
				return fmt.Errorf("%s %s failed: %w", action, c.Name(), res.CombinedError())
			}
			return nil
		},
	}
}
