package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mensylisir/xmstack/menu"
	"github.com/mensylisir/xmstack/runtime"
)

func newValidateCommand(args *runtime.CliArgs) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load the configuration and report every error",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newSession(cmd, args)
			if err != nil {
				return err
			}
			defer s.close()

			if _, err := s.sections(); err != nil {
				return err
			}

			cfg := s.rt.Config()
			fmt.Fprintln(cmd.OutOrStdout(), menu.SuccessMsg("%s is valid: %d sections, %d components",
				cfg.Metadata.Name, len(cfg.Spec.Sections), len(cfg.Spec.Components)))
			return nil
		},
	}
}
