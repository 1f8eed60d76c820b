package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mensylisir/xmstack/menu"
	"github.com/mensylisir/xmstack/runtime"
)

func newConsoleCommand(args *runtime.CliArgs) *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Open the interactive menu (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConsole(cmd, args)
		},
	}
}

func runConsole(cmd *cobra.Command, args *runtime.CliArgs) error {
	s, err := newSession(cmd, args)
	if err != nil {
		return err
	}
	defer s.close()

	sections, err := s.sections()
	if err != nil {
		return err
	}
	prompter := menu.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
	return menu.NewController(s.rt, sections, prompter, s.log).Run(cmd.Context())
}
